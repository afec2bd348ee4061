package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is the canonical value given to one question: either a single
// string or an ordered list of strings from a multi-select.
type Answer struct {
	values []string
	multi  bool
}

func Single(v string) Answer {
	return Answer{values: []string{v}}
}

func Multi(vs ...string) Answer {
	cp := make([]string, len(vs))
	copy(cp, vs)
	return Answer{values: cp, multi: true}
}

func (a Answer) IsMulti() bool { return a.multi }

// Values returns every selected value; a single answer yields one element.
func (a Answer) Values() []string {
	cp := make([]string, len(a.values))
	copy(cp, a.values)
	return cp
}

// Scalar returns the value of a single answer.
func (a Answer) Scalar() (string, bool) {
	if a.multi || len(a.values) == 0 {
		return "", false
	}
	return a.values[0], true
}

// IsEmpty reports whether the answer carries no non-blank value.
func (a Answer) IsEmpty() bool {
	for _, v := range a.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (a Answer) Join(sep string) string {
	return strings.Join(a.values, sep)
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.multi {
		if a.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.values)
	}
	v, _ := a.Scalar()
	return json.Marshal(v)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Single(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("answer must be a string or a list of strings: %w", err)
	}
	*a = Multi(list...)
	return nil
}

// Answers is the canonical answer map keyed by question id.
type Answers map[string]Answer

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *Answers) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Answers{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Answers", src)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// Values that no longer decode are dropped; stored answers are never
	// re-validated.
	out := make(Answers, len(raw))
	for id, v := range raw {
		var ans Answer
		if err := json.Unmarshal(v, &ans); err != nil {
			continue
		}
		out[id] = ans
	}
	*a = out
	return nil
}
