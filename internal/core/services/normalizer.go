package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

type answerRecord struct {
	QuestionID *string         `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

// NormalizeAnswers folds an answer payload into the canonical map. The
// payload is either a list of {questionId, answer} records (last write wins
// on duplicate ids) or an object keyed by question id.
func NormalizeAnswers(raw json.RawMessage) (domain.Answers, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrMalformedAnswerPayload)
	}

	switch trimmed[0] {
	case '[':
		return normalizeList(trimmed)
	case '{':
		return normalizeMap(trimmed)
	default:
		return nil, fmt.Errorf("%w: expected a list or an object", domain.ErrMalformedAnswerPayload)
	}
}

func normalizeList(data []byte) (domain.Answers, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedAnswerPayload, err)
	}

	out := make(domain.Answers, len(records))
	for i, rec := range records {
		var r answerRecord
		if err := json.Unmarshal(rec, &r); err != nil {
			return nil, fmt.Errorf("%w: record %d is not an object", domain.ErrMalformedAnswerPayload, i)
		}
		if r.QuestionID == nil || *r.QuestionID == "" {
			return nil, fmt.Errorf("%w: record %d has no questionId", domain.ErrMalformedAnswerPayload, i)
		}
		ans, present, err := decodeAnswerValue(r.Answer)
		if err != nil {
			return nil, fmt.Errorf("%w: question %s: %v", domain.ErrMalformedAnswerPayload, *r.QuestionID, err)
		}
		if !present {
			delete(out, *r.QuestionID)
			continue
		}
		out[*r.QuestionID] = ans
	}
	return out, nil
}

func normalizeMap(data []byte) (domain.Answers, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedAnswerPayload, err)
	}

	out := make(domain.Answers, len(fields))
	for id, v := range fields {
		if id == "" {
			return nil, fmt.Errorf("%w: empty question id", domain.ErrMalformedAnswerPayload)
		}
		ans, present, err := decodeAnswerValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: question %s: %v", domain.ErrMalformedAnswerPayload, id, err)
		}
		if present {
			out[id] = ans
		}
	}
	return out, nil
}

// decodeAnswerValue type-checks one answer. A missing or null value is
// reported as not present.
func decodeAnswerValue(v json.RawMessage) (domain.Answer, bool, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return domain.Answer{}, false, nil
	}

	if v[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			return domain.Answer{}, false, err
		}
		values := make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarText(item)
			if err != nil {
				return domain.Answer{}, false, err
			}
			values = append(values, s)
		}
		return domain.Multi(values...), true, nil
	}

	s, err := scalarText(v)
	if err != nil {
		return domain.Answer{}, false, err
	}
	return domain.Single(s), true, nil
}

func scalarText(v json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return "", err
	}
	switch t := x.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("unsupported answer value %s", string(v))
	}
}
