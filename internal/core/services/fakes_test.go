package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

// memStore is an in-memory survey, response and ledger store guarded by one
// mutex, so Commit is trivially serializable.
type memStore struct {
	mu          sync.Mutex
	surveys     map[uuid.UUID]*domain.Survey
	respondents map[uuid.UUID]*domain.Respondent
	responses   []*domain.Response

	// conflicts makes the next N commits fail with a transient conflict.
	conflicts int
	commits   int
}

func newMemStore() *memStore {
	return &memStore{
		surveys:     make(map[uuid.UUID]*domain.Survey),
		respondents: make(map[uuid.UUID]*domain.Respondent),
	}
}

func (m *memStore) Save(_ context.Context, s *domain.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.surveys[s.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surveys[id]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) GetByShareCode(_ context.Context, code string) (*domain.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.surveys {
		if s.ShareCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSurveyNotFound
}

func (m *memStore) ListActive(_ context.Context) ([]*domain.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Survey
	for _, s := range m.surveys {
		if s.Status == domain.SurveyActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.SurveyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surveys[id]
	if !ok {
		return domain.ErrSurveyNotFound
	}
	s.Status = status
	return nil
}

func (m *memStore) HasResponded(_ context.Context, surveyID uuid.UUID, identity domain.RespondentIdentity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.resolveLocked(identity)
	if !ok {
		return false, nil
	}
	return m.respondedLocked(surveyID, id), nil
}

func (m *memStore) ListBySurvey(_ context.Context, surveyID uuid.UUID, r domain.DateRange) ([]*domain.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Response
	for _, resp := range m.responses {
		if resp.SurveyID != surveyID {
			continue
		}
		if !r.From.IsZero() && resp.SubmittedAt.Before(r.From) {
			continue
		}
		if !r.To.IsZero() && !resp.SubmittedAt.Before(r.To.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, resp)
	}
	return out, nil
}

func (m *memStore) Commit(_ context.Context, unit ports.SubmissionUnit) (*domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++

	if m.conflicts > 0 {
		m.conflicts--
		return nil, domain.ErrTransientConflict
	}

	survey, ok := m.surveys[unit.SurveyID]
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}

	respondentID, known := m.resolveLocked(unit.Respondent)
	if unit.Respondent.IsRegistered() && !known {
		return nil, domain.ErrRespondentNotFound
	}
	if err := unit.Guard(survey, known && m.respondedLocked(survey.ID, respondentID)); err != nil {
		return nil, err
	}
	if !known {
		respondentID = uuid.New()
		m.respondents[respondentID] = &domain.Respondent{
			ID:          respondentID,
			Kind:        domain.RespondentEphemeral,
			DisplayName: unit.Respondent.DisplayName,
			Contact:     unit.Respondent.Contact,
		}
	}
	respondent := m.respondents[respondentID]

	resp := &domain.Response{
		ID:                uuid.New(),
		SurveyID:          survey.ID,
		RespondentID:      respondentID,
		Answers:           unit.Answers,
		SubmittedAt:       unit.SubmittedAt,
		Timezone:          unit.Timezone,
		RespondentName:    respondent.DisplayName,
		RespondentContact: respondent.Contact,
	}
	reward := decimal.Zero
	if survey.Paid() && unit.Respondent.IsRegistered() && respondent.Kind == domain.RespondentRegistered {
		reward = survey.Reward
		respondent.Balance = respondent.Balance.Add(reward)
		respondent.TotalEarned = respondent.TotalEarned.Add(reward)
		resp.RewardGranted = true
		resp.Reward = reward
	}
	survey.CurrentRespondents++
	m.responses = append(m.responses, resp)

	balance := decimal.Zero
	if unit.Respondent.IsRegistered() {
		balance = respondent.Balance
	}

	return &domain.Receipt{
		ResponseID:     resp.ID,
		RespondentID:   respondentID,
		RewardCredited: reward,
		NewBalance:     balance,
		SubmittedAt:    resp.SubmittedAt,
	}, nil
}

func (m *memStore) resolveLocked(identity domain.RespondentIdentity) (uuid.UUID, bool) {
	if identity.IsRegistered() {
		_, ok := m.respondents[identity.ID]
		return identity.ID, ok
	}
	if identity.Contact == "" {
		return uuid.Nil, false
	}
	for id, r := range m.respondents {
		if r.Contact == identity.Contact {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (m *memStore) respondedLocked(surveyID, respondentID uuid.UUID) bool {
	for _, r := range m.responses {
		if r.SurveyID == surveyID && r.RespondentID == respondentID {
			return true
		}
	}
	return false
}

func (m *memStore) addRespondent(name, contact string) *domain.Respondent {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &domain.Respondent{
		ID:          uuid.New(),
		Kind:        domain.RespondentRegistered,
		DisplayName: name,
		Contact:     contact,
	}
	m.respondents[r.ID] = r
	return r
}

func (m *memStore) respondent(id uuid.UUID) domain.Respondent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.respondents[id]
}

func (m *memStore) survey(id uuid.UUID) domain.Survey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.surveys[id]
}

type memCache struct {
	mu    sync.Mutex
	items map[string]*domain.Aggregate
	sets  int
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string]*domain.Aggregate)}
}

func (c *memCache) Get(_ context.Context, key string) (*domain.Aggregate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key], nil
}

func (c *memCache) Set(_ context.Context, key string, agg *domain.Aggregate, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = agg
	c.sets++
	return nil
}

type countingMetrics struct {
	ports.NopMetrics
	mu       sync.Mutex
	outcomes map[string]int
	retries  int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: make(map[string]int)}
}

func (c *countingMetrics) SubmissionOutcome(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[kind]++
}

func (c *countingMetrics) LedgerRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

func activeSurvey(questions ...domain.Question) *domain.Survey {
	id := uuid.New()
	for i := range questions {
		questions[i].SurveyID = id
	}
	return &domain.Survey{
		ID:             id,
		Title:          "Customer feedback",
		Reward:         decimal.RequireFromString("2.50"),
		MaxRespondents: 10,
		Status:         domain.SurveyActive,
		ShareCode:      "SHARE123",
		Questions:      questions,
		CreatedAt:      time.Now(),
	}
}

func question(text string, typ domain.QuestionType, order int, required bool, options ...string) domain.Question {
	return domain.Question{
		ID:           uuid.New(),
		Text:         text,
		Type:         typ,
		Options:      options,
		Required:     required,
		DisplayOrder: order,
	}
}
