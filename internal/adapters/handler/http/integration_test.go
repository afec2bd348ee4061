package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	rediscache "github.com/vncsmyrnk/surveyengine/internal/adapters/cache/redis"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/export"
	handler "github.com/vncsmyrnk/surveyengine/internal/adapters/handler/http"
	"github.com/vncsmyrnk/surveyengine/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/services"
)

const secret = "test-secret"

type testApp struct {
	Server *httptest.Server
	Client *http.Client
	Cache  *miniredis.Miniredis
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := postgres.Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, postgres.Migrate(ctx, db))

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	surveyRepo := postgres.NewSurveyRepository(db)
	responseRepo := postgres.NewResponseRepository(db)

	router := handler.NewHandler(handler.Handlers{
		Submissions: handler.NewSubmissionHandler(services.NewSubmissionService(surveyRepo, responseRepo, postgres.NewResponseLedger(db), services.SubmissionOptions{})),
		Surveys:     handler.NewSurveyHandler(services.NewSurveyService(surveyRepo, nil, nil)),
		Analytics: handler.NewAnalyticsHandler(services.NewAnalyticsService(surveyRepo, responseRepo,
			rediscache.NewAggregateCache(redisClient, ""), services.AnalyticsOptions{})),
		Exports: handler.NewExportHandler(services.NewExportService(surveyRepo, responseRepo, export.Renderers(),
			postgres.NewExportJobRepository(db), nil, services.ExportOptions{})),
		Respondents: handler.NewRespondentHandler(services.NewReferralService(postgres.NewRespondentRepository(db), services.DefaultReferralBonus, nil)),
		Auth:        handler.NewAuth(secret),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{Server: server, Client: server.Client(), Cache: mr}
}

func tokenFor(t *testing.T, respondentID uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": respondentID.String(),
		"exp": time.Now().Add(15 * time.Minute).Unix(),
		"iat": time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (app *testApp) call(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, app.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (app *testApp) register(t *testing.T, name, referralCode string) *domain.Respondent {
	t.Helper()
	var respondent domain.Respondent
	resp := app.call(t, http.MethodPost, "/api/respondents", "", map[string]string{
		"display_name":  name,
		"referral_code": referralCode,
	}, &respondent)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return &respondent
}

// TestSurveyLifecycle walks a paid survey from creation through registered
// and anonymous submissions to its aggregate and CSV export.
func TestSurveyLifecycle(t *testing.T) {
	app := setupTestApp(t)

	referrer := app.register(t, "Ada", "")
	member := app.register(t, "Grace", referrer.ReferralCode)
	adminToken := tokenFor(t, referrer.ID)
	memberToken := tokenFor(t, member.ID)

	var survey domain.Survey
	resp := app.call(t, http.MethodPost, "/api/surveys", adminToken, map[string]any{
		"title":           "Checkout",
		"reward":          "2.50",
		"max_respondents": 2,
		"questions": []map[string]any{
			{"text": "Rate checkout", "type": "rating", "required": true, "display_order": 1},
			{"text": "Comments", "type": "text", "display_order": 2},
		},
	}, &survey)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rating := survey.Questions[0].ID.String()
	comments := survey.Questions[1].ID.String()

	// Missing required answer is rejected before any write.
	var failure struct{ Kind, Detail string }
	resp = app.call(t, http.MethodPost, "/api/responses", memberToken, map[string]any{
		"surveyId": survey.ID,
		"answers":  map[string]any{comments: "fast"},
	}, &failure)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.KindMissingRequiredAnswer, failure.Kind)
	assert.Equal(t, rating, failure.Detail)

	var receipt struct {
		ResponseID     uuid.UUID `json:"responseId"`
		RewardCredited string    `json:"rewardCredited"`
		NewBalance     string    `json:"newBalance"`
	}
	resp = app.call(t, http.MethodPost, "/api/responses", memberToken, map[string]any{
		"surveyId": survey.ID,
		"answers":  []map[string]any{{"questionId": rating, "answer": 5}, {"questionId": comments, "answer": "Quick and easy"}},
		"timezone": "America/Sao_Paulo",
	}, &receipt)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "2.50", receipt.RewardCredited)
	assert.Equal(t, "2.50", receipt.NewBalance)

	resp = app.call(t, http.MethodPost, "/api/responses", memberToken, map[string]any{
		"surveyId": survey.ID,
		"answers":  map[string]any{rating: "4"},
	}, &failure)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.KindDuplicateResponse, failure.Kind)

	// Anonymous visitors need the share code and are never paid.
	resp = app.call(t, http.MethodPost, "/api/responses", "", map[string]any{
		"surveyId": survey.ID,
		"answers":  map[string]any{rating: "3"},
	}, &failure)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.call(t, http.MethodPost, "/api/responses", "", map[string]any{
		"surveyId":      survey.ID,
		"shareCode":     survey.ShareCode,
		"answers":       map[string]any{rating: "3"},
		"respondentRef": map[string]string{"contact": "visitor@example.com", "displayName": "Visitor"},
	}, &receipt)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "0.00", receipt.RewardCredited)

	// Capacity is exhausted.
	resp = app.call(t, http.MethodPost, "/api/responses", adminToken, map[string]any{
		"surveyId": survey.ID,
		"answers":  map[string]any{rating: "1"},
	}, &failure)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Equal(t, domain.KindSurveyFull, failure.Kind)

	var agg domain.Aggregate
	resp = app.call(t, http.MethodGet, fmt.Sprintf("/api/surveys/%s/aggregate", survey.ID), adminToken, nil, &agg)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, agg.TotalResponses)
	require.NotNil(t, agg.PerQuestion[0].Average)
	assert.Equal(t, 4.0, *agg.PerQuestion[0].Average)
	assert.NotEmpty(t, app.Cache.Keys())

	resp = app.call(t, http.MethodGet, fmt.Sprintf("/api/surveys/%s/export?format=csv", survey.ID), adminToken, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(content), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Respondent","Contact","Submitted At","Rate checkout","Comments"`, lines[0])
	assert.Contains(t, lines[1], `"Grace"`)
	assert.Contains(t, lines[1], `"Quick and easy"`)
	assert.Contains(t, lines[2], `"visitor@example.com"`)
}

func TestReferralBonusCreditsReferrer(t *testing.T) {
	app := setupTestApp(t)

	referrer := app.register(t, "Ada", "")
	app.register(t, "Linus", referrer.ReferralCode)
	app.register(t, "Ken", "NOSUCHCODE")

	// The referrer's balance shows up in their next receipt.
	var survey domain.Survey
	resp := app.call(t, http.MethodPost, "/api/surveys", tokenFor(t, referrer.ID), map[string]any{
		"title":           "Bonus check",
		"reward":          "1",
		"max_respondents": 5,
		"questions":       []map[string]any{{"text": "Ok?", "type": "yes-no", "required": true}},
	}, &survey)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var receipt struct {
		NewBalance string `json:"newBalance"`
	}
	resp = app.call(t, http.MethodPost, "/api/responses", tokenFor(t, referrer.ID), map[string]any{
		"surveyId": survey.ID,
		"answers":  map[string]any{survey.Questions[0].ID.String(): "Yes"},
	}, &receipt)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "101.00", receipt.NewBalance)
}
