package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

func setupDB(t *testing.T) *sql.DB {
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
		_ = pgContainer.Terminate(context.Background())
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	return db
}

func seedSurvey(t *testing.T, db *sql.DB, maxRespondents int, reward string) *domain.Survey {
	t.Helper()

	id := uuid.New()
	survey := &domain.Survey{
		ID:             id,
		Title:          "Checkout experience",
		Reward:         decimal.RequireFromString(reward),
		MaxRespondents: maxRespondents,
		Status:         domain.SurveyActive,
		ShareCode:      "S" + id.String()[:7],
		CreatedAt:      time.Now().UTC(),
		Questions: []domain.Question{
			{ID: uuid.New(), SurveyID: id, Text: "Rate checkout", Type: domain.QuestionRating, Options: []string{"1", "2", "3", "4", "5"}, Required: true, DisplayOrder: 1},
			{ID: uuid.New(), SurveyID: id, Text: "Anything else?", Type: domain.QuestionText, DisplayOrder: 2},
		},
	}
	require.NoError(t, NewSurveyRepository(db).Save(context.Background(), survey))
	return survey
}

func seedRespondent(t *testing.T, db *sql.DB, name, contact string) *domain.Respondent {
	t.Helper()

	p := &domain.Respondent{
		ID:           uuid.New(),
		Kind:         domain.RespondentRegistered,
		DisplayName:  name,
		Contact:      contact,
		ReferralCode: "R" + uuid.NewString()[:7],
		CreatedAt:    time.Now().UTC(),
	}
	_, err := NewRespondentRepository(db).Register(context.Background(), registration(p, ""))
	require.NoError(t, err)
	return p
}

func balanceOf(t *testing.T, db *sql.DB, id uuid.UUID) (decimal.Decimal, decimal.Decimal) {
	t.Helper()
	var balance, earned decimal.Decimal
	err := db.QueryRow(`SELECT balance, total_earned FROM respondents WHERE id = $1`, id).Scan(&balance, &earned)
	require.NoError(t, err)
	return balance, earned
}

func countOf(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}
