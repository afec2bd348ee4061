package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
	"github.com/vncsmyrnk/surveyengine/internal/core/ports"
)

func registration(p *domain.Respondent, code string) ports.RegistrationUnit {
	return ports.RegistrationUnit{Respondent: p, ReferralCode: code, Bonus: decimal.RequireFromString("100.00")}
}

func TestSurveyRepository_RoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewSurveyRepository(db)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	survey := seedSurvey(t, db, 3, "0.75")

	got, err := repo.GetByID(ctx, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, survey.Title, got.Title)
	assert.True(t, got.Reward.Equal(decimal.RequireFromString("0.75")))
	assert.Equal(t, domain.SurveyActive, got.Status)
	assert.Nil(t, got.ExpiresAt)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, got.Questions[0].Options)
	assert.Nil(t, got.Questions[1].Options)

	byCode, err := repo.GetByShareCode(ctx, survey.ShareCode)
	require.NoError(t, err)
	assert.Equal(t, survey.ID, byCode.ID)

	require.NoError(t, repo.UpdateStatus(ctx, survey.ID, domain.SurveyCompleted))
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	other := seedSurvey(t, db, 3, "0")
	_, err = db.Exec(`UPDATE surveys SET expires_at = $2 WHERE id = $1`, other.ID, expires)
	require.NoError(t, err)
	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.NotNil(t, active[0].ExpiresAt)
	assert.True(t, expires.Equal(*active[0].ExpiresAt))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), domain.SurveyPaused), domain.ErrSurveyNotFound)
}

func TestSurveyRepository_CapacityConstraint(t *testing.T) {
	db := setupDB(t)
	survey := seedSurvey(t, db, 1, "0")

	_, err := db.Exec(`UPDATE surveys SET current_respondents = current_respondents + 2 WHERE id = $1`, survey.ID)
	require.Error(t, err)
	assert.ErrorIs(t, classify(err, "increment"), domain.ErrSurveyFull)
}

func TestRespondentRepository_ReferralBonus(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewRespondentRepository(db)
	referrer := seedRespondent(t, db, "Ada", "")

	newcomer := &domain.Respondent{
		ID:           uuid.New(),
		Kind:         domain.RespondentRegistered,
		DisplayName:  "Grace",
		ReferralCode: "R" + uuid.NewString()[:7],
		CreatedAt:    time.Now().UTC(),
	}
	got, err := repo.Register(ctx, registration(newcomer, referrer.ReferralCode))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, referrer.ID, got.ID)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("100")))

	balance, earned := balanceOf(t, db, referrer.ID)
	assert.True(t, balance.Equal(decimal.RequireFromString("100")))
	assert.True(t, earned.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 1, countOf(t, db, `SELECT COUNT(*) FROM respondents WHERE id = $1 AND referred_by = $2`, newcomer.ID, referrer.ID))
	assert.Equal(t, 1, countOf(t, db, `SELECT COUNT(*) FROM balance_entries WHERE respondent_id = $1 AND kind = 'referral_bonus' AND reference_id = $2`, referrer.ID, newcomer.ID))

	stranger := &domain.Respondent{
		ID:           uuid.New(),
		Kind:         domain.RespondentRegistered,
		DisplayName:  "Linus",
		ReferralCode: "R" + uuid.NewString()[:7],
		CreatedAt:    time.Now().UTC(),
	}
	got, err = repo.Register(ctx, registration(stranger, "UNKNOWN"))
	require.NoError(t, err)
	assert.Nil(t, got)
	balance, _ = balanceOf(t, db, referrer.ID)
	assert.True(t, balance.Equal(decimal.RequireFromString("100")))
}

func TestExportJobRepository_Lifecycle(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewExportJobRepository(db)
	survey := seedSurvey(t, db, 3, "0")

	now := time.Now().UTC()
	job := &domain.ExportJob{
		ID:        uuid.New(),
		SurveyID:  survey.ID,
		Format:    domain.FormatCSV,
		Range:     domain.DateRange{From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		Status:    domain.ExportQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportQueued, got.Status)
	assert.True(t, got.Range.From.Equal(job.Range.From))
	assert.True(t, got.Range.To.IsZero())
	assert.Nil(t, got.File)

	require.NoError(t, repo.MarkProcessing(ctx, job.ID))
	require.NoError(t, repo.Complete(ctx, job.ID, &domain.ExportFile{Filename: "a.csv", ContentType: "text/csv", Content: []byte(`"x"`)}))

	got, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExportDone, got.Status)
	require.NotNil(t, got.File)
	assert.Equal(t, []byte(`"x"`), got.File.Content)

	require.NoError(t, repo.Fail(ctx, job.ID, "boom"))
	got, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "boom", got.Error)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrExportJobNotFound)
	assert.ErrorIs(t, repo.MarkProcessing(ctx, uuid.New()), domain.ErrExportJobNotFound)
}

func TestResponseRepository_DateRange(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	survey := seedSurvey(t, db, 10, "0")
	ledger := NewResponseLedger(db)

	days := []time.Time{
		time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC),
		time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
	}
	for _, at := range days {
		p := seedRespondent(t, db, "R", "")
		_, err := ledger.Commit(ctx, ports.SubmissionUnit{
			SurveyID:    survey.ID,
			Respondent:  domain.Registered(p.ID),
			Answers:     domain.Answers{survey.Questions[0].ID.String(): domain.Single("5")},
			SubmittedAt: at,
		})
		require.NoError(t, err)
	}

	repo := NewResponseRepository(db)
	all, err := repo.ListBySurvey(ctx, survey.ID, domain.DateRange{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	march2, err := repo.ListBySurvey(ctx, survey.ID, domain.DateRange{
		From: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, march2, 1)
	assert.True(t, march2[0].SubmittedAt.Equal(days[1]))

	responded, err := repo.HasResponded(ctx, survey.ID, domain.Registered(all[0].RespondentID))
	require.NoError(t, err)
	assert.True(t, responded)

	responded, err = repo.HasResponded(ctx, survey.ID, domain.Ephemeral("", "nobody"))
	require.NoError(t, err)
	assert.False(t, responded)
}
