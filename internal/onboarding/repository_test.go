package onboarding

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepository_CRUD(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.GetByPortalKey(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	sub := &Submission{
		ID:          "id-1",
		PortalKey:   "doe-roofing",
		CompanyName: "Doe Roofing",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, sub))

	got, err := repo.GetByPortalKey(ctx, "doe-roofing")
	require.NoError(t, err)
	assert.Equal(t, "Doe Roofing", got.CompanyName)

	// The returned record is a copy.
	got.CompanyName = "mutated"
	again, err := repo.GetByPortalKey(ctx, "doe-roofing")
	require.NoError(t, err)
	assert.Equal(t, "Doe Roofing", again.CompanyName)

	require.NoError(t, repo.UpdateProvisioning(ctx, "doe-roofing", "provisioned", "https://pay/x"))
	updated, err := repo.GetByPortalKey(ctx, "doe-roofing")
	require.NoError(t, err)
	assert.Equal(t, "provisioned", updated.StripeStatus)
	assert.Equal(t, "https://pay/x", updated.StripeCheckoutURL)

	require.ErrorIs(t, repo.UpdateProvisioning(ctx, "missing", "failed", ""), ErrNotFound)
	require.ErrorIs(t, repo.UpdateActivation(ctx, "missing", "activated"), ErrNotFound)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepository(mock)
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	sub := &Submission{
		ID:                  "id-1",
		PortalKey:           "doe-roofing",
		CompanyName:         "Doe Roofing",
		BillingEmail:        "jane@doeroofing.com",
		BillingName:         "Jane Doe",
		BillingModel:        "commitment_upfront",
		LeadChargeThreshold: 10,
		LeadUnitPriceCents:  4000,
		Payload:             []byte(`{}`),
		StripeStatus:        "skipped",
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	mock.ExpectExec("INSERT INTO intake_submissions").
		WithArgs(sub.ID, sub.PortalKey, sub.CompanyName, sub.BillingEmail, sub.BillingName,
			sub.BillingModel, sub.LeadChargeThreshold, sub.LeadUnitPriceCents, sub.Payload,
			sub.StripeStatus, sub.StripeCheckoutURL, sub.ActivationStatus, sub.CreatedAt, sub.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), sub))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByPortalKey(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "portal_key", "company_name", "billing_email", "billing_name", "billing_model",
		"lead_charge_threshold", "lead_unit_price_cents", "payload", "stripe_status",
		"stripe_checkout_url", "activation_status", "created_at", "updated_at",
	}).AddRow("id-1", "doe-roofing", "Doe Roofing", "jane@doeroofing.com", "Jane Doe",
		"commitment_upfront", 10, 4000, []byte(`{}`), "provisioned",
		"https://pay/x", "", now, now)

	mock.ExpectQuery("SELECT .+ FROM intake_submissions WHERE portal_key").
		WithArgs("doe-roofing").
		WillReturnRows(rows)

	sub, err := repo.GetByPortalKey(context.Background(), "doe-roofing")
	require.NoError(t, err)
	assert.Equal(t, "Doe Roofing", sub.CompanyName)
	assert.Equal(t, 4000, sub.LeadUnitPriceCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetMissing(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT .+ FROM intake_submissions WHERE portal_key").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByPortalKey(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepository_UpdateProvisioning(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("UPDATE intake_submissions").
		WithArgs("doe-roofing", "provisioned", "https://pay/x").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateProvisioning(context.Background(), "doe-roofing", "provisioned", "https://pay/x"))

	mock.ExpectExec("UPDATE intake_submissions").
		WithArgs("missing", "failed", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, repo.UpdateProvisioning(context.Background(), "missing", "failed", ""), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
