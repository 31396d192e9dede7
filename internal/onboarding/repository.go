package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores intake submissions.
type Repository interface {
	Create(ctx context.Context, sub *Submission) error
	GetByPortalKey(ctx context.Context, portalKey string) (*Submission, error)
	List(ctx context.Context, limit int) ([]*Submission, error)
	UpdateProvisioning(ctx context.Context, portalKey, status, checkoutURL string) error
	UpdateActivation(ctx context.Context, portalKey, status string) error
}

// InMemoryRepository is a map-backed Repository for tests and local runs
// without a database.
type InMemoryRepository struct {
	mu   sync.RWMutex
	subs map[string]*Submission
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{subs: make(map[string]*Submission)}
}

func (r *InMemoryRepository) Create(_ context.Context, sub *Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.subs[sub.PortalKey] = &cp
	return nil
}

func (r *InMemoryRepository) GetByPortalKey(_ context.Context, portalKey string) (*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[portalKey]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r *InMemoryRepository) List(_ context.Context, limit int) ([]*Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Submission, 0, len(r.subs))
	for _, sub := range r.subs {
		cp := *sub
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) UpdateProvisioning(_ context.Context, portalKey, status, checkoutURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[portalKey]
	if !ok {
		return ErrNotFound
	}
	sub.StripeStatus = status
	sub.StripeCheckoutURL = checkoutURL
	sub.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRepository) UpdateActivation(_ context.Context, portalKey, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[portalKey]
	if !ok {
		return ErrNotFound
	}
	sub.ActivationStatus = status
	sub.UpdatedAt = time.Now().UTC()
	return nil
}

// PgxIface is the subset of pgxpool.Pool the Postgres repository uses,
// satisfied by pgxmock in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxIface = (*pgxpool.Pool)(nil)

// PostgresRepository persists submissions in Postgres.
type PostgresRepository struct {
	db PgxIface
}

// NewPostgresRepository creates a Postgres-backed repository.
func NewPostgresRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const submissionColumns = `id, portal_key, company_name, billing_email, billing_name, billing_model,
	lead_charge_threshold, lead_unit_price_cents, payload, stripe_status, stripe_checkout_url,
	activation_status, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, sub *Submission) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO intake_submissions (
			id, portal_key, company_name, billing_email, billing_name, billing_model,
			lead_charge_threshold, lead_unit_price_cents, payload, stripe_status,
			stripe_checkout_url, activation_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		sub.ID, sub.PortalKey, sub.CompanyName, sub.BillingEmail, sub.BillingName,
		sub.BillingModel, sub.LeadChargeThreshold, sub.LeadUnitPriceCents, sub.Payload,
		sub.StripeStatus, sub.StripeCheckoutURL, sub.ActivationStatus, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("onboarding: insert submission: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByPortalKey(ctx context.Context, portalKey string) (*Submission, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM intake_submissions WHERE portal_key = $1`, portalKey)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("onboarding: get submission: %w", err)
	}
	return sub, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+submissionColumns+` FROM intake_submissions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("onboarding: list submissions: %w", err)
	}
	defer rows.Close()

	var out []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("onboarding: scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateProvisioning(ctx context.Context, portalKey, status, checkoutURL string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE intake_submissions
		SET stripe_status = $2, stripe_checkout_url = $3, updated_at = NOW()
		WHERE portal_key = $1`,
		portalKey, status, checkoutURL)
	if err != nil {
		return fmt.Errorf("onboarding: update provisioning: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateActivation(ctx context.Context, portalKey, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE intake_submissions
		SET activation_status = $2, updated_at = NOW()
		WHERE portal_key = $1`,
		portalKey, status)
	if err != nil {
		return fmt.Errorf("onboarding: update activation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var sub Submission
	err := row.Scan(
		&sub.ID, &sub.PortalKey, &sub.CompanyName, &sub.BillingEmail, &sub.BillingName,
		&sub.BillingModel, &sub.LeadChargeThreshold, &sub.LeadUnitPriceCents, &sub.Payload,
		&sub.StripeStatus, &sub.StripeCheckoutURL, &sub.ActivationStatus,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
