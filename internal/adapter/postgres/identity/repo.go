// Package identity implements identity and auth method persistence using
// PostgreSQL.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/nguyendangtritoan/german-note/internal/adapter/postgres"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Repo provides identity and auth_methods persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new identity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

var identityColumns = []string{"id", "anonymous", "email", "name", "created_at", "upgraded_at", "last_seen_at"}

var authMethodColumns = []string{"id", "identity_id", "method", "subject", "password_hash", "created_at"}

const createIdentitySQL = `
INSERT INTO identities (id, anonymous, email, name, created_at, upgraded_at, last_seen_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const upgradeSQL = `
UPDATE identities
SET anonymous = FALSE, email = $2, name = $3, upgraded_at = $4
WHERE id = $1 AND anonymous`

const touchSQL = `
UPDATE identities SET last_seen_at = $2 WHERE id = $1`

const createAuthMethodSQL = `
INSERT INTO auth_methods (id, identity_id, method, subject, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const deleteIdleAnonymousSQL = `
DELETE FROM identities
WHERE anonymous AND last_seen_at < $1`

// ---------------------------------------------------------------------------
// Identities
// ---------------------------------------------------------------------------

// Create inserts a new identity.
func (r *Repo) Create(ctx context.Context, i *domain.Identity) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, createIdentitySQL,
		i.ID, i.Anonymous, i.Email, i.Name, ts(i.CreatedAt), i.UpgradedAt, ts(i.LastSeenAt),
	)
	if err != nil {
		return postgres.MapError(err, "identity", i.ID.String())
	}
	return nil
}

// GetByID returns an identity by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	sql, args, err := postgres.Builder().
		Select(identityColumns...).
		From("identities").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("identity %s: build query: %w", id, err)
	}

	var i domain.Identity
	row := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...)
	if err := row.Scan(&i.ID, &i.Anonymous, &i.Email, &i.Name, &i.CreatedAt, &i.UpgradedAt, &i.LastSeenAt); err != nil {
		return nil, postgres.MapError(err, "identity", id.String())
	}
	return &i, nil
}

// MarkUpgraded persists an in-place upgrade of an anonymous identity.
// Returns domain.ErrConflict if the identity is no longer anonymous.
func (r *Repo) MarkUpgraded(ctx context.Context, i *domain.Identity) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, upgradeSQL, i.ID, i.Email, i.Name, i.UpgradedAt)
	if err != nil {
		return postgres.MapError(err, "identity", i.ID.String())
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("identity %s: upgrade: %w", i.ID, domain.ErrConflict)
	}
	return nil
}

// Touch records activity of an identity.
func (r *Repo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	ct, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, touchSQL, id, ts(at))
	if err != nil {
		return postgres.MapError(err, "identity", id.String())
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("identity %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteIdleAnonymous removes anonymous identities not seen since before,
// together with their sessions and bundles. Returns the number deleted.
func (r *Repo) DeleteIdleAnonymous(ctx context.Context, before time.Time) (int64, error) {
	ct, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, deleteIdleAnonymousSQL, ts(before))
	if err != nil {
		return 0, fmt.Errorf("delete idle anonymous identities: %w", err)
	}
	return ct.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Auth methods
// ---------------------------------------------------------------------------

// CreateAuthMethod attaches a credential to an identity. A permanent
// credential already bound elsewhere yields domain.ErrAlreadyExists.
func (r *Repo) CreateAuthMethod(ctx context.Context, am *domain.AuthMethod) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, createAuthMethodSQL,
		am.ID, am.IdentityID, string(am.Method), am.Subject, am.PasswordHash, ts(am.CreatedAt),
	)
	if err != nil {
		return postgres.MapError(err, "auth_method", string(am.Method))
	}
	return nil
}

// GetAuthMethodByCredential returns the auth method for a permanent
// credential (method + subject).
func (r *Repo) GetAuthMethodByCredential(ctx context.Context, method domain.AuthMethodType, subject string) (*domain.AuthMethod, error) {
	sql, args, err := postgres.Builder().
		Select(authMethodColumns...).
		From("auth_methods").
		Where(squirrel.Eq{"method": string(method), "subject": subject}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("auth_method: build query: %w", err)
	}

	am, err := scanAuthMethod(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "auth_method", string(method))
	}
	return am, nil
}

// ListAuthMethods returns all credentials of an identity.
func (r *Repo) ListAuthMethods(ctx context.Context, identityID uuid.UUID) ([]domain.AuthMethod, error) {
	sql, args, err := postgres.Builder().
		Select(authMethodColumns...).
		From("auth_methods").
		Where(squirrel.Eq{"identity_id": identityID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("auth_method list: build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("auth_method list: %w", err)
	}
	defer rows.Close()

	result := []domain.AuthMethod{}
	for rows.Next() {
		am, err := scanAuthMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("auth_method list: %w", err)
		}
		result = append(result, *am)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auth_method list: %w", err)
	}
	return result, nil
}

func scanAuthMethod(row pgx.Row) (*domain.AuthMethod, error) {
	var (
		am     domain.AuthMethod
		method string
	)
	if err := row.Scan(&am.ID, &am.IdentityID, &method, &am.Subject, &am.PasswordHash, &am.CreatedAt); err != nil {
		return nil, err
	}
	am.Method = domain.AuthMethodType(method)
	return &am, nil
}

func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
