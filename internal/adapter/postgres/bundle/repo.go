// Package bundle implements bundle persistence using PostgreSQL. Queries are
// built with squirrel; the word list is a JSONB column.
package bundle

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nguyendangtritoan/german-note/internal/adapter/docjson"
	postgres "github.com/nguyendangtritoan/german-note/internal/adapter/postgres"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

const table = "bundles"

var columns = []string{"identity_id", "id", "created_at", "last_updated", "words", "word_count"}

// Repo provides bundle persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new bundle repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new bundle. Returns domain.ErrAlreadyExists when the
// identity already has a bundle with the same id.
func (r *Repo) Create(ctx context.Context, b *domain.Bundle) error {
	raw, err := docjson.MarshalSession(b.Words)
	if err != nil {
		return fmt.Errorf("bundle %s: %w", b.ID, err)
	}

	query := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(b.IdentityID, b.ID, ts(b.CreatedAt), ts(b.LastUpdated), raw, len(b.Words))

	return r.exec(ctx, query, b.ID, false)
}

// Update writes the word list, count and last_updated of an existing bundle.
func (r *Repo) Update(ctx context.Context, b *domain.Bundle) error {
	raw, err := docjson.MarshalSession(b.Words)
	if err != nil {
		return fmt.Errorf("bundle %s: %w", b.ID, err)
	}

	query := postgres.Builder().
		Update(table).
		Set("words", raw).
		Set("word_count", len(b.Words)).
		Set("last_updated", ts(b.LastUpdated)).
		Where(squirrel.Eq{"identity_id": b.IdentityID, "id": b.ID})

	return r.exec(ctx, query, b.ID, true)
}

// Delete removes a bundle. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, identityID uuid.UUID, id string) error {
	query := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"identity_id": identityID, "id": id})

	return r.exec(ctx, query, id, true)
}

// Get returns one bundle of the identity.
func (r *Repo) Get(ctx context.Context, identityID uuid.UUID, id string) (*domain.Bundle, error) {
	query := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"identity_id": identityID, "id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("bundle %s: build query: %w", id, err)
	}

	b, err := scanBundle(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "bundle", id)
	}
	return b, nil
}

// ListByIdentity returns all bundles of the identity, newest first.
func (r *Repo) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]*domain.Bundle, error) {
	query := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"identity_id": identityID}).
		OrderBy("created_at DESC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list bundles: build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	bundles := []*domain.Bundle{}
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf("list bundles: %w", err)
		}
		bundles = append(bundles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}

	return bundles, nil
}

type sqlizer interface {
	ToSql() (string, []any, error)
}

func (r *Repo) exec(ctx context.Context, query sqlizer, id string, mustAffect bool) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("bundle %s: build query: %w", id, err)
	}

	ct, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "bundle", id)
	}
	if mustAffect && ct.RowsAffected() == 0 {
		return fmt.Errorf("bundle %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanBundle(row pgx.Row) (*domain.Bundle, error) {
	var (
		b   domain.Bundle
		raw []byte
	)
	if err := row.Scan(&b.IdentityID, &b.ID, &b.CreatedAt, &b.LastUpdated, &raw, &b.WordCount); err != nil {
		return nil, err
	}

	words, err := docjson.UnmarshalSession(raw)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.ID, err)
	}
	b.Words = words
	b.WordCount = len(words)

	return &b, nil
}

func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
