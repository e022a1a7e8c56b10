// Package dictionary implements the shared dictionary cache on PostgreSQL.
// Entries are written once; the first writer wins.
package dictionary

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nguyendangtritoan/german-note/internal/adapter/docjson"
	postgres "github.com/nguyendangtritoan/german-note/internal/adapter/postgres"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Repo provides dictionary cache persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new dictionary repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Lookup returns the cached analysis stored under key.
// Returns domain.ErrNotFound on a miss.
func (r *Repo) Lookup(ctx context.Context, key string) (*domain.CachedAnalysis, error) {
	sql, args, err := postgres.Builder().
		Select("payload").
		From("dictionary_entries").
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("dictionary %q: build query: %w", key, err)
	}

	var raw []byte
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		return nil, postgres.MapError(err, "dictionary_entry", key)
	}

	return docjson.UnmarshalCached(key, raw)
}

// Store inserts the analysis under key unless an entry already exists.
// It reports whether this call created the entry.
func (r *Repo) Store(ctx context.Context, key string, entry domain.CachedAnalysis) (bool, error) {
	raw, err := docjson.MarshalCached(entry)
	if err != nil {
		return false, err
	}

	sql, args, err := postgres.Builder().
		Insert("dictionary_entries").
		Columns("key", "payload", "generated_at").
		Values(key, raw, entry.GeneratedAt.UTC()).
		Suffix("ON CONFLICT (key) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("dictionary %q: build query: %w", key, err)
	}

	ct, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.MapError(err, "dictionary_entry", key)
	}

	return ct.RowsAffected() == 1, nil
}
