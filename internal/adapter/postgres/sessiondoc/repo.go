// Package sessiondoc stores the authoritative live session of an identity
// as one JSONB document.
package sessiondoc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nguyendangtritoan/german-note/internal/adapter/docjson"
	postgres "github.com/nguyendangtritoan/german-note/internal/adapter/postgres"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Repo provides session document persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new session document repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getSQL = `
SELECT words, updated_at
FROM session_documents
WHERE identity_id = $1`

const upsertSQL = `
INSERT INTO session_documents (identity_id, words, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (identity_id) DO UPDATE
SET words = EXCLUDED.words, updated_at = EXCLUDED.updated_at`

// Load returns the stored session and the time it was last written.
// Returns domain.ErrNotFound when the identity has never saved a session.
func (r *Repo) Load(ctx context.Context, identityID uuid.UUID) (domain.Session, time.Time, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		raw       []byte
		updatedAt time.Time
	)
	if err := querier.QueryRow(ctx, getSQL, identityID).Scan(&raw, &updatedAt); err != nil {
		return nil, time.Time{}, postgres.MapError(err, "session_document", identityID.String())
	}

	words, err := docjson.UnmarshalSession(raw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("session_document %s: %w", identityID, err)
	}

	return words, updatedAt, nil
}

// Save replaces the stored session. An empty session is stored as [].
func (r *Repo) Save(ctx context.Context, identityID uuid.UUID, words domain.Session) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	raw, err := docjson.MarshalSession(words)
	if err != nil {
		return fmt.Errorf("session_document %s: %w", identityID, err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := querier.Exec(ctx, upsertSQL, identityID, raw, now); err != nil {
		return postgres.MapError(err, "session_document", identityID.String())
	}

	return nil
}
