package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// SeedIdentity inserts an anonymous identity and returns it.
func SeedIdentity(t *testing.T, pool *pgxpool.Pool) domain.Identity {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	i := domain.Identity{
		ID:         uuid.New(),
		Anonymous:  true,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO identities (id, anonymous, created_at, last_seen_at) VALUES ($1, $2, $3, $4)`,
		i.ID, i.Anonymous, i.CreatedAt, i.LastSeenAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedIdentity: %v", err)
	}

	return i
}

// Word builds a session entry for tests.
func Word(original string, focus *string, ts time.Time) domain.WordEntry {
	return domain.WordEntry{
		ID: uuid.New(),
		Analysis: domain.Analysis{
			Original:      original,
			WordClass:     "noun",
			Translations:  map[string]string{"en": original},
			Example:       "Das ist **" + original + "**.",
			GrammarFocus:  focus,
			SchemaVersion: domain.AnalysisSchemaVersion,
		},
		Timestamp: ts.UTC().Truncate(time.Microsecond),
	}
}
