package mirror

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(slog.New(slog.DiscardHandler), t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	got := s.Load(context.Background(), uuid.New())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	words := domain.Session{{
		ID:        uuid.New(),
		Analysis:  domain.Analysis{Original: "Haus", Translations: map[string]string{"en": "house"}},
		Timestamp: time.Now().UTC(),
	}}
	require.NoError(t, s.Save(ctx, id, words))

	got := s.Load(ctx, id)
	require.Len(t, got, 1)
	assert.Equal(t, words[0].ID, got[0].ID)

	require.NoError(t, s.Save(ctx, id, domain.Session{}))
	assert.Empty(t, s.Load(ctx, id))

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_LoadCorruptIsEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	id := uuid.New()
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, id.String()+".json"), []byte("{broken"), 0o644))

	assert.Empty(t, s.Load(context.Background(), id))
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, s.Save(ctx, id, domain.Session{}))
	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id))

	_, err := os.Stat(filepath.Join(s.dir, id.String()+".json"))
	assert.True(t, os.IsNotExist(err))
}
