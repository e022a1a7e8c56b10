// Package mirror keeps a durable local copy of each identity's live session
// so a workspace can paint before the remote document arrives.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/adapter/docjson"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Store writes one JSON file per identity under a directory.
type Store struct {
	log *slog.Logger
	dir string
	mu  sync.Mutex
}

// New creates the directory if needed and returns a store rooted at it.
func New(logger *slog.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mirror: create dir %s: %w", dir, err)
	}
	return &Store{log: logger.With("service", "mirror"), dir: dir}, nil
}

func (s *Store) path(identityID uuid.UUID) string {
	return filepath.Join(s.dir, identityID.String()+".json")
}

// Load returns the mirrored session. It never fails: a missing or corrupt
// file yields an empty session.
func (s *Store) Load(ctx context.Context, identityID uuid.UUID) domain.Session {
	data, err := os.ReadFile(s.path(identityID))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WarnContext(ctx, "mirror read failed",
				slog.String("identity_id", identityID.String()),
				slog.String("error", err.Error()),
			)
		}
		return domain.Session{}
	}

	words, err := docjson.UnmarshalSession(data)
	if err != nil {
		s.log.WarnContext(ctx, "mirror file corrupt, ignoring",
			slog.String("identity_id", identityID.String()),
			slog.String("error", err.Error()),
		)
		return domain.Session{}
	}
	return words
}

// Save replaces the mirrored session atomically: the data goes to a temp
// file in the same directory which is then renamed over the target.
func (s *Store) Save(_ context.Context, identityID uuid.UUID, words domain.Session) error {
	data, err := docjson.MarshalSession(words)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("mirror: create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("mirror: write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("mirror: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(identityID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("mirror: rename temp file: %w", err)
	}

	return nil
}

// Delete removes the mirror of an identity. Missing files are not an error.
func (s *Store) Delete(_ context.Context, identityID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(identityID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("mirror: delete: %w", err)
	}
	return nil
}
