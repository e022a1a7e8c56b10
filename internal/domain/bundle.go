package domain

import (
	"time"

	"github.com/google/uuid"
)

// BundleIDLayout formats the creation time used as a bundle's stable ID.
const BundleIDLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Bundle is a dated, persisted archive of words.
type Bundle struct {
	ID          string
	IdentityID  uuid.UUID
	CreatedAt   time.Time
	LastUpdated time.Time
	Words       Session
	WordCount   int
}

// NewBundle creates a bundle holding the given words. Its ID is derived from
// the creation time.
func NewBundle(identityID uuid.UUID, words Session, now time.Time) *Bundle {
	now = now.UTC()
	b := &Bundle{
		ID:          now.Format(BundleIDLayout),
		IdentityID:  identityID,
		CreatedAt:   now,
		LastUpdated: now,
		Words:       words.Clone(),
	}
	b.WordCount = len(b.Words)
	return b
}

// Merge prepends the entries of words whose dedup key is not yet present in
// the bundle, keeping the existing order after them. It returns the number of
// entries added; zero leaves the bundle untouched.
func (b *Bundle) Merge(words Session, now time.Time) int {
	seen := make(map[DedupKey]struct{}, len(b.Words)+len(words))
	for _, w := range b.Words {
		seen[w.Key()] = struct{}{}
	}

	fresh := make(Session, 0, len(words))
	for _, w := range words {
		k := w.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, w.Clone())
	}
	if len(fresh) == 0 {
		return 0
	}

	b.Words = append(fresh, b.Words...)
	b.WordCount = len(b.Words)
	b.LastUpdated = now.UTC()
	return len(fresh)
}

// RemoveWord drops the entry with the given ID and reports whether it existed.
func (b *Bundle) RemoveWord(id uuid.UUID, now time.Time) bool {
	if b.Words.IndexByID(id) < 0 {
		return false
	}
	b.Words = b.Words.Without(id)
	b.WordCount = len(b.Words)
	b.LastUpdated = now.UTC()
	return true
}

// SetWords replaces the word list, keeping WordCount in sync.
func (b *Bundle) SetWords(words Session, now time.Time) {
	b.Words = words.Clone()
	b.WordCount = len(b.Words)
	b.LastUpdated = now.UTC()
}
