// Package docjson is the JSON document shape shared by every store that
// persists word entries: PostgreSQL JSONB columns, Redis values, the local
// mirror files and the REST payloads.
//
// Domain types carry no json tags, so the mapping lives here.
package docjson

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// PrincipalParts is the JSON shape of domain.PrincipalParts.
type PrincipalParts struct {
	Present     string `json:"present,omitempty"`
	Past        string `json:"past,omitempty"`
	Perfect     string `json:"perfect,omitempty"`
	Subjunctive string `json:"subjunctive,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// Analysis is the JSON shape of domain.Analysis.
type Analysis struct {
	Original       string            `json:"original"`
	WordClass      string            `json:"wordClass,omitempty"`
	LegacyType     string            `json:"type,omitempty"`
	Article        *string           `json:"article,omitempty"`
	Plural         *string           `json:"plural,omitempty"`
	PrincipalParts *PrincipalParts   `json:"principalParts,omitempty"`
	Translations   map[string]string `json:"translations"`
	Example        string            `json:"example"`
	GrammarFocus   *string           `json:"grammarTopic,omitempty"`
	SchemaVersion  int               `json:"schemaVersion,omitempty"`
}

// Entry is the JSON shape of domain.WordEntry.
type Entry struct {
	ID uuid.UUID `json:"id"`
	Analysis
	Timestamp time.Time `json:"timestamp"`
}

// Cached is the JSON shape of a dictionary cache value.
type Cached struct {
	Analysis
	GeneratedAt time.Time `json:"generatedAt"`
}

// FromAnalysis converts a domain analysis to its JSON shape.
func FromAnalysis(a domain.Analysis) Analysis {
	out := Analysis{
		Original:      a.Original,
		WordClass:     a.WordClass,
		Article:       a.Article,
		Plural:        a.Plural,
		Translations:  a.Translations,
		Example:       a.Example,
		GrammarFocus:  a.GrammarFocus,
		SchemaVersion: a.SchemaVersion,
	}
	if out.Translations == nil {
		out.Translations = map[string]string{}
	}
	if a.PrincipalParts != nil {
		pp := PrincipalParts(*a.PrincipalParts)
		out.PrincipalParts = &pp
	}
	return out
}

// ToDomain converts the JSON shape back. Documents written before the
// schemaVersion field existed used "type" for the word class.
func (a Analysis) ToDomain() domain.Analysis {
	out := domain.Analysis{
		Original:      a.Original,
		WordClass:     a.WordClass,
		Article:       a.Article,
		Plural:        a.Plural,
		Translations:  a.Translations,
		Example:       a.Example,
		GrammarFocus:  a.GrammarFocus,
		SchemaVersion: a.SchemaVersion,
	}
	if out.WordClass == "" {
		out.WordClass = a.LegacyType
	}
	if out.SchemaVersion == 0 {
		out.SchemaVersion = 1
	}
	if out.Article != nil && (strings.TrimSpace(*out.Article) == "" || *out.Article == "null") {
		out.Article = nil
	}
	if out.Translations == nil {
		out.Translations = map[string]string{}
	}
	if a.PrincipalParts != nil {
		pp := domain.PrincipalParts(*a.PrincipalParts)
		if !pp.IsEmpty() {
			out.PrincipalParts = &pp
		}
	}
	return out
}

// FromEntry converts a domain entry to its JSON shape.
func FromEntry(w domain.WordEntry) Entry {
	return Entry{ID: w.ID, Analysis: FromAnalysis(w.Analysis), Timestamp: w.Timestamp.UTC()}
}

// ToDomain converts the JSON shape back.
func (e Entry) ToDomain() domain.WordEntry {
	return domain.WordEntry{ID: e.ID, Analysis: e.Analysis.ToDomain(), Timestamp: e.Timestamp}
}

// FromSession converts a session to a non-nil JSON slice.
func FromSession(s domain.Session) []Entry {
	out := make([]Entry, len(s))
	for i, w := range s {
		out[i] = FromEntry(w)
	}
	return out
}

// ToSession converts a JSON slice to a session. Entries without an id get
// a fresh one so every entry stays addressable.
func ToSession(entries []Entry) domain.Session {
	out := make(domain.Session, 0, len(entries))
	for _, e := range entries {
		w := e.ToDomain()
		if w.ID == uuid.Nil {
			w.ID = uuid.New()
		}
		out = append(out, w)
	}
	return out
}

// MarshalSession encodes a session as a JSON array.
func MarshalSession(s domain.Session) ([]byte, error) {
	b, err := json.Marshal(FromSession(s))
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return b, nil
}

// UnmarshalSession decodes a JSON array. Empty input yields an empty session.
func UnmarshalSession(data []byte) (domain.Session, error) {
	if len(data) == 0 {
		return domain.Session{}, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return ToSession(entries), nil
}

// MarshalCached encodes a dictionary cache value. Grammar focus is never
// stored in the shared cache.
func MarshalCached(c domain.CachedAnalysis) ([]byte, error) {
	a := FromAnalysis(c.Analysis)
	a.GrammarFocus = nil
	b, err := json.Marshal(Cached{Analysis: a, GeneratedAt: c.GeneratedAt.UTC()})
	if err != nil {
		return nil, fmt.Errorf("marshal cached analysis: %w", err)
	}
	return b, nil
}

// UnmarshalCached decodes a dictionary cache value stored under key.
func UnmarshalCached(key string, data []byte) (*domain.CachedAnalysis, error) {
	var c Cached
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cached analysis %q: %w", key, err)
	}
	a := c.Analysis.ToDomain()
	a.GrammarFocus = nil
	return &domain.CachedAnalysis{Key: key, Analysis: a, GeneratedAt: c.GeneratedAt}, nil
}

// Change is the JSON shape of domain.ChangeEvent.
type Change struct {
	Kind       string    `json:"kind"`
	IdentityID uuid.UUID `json:"identityId"`
	Origin     string    `json:"origin"`
	Words      []Entry   `json:"words,omitempty"`
	At         time.Time `json:"at"`
}

// MarshalChange encodes a change event.
func MarshalChange(ev domain.ChangeEvent) ([]byte, error) {
	c := Change{Kind: string(ev.Kind), IdentityID: ev.IdentityID, Origin: ev.Origin, At: ev.At.UTC()}
	if ev.Kind == domain.ChangeSession {
		c.Words = FromSession(ev.Words)
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal change: %w", err)
	}
	return b, nil
}

// UnmarshalChange decodes a change event.
func UnmarshalChange(data []byte) (domain.ChangeEvent, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("unmarshal change: %w", err)
	}
	ev := domain.ChangeEvent{
		Kind:       domain.ChangeKind(c.Kind),
		IdentityID: c.IdentityID,
		Origin:     c.Origin,
		At:         c.At,
	}
	if ev.Kind == domain.ChangeSession {
		ev.Words = ToSession(c.Words)
	}
	return ev, nil
}
