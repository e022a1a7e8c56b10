package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisSchemaVersion is the version of the Analysis shape produced by the
// generation adapters. Stored next to every persisted entry.
const AnalysisSchemaVersion = 2

// PrincipalParts holds the 3rd person singular verb forms of a verb.
// Summary is used when a provider returns the forms as one free-form string.
type PrincipalParts struct {
	Present     string
	Past        string
	Perfect     string
	Subjunctive string
	Summary     string
}

// IsEmpty reports whether no verb form is set.
func (p PrincipalParts) IsEmpty() bool {
	return p.Present == "" && p.Past == "" && p.Perfect == "" && p.Subjunctive == "" && p.Summary == ""
}

// Analysis is the grammatical analysis of one word as produced by a
// generation backend. It carries no per-consumer identity and is the
// cacheable part of a WordEntry.
type Analysis struct {
	Original       string
	WordClass      string
	Article        *string
	Plural         *string
	PrincipalParts *PrincipalParts
	Translations   map[string]string
	Example        string
	GrammarFocus   *string
	SchemaVersion  int
}

// Focus returns the grammar focus or "" when the analysis is unconstrained.
func (a Analysis) Focus() string {
	if a.GrammarFocus == nil {
		return ""
	}
	return *a.GrammarFocus
}

// Clone returns a deep copy of the analysis.
func (a Analysis) Clone() Analysis {
	out := a
	out.Article = cloneString(a.Article)
	out.Plural = cloneString(a.Plural)
	out.GrammarFocus = cloneString(a.GrammarFocus)
	if a.PrincipalParts != nil {
		pp := *a.PrincipalParts
		out.PrincipalParts = &pp
	}
	if a.Translations != nil {
		out.Translations = make(map[string]string, len(a.Translations))
		for k, v := range a.Translations {
			out.Translations[k] = v
		}
	}
	return out
}

// WordEntry is one resolved word inside a session or a bundle.
type WordEntry struct {
	ID uuid.UUID
	Analysis
	Timestamp time.Time
}

// Key returns the dedup key of the entry.
func (w WordEntry) Key() DedupKey {
	return NewDedupKey(w.Original, w.GrammarFocus)
}

// Clone returns a deep copy of the entry.
func (w WordEntry) Clone() WordEntry {
	out := w
	out.Analysis = w.Analysis.Clone()
	return out
}

// CachedAnalysis is a dictionary cache entry: an unconstrained analysis plus
// the time it was generated.
type CachedAnalysis struct {
	Key         string
	Analysis    Analysis
	GeneratedAt time.Time
}

// ToEntry materializes a cached analysis as a fresh session entry.
func (c CachedAnalysis) ToEntry(id uuid.UUID, ts time.Time) WordEntry {
	a := c.Analysis.Clone()
	a.GrammarFocus = nil
	return WordEntry{ID: id, Analysis: a, Timestamp: ts}
}

// DedupKey identifies "the same card": lowercased original text plus grammar
// focus ("" when unconstrained).
type DedupKey struct {
	Text  string
	Focus string
}

// NewDedupKey builds a DedupKey from a surface form and an optional focus.
func NewDedupKey(original string, focus *string) DedupKey {
	k := DedupKey{Text: NormalizeText(original)}
	if focus != nil {
		k.Focus = *focus
	}
	return k
}

// String renders the key the way it is persisted ("text|focus").
func (k DedupKey) String() string {
	return k.Text + "|" + k.Focus
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns nil for an empty string and a pointer otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
