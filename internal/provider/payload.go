package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// ErrIncomplete is returned when a reply parses but lacks a required field.
var ErrIncomplete = errors.New("incomplete analysis")

// rawAnalysis is the union of the shapes the models answer with.
type rawAnalysis struct {
	Original         string            `json:"original"`
	Type             string            `json:"type"`
	WordClass        string            `json:"wordClass"`
	Article          *string           `json:"article"`
	Plural           *string           `json:"plural"`
	VerbForms        json.RawMessage   `json:"verbForms"`
	PrincipalParts   json.RawMessage   `json:"principalParts"`
	TranslationsList []rawTranslation  `json:"translationsList"`
	Translations     map[string]string `json:"translations"`
	Example          string            `json:"example"`
}

type rawTranslation struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type rawVerbForms struct {
	Present3rd     string `json:"present_3rd"`
	Past3rd        string `json:"past_3rd"`
	Perfect3rd     string `json:"perfect_3rd"`
	Konjunktiv23rd string `json:"konjunktiv2_3rd"`
	Present        string `json:"present"`
	Past           string `json:"past"`
	Perfect        string `json:"perfect"`
	Subjunctive    string `json:"subjunctive"`
	Summary        string `json:"summary"`
}

type rawExample struct {
	Example string `json:"example"`
}

// ParseAnalysis extracts the JSON object from a model reply and normalizes
// it into an Analysis for word. Only translations for the requested
// languages are kept; an empty languages list keeps all of them.
func ParseAnalysis(reply, word string, languages []string, focus *string) (domain.Analysis, error) {
	jsonStr, err := ExtractJSON(reply)
	if err != nil {
		return domain.Analysis{}, err
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return domain.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}

	a := domain.Analysis{
		Original:      strings.TrimSpace(raw.Original),
		WordClass:     strings.TrimSpace(raw.WordClass),
		Article:       cleanOptional(raw.Article),
		Plural:        cleanOptional(raw.Plural),
		Translations:  foldTranslations(raw, languages),
		Example:       strings.TrimSpace(raw.Example),
		SchemaVersion: domain.AnalysisSchemaVersion,
	}
	if a.Original == "" {
		a.Original = word
	}
	if a.WordClass == "" {
		a.WordClass = strings.TrimSpace(raw.Type)
	}
	if focus != nil && *focus != "" {
		f := *focus
		a.GrammarFocus = &f
	}

	a.PrincipalParts, err = foldPrincipalParts(raw.PrincipalParts)
	if err != nil {
		return domain.Analysis{}, err
	}
	if a.PrincipalParts == nil {
		a.PrincipalParts, err = foldPrincipalParts(raw.VerbForms)
		if err != nil {
			return domain.Analysis{}, err
		}
	}

	switch {
	case a.WordClass == "":
		return domain.Analysis{}, fmt.Errorf("%w: missing type", ErrIncomplete)
	case a.Example == "":
		return domain.Analysis{}, fmt.Errorf("%w: missing example", ErrIncomplete)
	case len(a.Translations) == 0:
		return domain.Analysis{}, fmt.Errorf("%w: no translations", ErrIncomplete)
	}

	return a, nil
}

// ParseExample extracts the example sentence from a regenerate reply.
func ParseExample(reply string) (string, error) {
	jsonStr, err := ExtractJSON(reply)
	if err != nil {
		return "", err
	}

	var raw rawExample
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return "", fmt.Errorf("decode example: %w", err)
	}

	example := strings.TrimSpace(raw.Example)
	if example == "" {
		return "", fmt.Errorf("%w: missing example", ErrIncomplete)
	}
	return example, nil
}

// ExtractJSON returns the text between the first '{' and the last '}'.
func ExtractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

func foldTranslations(raw rawAnalysis, languages []string) map[string]string {
	wanted := make(map[string]bool, len(languages))
	for _, code := range languages {
		wanted[strings.ToLower(code)] = true
	}

	out := make(map[string]string)
	add := func(code, text string) {
		code = strings.ToLower(strings.TrimSpace(code))
		text = strings.TrimSpace(text)
		if code == "" || text == "" {
			return
		}
		if len(wanted) > 0 && !wanted[code] {
			return
		}
		out[code] = text
	}

	for code, text := range raw.Translations {
		add(code, text)
	}
	for _, t := range raw.TranslationsList {
		add(t.Code, t.Text)
	}
	return out
}

// foldPrincipalParts accepts an object, a free-form string or null.
func foldPrincipalParts(data json.RawMessage) (*domain.PrincipalParts, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode verb forms: %w", err)
		}
		pp := domain.PrincipalParts{Summary: strings.TrimSpace(s)}
		if pp.IsEmpty() || isNullWord(pp.Summary) {
			return nil, nil
		}
		return &pp, nil
	}

	var raw rawVerbForms
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode verb forms: %w", err)
	}
	pp := domain.PrincipalParts{
		Present:     firstNonEmpty(raw.Present3rd, raw.Present),
		Past:        firstNonEmpty(raw.Past3rd, raw.Past),
		Perfect:     firstNonEmpty(raw.Perfect3rd, raw.Perfect),
		Subjunctive: firstNonEmpty(raw.Konjunktiv23rd, raw.Subjunctive),
		Summary:     strings.TrimSpace(raw.Summary),
	}
	if pp.IsEmpty() {
		return nil, nil
	}
	return &pp, nil
}

func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || isNullWord(v) {
		return nil
	}
	return &v
}

func isNullWord(s string) bool {
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "-":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
