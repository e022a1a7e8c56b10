// Package mock is an offline generation backend returning deterministic
// payloads, for local development without an API key.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nguyendangtritoan/german-note/internal/provider"
)

// Name identifies the provider in logs and errors.
const Name = "mock"

var translationTemplates = map[string]string{
	"en": "[Mock] Translation of %s",
	"vi": "[Mock] Bản dịch của %s",
	"es": "[Mock] Traducción de %s",
	"fr": "[Mock] Traduction de %s",
	"ja": "[Mock] %s の翻訳",
	"ko": "[Mock] %s 번역",
}

// Provider answers every prompt locally after an optional delay.
type Provider struct {
	delay time.Duration
}

// NewProvider creates a mock provider that waits delay before answering.
func NewProvider(delay time.Duration) *Provider {
	return &Provider{delay: delay}
}

// Name returns the provider name.
func (p *Provider) Name() string { return Name }

// Complete returns a canned JSON reply for the prompt.
func (p *Provider) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.delay):
		}
	}

	var payload any
	switch prompt.Task {
	case provider.TaskExample:
		payload = map[string]string{"example": example(prompt.Word, prompt.Focus)}
	default:
		payload = analysis(prompt)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("mock: encode: %w", err)
	}
	return string(data), nil
}

func analysis(prompt provider.Prompt) map[string]any {
	languages := prompt.Languages
	if len(languages) == 0 {
		languages = []string{"en", "vi"}
	}

	translations := make(map[string]string, len(languages))
	for _, code := range languages {
		tmpl, ok := translationTemplates[code]
		if !ok {
			tmpl = "[Mock] " + code + ": %s"
		}
		translations[code] = fmt.Sprintf(tmpl, prompt.Word)
	}

	return map[string]any{
		"original":     prompt.Word,
		"type":         "noun (mock)",
		"article":      "das",
		"translations": translations,
		"example":      example(prompt.Word, prompt.Focus),
	}
}

func example(word, focus string) string {
	if focus != "" {
		return fmt.Sprintf("[Mock] Satz mit **%s**: Der %s wurde getestet.", focus, word)
	}
	return fmt.Sprintf("Das ist ein einfacher Mocksatz für das Wort %q.", word)
}
