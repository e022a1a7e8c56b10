package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/provider"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(backend completer, timeout time.Duration) *Service {
	return NewService(newTestLogger(), backend, Settings{
		Timeout:   timeout,
		Languages: []string{"en", "vi"},
	})
}

func TestService_Generate_Success(t *testing.T) {
	t.Parallel()

	backend := &completerMock{CompleteFunc: func(ctx context.Context, p provider.Prompt) (string, error) {
		return `{"original":"Haus","type":"Noun","article":"das","translationsList":[{"code":"en","text":"house"},{"code":"vi","text":"nhà"}],"example":"Das **Haus**."}`, nil
	}}
	svc := newTestService(backend, time.Second)

	a, err := svc.Generate(context.Background(), "Haus", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Haus", a.Original)
	assert.Equal(t, map[string]string{"en": "house", "vi": "nhà"}, a.Translations)
	assert.Equal(t, domain.AnalysisSchemaVersion, a.SchemaVersion)

	calls := backend.CompleteCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, provider.TaskAnalyze, calls[0].Prompt.Task)
	assert.Equal(t, []string{"en", "vi"}, calls[0].Prompt.Languages)
}

func TestService_Generate_ExplicitLanguages(t *testing.T) {
	t.Parallel()

	backend := &completerMock{CompleteFunc: func(ctx context.Context, p provider.Prompt) (string, error) {
		return `{"type":"Noun","translations":{"en":"house","fr":"maison"},"example":"x"}`, nil
	}}
	svc := newTestService(backend, time.Second)

	a, err := svc.Generate(context.Background(), "Haus", []string{"fr"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"fr": "maison"}, a.Translations)
}

func TestService_Generate_Timeout(t *testing.T) {
	t.Parallel()

	backend := &completerMock{CompleteFunc: func(ctx context.Context, p provider.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc := newTestService(backend, 20*time.Millisecond)

	_, err := svc.Generate(context.Background(), "Haus", nil, nil)

	require.ErrorIs(t, err, domain.ErrTimeout)
	var genErr *domain.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "fake", genErr.Provider)
}

func TestService_Generate_CallerCancelIsNotTimeout(t *testing.T) {
	t.Parallel()

	backend := &completerMock{CompleteFunc: func(ctx context.Context, p provider.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc := newTestService(backend, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, "Haus", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrTimeout)
}

func TestService_Generate_FailureKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
		err   error
		want  error
	}{
		{"typed transport passes through", "", domain.NewGenerationError("fake", domain.ErrTransport, errors.New("503")), domain.ErrTransport},
		{"typed configuration passes through", "", domain.NewGenerationError("fake", domain.ErrConfiguration, nil), domain.ErrConfiguration},
		{"untyped error is transport", "", errors.New("connection refused"), domain.ErrTransport},
		{"unparsable reply", "not json at all", nil, domain.ErrMalformedResponse},
		{"incomplete reply", `{"type":"Noun"}`, nil, domain.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend := &completerMock{CompleteFunc: func(ctx context.Context, p provider.Prompt) (string, error) {
				return tt.reply, tt.err
			}}
			_, err := newTestService(backend, time.Second).Generate(context.Background(), "Haus", nil, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_RegenerateExample(t *testing.T) {
	t.Parallel()

	focus := "Futur I"
	backend := &completerMock{CompleteFunc: func(ctx context.Context, p provider.Prompt) (string, error) {
		assert.Equal(t, provider.TaskExample, p.Task)
		assert.Equal(t, "Futur I", p.Focus)
		return `{"example":"Ich **werde** gehen."}`, nil
	}}

	got, err := newTestService(backend, time.Second).RegenerateExample(context.Background(), "gehen", &focus)
	require.NoError(t, err)
	assert.Equal(t, "Ich **werde** gehen.", got)
}

func TestService_RegenerateExample_Malformed(t *testing.T) {
	t.Parallel()

	backend := &completerMock{CompleteFunc: func(ctx context.Context, p provider.Prompt) (string, error) {
		return `{"sentence":"wrong key"}`, nil
	}}

	_, err := newTestService(backend, time.Second).RegenerateExample(context.Background(), "gehen", nil)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
