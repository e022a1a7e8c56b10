package generation

import (
	"context"
	"sync"

	"github.com/nguyendangtritoan/german-note/internal/provider"
)

var _ completer = &completerMock{}

type completerMock struct {
	CompleteFunc func(ctx context.Context, prompt provider.Prompt) (string, error)

	calls struct {
		Complete []struct {
			Prompt provider.Prompt
		}
	}
	lockComplete sync.RWMutex
}

func (mock *completerMock) Name() string { return "fake" }

func (mock *completerMock) Complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	if mock.CompleteFunc == nil {
		panic("completerMock.CompleteFunc: method is nil but completer.Complete was just called")
	}
	mock.lockComplete.Lock()
	mock.calls.Complete = append(mock.calls.Complete, struct{ Prompt provider.Prompt }{Prompt: prompt})
	mock.lockComplete.Unlock()
	return mock.CompleteFunc(ctx, prompt)
}

func (mock *completerMock) CompleteCalls() []struct{ Prompt provider.Prompt } {
	mock.lockComplete.RLock()
	defer mock.lockComplete.RUnlock()
	return mock.calls.Complete
}
