package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// LocalFeed is an in-process change feed for single-instance deployments.
type LocalFeed struct {
	mu       sync.RWMutex
	handlers map[uint64]func(domain.ChangeEvent)
	next     uint64
}

// NewLocalFeed creates an empty feed.
func NewLocalFeed() *LocalFeed {
	return &LocalFeed{handlers: make(map[uint64]func(domain.ChangeEvent))}
}

// Publish delivers ev to every subscriber synchronously.
func (f *LocalFeed) Publish(_ context.Context, ev domain.ChangeEvent) error {
	f.mu.RLock()
	handlers := make([]func(domain.ChangeEvent), 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

// Subscribe registers onEvent until ctx is done.
func (f *LocalFeed) Subscribe(ctx context.Context, onEvent func(domain.ChangeEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	f.mu.Lock()
	f.next++
	id := f.next
	f.handlers[id] = onEvent
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.handlers, id)
		f.mu.Unlock()
	}()
	return nil
}
