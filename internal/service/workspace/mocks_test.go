package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
)

var (
	_ sessionStore     = &fakeSessions{}
	_ bundleStore      = &fakeBundles{}
	_ dictionary       = &fakeDictionary{}
	_ generator        = &generatorMock{}
	_ mirrorStore      = &fakeMirror{}
	_ identityResolver = &identityResolverMock{}
)

// fakeSessions is an in-memory session document store.
type fakeSessions struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]domain.Session
	saves    int
	failSave error
	failLoad error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{docs: make(map[uuid.UUID]domain.Session)}
}

func (f *fakeSessions) Load(ctx context.Context, id uuid.UUID) (domain.Session, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad != nil {
		return nil, time.Time{}, f.failLoad
	}
	words, ok := f.docs[id]
	if !ok {
		return nil, time.Time{}, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return words.Clone(), time.Now(), nil
}

func (f *fakeSessions) Save(ctx context.Context, id uuid.UUID, words domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return f.failSave
	}
	f.saves++
	f.docs[id] = words.Clone()
	return nil
}

func (f *fakeSessions) get(id uuid.UUID) (domain.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	words, ok := f.docs[id]
	return words.Clone(), ok
}

// fakeBundles is an in-memory bundle store keyed by (identity, id).
type fakeBundles struct {
	mu   sync.Mutex
	docs map[string]*domain.Bundle
	// failCreates makes the next n Create calls fail.
	failCreates int
}

func newFakeBundles() *fakeBundles {
	return &fakeBundles{docs: make(map[string]*domain.Bundle)}
}

func bundleKey(identityID uuid.UUID, id string) string { return identityID.String() + "/" + id }

func (f *fakeBundles) Create(ctx context.Context, b *domain.Bundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreates > 0 {
		f.failCreates--
		return errors.New("connection reset")
	}
	k := bundleKey(b.IdentityID, b.ID)
	if _, ok := f.docs[k]; ok {
		return domain.ErrAlreadyExists
	}
	f.docs[k] = cloneBundle(b)
	return nil
}

func (f *fakeBundles) Update(ctx context.Context, b *domain.Bundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := bundleKey(b.IdentityID, b.ID)
	if _, ok := f.docs[k]; !ok {
		return fmt.Errorf("bundle %s: %w", b.ID, domain.ErrNotFound)
	}
	f.docs[k] = cloneBundle(b)
	return nil
}

func (f *fakeBundles) Delete(ctx context.Context, identityID uuid.UUID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := bundleKey(identityID, id)
	if _, ok := f.docs[k]; !ok {
		return fmt.Errorf("bundle %s: %w", id, domain.ErrNotFound)
	}
	delete(f.docs, k)
	return nil
}

func (f *fakeBundles) Get(ctx context.Context, identityID uuid.UUID, id string) (*domain.Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.docs[bundleKey(identityID, id)]
	if !ok {
		return nil, fmt.Errorf("bundle %s: %w", id, domain.ErrNotFound)
	}
	return cloneBundle(b), nil
}

func (f *fakeBundles) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]*domain.Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Bundle
	for _, b := range f.docs {
		if b.IdentityID == identityID {
			out = append(out, cloneBundle(b))
		}
	}
	return out, nil
}

// fakeDictionary is a first-writer-wins in-memory dictionary cache.
type fakeDictionary struct {
	mu         sync.Mutex
	entries    map[string]domain.CachedAnalysis
	lookups    int
	failLookup error
	failStore  error
}

func newFakeDictionary() *fakeDictionary {
	return &fakeDictionary{entries: make(map[string]domain.CachedAnalysis)}
}

func (f *fakeDictionary) Lookup(ctx context.Context, key string) (*domain.CachedAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.failLookup != nil {
		return nil, f.failLookup
	}
	e, ok := f.entries[key]
	if !ok {
		return nil, fmt.Errorf("dictionary %q: %w", key, domain.ErrNotFound)
	}
	return &e, nil
}

func (f *fakeDictionary) Store(ctx context.Context, key string, entry domain.CachedAnalysis) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStore != nil {
		return false, f.failStore
	}
	if _, ok := f.entries[key]; ok {
		return false, nil
	}
	f.entries[key] = entry
	return true, nil
}

func (f *fakeDictionary) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

// generatorMock records calls in the style of moq.
type generatorMock struct {
	GenerateFunc          func(ctx context.Context, word string, languages []string, focus *string) (domain.Analysis, error)
	RegenerateExampleFunc func(ctx context.Context, word string, focus *string) (string, error)

	calls struct {
		Generate []struct {
			Word  string
			Focus *string
		}
		RegenerateExample []struct {
			Word  string
			Focus *string
		}
	}
	lockGenerate          sync.RWMutex
	lockRegenerateExample sync.RWMutex
}

func (mock *generatorMock) Generate(ctx context.Context, word string, languages []string, focus *string) (domain.Analysis, error) {
	if mock.GenerateFunc == nil {
		panic("generatorMock.GenerateFunc: method is nil but generator.Generate was just called")
	}
	mock.lockGenerate.Lock()
	mock.calls.Generate = append(mock.calls.Generate, struct {
		Word  string
		Focus *string
	}{Word: word, Focus: focus})
	mock.lockGenerate.Unlock()
	return mock.GenerateFunc(ctx, word, languages, focus)
}

func (mock *generatorMock) GenerateCalls() int {
	mock.lockGenerate.RLock()
	defer mock.lockGenerate.RUnlock()
	return len(mock.calls.Generate)
}

func (mock *generatorMock) GeneratedWords() []string {
	mock.lockGenerate.RLock()
	defer mock.lockGenerate.RUnlock()
	out := make([]string, 0, len(mock.calls.Generate))
	for _, c := range mock.calls.Generate {
		out = append(out, c.Word)
	}
	return out
}

func (mock *generatorMock) RegenerateExample(ctx context.Context, word string, focus *string) (string, error) {
	if mock.RegenerateExampleFunc == nil {
		panic("generatorMock.RegenerateExampleFunc: method is nil but generator.RegenerateExample was just called")
	}
	mock.lockRegenerateExample.Lock()
	mock.calls.RegenerateExample = append(mock.calls.RegenerateExample, struct {
		Word  string
		Focus *string
	}{Word: word, Focus: focus})
	mock.lockRegenerateExample.Unlock()
	return mock.RegenerateExampleFunc(ctx, word, focus)
}

// fakeMirror is an in-memory mirror store.
type fakeMirror struct {
	mu    sync.Mutex
	slots map[uuid.UUID]domain.Session
	// gates block Load of an identity until closed.
	gates map[uuid.UUID]chan struct{}
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		slots: make(map[uuid.UUID]domain.Session),
		gates: make(map[uuid.UUID]chan struct{}),
	}
}

func (f *fakeMirror) block(id uuid.UUID) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[id] = gate
	return gate
}

func (f *fakeMirror) Load(ctx context.Context, id uuid.UUID) domain.Session {
	f.mu.Lock()
	gate := f.gates[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	words, ok := f.slots[id]
	if !ok {
		return domain.Session{}
	}
	return words.Clone()
}

func (f *fakeMirror) Save(ctx context.Context, id uuid.UUID, words domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[id] = words.Clone()
	return nil
}

func (f *fakeMirror) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.slots, id)
	return nil
}

func (f *fakeMirror) has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.slots[id]
	return ok
}

func (f *fakeMirror) get(id uuid.UUID) domain.Session {
	return f.Load(context.Background(), id)
}

// identityResolverMock resolves identities after an optional gate.
type identityResolverMock struct {
	ResolveFunc func(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
}

func (mock *identityResolverMock) Resolve(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	if mock.ResolveFunc == nil {
		return &domain.Identity{ID: id, Anonymous: true}, nil
	}
	return mock.ResolveFunc(ctx, id)
}
