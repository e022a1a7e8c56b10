package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

var (
	_ identityRepo  = &fakeIdentities{}
	_ txManager     = &txManagerMock{}
	_ oauthVerifier = &oauthVerifierMock{}
	_ tokenManager  = &tokenManagerMock{}
)

// fakeIdentities is an in-memory identityRepo enforcing the same
// uniqueness rules as the PostgreSQL schema.
type fakeIdentities struct {
	mu          sync.Mutex
	identities  map[uuid.UUID]domain.Identity
	methods     []domain.AuthMethod
	touched     map[uuid.UUID]time.Time
	failCreate  error
	failUpgrade error
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{
		identities: make(map[uuid.UUID]domain.Identity),
		touched:    make(map[uuid.UUID]time.Time),
	}
}

func (f *fakeIdentities) Create(ctx context.Context, i *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	if _, ok := f.identities[i.ID]; ok {
		return domain.ErrAlreadyExists
	}
	f.identities[i.ID] = *i
	return nil
}

func (f *fakeIdentities) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.identities[id]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", id, domain.ErrNotFound)
	}
	return &i, nil
}

func (f *fakeIdentities) MarkUpgraded(ctx context.Context, i *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpgrade != nil {
		return f.failUpgrade
	}
	cur, ok := f.identities[i.ID]
	if !ok || !cur.Anonymous {
		return domain.ErrConflict
	}
	f.identities[i.ID] = *i
	return nil
}

func (f *fakeIdentities) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.identities[id]; !ok {
		return fmt.Errorf("identity %s: %w", id, domain.ErrNotFound)
	}
	f.touched[id] = at
	return nil
}

func (f *fakeIdentities) DeleteIdleAnonymous(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, i := range f.identities {
		if i.Anonymous && i.LastSeenAt.Before(before) {
			delete(f.identities, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeIdentities) CreateAuthMethod(ctx context.Context, am *domain.AuthMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.methods {
		if m.IdentityID == am.IdentityID && m.Method == am.Method {
			return domain.ErrAlreadyExists
		}
		if am.Subject != nil && m.Subject != nil && m.Method == am.Method && *m.Subject == *am.Subject {
			return domain.ErrAlreadyExists
		}
	}
	f.methods = append(f.methods, *am)
	return nil
}

func (f *fakeIdentities) GetAuthMethodByCredential(ctx context.Context, method domain.AuthMethodType, subject string) (*domain.AuthMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.methods {
		if m.Method == method && m.Subject != nil && *m.Subject == subject {
			found := m
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeIdentities) methodsOf(id uuid.UUID) []domain.AuthMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuthMethod
	for _, m := range f.methods {
		if m.IdentityID == id {
			out = append(out, m)
		}
	}
	return out
}

// txManagerMock runs fn directly; it does not roll back fake writes, so
// tests that need rollback assert on the returned error only.
type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls       int
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	mock.calls++
	if mock.RunInTxFunc != nil {
		return mock.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

type oauthVerifierMock struct {
	VerifyCodeFunc func(ctx context.Context, code string) (*auth.ExternalIdentity, error)
}

func (mock *oauthVerifierMock) VerifyCode(ctx context.Context, code string) (*auth.ExternalIdentity, error) {
	if mock.VerifyCodeFunc == nil {
		panic("oauthVerifierMock.VerifyCodeFunc: method is nil but oauthVerifier.VerifyCode was just called")
	}
	return mock.VerifyCodeFunc(ctx, code)
}

type tokenManagerMock struct {
	GenerateAccessTokenFunc func(identityID uuid.UUID, anonymous bool) (string, error)
	ValidateAccessTokenFunc func(token string) (auth.Claims, error)
}

func (mock *tokenManagerMock) GenerateAccessToken(identityID uuid.UUID, anonymous bool) (string, error) {
	if mock.GenerateAccessTokenFunc == nil {
		return fmt.Sprintf("token:%s:%t", identityID, anonymous), nil
	}
	return mock.GenerateAccessTokenFunc(identityID, anonymous)
}

func (mock *tokenManagerMock) ValidateAccessToken(token string) (auth.Claims, error) {
	if mock.ValidateAccessTokenFunc == nil {
		panic("tokenManagerMock.ValidateAccessTokenFunc: method is nil but tokenManager.ValidateAccessToken was just called")
	}
	return mock.ValidateAccessTokenFunc(token)
}
