package rest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/service/identity"
	"github.com/nguyendangtritoan/german-note/internal/service/workspace"
)

var (
	_ identityService    = &identityServiceMock{}
	_ workspaceLifecycle = &lifecycleMock{}
	_ Workspace          = &workspaceMock{}
)

type identityServiceMock struct {
	LoginAnonymousFunc func(ctx context.Context) (*identity.AuthResult, error)
	LoginPermanentFunc func(ctx context.Context, cred identity.Credential) (*identity.AuthResult, error)
	UpgradeFunc        func(ctx context.Context, identityID uuid.UUID, cred identity.Credential) (*identity.AuthResult, error)
	LogoutFunc         func(ctx context.Context, identityID uuid.UUID) error
}

func (m *identityServiceMock) LoginAnonymous(ctx context.Context) (*identity.AuthResult, error) {
	return m.LoginAnonymousFunc(ctx)
}

func (m *identityServiceMock) LoginPermanent(ctx context.Context, cred identity.Credential) (*identity.AuthResult, error) {
	return m.LoginPermanentFunc(ctx, cred)
}

func (m *identityServiceMock) UpgradeAnonymousToPermanent(ctx context.Context, identityID uuid.UUID, cred identity.Credential) (*identity.AuthResult, error) {
	return m.UpgradeFunc(ctx, identityID, cred)
}

func (m *identityServiceMock) Logout(ctx context.Context, identityID uuid.UUID) error {
	return m.LogoutFunc(ctx, identityID)
}

type lifecycleMock struct {
	mu         sync.Mutex
	identified []*domain.Identity
	evicted    []uuid.UUID
}

func (m *lifecycleMock) Identify(i *domain.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identified = append(m.identified, i)
}

func (m *lifecycleMock) Evict(_ context.Context, identityID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evicted = append(m.evicted, identityID)
}

// workspaceMock implements Workspace with optional func fields. Unset
// methods panic so a test notices unexpected calls.
type workspaceMock struct {
	SnapshotFunc             func() workspace.Snapshot
	SubscribeFunc            func() (<-chan workspace.Snapshot, func())
	SearchFunc               func(ctx context.Context, query string, focus *string) (workspace.SearchResult, error)
	RegenerateExampleFunc    func(ctx context.Context, wordID uuid.UUID) (*domain.WordEntry, error)
	DeleteWordFunc           func(ctx context.Context, wordID uuid.UUID) error
	ArchiveFunc              func(ctx context.Context) (string, error)
	ListBundlesFunc          func(ctx context.Context) ([]*domain.Bundle, error)
	GetBundleFunc            func(ctx context.Context, id string) (*domain.Bundle, error)
	DeleteBundleFunc         func(ctx context.Context, id string) error
	RemoveWordFromBundleFunc func(ctx context.Context, bundleID string, wordID uuid.UUID) error
	OpenBundleFunc           func(ctx context.Context, id string) (domain.View, error)
	OpenLiveFunc             func(ctx context.Context) (domain.View, error)
}

func (m *workspaceMock) Snapshot() workspace.Snapshot { return m.SnapshotFunc() }

func (m *workspaceMock) Subscribe() (<-chan workspace.Snapshot, func()) { return m.SubscribeFunc() }

func (m *workspaceMock) Search(ctx context.Context, query string, focus *string) (workspace.SearchResult, error) {
	return m.SearchFunc(ctx, query, focus)
}

func (m *workspaceMock) RegenerateExample(ctx context.Context, wordID uuid.UUID) (*domain.WordEntry, error) {
	return m.RegenerateExampleFunc(ctx, wordID)
}

func (m *workspaceMock) DeleteWord(ctx context.Context, wordID uuid.UUID) error {
	return m.DeleteWordFunc(ctx, wordID)
}

func (m *workspaceMock) Archive(ctx context.Context) (string, error) { return m.ArchiveFunc(ctx) }

func (m *workspaceMock) ListBundles(ctx context.Context) ([]*domain.Bundle, error) {
	return m.ListBundlesFunc(ctx)
}

func (m *workspaceMock) GetBundle(ctx context.Context, id string) (*domain.Bundle, error) {
	return m.GetBundleFunc(ctx, id)
}

func (m *workspaceMock) DeleteBundle(ctx context.Context, id string) error {
	return m.DeleteBundleFunc(ctx, id)
}

func (m *workspaceMock) RemoveWordFromBundle(ctx context.Context, bundleID string, wordID uuid.UUID) error {
	return m.RemoveWordFromBundleFunc(ctx, bundleID, wordID)
}

func (m *workspaceMock) OpenBundle(ctx context.Context, id string) (domain.View, error) {
	return m.OpenBundleFunc(ctx, id)
}

func (m *workspaceMock) OpenLive(ctx context.Context) (domain.View, error) { return m.OpenLiveFunc(ctx) }
