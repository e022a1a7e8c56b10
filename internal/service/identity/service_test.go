package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/config"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// defaultCfg returns a config suitable for most tests.
func defaultCfg() config.AuthConfig {
	return config.AuthConfig{
		GoogleClientID:     "google_client_id",
		GoogleClientSecret: "google_client_secret",
		PasswordLogin:      true,
		BcryptCost:         bcrypt.MinCost,
		AnonymousIdleTTL:   24 * time.Hour,
	}
}

type fixture struct {
	svc   *Service
	repo  *fakeIdentities
	tx    *txManagerMock
	oauth *oauthVerifierMock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo: newFakeIdentities(),
		tx:   &txManagerMock{},
		oauth: &oauthVerifierMock{VerifyCodeFunc: func(ctx context.Context, code string) (*auth.ExternalIdentity, error) {
			name := "Anna"
			return &auth.ExternalIdentity{Subject: "g-" + code, Email: "anna@example.com", Name: &name}, nil
		}},
	}
	f.svc = NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), f.repo, f.tx, f.oauth, &tokenManagerMock{}, defaultCfg())
	return f
}

func google(code string) Credential {
	return Credential{Method: domain.AuthMethodGoogle, Code: code}
}

func password(email, pw string) Credential {
	return Credential{Method: domain.AuthMethodPassword, Email: email, Password: pw}
}

// ─── Anonymous ──────────────────────────────────────────────────────────────

func TestService_LoginAnonymous(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res, err := f.svc.LoginAnonymous(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Identity.Anonymous)
	assert.Equal(t, fmt.Sprintf("token:%s:true", res.Identity.ID), res.AccessToken)

	stored, err := f.repo.GetByID(context.Background(), res.Identity.ID)
	require.NoError(t, err)
	assert.True(t, stored.Anonymous)

	methods := f.repo.methodsOf(res.Identity.ID)
	require.Len(t, methods, 1)
	assert.Equal(t, domain.AuthMethodAnonymous, methods[0].Method)
	assert.Nil(t, methods[0].Subject)
}

func TestService_LoginAnonymous_RepoError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.repo.failCreate = errors.New("db down")

	_, err := f.svc.LoginAnonymous(context.Background())
	assert.Error(t, err)
}

// ─── Permanent login ────────────────────────────────────────────────────────

func TestService_LoginPermanent_GoogleRegistersThenReuses(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.LoginPermanent(ctx, google("abc"))
	require.NoError(t, err)
	assert.False(t, first.Identity.Anonymous)
	require.NotNil(t, first.Identity.Email)
	assert.Equal(t, "anna@example.com", *first.Identity.Email)

	second, err := f.svc.LoginPermanent(ctx, google("abc"))
	require.NoError(t, err)
	assert.Equal(t, first.Identity.ID, second.Identity.ID)
	assert.Equal(t, fmt.Sprintf("token:%s:false", first.Identity.ID), second.AccessToken)
}

func TestService_LoginPermanent_GoogleVerificationFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.oauth.VerifyCodeFunc = func(ctx context.Context, code string) (*auth.ExternalIdentity, error) {
		return nil, fmt.Errorf("oauth: invalid or expired code: %w", domain.ErrUnauthorized)
	}

	_, err := f.svc.LoginPermanent(context.Background(), google("bad"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_LoginPermanent_Password(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	anon, err := f.svc.LoginAnonymous(ctx)
	require.NoError(t, err)
	_, err = f.svc.UpgradeAnonymousToPermanent(ctx, anon.Identity.ID, password("Anna@Example.com", "correct horse"))
	require.NoError(t, err)

	res, err := f.svc.LoginPermanent(ctx, password(" anna@example.com ", "correct horse"))
	require.NoError(t, err)
	assert.Equal(t, anon.Identity.ID, res.Identity.ID)

	_, err = f.svc.LoginPermanent(ctx, password("anna@example.com", "wrong password"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.LoginPermanent(ctx, password("nobody@example.com", "correct horse"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_LoginPermanent_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	tests := map[string]Credential{
		"no method":      {},
		"anonymous":      {Method: domain.AuthMethodAnonymous},
		"google no code": {Method: domain.AuthMethodGoogle},
		"bad email":      password("not-an-email", "long enough"),
		"short password": password("a@b.c", "short"),
		"unknown method": {Method: "apple", Code: "x"},
	}

	for name, cred := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := f.svc.LoginPermanent(context.Background(), cred)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestService_LoginPermanent_PasswordDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.svc.cfg.PasswordLogin = false

	_, err := f.svc.LoginPermanent(context.Background(), password("a@b.c", "long enough"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ─── Upgrade ────────────────────────────────────────────────────────────────

func TestService_Upgrade_KeepsIdentifier(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	anon, err := f.svc.LoginAnonymous(ctx)
	require.NoError(t, err)

	res, err := f.svc.UpgradeAnonymousToPermanent(ctx, anon.Identity.ID, google("xyz"))
	require.NoError(t, err)

	assert.Equal(t, anon.Identity.ID, res.Identity.ID)
	assert.False(t, res.Identity.Anonymous)
	assert.NotNil(t, res.Identity.UpgradedAt)
	assert.Equal(t, fmt.Sprintf("token:%s:false", anon.Identity.ID), res.AccessToken)

	stored, err := f.repo.GetByID(ctx, anon.Identity.ID)
	require.NoError(t, err)
	assert.False(t, stored.Anonymous)
	assert.Len(t, f.repo.methodsOf(anon.Identity.ID), 2)

	login, err := f.svc.LoginPermanent(ctx, google("xyz"))
	require.NoError(t, err)
	assert.Equal(t, anon.Identity.ID, login.Identity.ID)
}

func TestService_Upgrade_CredentialConflictLeavesAnonymousUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	owner, err := f.svc.LoginPermanent(ctx, google("taken"))
	require.NoError(t, err)

	anon, err := f.svc.LoginAnonymous(ctx)
	require.NoError(t, err)

	_, err = f.svc.UpgradeAnonymousToPermanent(ctx, anon.Identity.ID, google("taken"))
	require.ErrorIs(t, err, domain.ErrCredentialConflict)

	stored, err := f.repo.GetByID(ctx, anon.Identity.ID)
	require.NoError(t, err)
	assert.True(t, stored.Anonymous)
	assert.Nil(t, stored.UpgradedAt)
	assert.Len(t, f.repo.methodsOf(anon.Identity.ID), 1)
	assert.NotEqual(t, owner.Identity.ID, anon.Identity.ID)
}

func TestService_Upgrade_ConcurrentBindMapsToConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	anon, err := f.svc.LoginAnonymous(ctx)
	require.NoError(t, err)

	f.tx.RunInTxFunc = func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fmt.Errorf("attach credential: %w", domain.ErrAlreadyExists)
	}

	_, err = f.svc.UpgradeAnonymousToPermanent(ctx, anon.Identity.ID, password("a@b.c", "long enough"))
	assert.ErrorIs(t, err, domain.ErrCredentialConflict)
}

func TestService_Upgrade_AlreadyPermanent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	perm, err := f.svc.LoginPermanent(ctx, google("p"))
	require.NoError(t, err)

	_, err = f.svc.UpgradeAnonymousToPermanent(ctx, perm.Identity.ID, password("a@b.c", "long enough"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestService_Upgrade_UnknownIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.UpgradeAnonymousToPermanent(context.Background(), uuid.New(), google("x"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Tokens, resolve, logout, cleanup ───────────────────────────────────────

func TestService_ValidateToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := uuid.New()
	f.svc.tokens = &tokenManagerMock{ValidateAccessTokenFunc: func(token string) (auth.Claims, error) {
		if token == "good" {
			return auth.Claims{IdentityID: id, Anonymous: true}, nil
		}
		return auth.Claims{}, errors.New("parse token: bad signature")
	}}

	claims, err := f.svc.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, id, claims.IdentityID)
	assert.True(t, claims.Anonymous)

	_, err = f.svc.ValidateToken(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_Resolve(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	anon, err := f.svc.LoginAnonymous(ctx)
	require.NoError(t, err)

	got, err := f.svc.Resolve(ctx, anon.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, anon.Identity.ID, got.ID)

	_, err = f.svc.Resolve(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_Logout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	anon, err := f.svc.LoginAnonymous(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, anon.Identity.ID))
	assert.ErrorIs(t, f.svc.Logout(ctx, uuid.Nil), domain.ErrUnauthorized)
}

func TestService_CleanupIdleAnonymous(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return base }
	stale, err := f.svc.LoginAnonymous(ctx)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return base.Add(48 * time.Hour) }
	fresh, err := f.svc.LoginAnonymous(ctx)
	require.NoError(t, err)

	n, err := f.svc.CleanupIdleAnonymous(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.repo.GetByID(ctx, stale.Identity.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.repo.GetByID(ctx, fresh.Identity.ID)
	assert.NoError(t, err)
}
