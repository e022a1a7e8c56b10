package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyendangtritoan/german-note/internal/adapter/postgres/identity"
	"github.com/nguyendangtritoan/german-note/internal/testhelper"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

func TestRepo_CreateGetUpgrade(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := identity.New(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	i := &domain.Identity{ID: uuid.New(), Anonymous: true, CreatedAt: now, LastSeenAt: now}
	require.NoError(t, repo.Create(ctx, i))

	got, err := repo.GetByID(ctx, i.ID)
	require.NoError(t, err)
	assert.True(t, got.Anonymous)
	assert.Nil(t, got.Email)

	got.Upgrade(domain.StringPtr("anna@example.com"), domain.StringPtr("Anna"), now)
	require.NoError(t, repo.MarkUpgraded(ctx, got))

	got, err = repo.GetByID(ctx, i.ID)
	require.NoError(t, err)
	assert.False(t, got.Anonymous)
	assert.Equal(t, "anna@example.com", *got.Email)
	require.NotNil(t, got.UpgradedAt)

	assert.ErrorIs(t, repo.MarkUpgraded(ctx, got), domain.ErrConflict)
}

func TestRepo_GetMissing(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := identity.New(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_AuthMethodUniqueCredential(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := identity.New(pool)
	ctx := context.Background()

	a := testhelper.SeedIdentity(t, pool)
	b := testhelper.SeedIdentity(t, pool)
	subject := "google-" + uuid.NewString()[:8]

	am := &domain.AuthMethod{ID: uuid.New(), IdentityID: a.ID, Method: domain.AuthMethodGoogle, Subject: &subject, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateAuthMethod(ctx, am))

	dup := &domain.AuthMethod{ID: uuid.New(), IdentityID: b.ID, Method: domain.AuthMethodGoogle, Subject: &subject, CreatedAt: time.Now()}
	assert.ErrorIs(t, repo.CreateAuthMethod(ctx, dup), domain.ErrAlreadyExists)

	got, err := repo.GetAuthMethodByCredential(ctx, domain.AuthMethodGoogle, subject)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.IdentityID)

	list, err := repo.ListAuthMethods(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.AuthMethodGoogle, list[0].Method)

	_, err = repo.GetAuthMethodByCredential(ctx, domain.AuthMethodPassword, subject)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_DeleteIdleAnonymous(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := identity.New(pool)
	ctx := context.Background()

	idle := testhelper.SeedIdentity(t, pool)
	active := testhelper.SeedIdentity(t, pool)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Touch(ctx, idle.ID, past))

	deleted, err := repo.DeleteIdleAnonymous(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	_, err = repo.GetByID(ctx, idle.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetByID(ctx, active.ID)
	assert.NoError(t, err)
}
