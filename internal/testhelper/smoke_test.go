package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	identity := SeedIdentity(t, pool)

	var anonymous bool
	err := pool.QueryRow(context.Background(),
		`SELECT anonymous FROM identities WHERE id = $1`, identity.ID,
	).Scan(&anonymous)
	if err != nil {
		t.Fatalf("expected identity in DB, got error: %v", err)
	}
	if !anonymous {
		t.Fatal("seeded identity should be anonymous")
	}
}
