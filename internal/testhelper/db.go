// Package testhelper starts the PostgreSQL and Redis containers shared by
// the integration tests and seeds fixtures into them.
package testhelper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nguyendangtritoan/german-note/internal/adapter/postgres"
	"github.com/nguyendangtritoan/german-note/internal/config"
	"github.com/nguyendangtritoan/german-note/migrations"
)

const startupTimeout = 2 * time.Minute

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error

	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// SetupTestDB returns a pool on a migrated PostgreSQL shared by the whole
// test binary. The container is started on first use and lives until the
// process exits; the pool is closed via t.Cleanup.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	skipShort(t)

	pgOnce.Do(func() {
		pgDSN, pgErr = startPostgres()
	})
	if pgErr != nil {
		t.Fatalf("testhelper: postgres: %v", pgErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, config.DatabaseConfig{DSN: pgDSN, MaxConns: 4, MinConns: 1})
	if err != nil {
		t.Fatalf("testhelper: pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// SetupTestRedis returns the config of a Redis shared by the whole test
// binary.
func SetupTestRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	skipShort(t)

	redisOnce.Do(func() {
		redisAddr, redisErr = startRedis()
	})
	if redisErr != nil {
		t.Fatalf("testhelper: redis: %v", redisErr)
	}
	return config.RedisConfig{Addr: redisAddr}
}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("testhelper: skipping integration test in -short mode")
	}
}

func startPostgres() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	endpoint, err := startContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "german",
			"POSTGRES_PASSWORD": "german",
			"POSTGRES_DB":       "german_note",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}, "5432")
	if err != nil {
		return "", err
	}
	dsn := fmt.Sprintf("postgres://german:german@%s/german_note?sslmode=disable", endpoint)

	pool, err := postgres.NewPool(ctx, config.DatabaseConfig{DSN: dsn, MaxConns: 2})
	if err != nil {
		return "", err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, migrations.FS, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		return "", err
	}
	return dsn, nil
}

func startRedis() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	return startContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "6379")
}

// startContainer runs req and returns the host:port of its mapped port.
func startContainer(ctx context.Context, req testcontainers.ContainerRequest, port nat.Port) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("%s host: %w", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", fmt.Errorf("%s port: %w", req.Image, err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port()), nil
}
