// Command cleanup deletes anonymous identities idle for longer than
// AUTH_ANONYMOUS_IDLE_TTL. Sessions and bundles go with them through the
// foreign keys. Run it from cron.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nguyendangtritoan/german-note/internal/adapter/postgres"
	identityrepo "github.com/nguyendangtritoan/german-note/internal/adapter/postgres/identity"
	"github.com/nguyendangtritoan/german-note/internal/app"
	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/config"
	"github.com/nguyendangtritoan/german-note/internal/service/identity"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the cleanup after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.Log)

	if err := run(cfg, logger, *timeout); err != nil {
		logger.Error("anonymous cleanup failed",
			slog.String("error", err.Error()),
			slog.Duration("idle_ttl", cfg.Auth.AnonymousIdleTTL),
		)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, timeout time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	svc := identity.NewService(
		logger,
		identityrepo.New(pool),
		postgres.NewTxManager(pool),
		nil,
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL),
		cfg.Auth,
	)

	deleted, err := svc.CleanupIdleAnonymous(ctx)
	if err != nil {
		return err
	}
	logger.Info("anonymous cleanup completed",
		slog.Int64("deleted", deleted),
		slog.Duration("idle_ttl", cfg.Auth.AnonymousIdleTTL),
	)
	return nil
}
