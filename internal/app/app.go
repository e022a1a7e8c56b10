package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nguyendangtritoan/german-note/internal/adapter/mirror"
	"github.com/nguyendangtritoan/german-note/internal/adapter/postgres"
	bundlerepo "github.com/nguyendangtritoan/german-note/internal/adapter/postgres/bundle"
	dictionaryrepo "github.com/nguyendangtritoan/german-note/internal/adapter/postgres/dictionary"
	identityrepo "github.com/nguyendangtritoan/german-note/internal/adapter/postgres/identity"
	"github.com/nguyendangtritoan/german-note/internal/adapter/postgres/sessiondoc"
	"github.com/nguyendangtritoan/german-note/internal/adapter/provider/google"
	redisadapter "github.com/nguyendangtritoan/german-note/internal/adapter/redis"
	"github.com/nguyendangtritoan/german-note/internal/auth"
	"github.com/nguyendangtritoan/german-note/internal/config"
	"github.com/nguyendangtritoan/german-note/internal/domain"
	"github.com/nguyendangtritoan/german-note/internal/service/identity"
	"github.com/nguyendangtritoan/german-note/internal/service/workspace"
	"github.com/nguyendangtritoan/german-note/internal/transport/middleware"
	"github.com/nguyendangtritoan/german-note/internal/transport/rest"
	"github.com/nguyendangtritoan/german-note/migrations"
)

type dictionaryCache interface {
	Lookup(ctx context.Context, key string) (*domain.CachedAnalysis, error)
	Store(ctx context.Context, key string, entry domain.CachedAnalysis) (bool, error)
}

type changeFeed interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
	Subscribe(ctx context.Context, onEvent func(domain.ChangeEvent)) error
}

type localMirror interface {
	Load(ctx context.Context, identityID uuid.UUID) domain.Session
	Save(ctx context.Context, identityID uuid.UUID, words domain.Session) error
	Delete(ctx context.Context, identityID uuid.UUID) error
}

type oauthVerifier interface {
	VerifyCode(ctx context.Context, code string) (*auth.ExternalIdentity, error)
}

// Run is the application entry point. It wires the stores, the services and
// the HTTP server, and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("generation_provider", cfg.Generation.Provider),
		slog.String("dictionary_backend", cfg.Dictionary.Backend),
	)

	// Database.
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	txm := postgres.NewTxManager(pool)

	identities := identityrepo.New(pool)
	sessions := sessiondoc.New(pool)
	bundles := bundlerepo.New(pool)

	health := rest.NewHealthHandler(pool, BuildVersion())

	// Dictionary cache and change feed.
	var dict dictionaryCache = dictionaryrepo.New(pool)
	var feed changeFeed = workspace.NewLocalFeed()
	if cfg.Redis.Enabled() {
		rdb, err := redisadapter.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()

		feed = redisadapter.NewFeed(logger, rdb, cfg.Redis.FeedChannel)
		if cfg.Dictionary.Backend == "redis" {
			dict = redisadapter.NewDictCache(rdb, cfg.Redis.KeyPrefix)
		}
		health.WithComponent("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	var mirrorStore localMirror
	if cfg.Mirror.Dir != "" {
		store, err := mirror.New(logger, cfg.Mirror.Dir)
		if err != nil {
			return err
		}
		mirrorStore = store
	}

	// Generation.
	generator, err := NewGenerator(ctx, logger, cfg.Generation)
	if err != nil {
		return err
	}

	// Identity.
	var oauth oauthVerifier
	if cfg.Auth.IsProviderAllowed(string(domain.AuthMethodGoogle)) {
		oauth = google.NewVerifier(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURI, logger)
	}
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	identityService := identity.NewService(logger, identities, txm, oauth, jwtManager, cfg.Auth)

	// Workspaces.
	hub := workspace.NewHub(logger, sessions, bundles, dict, generator, mirrorStore, identityService, feed, cfg.Workspace)
	if err := hub.Start(ctx); err != nil {
		return err
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, time.Minute)
		defer limiter.Stop()
	}

	workspaces := func(ctx context.Context, identityID uuid.UUID) rest.Workspace {
		return hub.Workspace(ctx, identityID)
	}
	router := newRouter(logger, cfg.CORS, handlers{
		health:    health,
		auth:      rest.NewAuthHandler(identityService, hub, logger),
		workspace: rest.NewWorkspaceHandler(workspaces, logger),
		catalog:   rest.NewCatalogHandler(cfg.Generation.TargetLanguages),
	}, identityService, limiter)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	srv.RegisterOnShutdown(hub.DisconnectObservers)

	return serve(ctx, logger, srv, cfg.Server.ShutdownTimeout, hub.Close)
}

// serve runs srv until ctx is done, then shuts it down gracefully and calls
// drain once no request is in flight.
func serve(ctx context.Context, logger *slog.Logger, srv *http.Server, shutdownTimeout time.Duration, drain func()) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.String("error", err.Error()))
	}
	drain()

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	logger.Info("stopped")
	return nil
}
