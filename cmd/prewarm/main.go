// Command prewarm fills the dictionary cache from a word list, one
// generation call per missing word.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nguyendangtritoan/german-note/internal/adapter/postgres"
	dictionaryrepo "github.com/nguyendangtritoan/german-note/internal/adapter/postgres/dictionary"
	redisadapter "github.com/nguyendangtritoan/german-note/internal/adapter/redis"
	"github.com/nguyendangtritoan/german-note/internal/app"
	"github.com/nguyendangtritoan/german-note/internal/app/prewarm"
	"github.com/nguyendangtritoan/german-note/internal/config"
)

func main() {
	prewarmConfigPath := flag.String("prewarm-config", "", "path to prewarm YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(*prewarmConfigPath, logger); err != nil {
		logger.Error("prewarm failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(prewarmConfigPath string, logger *slog.Logger) error {
	cfg, err := prewarm.LoadConfig(prewarmConfigPath)
	if err != nil {
		return err
	}

	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := app.NewGenerator(ctx, logger, appCfg.Generation)
	if err != nil {
		return err
	}

	if appCfg.Dictionary.Backend == "redis" {
		rdb, err := redisadapter.NewClient(ctx, appCfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		dict := redisadapter.NewDictCache(rdb, appCfg.Redis.KeyPrefix)
		_, err = prewarm.Run(ctx, cfg, generator, dict, logger)
		return err
	}

	pool, err := postgres.NewPool(ctx, appCfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	_, err = prewarm.Run(ctx, cfg, generator, dictionaryrepo.New(pool), logger)
	return err
}
