// Command server runs the German vocabulary notebook API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nguyendangtritoan/german-note/internal/app"
	"github.com/nguyendangtritoan/german-note/internal/config"
)

func main() {
	envHelp := flag.Bool("env-help", false, "print the supported environment variables and exit")
	flag.Parse()

	if *envHelp {
		config.Usage(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		slog.Error("application stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
