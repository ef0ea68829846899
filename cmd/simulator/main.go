package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/zeusync/vehicore/internal/config"
	"github.com/zeusync/vehicore/internal/core/observability/log"
	"github.com/zeusync/vehicore/internal/injector"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the configuration file (default: ./vehicore.yaml if present)")
	pflag.Parse()

	// Used until the configured logger exists.
	boot := log.New(log.LevelInfo)

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Error("loading config", log.Error(err))
		_ = boot.Sync()
		os.Exit(1)
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		boot.Error("initializing simulator", log.Error(err))
		_ = boot.Sync()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx)
	stop()
	cleanup()

	if err != nil {
		app.Logger.Error("simulator stopped with error", log.Error(err))
	}
	_ = app.Logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
