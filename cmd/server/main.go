package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server"
	"github.com/dmitrijs2005/paygateauth/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewZapLogger(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		return
	}

	app.Run(ctx)

}
