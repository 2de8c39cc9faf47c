package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/paygateauth/internal/admin"
	"github.com/dmitrijs2005/paygateauth/internal/cryptox"
	"github.com/dmitrijs2005/paygateauth/internal/flagx"
	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server"
	"github.com/dmitrijs2005/paygateauth/internal/server/config"
)

// flags that consume the following argument, so it is not taken for a command.
var valuedFlags = []string{"-c", "-config", "--config", "-a", "-m", "-d", "-s", "-S", "-t", "-r", "-k", "-R", "-l"}

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewZapLogger(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb, err := server.OpenRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	tool := admin.NewTool(db, server.NewRepositoryManager(rdb), cryptox.NewVerifier(cfg.BcryptCost), os.Stdout, logger)

	if err := tool.Run(ctx, flagx.Positional(os.Args[1:], valuedFlags)); err != nil {
		if errors.Is(err, admin.ErrUsage) {
			tool.Usage()
		}
		logger.Error(ctx, "authctl failed", "error", err)
		os.Exit(1)
	}

}
