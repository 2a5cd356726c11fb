package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/mima/internal/backup"
	"github.com/dmitrijs2005/mima/internal/cli"
	"github.com/dmitrijs2005/mima/internal/config"
	"github.com/dmitrijs2005/mima/internal/logging"
	"github.com/dmitrijs2005/mima/internal/repositories/repomanager"
	"github.com/dmitrijs2005/mima/internal/services"
	"github.com/dmitrijs2005/mima/internal/session"
)

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("invalid configuration: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		return
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)

	repos, err := repomanager.Open(ctx, cfg.StorageDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Printf("error opening %s store: %v", cfg.StorageDriver, err)
		return
	}
	defer repos.Close()

	store, err := backup.NewStore(cfg)
	if err != nil {
		log.Printf("error configuring backups: %v", err)
		return
	}

	sess := session.NewManager(cfg.SessionValidity)
	svc := services.NewVaultService(repos, sess, store, logger)

	logger.Debug(ctx, "vault opened", "driver", cfg.StorageDriver, "backup", cfg.BackupTarget)
	cli.NewApp(svc, os.Stdin, os.Stdout, logger).Run(ctx)
}
