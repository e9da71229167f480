package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkcard/backend/internal/cleanup"
	"linkcard/backend/internal/database"
	"linkcard/backend/internal/filestorage"
	"linkcard/backend/internal/repository"
	"linkcard/backend/pkg/config"
	applog "linkcard/backend/pkg/log"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	config.LoadConfig()
	applog.Init(config.Cfg.LogLevel, config.Cfg.Environment)
	defer applog.Sync()
	log := applog.L.Named("cleanup")

	if err := config.ValidateCleanup(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(config.Cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	storage, err := filestorage.InitFileStorage(ctx)
	if err != nil {
		log.Fatal("Failed to initialize file storage", zap.Error(err))
	}

	db := database.GetDB()
	sweeper := &cleanup.Sweeper{
		Users:    repository.NewGormUserRepository(db),
		Tokens:   repository.NewGormResetTokenRepository(db),
		Storage:  storage,
		Interval: config.Cfg.CleanupInterval,
		MinAge:   config.Cfg.CleanupMinAge,
	}

	if *once {
		report, err := sweeper.Sweep(ctx, time.Now())
		if err != nil {
			log.Error("Cleanup sweep failed", zap.Error(err))
			applog.Sync()
			os.Exit(1)
		}
		log.Info("Cleanup sweep finished", zap.Int("deleted", report.Deleted), zap.Int("listed", report.Listed))
		return
	}

	if err := sweeper.Run(ctx); err != nil {
		log.Error("Cleanup job exited", zap.Error(err))
	}
}
