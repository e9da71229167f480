package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"linkcard/backend/internal/auth"
	"linkcard/backend/internal/database"
	"linkcard/backend/internal/filestorage"
	"linkcard/backend/internal/handlers"
	"linkcard/backend/internal/notifications"
	"linkcard/backend/internal/repository"
	"linkcard/backend/internal/router"
	"linkcard/backend/pkg/config"
	applog "linkcard/backend/pkg/log"
	appmetrics "linkcard/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config.LoadConfig()
	applog.Init(config.Cfg.LogLevel, config.Cfg.Environment)
	defer applog.Sync()
	log := applog.L.Named("server")

	if err := config.ValidateServer(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	if err := auth.InitializeJWT(config.Cfg.JWTSecret, config.Cfg.JWTLifespan); err != nil {
		log.Fatal("Failed to initialize JWT", zap.Error(err))
	}
	if err := auth.SetSaltRounds(config.Cfg.SaltRounds); err != nil {
		log.Fatal("Invalid SALT_ROUNDS", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(config.Cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	if err := database.MigrateDB(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	storage, err := filestorage.InitFileStorage(ctx)
	if err != nil {
		log.Fatal("Failed to initialize file storage", zap.Error(err))
	}
	mailer, err := notifications.InitEmailService(ctx)
	if err != nil {
		log.Fatal("Failed to initialize email service", zap.Error(err))
	}

	db := database.GetDB()
	h := handlers.NewHandler(
		repository.NewGormUserRepository(db),
		repository.NewGormResetTokenRepository(db),
		storage,
		mailer,
	)
	h.Pinger = database.Ping

	appmetrics.SetAppVersion(config.Cfg.AppVersion)
	if strings.ToLower(config.Cfg.Environment) != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := router.SetupRouter(applog.L, h)
	if err != nil {
		log.Fatal("Failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(config.Cfg.Host, config.Cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr), zap.Strings("allowedOrigins", config.Cfg.AllowedOrigins))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
