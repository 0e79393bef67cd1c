package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vidhub/backend/internal/client"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/handler"
	"github.com/vidhub/backend/internal/logger"
	"github.com/vidhub/backend/internal/service"
)

// @title vidhub user API
// @version 1.0
// @description Account registration, login and session management.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel)
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	} else if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open user store", "driver", cfg.Store.Driver, "error", err)
	}
	defer closeStore()

	media, err := client.NewMediaUploader(ctx, cfg.Media)
	if err != nil {
		log.Fatal("Failed to initialise media uploader", "backend", cfg.Media.Backend, "error", err)
	}

	authService, err := service.NewAuthService(store, media, cfg.Auth, cfg.Server.Production(), log)
	if err != nil {
		log.Fatal("Failed to initialise auth service", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler.NewRouter(authService, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", "addr", srv.Addr, "store", cfg.Store.Driver, "media", cfg.Media.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (service.UserStore, func(), error) {
	switch cfg.Store.Driver {
	case "mongo", "mongodb":
		store, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(closeCtx)
		}, nil
	case "postgres":
		store, err := db.OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "memory":
		return db.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
