package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"github.com/hecopilot/copilot-backend/config"
	"github.com/hecopilot/copilot-backend/internal/auth"
	"github.com/hecopilot/copilot-backend/internal/bootstrap"
	"github.com/hecopilot/copilot-backend/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(cfg.App.Environment, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := bootstrap.RouterDeps{Config: cfg}

	if cfg.Database.DSN != "" {
		pool, err := bootstrap.OpenDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		deps.Pool = pool

		sqlDB, err := bootstrap.OpenSQL(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sql database")
		}
		defer sqlDB.Close()
		deps.SQL = sqlDB

		sandbox, err := bootstrap.NewSandbox(ctx, cfg.Storage, sqlDB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize object storage")
		}
		deps.Sandbox = sandbox
	}

	searcher, err := bootstrap.NewSearcher(cfg.Search, deps.Pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize search backend")
	}
	deps.Searcher = searcher

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, open-data cache disabled")
	} else if rdb != nil {
		defer rdb.Close()
		deps.Redis = rdb
	}

	authClient, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase")
	}
	if authClient == nil {
		log.Warn().Msg("FIREBASE_CREDENTIALS_PATH not set, bearer-protected routes will fail")
	}
	deps.Auth = authClient

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           bootstrap.BuildRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.App.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
