package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kurobon/nexusvc/internal/config"
	"github.com/kurobon/nexusvc/internal/git"
	_ "github.com/kurobon/nexusvc/internal/git/commands" // Register commands
	"github.com/kurobon/nexusvc/internal/logging"
	"github.com/kurobon/nexusvc/internal/mission"
	"github.com/kurobon/nexusvc/internal/server"
	"github.com/kurobon/nexusvc/internal/state"
	"github.com/kurobon/nexusvc/internal/status"
	"github.com/kurobon/nexusvc/internal/storage/migrate"
	"github.com/kurobon/nexusvc/internal/storage/remotes"
	"github.com/kurobon/nexusvc/internal/storage/sqlite"
	"github.com/kurobon/nexusvc/internal/storage/statuscache"
)

func main() {
	cfg := config.DefaultConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	db, err := sqlite.Open(cfg.DBPath())
	if err != nil {
		logger.Fatal("open database", "path", cfg.DBPath(), "err", err)
	}
	defer db.Close()
	if err := migrate.Up(db); err != nil {
		logger.Fatal("migrate database", "err", err)
	}

	loader := mission.NewLoader(cfg.MissionDir, logger)
	if _, err := loader.Seed(mission.DefaultID); err != nil {
		logger.Fatal("load default mission", "err", err)
	}

	sessionManager := git.NewSessionManager(git.ManagerOptions{
		Seed: func(context.Context) (*state.Repository, error) {
			return loader.Seed(mission.DefaultID)
		},
		NewCache: func(sessionID string) status.Cache {
			return statuscache.NewStore(db, sessionID)
		},
		Remotes:         remotes.NewRegistry(db),
		Logger:          logger,
		QueueLatency:    cfg.QueueLatency,
		Delays:          git.DefaultDelays().Scaled(cfg.LatencyScale),
		PushFailureRate: cfg.PushFailureRate,
		Trunk:           cfg.Trunk,
		Author:          cfg.Author,
	})

	srv := server.NewServer(sessionManager, mission.NewEngine(loader, sessionManager), logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "db", cfg.DBPath())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	if err := sessionManager.Close(shutdownCtx); err != nil {
		logger.Error("drain sessions", "err", err)
	}
}
