package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Simplici0/labquote/internal/catalog"
	"github.com/Simplici0/labquote/internal/config"
	"github.com/Simplici0/labquote/internal/db"
	"github.com/Simplici0/labquote/internal/migrations"
	"github.com/Simplici0/labquote/internal/observability"
	"github.com/Simplici0/labquote/internal/seed"
	"github.com/Simplici0/labquote/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	observability.InitLogger(cfg.ServiceName, cfg.IsDev(), cfg.LogLevel)
	logger := *observability.GetLogger()

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, logger); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}

	source, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	stats, err := seed.Run(ctx, database, source)
	if err != nil {
		return fmt.Errorf("seed reference tables: %w", err)
	}
	logger.Info().
		Int("inserts", stats.Inserts).
		Int("updates", stats.Updates).
		Int("deletes", stats.Deletes).
		Msg("reference tables synced")

	c, err := store.LoadCatalog(ctx, database)
	if err != nil {
		return fmt.Errorf("load stored catalog: %w", err)
	}

	srv, err := newServer(c, cfg.Profile, logger)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("profile", cfg.Profile).
			Int("tests", len(c.Tests)).
			Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
