package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpadapter "cv-builder/internal/adapter/http"
	repo "cv-builder/internal/adapter/repository"
	"cv-builder/internal/auth"
	"cv-builder/internal/config"
	"cv-builder/internal/export"
	"cv-builder/internal/infrastructure/migration"
	"cv-builder/internal/render"
	"cv-builder/internal/section"
	"cv-builder/internal/usecase"
	"cv-builder/pkg/ai"
	infra "cv-builder/pkg/infrastructure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// infra setup
	blobs, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store not available", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := section.Default()
	projOpts := []render.Option{render.WithRegistry(reg), render.WithLogger(log)}
	if cfg.RenderStrict {
		projOpts = append(projOpts, render.WithStrict())
	}
	if cfg.PDFEngine == "chromium" {
		chrome := infra.NewChromiumBackend(cfg.ChromePath)
		if !chrome.Available() {
			log.Warn("chromium not found, pdf export will report the backend as unavailable")
		}
		projOpts = append(projOpts, render.WithBackend(render.FormatPDF, chrome))
	}
	pipeline := export.NewPipeline(
		export.WithProjector(render.NewProjector(projOpts...)),
		export.WithTimeout(cfg.ExportTimeout),
		export.WithLogger(log),
	)

	editorOpts := []usecase.EditorOption{
		usecase.WithExporter(pipeline),
		usecase.WithRegistry(reg),
		usecase.WithLogger(log),
	}
	if cfg.AIServiceURL != "" {
		client := ai.NewClient(cfg.AIServiceURL,
			ai.WithLanguage(cfg.AILanguage),
			ai.WithRegistry(reg),
			ai.WithRateLimit(cfg.AIRatePerSec, 2),
			ai.WithLogger(log),
		)
		editorOpts = append(editorOpts, usecase.WithTailorer(client))
	}
	sessions := usecase.NewSessions(repo.NewDocumentStore(blobs, log), editorOpts...)

	var verifier auth.Verifier
	if cfg.AuthSecret != "" {
		verifier = auth.NewHMAC(cfg.AuthSecret)
	} else {
		log.Warn("AUTH_SECRET not set, serving a single local document without authentication")
	}

	app := httpadapter.NewApp(httpadapter.NewHandler(sessions, reg, log), verifier, log)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server failed", "err", err)
			stop()
		}
	}()
	log.Info("listening", "port", cfg.Port, "store", cfg.Store, "pdf_engine", cfg.PDFEngine)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.BlobStore, func(), error) {
	switch cfg.Store {
	case "sqlite":
		s, err := repo.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		pool, err := infra.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := migration.RunMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo.NewPostgres(pool), pool.Close, nil
	case "redis":
		s, err := repo.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "memory":
		return repo.NewMemory(), func() {}, nil
	}
	return nil, nil, errors.New("unknown store " + cfg.Store)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var w io.Writer = os.Stderr
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
