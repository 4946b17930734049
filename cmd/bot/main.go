package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eliseohh/cpmockbot/internal/bot"
	"github.com/eliseohh/cpmockbot/internal/classplus"
	"github.com/eliseohh/cpmockbot/internal/config"
	"github.com/eliseohh/cpmockbot/internal/fileserver"
	"github.com/eliseohh/cpmockbot/internal/history"
	"github.com/eliseohh/cpmockbot/internal/render"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.APIID == 0 || cfg.APIHash == "" {
		slog.Info("API_ID/API_HASH not set; they are only needed for MTProto clients")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. History DB
	db, err := history.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open history database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// 2. Leftovers from a previous crash
	if n, err := render.New(cfg.TmpDir).Sweep(time.Hour); err != nil {
		slog.Warn("Sweep of tmp dir failed", "dir", cfg.TmpDir, "error", err)
	} else if n > 0 {
		slog.Info("Removed stale generated files", "count", n)
	}

	// 3. File server
	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     fileserver.NewRouter(cfg.TmpDir, logger),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	go func() {
		slog.Info("File server listening", "addr", srv.Addr, "dir", cfg.TmpDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("File server failed", "error", err)
			stop()
		}
	}()

	// 4. Bot
	client := classplus.NewClient(cfg.APIBase, cfg.HTTPTimeout)
	b, err := bot.New(bot.Config{
		Token:  cfg.BotToken,
		URL:    cfg.BotAPIURL,
		TmpDir: cfg.TmpDir,
	}, client, db, logger)
	if err != nil {
		slog.Error("Bot init failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting Classplus Mock Extractor Bot", "api_base", cfg.APIBase)
	b.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("File server forced to shutdown", "error", err)
	}
	slog.Info("Stopped")
}
