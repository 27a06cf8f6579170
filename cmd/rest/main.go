package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sir_venger/media_lite/internal/app/resthttp"
	"github.com/sir_venger/media_lite/internal/config"
	"github.com/sir_venger/media_lite/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run инициализирует REST HTTP-сервис и обеспечивает корректное завершение по сигналу.
func run() error {
	var configPath string

	flagSet := pflag.NewFlagSet("media-rest", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to YAML config (default: $CONFIG_PATH or ./config.yaml)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return err
	}

	handler, srv, err := resthttp.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	// Фоновая уборка архивов включается только при ненулевом TTL.
	archiveDir := filepath.Join(srv.Resolver.Root().String(), cfg.ArchiveDir)
	stopJanitor := resthttp.StartJanitor(archiveDir, cfg.ArchiveTTL(), cfg.JanitorInterval(), logger.With("component", "janitor"))
	defer stopJanitor()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Slog().Handler(), slog.LevelWarn),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(shutdownCtx, "REST shutdown error", "err", err)
		}
	}()

	logger.Info(ctx, "REST listening",
		"addr", cfg.ListenAddr,
		"upload_dir", srv.Resolver.Root().String(),
		"archive_dir", cfg.ArchiveDir,
		"archive_ttl", cfg.ArchiveTTL(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error(shutdownCtx, "REST final shutdown error", "err", err)
	}
	return nil
}
