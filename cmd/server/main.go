package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"folio/internal/api"
	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/logging"
	"folio/pkg/folio"
)

var getppid = os.Getppid
var sleep = time.Sleep
var exit = os.Exit

func main() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)

	if err := run(os.Args[1:], stop); err != nil {
		slog.Error("server failed", "err", err)
		exit(1)
	}
}

// run parses flags, wires the server and blocks until stop fires.
func run(args []string, stop <-chan os.Signal) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("FOLIO_CONFIG"), "Path to a TOML config file (optional)")
	dataDir := fs.String("data-dir", "", "Directory for storing database and application data")
	port := fs.Int("port", 0, "Port to run the server on (overrides config)")
	host := fs.String("host", "", "Host to bind the server to (overrides config)")
	webDir := fs.String("web-dir", "", "Directory for SPA static files (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "host":
			cfg.Server.Host = *host
		}
	})
	if *dataDir != "" {
		config.SetRuntimeDataDir(*dataDir)
	}

	logDir, err := cfg.LogDir()
	if err != nil {
		return fmt.Errorf("resolve data directory: %w", err)
	}
	logger, writer, err := logging.NewLogger(logDir, logging.Options{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		RetentionDays: cfg.Logging.RetentionDays,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close log writer", "err", err)
		}
	}()

	core, err := openCore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize core", "err", err)
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			logger.Error("failed to close core", "err", err)
		}
	}()

	if cfg.UsesDefaultSecret() {
		logger.Warn("using the development JWT secret; set FOLIO_JWT_SECRET in production")
	}
	authService, err := auth.NewService(core, auth.Config{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTTL(),
		RefreshTTL: cfg.Auth.RefreshTTL(),
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize auth: %w", err)
	}

	if os.Getenv("FOLIO_PARENT_WATCH") == "1" {
		go watchParent(logger)
	}

	handler := api.NewRouter(core, authService, api.Options{
		Logger:            logger,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		AuthRatePerMinute: cfg.Auth.RateLimitPerMinute,
	})
	if resolvedWebDir := resolveWebDir(*webDir); resolvedWebDir != "" {
		logger.Info("serving SPA", "web_dir", resolvedWebDir)
		handler = api.WithSPA(handler, resolvedWebDir)
	}
	handler = middleware.Compress(5)(handler)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	logger.Info("server starting", "addr", server.Addr, "driver", cfg.Storage.Driver)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-stop:
	}

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
	return nil
}

func openCore(cfg *config.Config, logger *slog.Logger) (*folio.Core, error) {
	opts := folio.Options{Driver: cfg.Storage.Driver, Logger: logger}
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		opts.DSN = cfg.Storage.DSN
	default:
		dbPath, err := cfg.DBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		opts.DBPath = dbPath
	}
	return folio.OpenWithOptions(opts)
}

func watchParent(logger *slog.Logger) {
	for {
		sleep(1 * time.Second)
		if getppid() == 1 {
			logger.Info("parent process exited; shutting down")
			exit(0)
		}
	}
}

func resolveWebDir(input string) string {
	if input != "" {
		if dirExists(input) {
			return input
		}
		return ""
	}

	candidates := []string{"web/dist", "static"}
	for _, candidate := range candidates {
		if dirExists(candidate) {
			return candidate
		}
	}
	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		for _, candidate := range candidates {
			path := filepath.Join(base, candidate)
			if dirExists(path) {
				return path
			}
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
