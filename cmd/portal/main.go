package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"golang.org/x/sync/errgroup"

	"github.com/fdagency/portal/internal/adapter/driven/recordsystem"
	redisadapter "github.com/fdagency/portal/internal/adapter/driven/redis"
	"github.com/fdagency/portal/internal/adapter/driven/sealer"
	sqliteadapter "github.com/fdagency/portal/internal/adapter/driven/sqlite"
	httphandler "github.com/fdagency/portal/internal/adapter/driving/http"
	"github.com/fdagency/portal/internal/application"
	"github.com/fdagency/portal/internal/config"
	"github.com/fdagency/portal/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"upstream", cfg.UpstreamBaseURL,
		"upstream_timeout", cfg.UpstreamTimeout,
		"env", cfg.Env,
		"session_mode", cfg.Session.Mode,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Record system client.
	records, err := recordsystem.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	if err != nil {
		return fmt.Errorf("create record system client: %w", err)
	}

	// 4. Session store (server mode only).
	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 5. Services.
	sessions := application.NewSessionService(records, store, cfg.Session.TTL, cfg.Session.SweepInterval)
	proxy := application.NewProxyService(records)
	exports := application.NewExportService(proxy)
	health := application.NewHealthService(records)

	// 6. HTTP handler.
	apiHandler := httphandler.NewHandler(sessions, proxy, exports, health, cfg.IsProduction(), logger)
	handler := httphandler.NewServeMux(apiHandler, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sessions.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		// Graceful shutdown with 10s timeout for in-flight proxy calls.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	slog.Info("portal started", "listen_addr", cfg.ListenAddr)

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}

// newLogger selects the JSON handler in production and the text handler
// elsewhere, at the configured level.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openSessionStore returns the configured server-side session store, or nil
// when credentials travel in the cookie. The returned func releases it.
func openSessionStore(ctx context.Context, cfg *config.Config) (driven.SessionStore, func(), error) {
	if !cfg.ServerSessions() {
		return nil, func() {}, nil
	}

	s, err := sealer.New(cfg.SecretKeyBytes())
	if err != nil {
		return nil, nil, fmt.Errorf("create sealer: %w", err)
	}

	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		client, err := redisadapter.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("redis session store connected", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

		return redisadapter.NewSessionRepo(client, s), func() {
			if err := client.Close(); err != nil {
				slog.Error("error closing redis client", "error", err)
			}
		}, nil

	default:
		// Open database (dual reader/writer with WAL mode).
		db, err := sqliteadapter.NewDB(ctx, cfg.Session.DBPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database opened", "path", db.Path())

		// Run migrations on writer connection.
		version, err := sqliteadapter.RunMigrations(db.Writer)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("migrations complete", "schema_version", version)

		return sqliteadapter.NewSessionRepo(db, s), func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}, nil
	}
}
