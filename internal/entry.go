// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/nmarks/driftpad/internal/api"
	"github.com/nmarks/driftpad/internal/auth"
	"github.com/nmarks/driftpad/internal/editor"
	"github.com/nmarks/driftpad/internal/llm"
	"github.com/nmarks/driftpad/internal/mcpserver"
	"github.com/nmarks/driftpad/internal/reload"
	"github.com/nmarks/driftpad/internal/session"
	"github.com/nmarks/driftpad/internal/sse"
	"github.com/nmarks/driftpad/internal/store"
	pkgconfig "github.com/nmarks/driftpad/pkg/config"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logger. The level lives in a LevelVar so config reload
	// can adjust it at runtime.
	logLevel := new(slog.LevelVar)
	logLevel.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	var sessions session.Store
	if cfg.Redis.Addr != "" {
		rs, redisErr := session.NewRedisStore(cfg.Redis.Addr)
		if redisErr != nil {
			return fmt.Errorf("init redis sessions: %w", redisErr)
		}
		sessions = rs
		logger.Info("Using Redis session store", slog.String("addr", cfg.Redis.Addr))
	} else {
		sessions = session.NewMemoryStore()
		logger.Info("Using in-memory session store")
	}

	gateway := llm.New(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL)
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	timings := editor.Timings{
		Debounce:       time.Duration(cfg.Editor.DebounceMS) * time.Millisecond,
		RetryBase:      time.Second,
		TypingInterval: time.Duration(cfg.Editor.TypingMS) * time.Millisecond,
		NotePause:      time.Duration(cfg.Editor.NotePauseMS) * time.Millisecond,
		StartDelay:     time.Duration(cfg.Editor.StartDelayMS) * time.Millisecond,
	}

	handler := api.NewHandler(db, issuer, sessions, gateway, broker, timings, cfg.Auth.RefreshTTL)
	apiRouter := api.NewRouter(handler, issuer, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Config hot reload: re-applies log level and the LLM API key.
	if app.configPath != "" {
		configPath := app.configPath
		g.Go(func() error {
			return reload.Watch(gCtx, configPath, logger, func() {
				next := NewDefaultConfig()
				if loadErr := pkgconfig.Load(configPath, next); loadErr != nil {
					logger.Warn("config reload rejected", slog.String("error", loadErr.Error()))
					return
				}
				logLevel.Set(next.App.LogLevel)
				gateway.SetAPIKey(next.LLM.APIKey)
				logger.Info("config reloaded",
					slog.String("log_level", next.App.LogLevel.String()))
			})
		})
	}

	// HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shutdown on signal or group failure.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the journal over MCP stdio for the user identified by email,
// creating the user on first use so local agent tooling works out of the box.
func RunMCP(ctx context.Context, cfg *Config, email string) error {
	if email == "" {
		return fmt.Errorf("mcp user email is required")
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	user, err := db.GetUserByEmail(ctx, email)
	if err != nil {
		user, err = db.CreateUser(ctx, email, "")
		if err != nil {
			return fmt.Errorf("create mcp user: %w", err)
		}
	}

	return mcpserver.New(db, user.ID).ServeStdio()
}
