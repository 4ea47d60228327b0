// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/api"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/crmservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/inboxservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/mcpserver"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/metrics"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/sse"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/store"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/whatsapp"
	pkgconfig "github.com/Plugtour/plugconversa-pro-sub000/pkg/config"
)

// services groups the domain services shared by the HTTP and MCP surfaces.
type services struct {
	crm   *crmservice.Service
	flows *flowservice.Service
	inbox *inboxservice.Service
}

func newServices(cfg *Config, st *store.Store, logger *slog.Logger, pub inboxservice.Publisher) *services {
	inboxOpts := []inboxservice.Option{inboxservice.WithLogger(logger)}
	if pub != nil {
		inboxOpts = append(inboxOpts, inboxservice.WithPublisher(pub))
	}
	if cfg.WhatsApp.Enabled() {
		inboxOpts = append(inboxOpts, inboxservice.WithSender(whatsapp.New(whatsapp.Options{
			BaseURL:       cfg.WhatsApp.BaseURL,
			APIKey:        cfg.WhatsApp.APIKey,
			Instance:      cfg.WhatsApp.Instance,
			RatePerSecond: cfg.WhatsApp.RatePerSecond,
			Burst:         cfg.WhatsApp.Burst,
			Timeout:       cfg.WhatsApp.Timeout,
		})))
	}
	return &services{
		crm:   crmservice.NewService(st),
		flows: flowservice.NewService(st, logger),
		inbox: inboxservice.NewService(st, inboxOpts...),
	}
}

// newRouter builds the root HTTP handler: operational endpoints, the API
// under /api and, when configured, the single-page application.
func newRouter(cfg *Config, svc *services, st *store.Store, events http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware)
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", api.LiveHandler)
	r.Get("/health/ready", api.ReadyHandler(st.Ping))

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Mount("/api", api.NewRouter(api.Deps{
		CRM:         svc.crm,
		Flows:       svc.flows,
		Inbox:       svc.inbox,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      events,
	}))

	if cfg.App.StaticDir != "" {
		r.Handle("/*", api.SPAHandler(cfg.App.StaticDir))
	}
	return r
}

func newLogger(w io.Writer, level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := newLogger(os.Stdout, level)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("whatsapp_enabled", cfg.WhatsApp.Enabled()),
		slog.Bool("metrics_enabled", cfg.Metrics.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := database.Open(ctx, cfg.Database.Options())
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	st := store.New(db)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	metrics.TrackSSEClients(broker.ClientCount)

	svc := newServices(cfg, st, logger, broker)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRouter(cfg, svc, st, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open event streams end when the broker closes.
	httpServer.RegisterOnShutdown(broker.Close)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the log level when the config file changes.
	if app.configPath != "" {
		g.Go(func() error {
			err := pkgconfig.Watch(gCtx, app.configPath, func() {
				reloadLogLevel(logger, app.configPath, level)
			})
			if err != nil {
				logger.Warn("config watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

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

		// Stops the config watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// reloadLogLevel re-reads the config file and applies its log level. An
// invalid file keeps the current level.
func reloadLogLevel(logger *slog.Logger, path string, level *slog.LevelVar) {
	next := NewDefaultConfig()
	if err := pkgconfig.Load(path, next); err != nil {
		logger.Warn("config reload rejected", slog.String("error", err.Error()))
		return
	}
	if next.App.LogLevel == level.Level() {
		return
	}
	level.Set(next.App.LogLevel)
	logger.Info("Log level changed", slog.String("log_level", next.App.LogLevel.String()))
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr since stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	level := new(slog.LevelVar)
	level.Set(cfg.App.LogLevel)
	logger := newLogger(os.Stderr, level)
	slog.SetDefault(logger)

	db, err := database.Open(ctx, cfg.Database.Options())
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	svc := newServices(cfg, store.New(db), logger, nil)

	logger.Info("MCP server starting on stdio", slog.String("database_driver", cfg.Database.Driver))
	return mcpserver.New(svc.crm, svc.flows, svc.inbox).ServeStdio()
}
