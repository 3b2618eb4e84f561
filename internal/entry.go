// Package internal provides the application initialization and runtime logic
// for every command: the frontend server, the demo backend and the headless
// clients.
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

	"github.com/starford/skulls/internal/api"
	"github.com/starford/skulls/internal/backend"
	"github.com/starford/skulls/internal/browse"
	"github.com/starford/skulls/internal/genclient"
	"github.com/starford/skulls/internal/generate"
	"github.com/starford/skulls/internal/mcpserver"
	"github.com/starford/skulls/internal/navigator"
	"github.com/starford/skulls/internal/sse"
	"github.com/starford/skulls/internal/web"
)

// Version is reported by the MCP server and the CLI.
var Version = "1.0.0"

const shutdownTimeout = 10 * time.Second

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	return r
}

// Run starts the frontend server: the generation endpoint, the health
// check and the browser client.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("provider", cfg.Generation.Provider),
		slog.String("model", cfg.Generation.Active().Model),
		slog.String("backend_url", cfg.Backend.URL),
		slog.String("log_level", cfg.App.LogLevel.String()))

	prompt := generate.NewPrompt("")
	if path := cfg.Generation.PromptFile; path != "" {
		if err := prompt.LoadFile(path); err != nil {
			return fmt.Errorf("load prompt: %w", err)
		}
	}

	provider, err := generate.NewProvider(cfg.Generation.Provider, cfg.Generation.Active().Settings(), prompt, nil)
	if err != nil {
		return fmt.Errorf("init provider: %w", err)
	}
	if cfg.Generation.Active().APIKey == "" {
		logger.Warn("AI provider has no API key; generation requests will fail",
			slog.String("provider", provider.Name()))
	}
	gen := generate.NewGenerator(provider)

	site, err := web.New(web.Settings{
		BackendURL: cfg.Backend.URL,
		Namespace:  cfg.Generation.Namespace,
	})
	if err != nil {
		return fmt.Errorf("init web: %w", err)
	}

	r := newRouter()
	api.Mount(r, api.NewRouter(gen, cfg.Generation.Namespace), site)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var tasks []func(context.Context) error
	if path := cfg.Generation.PromptFile; path != "" {
		tasks = append(tasks, func(ctx context.Context) error {
			if err := generate.WatchPromptFile(ctx, prompt, path, logger); err != nil {
				logger.Warn("prompt watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	return serve(ctx, logger, httpServer, nil, tasks...)
}

// RunBackend starts the demo hypermedia backend.
func RunBackend(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Backend.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := backend.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	broker := sse.NewBroker(2*time.Second, sse.WithKeepAlive(15*time.Second))

	r := newRouter()
	r.Mount("/", backend.NewRouter(backend.NewHandler(store, broker, ""), broker))

	httpServer := &http.Server{
		Addr:              cfg.Backend.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Streams never finish on their own; close them before shutdown waits.
	return serve(ctx, logger, httpServer, broker.Close)
}

// serve runs httpServer and tasks until a signal arrives, ctx ends or one of
// them fails, then shuts down gracefully. beforeShutdown may be nil.
func serve(ctx context.Context, logger *slog.Logger, httpServer *http.Server, beforeShutdown func(), tasks ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("Server starting...", slog.String("http_address", httpServer.Addr))

	g, gCtx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		g.Go(func() error { return task(gCtx) })
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", httpServer.Addr))
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
		cancel()
		if beforeShutdown != nil {
			beforeShutdown()
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
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

// newHeadlessNavigator builds a navigator that renders into an in-memory
// page and generates markup through the frontend server's endpoint.
func newHeadlessNavigator(cfg *Config, logger *slog.Logger) (*navigator.Navigator, *navigator.Page, error) {
	page := &navigator.Page{}
	client := genclient.New(cfg.Frontend.URL, cfg.Generation.Namespace, nil)
	nav, err := navigator.New(cfg.Backend.URL, client, page, navigator.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return nav, page, nil
}

// RunBrowse starts the interactive terminal browser. start, when set, is
// opened instead of the API root.
func RunBrowse(ctx context.Context, start string, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return err
	}

	nav, page, err := newHeadlessNavigator(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("init navigator: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	return browse.NewSession(nav, page, browse.NewSurveyPrompter(), os.Stdout).Run(ctx, start)
}

// RunMCP serves the headless navigator as MCP tools on stdin/stdout. Logs
// go to stderr because stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts)
	if err != nil {
		return err
	}
	logger := app.logger

	nav, page, err := newHeadlessNavigator(app.config, logger)
	if err != nil {
		return fmt.Errorf("init navigator: %w", err)
	}
	if err := nav.Discover(ctx); err != nil {
		logger.Warn("initial discovery failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting", slog.String("backend_url", app.config.Backend.URL))
	return mcpserver.New(nav, page, Version).ServeStdio()
}
