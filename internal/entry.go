// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/api"
	"github.com/starford/inkwell/internal/appstate"
	"github.com/starford/inkwell/internal/blogservice"
	"github.com/starford/inkwell/internal/mcpserver"
	"github.com/starford/inkwell/internal/persist"
	"github.com/starford/inkwell/internal/sse"
	"github.com/starford/inkwell/internal/storage"
	"github.com/starford/inkwell/internal/view"
)

// runtime is the store stack shared by every command.
type runtime struct {
	cfg      *Config
	logger   *slog.Logger
	provider storage.Provider
	adapter  *persist.Adapter
	svc      *blogservice.Service
	closers  []func() error
}

// newRuntime builds logging, storage and the blog service. defaultOut is
// where logs go unless WithLogOutput overrides it.
func newRuntime(defaultOut io.Writer, opts ...Option) (*runtime, error) {
	app := &application{logOutput: defaultOut}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.Duration("retention", cfg.Retention.Window),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt := &runtime{cfg: cfg, logger: logger}
	provider, err := rt.openStorage()
	if err != nil {
		return nil, err
	}
	rt.provider = provider
	rt.adapter = persist.New(provider, logger)
	rt.svc = blogservice.NewService(rt.adapter,
		blogservice.WithRetention(cfg.Retention.Window),
		blogservice.WithLogger(logger),
	)
	return rt, nil
}

func (rt *runtime) openStorage() (storage.Provider, error) {
	sc := rt.cfg.Storage
	switch sc.Driver {
	case StorageDriverSQLite:
		if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		db, err := storage.OpenSQLite(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		return db, nil
	default:
		if err := os.MkdirAll(sc.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		fsys, err := storage.NewFS(sc.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		return fsys, nil
	}
}

func (rt *runtime) close() {
	rt.svc.Close()
	for _, c := range rt.closers {
		if err := c(); err != nil {
			rt.logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(os.Stdout, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, logger, svc := rt.cfg, rt.logger, rt.svc

	if purged := svc.Init(); purged > 0 {
		logger.Info("Expired blogs purged", slog.Int("count", purged))
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.SSE.DashboardThrottle, logger)
	defer broker.Close()

	engine := view.NewEngine(svc, view.NewPager(rt.adapter, cfg.View.PerPage), cfg.View.Recent)
	engine.Refresh()
	nav := appstate.New(rt.adapter)

	svc.Subscribe(func(c blogservice.Change) {
		engine.Refresh()
		broker.PublishChange(string(c.Kind), c.ID)
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, nil)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, svc.Health())
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, engine, nav, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Follow writes made by other processes sharing the data.
	g.Go(func() error {
		return rt.adapter.Watch(gCtx)
	})

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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		cancel()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func writeHealth(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]string{"status": "ok"}
	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
		body = map[string]string{"status": "degraded", "error": err.Error()}
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs go to stderr because stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(os.Stderr, opts...)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.svc.Init()
	srv := mcpserver.New(rt.svc, rt.cfg.View.PerPage, rt.cfg.View.Recent)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.adapter.Watch(gCtx)
	})
	g.Go(func() error {
		defer cancel()
		rt.logger.Info("MCP server listening on stdio")
		return srv.ServeStdio()
	})

	return g.Wait()
}

// Purge runs the retention sweep once and reports how many blogs it removed.
func Purge(_ context.Context, opts ...Option) (int, error) {
	rt, err := newRuntime(os.Stdout, opts...)
	if err != nil {
		return 0, err
	}
	defer rt.close()

	purged := rt.svc.Init()
	if err := rt.svc.Health(); err != nil {
		return purged, fmt.Errorf("purge: %w", err)
	}
	rt.logger.Info("Retention sweep finished", slog.Int("purged", purged))
	return purged, nil
}
