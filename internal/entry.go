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

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/audit"
	"github.com/starford/laguz/internal/catalog"
	"github.com/starford/laguz/internal/ledger"
	"github.com/starford/laguz/internal/lending"
	"github.com/starford/laguz/internal/mcpserver"
	"github.com/starford/laguz/internal/members"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/sse"
	"github.com/starford/laguz/internal/storage"
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

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	if app.mcpMode {
		// stdout is the MCP transport; keep logs off it.
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_path", cfg.Data.Path),
		slog.String("audit_path", cfg.Audit.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Data.Path, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Initialize the collection store.
	store, err := storage.NewStore(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	books := catalog.New(storage.NewCollection[models.Book](store, models.CollectionBooks, logger))
	dir := members.New(storage.NewCollection[models.Member](store, models.CollectionMembers, logger))
	records := ledger.New(storage.NewCollection[models.BorrowRecord](store, models.CollectionHistory, logger))

	// Initialize the audit trail.
	trail, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		return fmt.Errorf("init audit: %w", err)
	}
	defer trail.Close()

	if app.mcpMode {
		engine := lending.New(books, dir, records, lending.WithAudit(trail))
		logger.Info("Serving MCP over stdio")
		return mcpserver.New(books, dir, records, engine).ServeStdio()
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Lending engine with audit and event hooks.
	engine := lending.New(books, dir, records,
		lending.WithAudit(trail),
		lending.WithEvents(broker.PublishChange),
	)

	// Build API handler and router.
	h := api.NewHandler(books, dir, records, engine, trail, broker)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Root endpoint: API map.
	r.Get("/", rootHandler)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		failures := books.LoadFailures() + dir.LoadFailures() + records.LoadFailures()
		_, _ = fmt.Fprintf(w, `{"status":"ok","collectionLoadFailures":%d}`, failures)
	})

	// JSON 404 for everything unmatched.
	r.NotFound(notFoundHandler)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the data directory for external edits.
	g.Go(func() error {
		if err := storage.Watch(gCtx, store.Root(), logger, func(name string) {
			broker.PublishChange("collection.changed", map[string]any{"collection": name})
		}); err != nil {
			logger.Warn("watcher failed", slog.String("error", err.Error()))
		}
		return nil
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

func rootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{
  "message": "Library Management API",
  "endpoints": {
    "books": {
      "GET /api/books": "Get all books",
      "GET /api/books/{id}": "Get specific book details",
      "POST /api/books": "Add new book",
      "PUT /api/books/{id}": "Update book",
      "DELETE /api/books/{id}": "Delete book"
    },
    "users": {
      "GET /api/users": "Get all members",
      "GET /api/users/{id}": "Get specific member details",
      "GET /api/users/{id}/history": "Get member borrowing history",
      "POST /api/users": "Register new member",
      "PUT /api/users/{id}": "Update member profile"
    },
    "borrow": {
      "POST /api/borrow/borrow": "Borrow a book",
      "POST /api/borrow/return": "Return a book",
      "GET /api/borrow/history": "Get all borrowing history"
    },
    "audit": {
      "GET /api/audit": "Recent lending operations"
    },
    "events": {
      "GET /api/events": "Server-sent change events"
    }
  }
}`))
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = fmt.Fprintf(w, `{"success":false,"message":"Route not found","requestedUrl":%q}`, r.URL.Path)
}
