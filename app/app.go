// Package app is the composition root: it owns the store and wires it into
// the HTTP stack.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/abefas/GoTodoAPI/config"
	"github.com/abefas/GoTodoAPI/database"
	"github.com/abefas/GoTodoAPI/handlers"
	"github.com/abefas/GoTodoAPI/middleware"
	"github.com/abefas/GoTodoAPI/schema"
)

// App holds the constructed dependencies of a running server.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   database.Store
	Handler http.Handler
}

// New opens and seeds the store and builds the HTTP handler chain.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := database.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if cfg.Store.Seed {
		if err := database.Seed(ctx, store, database.DefaultSeed); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	validator, err := schema.New()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	router := handlers.NewRouter(handlers.NewHandlers(store, validator, logger))

	// Outermost first: proxy headers, request id, access log, panic recovery.
	var handler http.Handler = middleware.Recover(logger)(router)
	handler = middleware.AccessLog(logger)(handler)
	handler = middleware.RequestID(handler)
	if cfg.Server.TrustProxy {
		handler = middleware.ProxyHeaders(handler)
	}

	logger.Info("store ready", "backend", cfg.Store.Backend, "seeded", cfg.Store.Seed)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Handler: handler,
	}, nil
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Config.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.Handler,
		ReadTimeout:  a.Config.ReadTimeout(),
		WriteTimeout: a.Config.WriteTimeout(),
	}

	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", ln.Addr().String())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down", "timeout", a.Config.ShutdownTimeout())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Close releases the store. In-memory data is discarded.
func (a *App) Close() error {
	return a.Store.Close()
}
