// Package server provides HTTP API for theme switching.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/random-theme/app/catalog"
	"github.com/umputun/random-theme/app/enum"
	"github.com/umputun/random-theme/app/history"
	"github.com/umputun/random-theme/app/switcher"
)

// Switcher defines theme operations used by the server.
// Defined here (consumer side) to allow different implementations.
type Switcher interface {
	Switch(ctx context.Context, g enum.Group) (switcher.Result, error)
	Current(ctx context.Context) (catalog.Theme, bool, error)
	Pool(g enum.Group) []catalog.Theme
	Key() string
}

// HistoryReader defines read access to recorded theme changes.
type HistoryReader interface {
	History(key string, limit int) ([]history.Entry, error)
}

// Config holds server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Version         string
	BodySizeLimit   int64 // max request body size in bytes
}

// Server represents the HTTP server.
type Server struct {
	sw      Switcher
	history HistoryReader // optional, nil disables history endpoint
	cfg     Config
}

// New creates a new Server instance. hr is optional, pass nil when history is disabled.
func New(sw Switcher, hr HistoryReader, cfg Config) *Server {
	return &Server{sw: sw, history: hr, cfg: cfg}
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.routes(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] shutdown error: %v", err)
		}
	}()

	log.Printf("[INFO] started server on %s", s.cfg.Address)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// routes configures and returns the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.Recoverer(log.Default()),
		rest.RealIP,
		rest.Trace,
		rest.SizeLimit(s.bodySizeLimit()),
		rest.AppInfo("random-theme", "umputun", s.cfg.Version),
		rest.Ping,
	)

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.HandleFunc("GET /theme", s.handleCurrent)
		api.HandleFunc("POST /theme/{group}", s.handleSwitch)
		api.HandleFunc("GET /catalog/{group}", s.handleCatalog)
		api.HandleFunc("GET /history", s.handleHistory)
	})
	return router
}

// bodySizeLimit returns the configured body size limit, or default 64KB if not set.
func (s *Server) bodySizeLimit() int64 {
	if s.cfg.BodySizeLimit > 0 {
		return s.cfg.BodySizeLimit
	}
	return 64 * 1024
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return 5 * time.Second
}
