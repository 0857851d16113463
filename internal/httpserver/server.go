// internal/httpserver/server.go
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/steamjump/internal/config"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/mw"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/routes"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	// update_cache and rebuild_cache run a full refresh inside /launch
	requestTimeout := cfg.APITimeout + 5*time.Second

	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(loggerClient, d, requestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		logger:  loggerClient,
		started: d.StartTime,
	}
}

// NewRouter mounts the middlewares and every registered route.
func NewRouter(loggerClient logger.Logger, d deps.Deps, requestTimeout time.Duration) http.Handler {
	if d.TimeNow == nil {
		d.TimeNow = time.Now
	}

	r := chi.NewRouter()

	// --- Global middlewares (safe defaults)
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)               // X-Request-ID on each request
	r.Use(middleware.Recoverer)               // never crash the process on panic
	r.Use(middleware.Timeout(requestTimeout)) // per-request timeout
	r.Use(mw.Log(loggerClient))               // structured access logs

	routes.RegisterAll(r, d)
	return r
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
