// Package server exposes the session store and the export pipeline
// over an http api.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stepsnap/stepsnap/internal/config"
	"github.com/stepsnap/stepsnap/internal/describe"
	"github.com/stepsnap/stepsnap/internal/render"
	"github.com/stepsnap/stepsnap/internal/session"
)

type Server struct {
	cfg       *config.ServerConfig
	store     session.Store
	renderer  render.Renderer
	describer describe.Describer
	limiter   *RateLimiter
	locale    string
	logger    *slog.Logger
}

func New(cfg *config.ServerConfig, store session.Store, renderer render.Renderer, describer describe.Describer, locale string) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		renderer:  renderer,
		describer: describer,
		limiter:   NewRateLimiter(&cfg.Redis, cfg.SharedRatePerSec),
		locale:    locale,
		logger:    slog.With(slog.String("component", "server")),
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Patch("/", s.handlePatchSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/share", s.handleShareSession)
				r.Get("/export", s.handleExport(s.store.GetByID))
			})
		})
		r.Route("/shared/{id}", func(r chi.Router) {
			r.Use(s.limiter.Middleware)
			r.Get("/", s.handleGetShared)
			r.Get("/export", s.handleExport(s.store.GetShared))
		})
	})
	return r
}

// ListenAndServe runs the api until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info(fmt.Sprintf("listening on %s", s.cfg.Addr))
		errChan <- server.ListenAndServe()
	}()
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, session.ErrNotFound)
}
