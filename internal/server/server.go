// Package server assembles the HTTP handler tree of the API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bookshelf/internal/auth"
	"bookshelf/internal/collection"
	"bookshelf/internal/httpx"
	"bookshelf/internal/profile"
)

const (
	requestTimeout = 30 * time.Second
	readyTimeout   = 500 * time.Millisecond
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	JWTSecret      string
	CORSOrigins    []string
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
	EnableHSTS     bool
	Registry       *prometheus.Registry
	Logger         *zap.Logger
}

type Handlers struct {
	Auth       *auth.HTTPHandler
	Profile    *profile.HTTPHandler
	Collection *collection.HTTPHandler
}

// Server is the root http.Handler. Close releases the rate limiter's
// background sweeper.
type Server struct {
	router  chi.Router
	limiter *httpx.RateLimitMiddleware
}

func New(opts Options, h Handlers, store Pinger) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	limiter := httpx.NewRateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst)
	metrics := httpx.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(log),
		httpx.RecoveryMiddleware(log),
		metrics.Middleware,
		httpx.SecurityHeadersMiddleware(opts.EnableHSTS),
		httpx.CORSMiddleware(opts.CORSOrigins),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Route not found.", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusMethodNotAllowed, httpx.CodeBadRequest, "Method not allowed.", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Warn("readiness check failed", zap.Error(err))
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(
			limiter.Middleware,
			httpx.RequestSizeLimitMiddleware(opts.MaxBodyBytes),
			middleware.Timeout(requestTimeout),
		)

		r.Post("/auth/signup", h.Auth.Signup)
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(httpx.AuthMiddleware(opts.JWTSecret))

			r.Get("/user/profile", h.Profile.Get)
			r.Put("/user/profile", h.Profile.Update)

			r.Get("/books/collections", h.Collection.List)
			r.Post("/books/collections/save", h.Collection.Save)
			r.Delete("/books/collections/delete", h.Collection.Delete)
		})
	})

	return &Server{router: r, limiter: limiter}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Close() {
	s.limiter.Stop()
}
