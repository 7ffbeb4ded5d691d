// Package api provides the HTTP server for the readlist service: the GraphQL
// endpoint, a REST mirror of the same operations, and health checks.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/readlist/readlist-server/internal/graph"
	"github.com/readlist/readlist-server/internal/http/response"
	"github.com/readlist/readlist-server/internal/ratelimit"
	"github.com/readlist/readlist-server/internal/service"
	"github.com/readlist/readlist-server/internal/store"
)

const (
	apiTitle   = "ReadList API"
	apiVersion = "1.0.0"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth  *service.AuthService
	Books *service.BookService
}

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// RateLimiter guards /graphql and /api/v1/auth. Nil disables limiting.
	RateLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	graphQL  *graph.Handler
	router   *chi.Mux
	api      huma.API
	limiter  *ratelimit.KeyedRateLimiter
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, graphQL *graph.Handler, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:    st,
		services: services,
		graphQL:  graphQL,
		router:   chi.NewRouter(),
		limiter:  opts.RateLimiter,
		logger:   logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig(apiTitle, apiVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if s.limiter != nil {
		s.router.Use(rateLimitMiddleware(s.limiter, s.logger, isRateLimited))
	}
	s.router.Use(viewerMiddleware(s.services.Auth))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Handle("/graphql", s.graphQL)

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
}
