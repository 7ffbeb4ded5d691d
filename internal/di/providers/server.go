package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/readlist/readlist-server/internal/api"
	"github.com/readlist/readlist-server/internal/config"
	"github.com/readlist/readlist-server/internal/graph"
	"github.com/readlist/readlist-server/internal/logger"
	"github.com/readlist/readlist-server/internal/ratelimit"
	"github.com/readlist/readlist-server/internal/service"
)

// ProvideGraphQLSchema provides the parsed schema bound to the services.
func ProvideGraphQLSchema(i do.Injector) (*graphql.Schema, error) {
	authService := do.MustInvoke[*service.AuthService](i)
	bookService := do.MustInvoke[*service.BookService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return graph.NewSchema(graph.NewResolver(authService, bookService, log.WithComponent("graphql").Logger))
}

// RateLimiterHandle wraps the keyed limiter with Shutdownable.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-IP limiter for /graphql and the auth endpoints.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	schema := do.MustInvoke[*graphql.Schema](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)

	services := &api.Services{
		Auth:  do.MustInvoke[*service.AuthService](i),
		Books: do.MustInvoke[*service.BookService](i),
	}

	httpLog := log.WithComponent("http").Logger
	handler := api.NewServer(storeHandle.Store, services, graph.NewHandler(schema, httpLog), api.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimiter:    limiter.KeyedRateLimiter,
	}, httpLog)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	log.WithFields(map[string]any{
		"addr":    srv.Addr,
		"graphql": "/graphql",
		"docs":    "/docs",
	}).Info("Server running")

	return &HTTPServerHandle{Server: srv}, nil
}
