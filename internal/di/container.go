// Package di provides dependency injection configuration for the readlist server.
package di

import (
	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/readlist/readlist-server/internal/auth"
	"github.com/readlist/readlist-server/internal/config"
	"github.com/readlist/readlist-server/internal/di/providers"
	"github.com/readlist/readlist-server/internal/logger"
	"github.com/readlist/readlist-server/internal/service"
	"github.com/readlist/readlist-server/internal/validation"
)

// NewContainer creates the DI container. args are the command-line
// arguments passed to the config loader.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, providers.Args(args))
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenIssuer)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideBookService)

	// Transport
	do.Provide(injector, providers.ProvideGraphQLSchema)
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// BootstrapServices initializes everything except the HTTP server.
func BootstrapServices(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[auth.TokenIssuer](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	return nil
}

// Bootstrap initializes all services and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if err := BootstrapServices(injector); err != nil {
		return err
	}

	if _, err := do.Invoke[*graphql.Schema](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
