// Package providers contains dependency injection providers for the readlist server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/readlist/readlist-server/internal/config"
	"github.com/readlist/readlist-server/internal/logger"
)

// Args are the command-line arguments handed to config.LoadConfig.
type Args []string

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	args := do.MustInvoke[Args](i)
	return config.LoadConfig(args)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting ReadList Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"store", cfg.Store.Driver,
	)

	return log, nil
}
