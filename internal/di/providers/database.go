package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/readlist/readlist-server/internal/config"
	"github.com/readlist/readlist-server/internal/logger"
	"github.com/readlist/readlist-server/internal/store"
	"github.com/readlist/readlist-server/internal/store/badgerstore"
	"github.com/readlist/readlist-server/internal/store/mongostore"
	"github.com/readlist/readlist-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the store selected by STORE_DRIVER.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	log.WithField("driver", st.Driver()).Info("Store initialized")
	return &StoreHandle{Store: st}, nil
}

func openStore(cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverBadger:
		return badgerstore.Open(filepath.Join(cfg.Data.BasePath, "badger"), log.WithComponent("badger").Logger)

	case config.DriverSQLite:
		if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		return sqlite.Open(filepath.Join(cfg.Data.BasePath, "readlist.db"), log.WithComponent("sqlite").Logger)

	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
		defer cancel()
		return mongostore.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, log.WithComponent("mongo").Logger)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
