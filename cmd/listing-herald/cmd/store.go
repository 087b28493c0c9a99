package cmd

import (
	"context"
	"fmt"

	"github.com/gardenmarket/listing-herald/internal/config"
	"github.com/gardenmarket/listing-herald/internal/store"
)

// openStore builds the store selected by the storage driver config.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Storage.Path)
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Storage.PostgresDSN)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
