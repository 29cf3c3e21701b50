package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/drawboard/drawboard-backend/config"
	"github.com/drawboard/drawboard-backend/internal/storage"
	"github.com/drawboard/drawboard-backend/internal/storage/directory"
	"github.com/drawboard/drawboard-backend/internal/storage/embedded"
	"github.com/drawboard/drawboard-backend/internal/storage/kvstore"
	"github.com/drawboard/drawboard-backend/internal/storage/postgres"
)

// NewStorageFactory builds adapters from configuration. Directory adapters
// share the given grant store, which the caller closes; every other call
// opens fresh connections that the adapter's Close releases.
func NewStorageFactory(cfg *config.Config, handles *directory.HandleStore) storage.Factory {
	return func(b storage.Backend) (storage.Adapter, error) {
		switch b {
		case storage.BackendKeyValue:
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			return kvstore.New(client, cfg.Storage.KVMaxBytes), nil
		case storage.BackendEmbedded:
			return embedded.New(cfg.Storage.SQLitePath), nil
		case storage.BackendDirectory:
			return directory.New(handles), nil
		case storage.BackendPostgres:
			return postgres.New(&cfg.Database), nil
		}
		if _, err := storage.ParseBackend(string(b)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", b, storage.ErrUnsupportedBackend)
	}
}
