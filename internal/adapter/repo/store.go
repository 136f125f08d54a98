package repo

import (
	"context"
	"fmt"

	"rockstar/internal/domain"
	"rockstar/internal/infra"
)

// NewRunStore builds the run store for the configured driver. The returned
// closer releases the underlying connection pool; it is a no-op for the
// memory driver.
func NewRunStore(ctx context.Context, cfg *infra.Config) (domain.RunStore, func(), error) {
	switch cfg.StoreDriver {
	case infra.StoreDriverPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewRunStorePG(pool), pool.Close, nil
	case infra.StoreDriverRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewRunStoreRedis(client), func() { _ = client.Close() }, nil
	case infra.StoreDriverMemory:
		return NewRunStoreMem(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
