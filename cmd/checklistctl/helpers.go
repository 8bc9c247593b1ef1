package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"checklistapi/config"
	"checklistapi/services"
)

// openStore builds the configured store. The returned func releases it and
// must be called.
func (c *cli) openStore(ctx context.Context) (services.ChecklistStore, func(), error) {
	v := c.v
	idStrategy := v.GetString(cfgKeyIDStrategy)

	if v.GetString(cfgKeyBackend) == config.StoreBackendMongo {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, services.NewMongoClientOptions(v.GetString(cfgKeyMongoURI)))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ping MongoDB: %w", err)
		}

		store := services.NewMongoStore(client.Database(v.GetString(cfgKeyDatabase)), idStrategy)
		if err := store.EnsureExists(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return store, closeFn, nil
	}

	store, err := services.NewJSONStore(services.JSONStoreOptions{
		Path:             v.GetString(cfgKeyDBFile),
		CorruptionPolicy: v.GetString(cfgKeyCorruptionPolicy),
		IDStrategy:       idStrategy,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureExists(ctx); err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// openService wraps openStore in a ChecklistService.
func (c *cli) openService(ctx context.Context) (*services.ChecklistService, func(), error) {
	store, closeFn, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return services.NewChecklistService(store), closeFn, nil
}
