package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bookshelf/internal/config"
	"bookshelf/internal/platform/mongodb"
	"bookshelf/internal/platform/postgres"
)

// Open connects the configured backend. The returned func releases it.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.DBTimeout)
		if err != nil {
			return nil, nil, err
		}
		s := NewMongoStore(client.Database(cfg.MongoDB), cfg.DBTimeout)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = mongodb.Disconnect(client, cfg.DBTimeout)
			return nil, nil, err
		}
		log.Info("database connection OK", zap.String("driver", cfg.StoreDriver), zap.String("db", cfg.MongoDB))
		return s, func() {
			if err := mongodb.Disconnect(client, cfg.DBTimeout); err != nil {
				log.Warn("mongo disconnect", zap.Error(err))
			}
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.DBTimeout)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database connection OK", zap.String("driver", cfg.StoreDriver), zap.String("dsn", postgres.RedactDSN(cfg.DatabaseDSN)))
		return NewPGStore(pool, cfg.DBTimeout), pool.Close, nil

	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on exit")
		return NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
