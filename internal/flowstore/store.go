package flowstore

import (
	"context"
	"fmt"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/quiz"
)

const DefaultTTL = 2 * time.Hour

// Open builds the flow store selected by cfg.Store.Driver. The returned func
// releases its connections.
func Open(ctx context.Context, cfg config.Config) (quiz.FlowRepository, func() error, error) {
	ttl := config.TTLDuration(cfg.Store.TTL, DefaultTTL)
	log := config.WithContext(ctx).WithField("driver", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case config.StoreRedis:
		client, err := NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using Redis flow store")
		return NewRedisStore(client, ttl), client.Close, nil

	case config.StorePostgres:
		db, err := Connect(cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using Postgres flow store")
		return NewPostgresStore(db, ttl), sqlDB.Close, nil

	case config.StoreMemory, "":
		log.Info("Using in-memory flow store")
		return NewMemoryStore(ttl), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Sweep drops expired flows from stores that keep them past their TTL. Redis
// expires keys itself.
func Sweep(ctx context.Context, repo quiz.FlowRepository) (int64, error) {
	switch s := repo.(type) {
	case *MemoryStore:
		return int64(s.Sweep()), nil
	case *PostgresStore:
		return s.PurgeExpired(ctx)
	}
	return 0, nil
}

// RunJanitor sweeps repo every interval until ctx is cancelled.
func RunJanitor(ctx context.Context, repo quiz.FlowRepository, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := Sweep(ctx, repo)
			if err != nil {
				config.WithContext(ctx).WithError(err).Warn("Failed to sweep expired flows")
				continue
			}
			if n > 0 {
				config.WithContext(ctx).Debugf("Swept %d expired flows", n)
			}
		}
	}
}
