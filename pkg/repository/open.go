package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/config"
)

// Open connects the storage backend selected by cfg.Storage.Driver.
func Open(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Storage.Driver {
	case "mongodb":
		repo, err := NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		logger.Info("MongoDB store ready",
			zap.String("database", cfg.MongoDB.Database),
			zap.Bool("transactions", cfg.MongoDB.Transactions))
		return repo, nil
	case "mysql":
		repo, err := NewSQLRepository(&cfg.MySQL)
		if err != nil {
			return nil, err
		}
		logger.Info("MySQL store ready", zap.String("database", cfg.MySQL.Database))
		return repo, nil
	case "memory":
		logger.Warn("Using in-memory store, data is lost on restart")
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// OpenSequencer returns the order-number allocator selected by
// cfg.Sequence.Driver and a function releasing its resources. Either way the
// allocator is first raised past the highest order number already stored.
func OpenSequencer(ctx context.Context, cfg *config.Config, store Store, logger *zap.Logger) (Sequencer, func() error, error) {
	if cfg.Sequence.Driver != "redis" {
		if err := SeedOrderSequence(ctx, store, store, cfg.Shop.OrderNumberBase); err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}

	redisRepo := NewRedisRepository(&cfg.Redis)
	if err := redisRepo.Ping(ctx); err != nil {
		redisRepo.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if err := SeedOrderSequence(ctx, store, redisRepo, cfg.Shop.OrderNumberBase); err != nil {
		redisRepo.Close()
		return nil, nil, err
	}

	logger.Info("Redis order sequence ready", zap.String("addr", cfg.Redis.Addr))
	return redisRepo, redisRepo.Close, nil
}

// SeedOrderSequence raises the order-number sequence so the next value,
// added to base, is above every stored order number.
func SeedOrderSequence(ctx context.Context, orders OrderStore, seeder SequenceSeeder, base int64) error {
	highest, err := orders.MaxOrderNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to read highest order number: %w", err)
	}
	if highest <= base {
		return nil
	}
	if err := seeder.Seed(ctx, OrderNumberSequence, highest-base); err != nil {
		return fmt.Errorf("failed to seed order sequence: %w", err)
	}
	return nil
}
