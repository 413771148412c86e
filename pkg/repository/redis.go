package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/example/candleshop/pkg/config"
)

// RedisRepository allocates sequence values with INCR, which is atomic
// across every process sharing the Redis instance.
type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return NewRedisRepositoryFromClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}), cfg)
}

func NewRedisRepositoryFromClient(client *redis.Client, cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{client: client, config: cfg}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func sequenceKey(name string) string {
	return fmt.Sprintf("seq:%s", name)
}

// Next implements Sequencer.
func (r *RedisRepository) Next(ctx context.Context, name string) (int64, error) {
	n, err := r.client.Incr(ctx, sequenceKey(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return n, nil
}

// Seed raises the sequence to at least value so numbers already issued by
// another allocator are never handed out again.
func (r *RedisRepository) Seed(ctx context.Context, name string, value int64) error {
	key := sequenceKey(name)
	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur >= value {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, 0)
			return nil
		})
		return err
	}, key)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
