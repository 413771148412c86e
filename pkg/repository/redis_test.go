package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/candleshop/pkg/config"
)

func newTestRedis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := &config.RedisConfig{Addr: mr.Addr()}
	repo := NewRedisRepositoryFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), cfg)
	t.Cleanup(func() { repo.Close() })
	return repo, mr
}

func TestRedisRepository_Next(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRedis(t)

	require.NoError(t, repo.Ping(ctx))

	first, err := repo.Next(ctx, OrderNumberSequence)
	require.NoError(t, err)
	second, err := repo.Next(ctx, OrderNumberSequence)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	other, err := repo.Next(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestRedisRepository_Seed(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRedis(t)

	require.NoError(t, repo.Seed(ctx, OrderNumberSequence, 41))
	n, err := repo.Next(ctx, OrderNumberSequence)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	// a lower seed never moves the counter back
	require.NoError(t, repo.Seed(ctx, OrderNumberSequence, 3))
	n, err = repo.Next(ctx, OrderNumberSequence)
	require.NoError(t, err)
	assert.Equal(t, int64(43), n)

	v, err := mr.Get("seq:" + OrderNumberSequence)
	require.NoError(t, err)
	assert.Equal(t, "43", v)
}

func TestRedisRepository_NextUnavailable(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRedis(t)
	mr.Close()

	_, err := repo.Next(ctx, OrderNumberSequence)
	assert.Error(t, err)
}
