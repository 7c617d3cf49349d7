package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/redis"
)

func TestConnectValidatesURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://localhost:6379"})
	require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}

func TestConnectGivesUp(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://127.0.0.1:1/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: 2 * time.Second,
	})
	require.ErrorIs(t, err, redis.ErrRedisNotReady)
}
