package redisstore_test

import (
	"context"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/feature/redisstore"
	"github.com/dmitrymomot/featuregate/pkg/feature/storagetest"
	"github.com/dmitrymomot/featuregate/pkg/redis"
)

// TestStorageIntegration runs against a real server when REDIS_URL is set.
func TestStorageIntegration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := redis.Connect(ctx, redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		RetryInterval:  time.Second,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	// Every subtest gets its own key space.
	var seq atomic.Int64
	run := strconv.FormatInt(time.Now().UnixNano(), 36)
	storagetest.Run(t, func(t *testing.T) feature.Storage {
		prefix := "featuregate-test:" + run + ":" + strconv.FormatInt(seq.Add(1), 10) + ":"
		t.Cleanup(func() {
			keys, _ := client.Keys(context.Background(), prefix+"*").Result()
			if len(keys) > 0 {
				client.Del(context.Background(), keys...)
			}
		})
		return redisstore.New(client, redisstore.WithPrefix(prefix))
	})
}
