package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses cfg.ConnectionURL and pings the server until it answers,
// up to RetryAttempts times within ConnectTimeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(opts)
	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for i := range attempts {
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	_ = client.Close()
	return nil, errors.Join(ErrRedisNotReady, lastErr)
}
