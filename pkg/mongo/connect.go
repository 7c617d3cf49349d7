package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Connect creates a client and pings the primary until it answers, up to
// RetryAttempts times.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	opts := options.Client().
		ApplyURI(cfg.ConnectionURL).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetRetryReads(cfg.RetryReads)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnectToMongo, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for i := range attempts {
		if lastErr = client.Ping(ctx, nil); lastErr == nil {
			return client, nil
		}
		if i == attempts-1 {
			break
		}
		if err := wait(ctx, cfg.RetryInterval); err != nil {
			lastErr = err
			break
		}
	}
	_ = client.Disconnect(context.WithoutCancel(ctx))
	return nil, errors.Join(ErrFailedToConnectToMongo, lastErr)
}

// Collection returns the requirements collection named by cfg.
func Collection(client *mongo.Client, cfg Config) *mongo.Collection {
	return client.Database(cfg.Database).Collection(cfg.Collection)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
