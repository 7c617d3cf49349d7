// Package redis connects to the Redis server backing the redisstore flag
// store.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := redisstore.New(client, redisstore.WithPrefix(cfg.KeyPrefix))
package redis
