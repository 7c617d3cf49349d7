package main

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/featuregate/pkg/config"
	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/feature/pgstore"
	"github.com/dmitrymomot/featuregate/pkg/feature/redisstore"
	"github.com/dmitrymomot/featuregate/pkg/feature/sqlitestore"
	"github.com/dmitrymomot/featuregate/pkg/httpserver"
	"github.com/dmitrymomot/featuregate/pkg/logger"
	"github.com/dmitrymomot/featuregate/pkg/mongo"
	"github.com/dmitrymomot/featuregate/pkg/pg"
	"github.com/dmitrymomot/featuregate/pkg/redis"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
	"github.com/dmitrymomot/featuregate/pkg/requirements/mongosource"
	"github.com/dmitrymomot/featuregate/pkg/requirements/pgsource"
	"github.com/dmitrymomot/featuregate/pkg/requirements/s3source"
)

// app holds the components shared by the commands. Backends are opened on
// demand so that commands only touch what they use.
type app struct {
	cfg appConfig
	log *slog.Logger
	dir *feature.Directory

	store    *feature.Store
	cached   *feature.CachedLookup
	eval     *feature.Evaluator
	source   requirements.Source
	resolver *requirements.Resolver

	pool    *pgxpool.Pool
	checks  map[string]httpserver.Check
	closers []func() error
}

func newApp(cfg appConfig, log *slog.Logger) (*app, error) {
	defs, err := feature.LoadDefinitionsFile(cfg.FlagsFile)
	if err != nil {
		return nil, err
	}
	dir, err := feature.NewDirectory(defs...)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		log:    log,
		dir:    dir,
		checks: make(map[string]httpserver.Check),
	}, nil
}

// Close releases backends in reverse opening order.
func (a *app) Close() error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(func() error { pool.Close(); return nil })
	a.checks["postgres"] = pg.Healthcheck(pool)

	if a.cfg.AutoMigrate {
		version, err := pg.Migrate(ctx, pool, cfg, a.log)
		if err != nil {
			return nil, err
		}
		a.log.InfoContext(ctx, "database schema ready", slog.Int64("version", version))
	}
	a.pool = pool
	return pool, nil
}

func (a *app) openStorage(ctx context.Context) (feature.Storage, error) {
	switch a.cfg.Store {
	case storeSQLite:
		s, err := sqlitestore.Open(ctx, a.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.checks["store"] = s.Ping
		return s, nil

	case storePostgres:
		pool, err := a.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgstore.New(pool), nil

	case storeRedis:
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.onClose(client.Close)
		a.checks["redis"] = redis.Healthcheck(client)
		return redisstore.New(client, redisstore.WithPrefix(cfg.KeyPrefix)), nil

	default:
		return feature.NewMemoryStorage()
	}
}

// openStore opens the configured flag store and seeds flags that are not
// persisted yet with their default state.
func (a *app) openStore(ctx context.Context) (*feature.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	storage, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	store := feature.NewStore(a.dir, storage)
	a.onClose(store.Close)

	created, err := store.Seed(ctx)
	if err != nil {
		return nil, err
	}
	if created > 0 {
		a.log.InfoContext(ctx, "feature flags seeded",
			slog.String("store", a.cfg.Store),
			slog.Int("created", created),
		)
	}

	var lookup feature.Lookup = store
	if a.cfg.FlagCacheTTL > 0 {
		a.cached = feature.NewCachedLookup(store, a.cfg.FlagCacheSize, a.cfg.FlagCacheTTL)
		lookup = a.cached
	}
	a.store = store
	a.eval = feature.NewEvaluator(lookup)
	return store, nil
}

func (a *app) openSource(ctx context.Context) (requirements.Source, error) {
	switch a.cfg.Source {
	case sourcePostgres:
		pool, err := a.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgsource.New(pool), nil

	case sourceMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := mongo.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.onClose(func() error { return disconnect(client) })
		a.checks["mongo"] = mongo.Healthcheck(client)
		return mongosource.New(mongo.Collection(client, cfg)), nil

	case sourceS3:
		var cfg s3source.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		return s3source.New(ctx, cfg)

	default:
		return requirements.NewFileSource(a.cfg.RequirementsFile), nil
	}
}

// openResolver builds the TTL cached resolver over the configured source.
func (a *app) openResolver(ctx context.Context, opts ...requirements.Option) (*requirements.Resolver, error) {
	if a.resolver != nil {
		return a.resolver, nil
	}
	source, err := a.openSource(ctx)
	if err != nil {
		return nil, err
	}
	opts = append([]requirements.Option{
		requirements.WithTTL(a.cfg.RequirementsTTL),
		requirements.WithLoadTimeout(a.cfg.LoadTimeout),
		requirements.WithLogger(a.log.With(logger.Component("requirements"))),
	}, opts...)

	a.source = source
	a.resolver = requirements.NewResolver(source, a.dir, opts...)
	return a.resolver, nil
}

func disconnect(client *mongodriver.Client) error {
	return client.Disconnect(context.Background())
}
