// Package pg connects to PostgreSQL for the pgstore flag backend and the
// pgsource requirements source.
//
// Connect builds a pgxpool.Pool with retry, Healthcheck plugs the pool into
// the admin readiness probe and Migrate applies the goose schema embedded
// from internal/db (or a directory given by PG_MIGRATIONS_PATH).
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	version, err := pg.Migrate(ctx, pool, cfg, log)
package pg
