package pg

import "time"

// Config holds PostgreSQL connection settings for the flag store and the
// requirements source.
type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL,required"`
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"2"`
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"2s"`

	// MigrationsPath points at a directory of goose files. When empty the
	// migrations embedded in the binary are used.
	MigrationsPath  string `env:"PG_MIGRATIONS_PATH"`
	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"featuregate_migrations"`
}
