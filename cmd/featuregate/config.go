package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/featuregate/pkg/clientip"
	"github.com/dmitrymomot/featuregate/pkg/config"
	"github.com/dmitrymomot/featuregate/pkg/logger"
	"github.com/dmitrymomot/featuregate/pkg/requestid"
)

// Flag store backends.
const (
	storeMemory   = "memory"
	storeSQLite   = "sqlite"
	storePostgres = "postgres"
	storeRedis    = "redis"
)

// Requirements sources.
const (
	sourceFile     = "file"
	sourcePostgres = "postgres"
	sourceMongo    = "mongo"
	sourceS3       = "s3"
)

var errInvalidConfig = errors.New("invalid configuration")

type appConfig struct {
	Environment string `env:"FEATUREGATE_ENV" envDefault:"production"`
	LogLevel    string `env:"LOG_LEVEL"`

	FlagsFile     string        `env:"FEATUREGATE_FLAGS_FILE" envDefault:"config/flags.yaml"`
	Store         string        `env:"FEATUREGATE_STORE" envDefault:"memory"`
	SQLitePath    string        `env:"FEATUREGATE_SQLITE_PATH" envDefault:"featuregate.db"`
	FlagCacheSize int           `env:"FEATUREGATE_FLAG_CACHE_SIZE" envDefault:"256"`
	FlagCacheTTL  time.Duration `env:"FEATUREGATE_FLAG_CACHE_TTL" envDefault:"0s"`

	Source           string        `env:"FEATUREGATE_SOURCE" envDefault:"file"`
	RequirementsFile string        `env:"FEATUREGATE_REQUIREMENTS_FILE" envDefault:"config/requirements.yaml"`
	RequirementsTTL  time.Duration `env:"FEATUREGATE_REQUIREMENTS_TTL" envDefault:"30s"`
	LoadTimeout      time.Duration `env:"FEATUREGATE_REQUIREMENTS_LOAD_TIMEOUT" envDefault:"10s"`
	Watch            bool          `env:"FEATUREGATE_WATCH" envDefault:"false"`

	AutoMigrate bool `env:"FEATUREGATE_AUTO_MIGRATE" envDefault:"false"`
}

func loadAppConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	switch c.Store {
	case storeMemory, storeSQLite, storePostgres, storeRedis:
	default:
		return fmt.Errorf("%w: unknown FEATUREGATE_STORE %q", errInvalidConfig, c.Store)
	}
	switch c.Source {
	case sourceFile, sourcePostgres, sourceMongo, sourceS3:
	default:
		return fmt.Errorf("%w: unknown FEATUREGATE_SOURCE %q", errInvalidConfig, c.Source)
	}
	if c.RequirementsTTL < 0 {
		return fmt.Errorf("%w: FEATUREGATE_REQUIREMENTS_TTL must not be negative", errInvalidConfig)
	}
	if c.Watch && c.Source != sourceFile {
		return fmt.Errorf("%w: FEATUREGATE_WATCH requires the file source", errInvalidConfig)
	}
	return nil
}

func newLogger(cfg appConfig, out io.Writer) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithOutput(out),
		logger.WithEnvironment(cfg.Environment, "featuregate"),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, errors.Join(errInvalidConfig, err)
		}
		opts = append(opts, logger.WithLevel(level))
	}
	return logger.New(opts...), nil
}
