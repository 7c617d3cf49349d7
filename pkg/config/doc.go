// Package config loads typed configuration from environment variables.
//
// Values come from the process environment, optionally seeded from one or
// more .env files through github.com/joho/godotenv, and are parsed into
// tagged structs by github.com/caarlos0/env/v11. Each struct type is parsed
// once per process and served from an in-memory cache afterwards.
//
//	type ResolverConfig struct {
//		Source string        `env:"FEATUREGATE_SOURCE" envDefault:"file"`
//		TTL    time.Duration `env:"FEATUREGATE_REQUIREMENTS_TTL" envDefault:"30s"`
//	}
//
//	if err := config.LoadEnv(".env", ".env.local"); err != nil {
//		log.Fatal(err)
//	}
//	var cfg ResolverConfig
//	config.MustLoad(&cfg)
//
// ResetCache and ForceReloadConfig exist for tests and for commands that
// change the environment after startup.
//
// Errors are sentinel values comparable with errors.Is: ErrParsingConfig,
// ErrLoadingEnvFile, ErrConfigNotLoaded and ErrNilPointer.
package config
