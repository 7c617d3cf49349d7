package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/config"
)

var envKeys = []string{
	"FEATUREGATE_STORE",
	"FEATUREGATE_SQLITE_PATH",
	"FEATUREGATE_FLAG_CACHE_SIZE",
	"FEATUREGATE_WATCH",
	"FEATUREGATE_LAYERS",
	"FEATUREGATE_OWNER",
	"FEATUREGATE_REQUIREMENTS_TTL",
	"REDIS_KEY_PREFIX",
}

type gateConfig struct {
	Store      string        `env:"FEATUREGATE_STORE" envDefault:"memory"`
	SQLitePath string        `env:"FEATUREGATE_SQLITE_PATH" envDefault:"featuregate.db"`
	CacheSize  int           `env:"FEATUREGATE_FLAG_CACHE_SIZE" envDefault:"1024"`
	Watch      bool          `env:"FEATUREGATE_WATCH"`
	Layers     []string      `env:"FEATUREGATE_LAYERS" envSeparator:","`
	Owner      string        `env:"FEATUREGATE_OWNER"`
	TTL        time.Duration `env:"FEATUREGATE_REQUIREMENTS_TTL" envDefault:"30s"`
}

type redisConfig struct {
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"featuregate:"`
}

type requiredConfig struct {
	DSN string `env:"FEATUREGATE_TEST_DSN,required"`
}

// cleanEnv unsets the keys used by these tests and restores them afterwards.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	config.ResetCache()
	t.Cleanup(config.ResetCache)
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cleanEnv(t)

		var cfg gateConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "memory", cfg.Store)
		assert.Equal(t, 1024, cfg.CacheSize)
		assert.Equal(t, 30*time.Second, cfg.TTL)
		assert.False(t, cfg.Watch)
	})

	t.Run("environment", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("FEATUREGATE_STORE", "postgres")
		t.Setenv("FEATUREGATE_REQUIREMENTS_TTL", "0s")

		var cfg gateConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "postgres", cfg.Store)
		assert.Zero(t, cfg.TTL)
	})

	t.Run("cached per type", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("FEATUREGATE_STORE", "sqlite")
		t.Setenv("REDIS_KEY_PREFIX", "a:")

		var first gateConfig
		require.NoError(t, config.Load(&first))
		var prefix redisConfig
		require.NoError(t, config.Load(&prefix))
		assert.Equal(t, "a:", prefix.KeyPrefix)

		t.Setenv("FEATUREGATE_STORE", "redis")
		var second gateConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "sqlite", second.Store)

		require.NoError(t, config.ForceReloadConfig(&second))
		assert.Equal(t, "redis", second.Store)
	})

	t.Run("missing required value", func(t *testing.T) {
		cleanEnv(t)

		var cfg requiredConfig
		require.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)

		t.Setenv("FEATUREGATE_TEST_DSN", "postgres://localhost/flags")
		require.NoError(t, config.ForceReloadConfig(&cfg))
		assert.Equal(t, "postgres://localhost/flags", cfg.DSN)
	})

	t.Run("nil pointer", func(t *testing.T) {
		cleanEnv(t)

		var cfg *gateConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
		assert.ErrorIs(t, config.ForceReloadConfig(cfg), config.ErrNilPointer)
	})

	t.Run("must load panics", func(t *testing.T) {
		cleanEnv(t)

		var cfg requiredConfig
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		cleanEnv(t)
		require.NoError(t, config.LoadEnv("testdata/base.env"))

		var cfg gateConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "sqlite", cfg.Store)
		assert.Equal(t, "/var/lib/featuregate/flags.db", cfg.SQLitePath)
		assert.Equal(t, 512, cfg.CacheSize)
		assert.True(t, cfg.Watch)
		assert.Equal(t, []string{"repository", "service", "api"}, cfg.Layers)
		assert.Equal(t, "payments platform", cfg.Owner)
		assert.Equal(t, 45*time.Second, cfg.TTL)
	})

	t.Run("later files override earlier ones", func(t *testing.T) {
		cleanEnv(t)
		require.NoError(t, config.LoadEnv("testdata/base.env", "testdata/local.env"))

		var cfg gateConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "redis", cfg.Store)
		assert.Zero(t, cfg.TTL)
		assert.Equal(t, 512, cfg.CacheSize)

		var prefix redisConfig
		require.NoError(t, config.Load(&prefix))
		assert.Equal(t, "local:", prefix.KeyPrefix)
	})

	t.Run("missing file", func(t *testing.T) {
		cleanEnv(t)
		assert.ErrorIs(t, config.LoadEnv("testdata/missing.env"), config.ErrLoadingEnvFile)
		assert.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
		assert.NotPanics(t, func() { config.MustLoadEnv("testdata/local.env") })
	})

	t.Run("default file", func(t *testing.T) {
		cleanEnv(t)
		t.Chdir(t.TempDir())
		require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("FEATUREGATE_OWNER=ops\n"), 0o644))

		var cfg gateConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "ops", cfg.Owner)
	})
}
