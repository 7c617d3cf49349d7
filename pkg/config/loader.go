package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// configCache stores parsed configuration structs keyed by type name.
type configCache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	globalCache = newConfigCache()

	defaultEnvMu     sync.Mutex
	defaultEnvLoaded bool
)

func newConfigCache() *configCache {
	return &configCache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}
}

// LoadEnv reads the given .env files into the process environment.
// Later files override earlier ones. With no paths the default .env in the
// working directory is loaded.
//
// Values already cached by Load are not refreshed; call ResetCache or
// ForceReloadConfig after loading new files.
func LoadEnv(paths ...string) error {
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	markDefaultEnvLoaded()
	return nil
}

// MustLoadEnv is like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

// Load parses environment variables into v based on its `env` tags.
// Each configuration type is parsed once per process; later calls receive
// the cached copy.
//
//	type StoreConfig struct {
//		Backend string `env:"FEATUREGATE_STORE" envDefault:"memory"`
//		DSN     string `env:"FEATUREGATE_STORE_DSN"`
//	}
//
//	var cfg StoreConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	loadDefaultEnv()
	if v == nil {
		return ErrNilPointer
	}

	key := typeKey[T]()
	if globalCache.get(key, v) {
		return nil
	}

	var err error
	globalCache.once(key).Do(func() {
		if parseErr := env.Parse(v); parseErr != nil {
			err = errors.Join(ErrParsingConfig, parseErr)
			return
		}
		globalCache.set(key, *v)
	})
	if err != nil {
		return err
	}

	if globalCache.get(key, v) {
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad is like Load but panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ForceReloadConfig drops the cached value for T and parses it again from
// the current environment.
func ForceReloadConfig[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	globalCache.forget(typeKey[T]())
	return Load(v)
}

// ResetCache forgets every cached configuration and allows the default .env
// file to be read again on the next Load.
func ResetCache() {
	globalCache.mu.Lock()
	globalCache.values = make(map[string]any)
	globalCache.onces = make(map[string]*sync.Once)
	globalCache.mu.Unlock()

	defaultEnvMu.Lock()
	defaultEnvLoaded = false
	defaultEnvMu.Unlock()
}

func loadDefaultEnv() {
	defaultEnvMu.Lock()
	defer defaultEnvMu.Unlock()
	if defaultEnvLoaded {
		return
	}
	defaultEnvLoaded = true
	// A missing .env file is not an error.
	_ = godotenv.Load()
}

func markDefaultEnvLoaded() {
	defaultEnvMu.Lock()
	defaultEnvLoaded = true
	defaultEnvMu.Unlock()
}

func (c *configCache) get(key string, dst any) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.values[key]
	if !ok {
		return false
	}
	reflect.ValueOf(dst).Elem().Set(reflect.ValueOf(cached))
	return true
}

func (c *configCache) set(key string, value any) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

func (c *configCache) once(key string) *sync.Once {
	c.mu.Lock()
	defer c.mu.Unlock()
	once, ok := c.onces[key]
	if !ok {
		once = new(sync.Once)
		c.onces[key] = once
	}
	return once
}

func (c *configCache) forget(key string) {
	c.mu.Lock()
	delete(c.values, key)
	delete(c.onces, key)
	c.mu.Unlock()
}

func typeKey[T any]() string {
	return reflect.TypeFor[T]().String()
}
