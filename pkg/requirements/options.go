package requirements

import (
	"log/slog"
	"time"
)

// DefaultTTL is how long a loaded matrix is served before it is reloaded.
const DefaultTTL = 30 * time.Second

// DefaultLoadTimeout bounds a single shared reload.
const DefaultLoadTimeout = 10 * time.Second

// ReloadObserver is notified after every reload attempt.
type ReloadObserver interface {
	ObserveReload(d time.Duration, entries int, err error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTTL sets how long a loaded matrix stays fresh.
// Zero disables caching: every read reloads from the source.
func WithTTL(ttl time.Duration) Option {
	if ttl < 0 {
		panic("requirements: ttl must not be negative")
	}
	return func(r *Resolver) { r.ttl = ttl }
}

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger used for reload diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers a reload observer, e.g. a metrics collector.
func WithObserver(o ReloadObserver) Option {
	return func(r *Resolver) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithLoadTimeout bounds a shared reload. Callers waiting on it still return
// as soon as their own context is done.
func WithLoadTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.loadTimeout = d
		}
	}
}
