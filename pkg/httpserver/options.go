package httpserver

import (
	"fmt"
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*config)

// WithAddr sets the listen address, e.g. ":8080" or "127.0.0.1:0".
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty listen address")
	}
	return func(c *config) { c.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	mustPositive("read timeout", d)
	return func(c *config) { c.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	mustPositive("write timeout", d)
	return func(c *config) { c.writeTimeout = d }
}

// WithIdleTimeout bounds how long a keep-alive connection waits for the
// next request.
func WithIdleTimeout(d time.Duration) Option {
	mustPositive("idle timeout", d)
	return func(c *config) { c.idleTimeout = d }
}

// WithShutdownTimeout bounds graceful shutdown once the run context ends.
func WithShutdownTimeout(d time.Duration) Option {
	mustPositive("shutdown timeout", d)
	return func(c *config) { c.shutdownTimeout = d }
}

func mustPositive(name string, d time.Duration) {
	if d <= 0 {
		panic(fmt.Sprintf("httpserver: %s must be positive, got %s", name, d))
	}
}

// WithLogger sets the logger for lifecycle events and net/http errors.
// A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStartHook registers a callback invoked with the bound address once the
// listener is open.
func WithStartHook(h func(addr string)) Option {
	if h == nil {
		panic("httpserver: nil start hook")
	}
	return func(c *config) {
		c.startHooks = append(c.startHooks, h)
	}
}

// WithStopHook registers a callback that runs after the server shuts down.
func WithStopHook(h func()) Option {
	if h == nil {
		panic("httpserver: nil stop hook")
	}
	return func(c *config) {
		c.stopHooks = append(c.stopHooks, h)
	}
}
