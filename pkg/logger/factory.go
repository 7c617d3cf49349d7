package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents logger output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Deployment environments recognized by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// ParseLevel converts a level name ("debug", "info", "warn", "error") into a
// slog.Level. Matching is case-insensitive.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// Option configures logger creation.
type Option func(*config)

type config struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets the output format. It panics on unknown formats.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

func WithTextFormatter() Option { return WithFormat(FormatText) }

func WithJSONFormatter() Option { return WithFormat(FormatJSON) }

// WithOutput sets the destination. A nil writer is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithContextExtractors registers functions that add attributes taken from
// the record context, such as the request id. Nil extractors are skipped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// WithEnvironment applies the defaults for env and tags records with the
// service and env names. Unknown environments get development defaults:
// text output at debug level. Staging and production log JSON at info.
func WithEnvironment(env, service string) Option {
	return func(c *config) {
		switch env {
		case EnvProduction, "prod":
			env, c.level, c.format = EnvProduction, slog.LevelInfo, FormatJSON
		case EnvStaging, "stage":
			env, c.level, c.format = EnvStaging, slog.LevelInfo, FormatJSON
		default:
			env, c.level, c.format = EnvDevelopment, slog.LevelDebug, FormatText
		}
		if service != "" {
			c.attrs = append(c.attrs, slog.String("service", service))
		}
		c.attrs = append(c.attrs, slog.String("env", env))
	}
}

// New creates a logger writing JSON at info level to stdout unless options
// say otherwise. Options are applied in order, so WithLevel after
// WithEnvironment overrides the environment level.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	var handler slog.Handler
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}
	return slog.New(NewLogHandlerDecorator(handler, cfg.extractors...))
}
