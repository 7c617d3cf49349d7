package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/featuregate/pkg/logger"
)

type config struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	startHooks      []func(addr string)
	stopHooks       []func()
}

func defaultConfig() *config {
	return &config{
		addr:            ":8080",
		readTimeout:     30 * time.Second,
		writeTimeout:    30 * time.Second,
		idleTimeout:     120 * time.Second,
		shutdownTimeout: 5 * time.Second,
	}
}

// Server serves the admin surface and shuts it down gracefully when the run
// context ends.
type Server struct {
	cfg *config

	mu   sync.Mutex
	srv  *http.Server
	addr string
	once sync.Once
}

// New returns a configured Server.
func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg}
}

// Addr returns the bound listen address once Run has started, or an empty
// string before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run binds the listener, serves handler and blocks until ctx is done or the
// server fails. Bind and serve failures are wrapped with ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.readTimeout,
		WriteTimeout: s.cfg.writeTimeout,
		IdleTimeout:  s.cfg.idleTimeout,
		ErrorLog:     slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelError),
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.srv = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	log := s.cfg.logger.With(logger.Component("httpserver"))
	log.InfoContext(ctx, "http server listening", slog.String("addr", s.addr))
	for _, h := range s.cfg.startHooks {
		h(s.addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var runErr error
	select {
	case <-ctx.Done():
		if err := s.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.ErrorContext(ctx, "http server shutdown failed", logger.Error(err))
		}
		runErr = <-errCh
	case runErr = <-errCh:
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr)
	}
	log.InfoContext(ctx, "http server stopped")
	return nil
}

// Shutdown stops a running server within the shutdown timeout. Repeated
// calls and calls before Run are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	var err error
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
		for _, h := range s.cfg.stopHooks {
			h()
		}
	})
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
