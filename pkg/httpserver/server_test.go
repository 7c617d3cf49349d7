package httpserver_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/httpserver"
)

func startServer(t *testing.T, handler http.Handler, opts ...httpserver.Option) (*httpserver.Server, string, context.CancelFunc, <-chan error) {
	t.Helper()

	started := make(chan string, 1)
	opts = append([]httpserver.Option{
		httpserver.WithAddr("127.0.0.1:0"),
		httpserver.WithShutdownTimeout(100 * time.Millisecond),
		httpserver.WithStartHook(func(addr string) { started <- addr }),
	}, opts...)
	srv := httpserver.New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, handler) }()

	select {
	case addr := <-started:
		return srv, addr, cancel, done
	case err := <-done:
		cancel()
		require.FailNow(t, "server did not start", "%v", err)
	case <-time.After(2 * time.Second):
		cancel()
		require.FailNow(t, "server did not start in time")
	}
	return nil, "", cancel, done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "run did not finish")
	}
}

func TestRunServesUntilContextCanceled(t *testing.T) {
	t.Parallel()

	srv, addr, cancel, done := startServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	assert.Equal(t, addr, srv.Addr())

	resp, err := http.Get("http://" + addr)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	waitDone(t, done)
	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestManualShutdown(t *testing.T) {
	t.Parallel()

	var stopped atomic.Int32
	srv, _, cancel, done := startServer(t, http.NotFoundHandler(),
		httpserver.WithStopHook(func() { stopped.Add(1) }))
	defer cancel()

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))
	waitDone(t, done)
	assert.Equal(t, int32(1), stopped.Load())
}

func TestShutdownBeforeRun(t *testing.T) {
	t.Parallel()
	assert.NoError(t, httpserver.New().Shutdown(context.Background()))
}

func TestStartError(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	srv := httpserver.New(httpserver.WithAddr(l.Addr().String()))
	err = srv.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestAlreadyRunning(t *testing.T) {
	t.Parallel()

	srv, _, cancel, done := startServer(t, http.NotFoundHandler())

	err := srv.Run(context.Background(), http.NotFoundHandler())
	require.Error(t, err)
	assert.ErrorIs(t, err, httpserver.ErrStart)
	assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)

	cancel()
	waitDone(t, done)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewFromConfig(httpserver.Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, nil) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + srv.Addr())
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	waitDone(t, done)
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		fn   func()
	}{
		{"addr", func() { httpserver.WithAddr("") }},
		{"read", func() { httpserver.WithReadTimeout(-time.Second) }},
		{"write", func() { httpserver.WithWriteTimeout(-time.Second) }},
		{"idle", func() { httpserver.WithIdleTimeout(-time.Second) }},
		{"shutdown", func() { httpserver.WithShutdownTimeout(-time.Second) }},
		{"start hook", func() { httpserver.WithStartHook(nil) }},
		{"stop hook", func() { httpserver.WithStopHook(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Panics(t, tt.fn)
		})
	}

	t.Run("nil logger allowed", func(t *testing.T) {
		t.Parallel()
		assert.NotPanics(t, func() { httpserver.New(httpserver.WithLogger(nil)) })
	})
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	t.Run("liveness without checks", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.HealthHandler(nil, 0, nil)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("failed checks are listed", func(t *testing.T) {
		t.Parallel()
		checks := map[string]httpserver.Check{
			"store":        func(context.Context) error { return nil },
			"requirements": func(context.Context) error { return errors.New("source unavailable") },
		}
		rec := httptest.NewRecorder()
		httpserver.HealthHandler(nil, time.Second, checks)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"unavailable","failed":["requirements"]}`, rec.Body.String())
	})

	t.Run("checks are bounded by timeout", func(t *testing.T) {
		t.Parallel()
		checks := map[string]httpserver.Check{
			"store": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}
		rec := httptest.NewRecorder()
		httpserver.HealthHandler(nil, 20*time.Millisecond, checks)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
