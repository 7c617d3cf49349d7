package requirements

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// snapshot is the resolver's materialized matrix. It is never mutated after
// it has been installed; a refresh installs a new one.
type snapshot struct {
	matrix     *Matrix
	loadedAt   time.Time
	generation uint64
}

// Resolver serves the requirements matrix from a TTL-bounded cache, reloading
// it from the Source when stale. It is safe for concurrent use.
//
// Reload failures are returned to the caller; a stale matrix is never served
// once its ttl has elapsed.
type Resolver struct {
	source      Source
	known       KnownFlags
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
	observer    ReloadObserver

	current    atomic.Pointer[snapshot]
	generation atomic.Uint64
	group      singleflight.Group
}

// NewResolver creates a resolver over source. Flags referenced by the matrix
// are validated against known at every load; a nil known skips that check.
func NewResolver(source Source, known KnownFlags, opts ...Option) *Resolver {
	if source == nil {
		panic("requirements: source cannot be nil")
	}

	r := &Resolver{
		source:      source,
		known:       known,
		ttl:         DefaultTTL,
		loadTimeout: DefaultLoadTimeout,
		now:         time.Now,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TTL returns the configured freshness window.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// RequirementsFor returns the entries gating operation on layer.
// An empty result means the operation is not gated.
func (r *Resolver) RequirementsFor(ctx context.Context, layer Layer, operation string) ([]Entry, error) {
	m, err := r.matrix(ctx)
	if err != nil {
		return nil, err
	}
	return m.For(layer, operation), nil
}

// All returns the full current matrix.
func (r *Resolver) All(ctx context.Context) (*Matrix, error) {
	return r.matrix(ctx)
}

// Invalidate forces the next read to reload regardless of ttl.
func (r *Resolver) Invalidate() {
	r.generation.Add(1)
	r.current.Store(nil)
}

func (r *Resolver) fresh(s *snapshot) bool {
	return s != nil &&
		s.generation == r.generation.Load() &&
		r.now().Before(s.loadedAt.Add(r.ttl))
}

func (r *Resolver) matrix(ctx context.Context) (*Matrix, error) {
	if r.ttl == 0 {
		return r.load(ctx)
	}

	if s := r.current.Load(); r.fresh(s) {
		return s.matrix, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stale readers of the same generation share one reload. The reload runs
	// detached from any single caller so one canceled request cannot fail the
	// others waiting on it.
	gen := r.generation.Load()
	ch := r.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		if s := r.current.Load(); r.fresh(s) {
			return s.matrix, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()

		m, err := r.load(loadCtx)
		if err != nil {
			return nil, err
		}
		r.install(&snapshot{matrix: m, loadedAt: r.now(), generation: gen})
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Matrix), nil
	}
}

// install swaps in next unless a snapshot of a newer generation is already there.
func (r *Resolver) install(next *snapshot) {
	for {
		cur := r.current.Load()
		if cur != nil && cur.generation > next.generation {
			return
		}
		if r.current.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (r *Resolver) load(ctx context.Context) (*Matrix, error) {
	start := time.Now()

	var m *Matrix
	doc, err := r.source.Load(ctx)
	switch {
	case err == nil:
		m, err = Parse(doc, r.known)
	case errors.Is(err, ErrSourceUnavailable), errors.Is(err, ErrMalformedRequirements):
	default:
		err = errors.Join(ErrSourceUnavailable, err)
	}

	elapsed := time.Since(start)
	if r.observer != nil {
		r.observer.ObserveReload(elapsed, m.Len(), err)
	}

	if err != nil {
		r.logger.ErrorContext(ctx, "feature requirements reload failed",
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)
		return nil, err
	}

	r.logger.DebugContext(ctx, "feature requirements reloaded",
		slog.Int("entries", m.Len()),
		slog.Duration("duration", elapsed),
	)
	return m, nil
}
