package enforce

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/featuregate/pkg/logger"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

// FlagChecker reports whether a flag is enabled. *feature.Evaluator satisfies it.
type FlagChecker interface {
	IsEnabled(ctx context.Context, name string) (bool, error)
}

// RequirementsLookup returns the entries gating an operation.
// *requirements.Resolver satisfies it.
type RequirementsLookup interface {
	RequirementsFor(ctx context.Context, layer requirements.Layer, operation string) ([]requirements.Entry, error)
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLogger sets the logger used for decision diagnostics.
func WithLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver registers decision observers.
func WithObserver(observers ...Observer) GuardOption {
	return func(g *Guard) {
		for _, o := range observers {
			if o != nil {
				g.observers = append(g.observers, o)
			}
		}
	}
}

// Guard decides whether an operation on its layer may run.
// It holds no mutable state and is safe for concurrent use.
type Guard struct {
	layer     requirements.Layer
	flags     FlagChecker
	reqs      RequirementsLookup
	logger    *slog.Logger
	observers []Observer
}

// NewGuard creates a guard for layer. It panics on an invalid layer or nil
// dependencies since those are wiring mistakes.
func NewGuard(layer requirements.Layer, flags FlagChecker, reqs RequirementsLookup, opts ...GuardOption) *Guard {
	if !layer.Valid() {
		panic("enforce: invalid layer " + string(layer))
	}
	if flags == nil || reqs == nil {
		panic("enforce: flag checker and requirements lookup are required")
	}

	g := &Guard{
		layer:  layer,
		flags:  flags,
		reqs:   reqs,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Layer returns the layer the guard enforces.
func (g *Guard) Layer() requirements.Layer {
	return g.layer
}

// Check returns nil when operation may run for subtype. An empty subtype
// means no discriminator could be determined, in which case every rule for
// the operation applies.
//
// A denial is a *FeatureDisabledError. Failures to resolve requirements or
// evaluate a flag are returned unchanged and must also be treated as denial.
func (g *Guard) Check(ctx context.Context, operation, subtype string) error {
	flag, gated, err := g.check(ctx, operation, subtype)
	g.report(ctx, operation, subtype, flag, gated, err)
	return err
}

// check returns the blocking or failing flag and whether the matrix has
// rules for the operation on this layer.
func (g *Guard) check(ctx context.Context, operation, subtype string) (string, bool, error) {
	entries, err := g.reqs.RequirementsFor(ctx, g.layer, operation)
	if err != nil {
		return "", false, err
	}
	if len(entries) == 0 {
		return "", false, nil
	}

	active := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Applies(subtype) {
			active = append(active, e.Flag)
		}
	}
	slices.Sort(active)
	active = slices.Compact(active)

	for _, flag := range active {
		enabled, err := g.flags.IsEnabled(ctx, flag)
		if err != nil {
			return flag, true, err
		}
		if !enabled {
			return flag, true, &FeatureDisabledError{
				Flag:      flag,
				Layer:     g.layer,
				Operation: operation,
				Subtype:   subtype,
			}
		}
	}
	return "", true, nil
}

func (g *Guard) report(ctx context.Context, operation, subtype, flag string, gated bool, err error) {
	attrs := []slog.Attr{
		logger.Layer(string(g.layer)),
		logger.Operation(operation),
		logger.Subtype(subtype),
	}

	d := Decision{
		Layer:     g.layer,
		Operation: operation,
		Subtype:   subtype,
		Gated:     gated,
		Allowed:   err == nil,
	}

	switch {
	case err == nil:
		g.logger.LogAttrs(ctx, slog.LevelDebug, "operation allowed", attrs...)
	case errors.Is(err, ErrFeatureDisabled):
		d.Flag = flag
		g.logger.LogAttrs(ctx, slog.LevelInfo, "operation blocked by feature flag", append(attrs, logger.Flag(flag))...)
	default:
		d.Err = err
		g.logger.LogAttrs(ctx, slog.LevelError, "feature enforcement failed", append(attrs, logger.Flag(flag), logger.Error(err))...)
	}

	for _, o := range g.observers {
		o.ObserveDecision(ctx, d)
	}
}
