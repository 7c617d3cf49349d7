package enforce

import (
	"context"

	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

// Decision describes the outcome of one Guard check.
type Decision struct {
	Layer     requirements.Layer
	Operation string
	Subtype   string
	Gated     bool // the matrix has rules for Operation on Layer
	Allowed   bool
	Flag      string // set when a flag denied the call
	Err       error  // set when the check itself failed
}

// Observer is notified of every decision, e.g. to export metrics.
type Observer interface {
	ObserveDecision(ctx context.Context, d Decision)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, d Decision)

// ObserveDecision calls f(ctx, d).
func (f ObserverFunc) ObserveDecision(ctx context.Context, d Decision) {
	f(ctx, d)
}
