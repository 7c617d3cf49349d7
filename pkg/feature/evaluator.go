package feature

import (
	"context"
	"errors"
	"fmt"
)

// Evaluator answers whether a flag is currently enabled.
// It holds no state of its own beyond the lookup it delegates to.
type Evaluator struct {
	lookup Lookup
}

// NewEvaluator creates an evaluator reading flag state through lookup.
func NewEvaluator(lookup Lookup) *Evaluator {
	if lookup == nil {
		panic("feature: lookup cannot be nil")
	}
	return &Evaluator{lookup: lookup}
}

// IsEnabled reports the current state of the named flag.
// A flag that cannot be found yields an error matching ErrUnknownFlag;
// it is never treated as either enabled or disabled.
func (e *Evaluator) IsEnabled(ctx context.Context, name string) (bool, error) {
	flag, err := e.lookup.Get(ctx, name)
	switch {
	case err == nil:
		return flag.Enabled, nil
	case errors.Is(err, ErrUnknownFlag):
		return false, err
	case errors.Is(err, ErrFlagNotFound):
		return false, fmt.Errorf("%w: %s: %w", ErrUnknownFlag, name, err)
	default:
		return false, err
	}
}
