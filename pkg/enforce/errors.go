package enforce

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

var (
	// ErrFeatureDisabled is matched by every denial returned by a Guard or Interceptor.
	ErrFeatureDisabled = errors.New("feature disabled")

	// ErrUnknownOperation indicates a call to an operation the wrapped provider does not expose.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidOperation indicates an operation that cannot be registered:
	// empty name, nil handler or a name used twice.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidArguments indicates that a typed operation received arguments of the wrong type.
	ErrInvalidArguments = errors.New("invalid operation arguments")
)

// FeatureDisabledError identifies the flag that blocked a call.
type FeatureDisabledError struct {
	Flag      string
	Layer     requirements.Layer
	Operation string
	Subtype   string // empty when no subtype could be determined
}

func (e *FeatureDisabledError) Error() string {
	if e.Subtype == "" {
		return fmt.Sprintf("feature disabled: %s blocks %s.%s", e.Flag, e.Layer, e.Operation)
	}
	return fmt.Sprintf("feature disabled: %s blocks %s.%s (%s)", e.Flag, e.Layer, e.Operation, e.Subtype)
}

// Is reports whether target is ErrFeatureDisabled.
func (e *FeatureDisabledError) Is(target error) bool {
	return target == ErrFeatureDisabled
}

// DisabledFlag returns the flag that denied err, if err is a denial.
func DisabledFlag(err error) (string, bool) {
	var fde *FeatureDisabledError
	if errors.As(err, &fde) {
		return fde.Flag, true
	}
	return "", false
}
