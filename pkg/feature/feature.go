package feature

import (
	"context"
	"time"
)

// Flag is a named boolean switch persisted by a Storage backend.
type Flag struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Definition is the static metadata of a flag known to the Directory.
type Definition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Default     bool   `json:"default" yaml:"default"`
}

// Storage is implemented by flag persistence backends.
// Implementations must be safe for concurrent use and must never hand out
// references to their internal state.
type Storage interface {
	// GetFlag returns the stored flag or ErrFlagNotFound.
	GetFlag(ctx context.Context, name string) (*Flag, error)

	// ListFlags returns every stored flag ordered by name.
	ListFlags(ctx context.Context) ([]*Flag, error)

	// CreateFlag persists a new flag. It returns ErrFlagExists if the name is taken.
	// CreatedAt and UpdatedAt are set by the backend when zero.
	CreateFlag(ctx context.Context, flag *Flag) error

	// SetEnabled updates the enabled state and returns the updated flag.
	// It returns ErrFlagNotFound if the flag is not stored.
	SetEnabled(ctx context.Context, name string, enabled bool) (*Flag, error)

	// Close releases any resources used by the backend.
	Close() error
}

// Lookup is the read capability the Evaluator depends on.
type Lookup interface {
	Get(ctx context.Context, name string) (*Flag, error)
}

func cloneFlag(f *Flag) *Flag {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
