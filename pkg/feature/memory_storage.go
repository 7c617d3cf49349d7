package feature

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// It's useful for testing and single-process deployments.
type MemoryStorage struct {
	flags map[string]*Flag
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMemoryStorage creates a new in-memory storage with optional initial flags.
func NewMemoryStorage(initialFlags ...*Flag) (*MemoryStorage, error) {
	storage := &MemoryStorage{
		flags: make(map[string]*Flag),
		now:   time.Now,
	}

	for _, flag := range initialFlags {
		if flag == nil {
			continue
		}
		if flag.Name == "" {
			return nil, errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
		}

		flagCopy := *flag
		if flagCopy.CreatedAt.IsZero() {
			flagCopy.CreatedAt = storage.now()
		}
		if flagCopy.UpdatedAt.IsZero() {
			flagCopy.UpdatedAt = flagCopy.CreatedAt
		}
		storage.flags[flag.Name] = &flagCopy
	}

	return storage, nil
}

// GetFlag retrieves a flag by name.
func (m *MemoryStorage) GetFlag(ctx context.Context, name string) (*Flag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	flag, exists := m.flags[name]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrFlagNotFound
	}

	// Return a copy to prevent external modification
	return cloneFlag(flag), nil
}

// ListFlags returns copies of all flags ordered by name.
func (m *MemoryStorage) ListFlags(ctx context.Context) ([]*Flag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	result := make([]*Flag, 0, len(m.flags))
	for _, flag := range m.flags {
		result = append(result, cloneFlag(flag))
	}
	m.mu.RUnlock()

	slices.SortFunc(result, func(a, b *Flag) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result, nil
}

// CreateFlag stores a new flag.
func (m *MemoryStorage) CreateFlag(ctx context.Context, flag *Flag) error {
	if flag == nil {
		return errors.Join(ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	if flag.Name == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[flag.Name]; exists {
		return ErrFlagExists
	}

	flagCopy := *flag
	now := m.now()
	if flagCopy.CreatedAt.IsZero() {
		flagCopy.CreatedAt = now
	}
	if flagCopy.UpdatedAt.IsZero() {
		flagCopy.UpdatedAt = flagCopy.CreatedAt
	}
	m.flags[flag.Name] = &flagCopy

	return nil
}

// SetEnabled flips the enabled state of a stored flag.
func (m *MemoryStorage) SetEnabled(ctx context.Context, name string, enabled bool) (*Flag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.flags[name]
	if !exists {
		return nil, ErrFlagNotFound
	}

	// Replace rather than mutate so copies handed out earlier stay consistent.
	updated := *existing
	updated.Enabled = enabled
	updated.UpdatedAt = m.now()
	m.flags[name] = &updated

	return cloneFlag(&updated), nil
}

// Close releases any resources. For the memory storage, this is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}
