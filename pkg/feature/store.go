package feature

import (
	"context"
	"errors"
	"fmt"
)

// Store is the system of record for flag state.
// It guards a Storage backend with the Directory so that only registered
// flags can be read or written.
type Store struct {
	dir     *Directory
	storage Storage
}

// NewStore creates a store backed by storage and validated against dir.
func NewStore(dir *Directory, storage Storage) *Store {
	if dir == nil {
		panic("feature: directory cannot be nil")
	}
	if storage == nil {
		panic("feature: storage cannot be nil")
	}
	return &Store{dir: dir, storage: storage}
}

// Get returns the persisted flag.
// It returns ErrUnknownFlag for unregistered names and ErrFlagNotFound for
// registered flags that have not been persisted yet.
func (s *Store) Get(ctx context.Context, name string) (*Flag, error) {
	if !s.dir.IsKnown(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}
	return s.storage.GetFlag(ctx, name)
}

// SetEnabled changes the state of a registered flag, persisting it first if needed.
func (s *Store) SetEnabled(ctx context.Context, name string, enabled bool) (*Flag, error) {
	def, ok := s.dir.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}

	flag, err := s.storage.SetEnabled(ctx, name, enabled)
	if !errors.Is(err, ErrFlagNotFound) {
		return flag, err
	}

	err = s.storage.CreateFlag(ctx, &Flag{
		Name:        def.Name,
		Description: def.Description,
		Enabled:     enabled,
	})
	if errors.Is(err, ErrFlagExists) {
		// Lost a race with a concurrent create; the row is there now.
		return s.storage.SetEnabled(ctx, name, enabled)
	}
	if err != nil {
		return nil, err
	}
	return s.storage.GetFlag(ctx, name)
}

// List returns all persisted flags ordered by name.
func (s *Store) List(ctx context.Context) ([]*Flag, error) {
	return s.storage.ListFlags(ctx)
}

// Seed persists the default state of every registered flag that is not stored yet.
// Existing records are never overwritten. It returns the number of created flags.
func (s *Store) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, def := range s.dir.Definitions() {
		_, err := s.storage.GetFlag(ctx, def.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrFlagNotFound) {
			return created, err
		}

		err = s.storage.CreateFlag(ctx, &Flag{
			Name:        def.Name,
			Description: def.Description,
			Enabled:     def.Default,
		})
		switch {
		case errors.Is(err, ErrFlagExists):
			continue
		case err != nil:
			return created, err
		}
		created++
	}
	return created, nil
}

// Close closes the underlying storage.
func (s *Store) Close() error {
	return s.storage.Close()
}
