// Package storagetest provides a conformance suite for feature.Storage backends.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/feature"
)

// Factory returns an empty storage. It is called once per subtest; cleanup
// should be registered on t.
type Factory func(t *testing.T) feature.Storage

// Run exercises the behavior every feature.Storage implementation must share.
func Run(t *testing.T, newStorage Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateFlag and GetFlag", func(t *testing.T) {
		s := newStorage(t)

		require.NoError(t, s.CreateFlag(ctx, &feature.Flag{
			Name:        "SAVINGS",
			Description: "savings withdrawals",
			Enabled:     true,
		}))

		flag, err := s.GetFlag(ctx, "SAVINGS")
		require.NoError(t, err)
		assert.Equal(t, "SAVINGS", flag.Name)
		assert.Equal(t, "savings withdrawals", flag.Description)
		assert.True(t, flag.Enabled)
		assert.False(t, flag.CreatedAt.IsZero())
		assert.False(t, flag.UpdatedAt.IsZero())
	})

	t.Run("GetFlag missing", func(t *testing.T) {
		s := newStorage(t)

		_, err := s.GetFlag(ctx, "MISSING")
		assert.ErrorIs(t, err, feature.ErrFlagNotFound)
	})

	t.Run("CreateFlag duplicate", func(t *testing.T) {
		s := newStorage(t)

		require.NoError(t, s.CreateFlag(ctx, &feature.Flag{Name: "SAVINGS"}))
		err := s.CreateFlag(ctx, &feature.Flag{Name: "SAVINGS", Enabled: true})
		assert.ErrorIs(t, err, feature.ErrFlagExists)

		flag, err := s.GetFlag(ctx, "SAVINGS")
		require.NoError(t, err)
		assert.False(t, flag.Enabled, "duplicate create must not overwrite")
	})

	t.Run("CreateFlag invalid", func(t *testing.T) {
		s := newStorage(t)

		assert.ErrorIs(t, s.CreateFlag(ctx, nil), feature.ErrInvalidFlag)
		assert.ErrorIs(t, s.CreateFlag(ctx, &feature.Flag{}), feature.ErrInvalidFlag)
	})

	t.Run("SetEnabled", func(t *testing.T) {
		s := newStorage(t)

		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.CreateFlag(ctx, &feature.Flag{
			Name:      "SAVINGS",
			CreatedAt: created,
			UpdatedAt: created,
		}))

		flag, err := s.SetEnabled(ctx, "SAVINGS", true)
		require.NoError(t, err)
		assert.True(t, flag.Enabled)
		assert.True(t, flag.CreatedAt.Equal(created))
		assert.True(t, flag.UpdatedAt.After(created))

		stored, err := s.GetFlag(ctx, "SAVINGS")
		require.NoError(t, err)
		assert.True(t, stored.Enabled)

		flag, err = s.SetEnabled(ctx, "SAVINGS", false)
		require.NoError(t, err)
		assert.False(t, flag.Enabled)
	})

	t.Run("SetEnabled missing", func(t *testing.T) {
		s := newStorage(t)

		_, err := s.SetEnabled(ctx, "MISSING", true)
		assert.ErrorIs(t, err, feature.ErrFlagNotFound)
	})

	t.Run("ListFlags ordered by name", func(t *testing.T) {
		s := newStorage(t)

		flags, err := s.ListFlags(ctx)
		require.NoError(t, err)
		assert.Empty(t, flags)

		for _, name := range []string{"TRANSFERS", "ALPHA", "SAVINGS"} {
			require.NoError(t, s.CreateFlag(ctx, &feature.Flag{Name: name}))
		}

		flags, err = s.ListFlags(ctx)
		require.NoError(t, err)
		require.Len(t, flags, 3)
		assert.Equal(t, "ALPHA", flags[0].Name)
		assert.Equal(t, "SAVINGS", flags[1].Name)
		assert.Equal(t, "TRANSFERS", flags[2].Name)
	})

	t.Run("returns copies", func(t *testing.T) {
		s := newStorage(t)

		require.NoError(t, s.CreateFlag(ctx, &feature.Flag{Name: "SAVINGS"}))

		flag, err := s.GetFlag(ctx, "SAVINGS")
		require.NoError(t, err)
		flag.Enabled = true

		again, err := s.GetFlag(ctx, "SAVINGS")
		require.NoError(t, err)
		assert.False(t, again.Enabled)
	})

	t.Run("canceled context", func(t *testing.T) {
		s := newStorage(t)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.GetFlag(canceled, "SAVINGS")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("concurrent toggles", func(t *testing.T) {
		s := newStorage(t)

		require.NoError(t, s.CreateFlag(ctx, &feature.Flag{Name: "SAVINGS"}))

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.SetEnabled(ctx, "SAVINGS", i%2 == 0)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		_, err := s.GetFlag(ctx, "SAVINGS")
		assert.NoError(t, err)
	})
}
