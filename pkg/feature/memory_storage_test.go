package feature_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/feature/storagetest"
)

func TestMemoryStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("NewMemoryStorage", func(t *testing.T) {
		t.Parallel()
		storage, err := feature.NewMemoryStorage(
			&feature.Flag{Name: "flag-1", Enabled: true},
			nil,
		)
		require.NoError(t, err)

		flag, err := storage.GetFlag(ctx, "flag-1")
		require.NoError(t, err)
		assert.True(t, flag.Enabled)
		assert.False(t, flag.CreatedAt.IsZero())
		assert.Equal(t, flag.CreatedAt, flag.UpdatedAt)

		_, err = feature.NewMemoryStorage(&feature.Flag{Name: ""})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flag name cannot be empty")
	})

	t.Run("CreateFlag", func(t *testing.T) {
		t.Parallel()
		storage, _ := feature.NewMemoryStorage()

		err := storage.CreateFlag(ctx, &feature.Flag{Name: "new-flag", Description: "A new flag"})
		require.NoError(t, err)

		err = storage.CreateFlag(ctx, &feature.Flag{Name: "new-flag"})
		assert.ErrorIs(t, err, feature.ErrFlagExists)

		err = storage.CreateFlag(ctx, nil)
		assert.ErrorIs(t, err, feature.ErrInvalidFlag)

		err = storage.CreateFlag(ctx, &feature.Flag{Name: ""})
		assert.ErrorIs(t, err, feature.ErrInvalidFlag)
	})

	t.Run("GetFlag returns copy", func(t *testing.T) {
		t.Parallel()
		storage, _ := feature.NewMemoryStorage(&feature.Flag{Name: "copy", Enabled: true})

		flag, err := storage.GetFlag(ctx, "copy")
		require.NoError(t, err)
		flag.Enabled = false

		again, err := storage.GetFlag(ctx, "copy")
		require.NoError(t, err)
		assert.True(t, again.Enabled, "stored flag must not be affected by caller mutation")

		_, err = storage.GetFlag(ctx, "missing")
		assert.ErrorIs(t, err, feature.ErrFlagNotFound)
	})

	t.Run("SetEnabled", func(t *testing.T) {
		t.Parallel()
		created := time.Now().Add(-time.Hour)
		storage, _ := feature.NewMemoryStorage(&feature.Flag{Name: "toggle", CreatedAt: created})

		flag, err := storage.SetEnabled(ctx, "toggle", true)
		require.NoError(t, err)
		assert.True(t, flag.Enabled)
		assert.Equal(t, created, flag.CreatedAt)
		assert.True(t, flag.UpdatedAt.After(created))

		_, err = storage.SetEnabled(ctx, "missing", true)
		assert.ErrorIs(t, err, feature.ErrFlagNotFound)
	})

	t.Run("ListFlags ordered by name", func(t *testing.T) {
		t.Parallel()
		storage, _ := feature.NewMemoryStorage(
			&feature.Flag{Name: "c"},
			&feature.Flag{Name: "a"},
			&feature.Flag{Name: "b"},
		)

		flags, err := storage.ListFlags(ctx)
		require.NoError(t, err)
		require.Len(t, flags, 3)
		assert.Equal(t, "a", flags[0].Name)
		assert.Equal(t, "b", flags[1].Name)
		assert.Equal(t, "c", flags[2].Name)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		storage, _ := feature.NewMemoryStorage(&feature.Flag{Name: "a"})
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := storage.GetFlag(canceled, "a")
		assert.ErrorIs(t, err, context.Canceled)
		_, err = storage.SetEnabled(canceled, "a", true)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Close", func(t *testing.T) {
		t.Parallel()
		storage, _ := feature.NewMemoryStorage()
		require.NoError(t, storage.Close())
	})
}

func TestMemoryStorageConformance(t *testing.T) {
	t.Parallel()
	storagetest.Run(t, func(t *testing.T) feature.Storage {
		s, err := feature.NewMemoryStorage()
		require.NoError(t, err)
		return s
	})
}
