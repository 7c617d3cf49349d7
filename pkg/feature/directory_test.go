package feature_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/feature"
)

func TestDirectory(t *testing.T) {
	t.Parallel()

	t.Run("NewDirectory", func(t *testing.T) {
		t.Parallel()
		dir, err := feature.NewDirectory(
			feature.Definition{Name: "B_FLAG", Description: "second"},
			feature.Definition{Name: "A_FLAG", Description: "first", Default: true},
		)
		require.NoError(t, err)
		assert.Equal(t, 2, dir.Len())

		defs := dir.Definitions()
		require.Len(t, defs, 2)
		assert.Equal(t, "A_FLAG", defs[0].Name)
		assert.Equal(t, "B_FLAG", defs[1].Name)
	})

	t.Run("Register duplicate", func(t *testing.T) {
		t.Parallel()
		dir, err := feature.NewDirectory(feature.Definition{Name: "X"})
		require.NoError(t, err)

		err = dir.Register(feature.Definition{Name: "X", Description: "again"})
		require.Error(t, err)
		assert.ErrorIs(t, err, feature.ErrDuplicateFlag)

		def, ok := dir.Lookup("X")
		require.True(t, ok)
		assert.Empty(t, def.Description, "original definition must be kept")
	})

	t.Run("Register empty name", func(t *testing.T) {
		t.Parallel()
		_, err := feature.NewDirectory(feature.Definition{Name: "  "})
		require.Error(t, err)
		assert.ErrorIs(t, err, feature.ErrInvalidFlag)
	})

	t.Run("IsKnown", func(t *testing.T) {
		t.Parallel()
		dir, err := feature.NewDirectory(feature.Definition{Name: "KNOWN"})
		require.NoError(t, err)

		assert.True(t, dir.IsKnown("KNOWN"))
		assert.False(t, dir.IsKnown("UNKNOWN"))
		assert.False(t, dir.IsKnown("known"), "names are case sensitive")
	})

	t.Run("concurrent register", func(t *testing.T) {
		t.Parallel()
		dir, err := feature.NewDirectory()
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- dir.Register(feature.Definition{Name: "RACE"})
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, feature.ErrDuplicateFlag)
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestLoadDefinitions(t *testing.T) {
	t.Parallel()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		defs, err := feature.LoadDefinitions(strings.NewReader(`
flags:
  - name: BANKING_ACCOUNT_TYPES_ENABLED
    description: Typed banking accounts
    default: false
  - name: SAVINGS_WITHDRAWALS
    default: true
`))
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Equal(t, feature.Definition{
			Name:        "BANKING_ACCOUNT_TYPES_ENABLED",
			Description: "Typed banking accounts",
		}, defs[0])
		assert.True(t, defs[1].Default)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		defs, err := feature.LoadDefinitions(strings.NewReader(
			`{"flags": [{"name": "X", "description": "x flag", "default": true}]}`,
		))
		require.NoError(t, err)
		require.Len(t, defs, 1)
		assert.Equal(t, "X", defs[0].Name)
		assert.True(t, defs[0].Default)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()
		defs, err := feature.LoadDefinitions(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, defs)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		_, err := feature.LoadDefinitions(strings.NewReader("flags:\n  - name: X\n    enabled: true\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, feature.ErrInvalidDefinitions)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := feature.LoadDefinitionsFile("testdata/does-not-exist.yaml")
		require.Error(t, err)
		assert.ErrorIs(t, err, feature.ErrInvalidDefinitions)
	})
}
