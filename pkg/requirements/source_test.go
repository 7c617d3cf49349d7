package requirements_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

func TestMemorySource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	doc := requirements.Document{"SAVINGS": {"service": {"withdraw": {"savings"}}}}
	src := requirements.NewMemorySource(doc)

	// Mutating the original must not leak into the source.
	doc["SAVINGS"]["service"]["withdraw"][0] = "changed"

	got, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"savings"}, got["SAVINGS"]["service"]["withdraw"])

	// Nor must mutating a loaded copy.
	got["SAVINGS"]["service"]["withdraw"][0] = "changed"
	again, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"savings"}, again["SAVINGS"]["service"]["withdraw"])

	src.Set(requirements.Document{})
	got, err = src.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Load(canceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "requirements.yaml")
		require.NoError(t, os.WriteFile(path, []byte("SAVINGS:\n  api:\n    post_withdrawal: [savings]\n"), 0o600))

		src := requirements.NewFileSource(path)
		assert.Equal(t, path, src.Path())

		doc, err := src.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"savings"}, doc["SAVINGS"]["api"]["post_withdrawal"])
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "requirements.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"SAVINGS":{"service":{"withdraw":["savings"]}}}`), 0o600))

		doc, err := requirements.NewFileSource(path).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"savings"}, doc["SAVINGS"]["service"]["withdraw"])
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := requirements.NewFileSource(filepath.Join(dir, "missing.yaml")).Load(ctx)
		assert.ErrorIs(t, err, requirements.ErrSourceUnavailable)
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("SAVINGS: [oops"), 0o600))

		_, err := requirements.NewFileSource(path).Load(ctx)
		assert.ErrorIs(t, err, requirements.ErrMalformedRequirements)
	})
}
