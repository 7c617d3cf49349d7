package requirements_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

type invalidateCounter struct {
	n atomic.Int32
}

func (c *invalidateCounter) Invalidate() { c.n.Add(1) }

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	counter := &invalidateCounter{}
	done := make(chan error, 1)
	go func() { done <- requirements.Watch(ctx, path, counter, nil) }()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(other, []byte("{}"), 0o600))

	// The watcher may not be registered yet, so keep touching the file.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("SAVINGS: {}\n"), 0o600)
		return counter.n.Load() > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchResolver(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SAVINGS:\n  service:\n    withdraw: [savings]\n"), 0o600))

	r := requirements.NewResolver(requirements.NewFileSource(path), knownSet{"SAVINGS": true},
		requirements.WithTTL(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = requirements.Watch(ctx, path, r, nil) }()

	entries, err := r.RequirementsFor(ctx, requirements.LayerService, "withdraw")
	require.NoError(t, err)
	require.True(t, entries[0].Applies("savings"))

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("SAVINGS:\n  service:\n    withdraw: [isa]\n"), 0o600)
		entries, err := r.RequirementsFor(ctx, requirements.LayerService, "withdraw")
		return err == nil && len(entries) == 1 && entries[0].Applies("isa")
	}, 5*time.Second, 20*time.Millisecond)
}
