package service

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcite/resolver"
)

const snapshotJSON = `[{"prefix":"pubmed","uri_format":"https://pubmed.ncbi.nlm.nih.gov/$1"}]`

func TestSnapshotWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0644))

	var swapped atomic.Pointer[resolver.Handler]
	w, err := NewSnapshotWatcher(path, true, func(h *resolver.Handler) {
		swapped.Store(h)
	}, nil)
	require.NoError(t, err)
	defer w.Stop()

	w.Reload()
	h := swapped.Load()
	require.NotNil(t, h)

	url, err := h.Resolve("pubmed:29424689")
	require.NoError(t, err)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/29424689", url)
}

func TestSnapshotWatcherKeepsHandlerOnBadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	var swaps atomic.Int64
	w, err := NewSnapshotWatcher(path, true, func(*resolver.Handler) {
		swaps.Add(1)
	}, nil)
	require.NoError(t, err)
	defer w.Stop()

	w.Reload()
	assert.Zero(t, swaps.Load(), "a bad snapshot must not publish a handler")
}

func TestSnapshotWatcherMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	var swaps atomic.Int64
	w, err := NewSnapshotWatcher(path, true, func(*resolver.Handler) {
		swaps.Add(1)
	}, nil)
	require.NoError(t, err)
	defer w.Stop()

	w.Reload()
	assert.Zero(t, swaps.Load())
}

func TestSnapshotWatcherDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")

	var swapped atomic.Pointer[resolver.Handler]
	w, err := NewSnapshotWatcher(path, true, func(h *resolver.Handler) {
		swapped.Store(h)
	}, nil)
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Write via temp file and rename, matching the fetcher's snapshot
	// write.
	tmp := filepath.Join(dir, "registry.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(snapshotJSON), 0644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return swapped.Load() != nil
	}, 5*time.Second, 20*time.Millisecond, "watcher should rebuild the handler after a snapshot rename")
}
