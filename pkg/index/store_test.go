package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faion-net/skillrouter/pkg/corpus"
)

func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestStoreInitialBuild(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "devops"), "docker.md", "# Docker Compose\n")

	source, err := corpus.NewFSSource(corpus.WithRoots(tmpDir))
	require.NoError(t, err)

	store, err := NewStore(context.Background(), source)
	require.NoError(t, err)
	require.NotNil(t, store.Current())
	assert.Equal(t, 1, store.Current().Len())
}

func TestStoreInitialBuildFailure(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "devops"), "broken.md", "no identity")

	source, err := corpus.NewFSSource(corpus.WithRoots(tmpDir))
	require.NoError(t, err)

	_, err = NewStore(context.Background(), source)
	assert.Error(t, err)
}

func TestStoreRebuildSwapsSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "devops"), "docker.md", "# Docker Compose\n")

	source, err := corpus.NewFSSource(corpus.WithRoots(tmpDir))
	require.NoError(t, err)
	store, err := NewStore(context.Background(), source)
	require.NoError(t, err)

	before := store.Current()
	writeSkill(t, filepath.Join(tmpDir, "devops"), "helm.md", "# Helm Charts\n")

	require.NoError(t, store.Rebuild(context.Background()))
	after := store.Current()

	assert.NotSame(t, before, after)
	assert.Equal(t, 1, before.Len(), "old snapshot stays intact")
	assert.Equal(t, 2, after.Len())
}

func TestStoreRebuildFailureKeepsSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "devops"), "docker.md", "# Docker Compose\n")

	source, err := corpus.NewFSSource(corpus.WithRoots(tmpDir))
	require.NoError(t, err)
	store, err := NewStore(context.Background(), source)
	require.NoError(t, err)

	before := store.Current()
	writeSkill(t, filepath.Join(tmpDir, "devops"), "broken.md", "no identity")

	require.Error(t, store.Rebuild(context.Background()))
	assert.Same(t, before, store.Current())
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "devops"), "docker.md", "# Docker Compose\n")

	source, err := corpus.NewFSSource(corpus.WithRoots(tmpDir))
	require.NoError(t, err)
	store, err := NewStore(context.Background(), source)
	require.NoError(t, err)

	watcher, err := NewWatcher(store, []string{tmpDir})
	require.NoError(t, err)
	watcher.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Watch(ctx)
	}()

	writeSkill(t, filepath.Join(tmpDir, "devops"), "helm.md", "# Helm Charts\n")

	assert.Eventually(t, func() bool {
		return store.Current().Len() == 2
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}

func TestNewWatcherValidation(t *testing.T) {
	_, err := NewWatcher(&Store{}, nil)
	assert.Error(t, err)
}
