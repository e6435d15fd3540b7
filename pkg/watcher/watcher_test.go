package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "part.stl")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(model, []byte("solid a\nendsolid a\n"), 0o644))

	changes := make(chan string, 10)
	w, err := New(50*time.Millisecond, zerolog.Nop(), func(path string) { changes <- path })
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Set([]string{model}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(model, []byte("solid b\nendsolid b\n"), 0o644))
	}

	select {
	case got := <-changes:
		want, _ := filepath.Abs(model)
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case extra := <-changes:
		t.Fatalf("unexpected second change %s", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherSetReplacesFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w, err := New(time.Millisecond, zerolog.Nop(), func(string) {})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Set([]string{filepath.Join(dir, "a.scad"), filepath.Join(sub, "b.scad")}))
	assert.Len(t, w.dirs, 2)

	require.NoError(t, w.Set([]string{filepath.Join(dir, "a.scad")}))
	assert.Len(t, w.dirs, 1)
	assert.Len(t, w.files, 1)
}
