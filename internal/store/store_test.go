package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/philipparndt/annoview/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ Store = (*Memory)(nil)
	_ Store = (*File)(nil)
	_ Store = (*SQL)(nil)
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, found, err := s.Get("annotations")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set("annotations", `[{"text":"wing"}]`))
	require.NoError(t, s.Set("other", "x"))
	require.NoError(t, s.Set("annotations", `[{"text":"tail"}]`))

	v, found, err := s.Get("annotations")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"text":"tail"}]`, v)

	v, found, err = s.Get("other")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "x", v)

	require.NoError(t, s.Close())
	_, _, err = s.Get("annotations")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set("annotations", "[]"), ErrClosed)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	s, err := NewFile(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	reopened, err := NewFile(path)
	require.NoError(t, err)
	v, found, err := reopened.Get("other")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "x", v)
}

func TestFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	s, err := NewFile(path)
	require.NoError(t, err)
	_, _, err = s.Get("annotations")
	assert.Error(t, err)
}

func TestFile_NeedsPath(t *testing.T) {
	_, err := NewFile("")
	assert.Error(t, err)
}

func TestSQLite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, found, err := reopened.Get("annotations")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"text":"tail"}]`, v)
}

func TestSQLite_Memory(t *testing.T) {
	s, err := NewSQLite("")
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSQLite_MemoryIsPrivate(t *testing.T) {
	a, err := NewSQLite("")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLite("")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Set("annotations", "[]"))

	_, found, err := b.Get("annotations")
	require.NoError(t, err)
	assert.False(t, found)

	v, found, err := a.Get("annotations")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", v)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	s, err := New(config.StorageConfig{Type: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = New(config.StorageConfig{Type: "file", File: config.FileConfig{Path: filepath.Join(dir, "s.json")}}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	s, err = New(config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "s.db")}}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQL{}, s)
	require.NoError(t, s.Close())

	_, err = New(config.StorageConfig{Type: "redis"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown storage type")
}

func TestNew_FailureReturnsNilStore(t *testing.T) {
	s, err := New(config.StorageConfig{Type: "file"}, zerolog.Nop())
	require.Error(t, err)
	// A typed nil pointer inside the interface would not compare equal to nil
	assert.True(t, s == nil)
}
