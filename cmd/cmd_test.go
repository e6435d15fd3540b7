package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/annoview/internal/annotation"
	"github.com/philipparndt/annoview/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `[
  {"text": "nose", "position": {"x": 1, "y": 2, "z": 3}},
  {"text": "tail", "position": {"x": -1, "y": 0, "z": 0.5}}
]`

func TestListAnnotations(t *testing.T) {
	st := store.NewMemory()
	m := newHeadlessManager(st, "annotations", zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, listAnnotations(&buf, m))
	assert.Equal(t, "No annotations\n", buf.String())

	require.NoError(t, m.Import(strings.NewReader(document)))

	// A second manager sees what the first one persisted
	restored := newHeadlessManager(st, "annotations", zerolog.Nop())
	buf.Reset()
	require.NoError(t, listAnnotations(&buf, restored))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "(1.0000, 2.0000, 3.0000)")
	assert.True(t, strings.HasSuffix(lines[0], "nose"))
	assert.True(t, strings.HasSuffix(lines[1], "tail"))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnnotationCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("ANNOVIEW_STORAGE_TYPE", "file")
	t.Setenv("ANNOVIEW_STORAGE_FILE_PATH", filepath.Join(dir, "store.json"))

	input := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(input, []byte(document), 0o644))

	out, err := run(t, "--config", dir, "annotations", "import", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 annotation(s)")

	out, err = run(t, "--config", dir, "annotations", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "nose")
	assert.Contains(t, out, "tail")

	exported := filepath.Join(dir, "out.json")
	_, err = run(t, "--config", dir, "annotations", "export", exported)
	require.NoError(t, err)
	entries, err := readEntries(exported)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	out, err = run(t, "--config", dir, "annotations", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 annotation(s)")

	out, err = run(t, "--config", dir, "annotations", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No annotations")
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("ANNOVIEW_STORAGE_TYPE", "memory")

	input := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"text": "not a list"}`), 0o644))

	_, err := run(t, "--config", dir, "annotations", "import", input)
	assert.ErrorIs(t, err, annotation.ErrInvalidDocument)
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "face.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"), 0o644))

	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Triangles: 2")
	assert.Contains(t, out, "Surface Area: 1.000000")
}

func readEntries(path string) ([]annotation.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return annotation.Decode(f)
}

func TestCompletion(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "annoview")

	_, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}
