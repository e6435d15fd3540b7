package annotation

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/philipparndt/annoview/internal/store"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plane is a 10x10 square at z=0 centred on the origin
func plane() *mesh.Model {
	m := mesh.NewModel("plane")
	n := geometry.NewVector3(0, 0, 1)
	a := geometry.NewVector3(-5, -5, 0)
	b := geometry.NewVector3(5, -5, 0)
	c := geometry.NewVector3(5, 5, 0)
	d := geometry.NewVector3(-5, 5, 0)
	m.AddTriangle(geometry.NewTriangle(n, a, b, c))
	m.AddTriangle(geometry.NewTriangle(n, a, c, d))
	return m
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type failingStore struct {
	getErr error
	setErr error
	sets   int
}

func (s *failingStore) Get(string) (string, bool, error) { return "", false, s.getErr }
func (s *failingStore) Set(string, string) error {
	s.sets++
	return s.setErr
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *MemoryScene, *store.Memory) {
	t.Helper()
	scene := NewMemoryScene(plane())
	st := store.NewMemory()
	return NewManager(scene, st, opts...), scene, st
}

func create(t *testing.T, m *Manager, x, y float64, text string) *Annotation {
	t.Helper()
	_, ok := m.BeginCreate(ScreenPoint{X: x, Y: y})
	require.True(t, ok)
	a, err := m.ConfirmCreate(text)
	require.NoError(t, err)
	return a
}

func entrySet(entries []Entry) map[Entry]int {
	set := make(map[Entry]int)
	for _, e := range entries {
		set[e]++
	}
	return set
}

func TestCreateOnSurface(t *testing.T) {
	m, scene, st := newTestManager(t)

	d, ok := m.BeginCreate(ScreenPoint{X: 1, Y: 2})
	require.True(t, ok)
	assert.Equal(t, geometry.NewVector3(1, 2, 0), d.Position)
	assert.Equal(t, ScreenPoint{X: 1, Y: 2}, d.Anchor)
	assert.Equal(t, 0, scene.MarkerCount(), "marker must not exist before confirmation")

	a, err := m.ConfirmCreate("wing")
	require.NoError(t, err)
	assert.Equal(t, "wing", a.Text)
	assert.Equal(t, 1, m.Len())

	marker, ok := scene.Marker(a.Marker())
	require.True(t, ok)
	assert.Equal(t, a.Position, marker.Position)
	assert.True(t, marker.Visible)

	stored, found, err := st.Get(DefaultStorageKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `[{"text":"wing","position":{"x":1,"y":2,"z":0}}]`, stored)

	_, pending := m.Pending()
	assert.False(t, pending)
}

func TestCreateMissesModel(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, ok := m.BeginCreate(ScreenPoint{X: 50, Y: 50})
	assert.False(t, ok)

	_, err := m.ConfirmCreate("nothing")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestCreateWithoutModel(t *testing.T) {
	m := NewManager(NewMemoryScene(nil), nil)
	_, ok := m.BeginCreate(ScreenPoint{})
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestCancelCreateLeavesNoMarker(t *testing.T) {
	m, scene, st := newTestManager(t)

	_, ok := m.BeginCreate(ScreenPoint{X: 1, Y: 1})
	require.True(t, ok)
	m.CancelCreate()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, scene.MarkerCount())
	_, found, _ := st.Get(DefaultStorageKey)
	assert.False(t, found)

	_, err := m.ConfirmCreate("late")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestEmptyTextIsAllowed(t *testing.T) {
	m, _, _ := newTestManager(t)
	a := create(t, m, 0, 0, "")
	assert.Equal(t, "", a.Text)
	assert.Equal(t, 1, m.Len())
}

func TestDeleteByReference(t *testing.T) {
	m, scene, _ := newTestManager(t)
	const n = 5
	var created []*Annotation
	for i := 0; i < n; i++ {
		created = append(created, create(t, m, float64(i-2), 0, "same"))
	}

	victim := created[2]
	require.NoError(t, m.Delete(victim))

	assert.Equal(t, n-1, m.Len())
	assert.Equal(t, n-1, scene.MarkerCount())
	_, ok := scene.Marker(victim.Marker())
	assert.False(t, ok)
	assert.NotContains(t, m.Annotations(), victim)

	assert.ErrorIs(t, m.Delete(victim), ErrUnknownAnnotation)
	assert.ErrorIs(t, m.Delete(&Annotation{Text: "same"}), ErrUnknownAnnotation)
}

func TestDeletePersists(t *testing.T) {
	m, _, st := newTestManager(t)
	a := create(t, m, 1, 1, "wing")
	create(t, m, 2, 2, "tail")
	require.NoError(t, m.Delete(a))

	stored, _, err := st.Get(DefaultStorageKey)
	require.NoError(t, err)
	assert.NotContains(t, stored, "wing")
	assert.Contains(t, stored, "tail")
}

func TestToggleVisibilityTwice(t *testing.T) {
	m, scene, st := newTestManager(t)
	a := create(t, m, 1, 1, "a")
	b := create(t, m, 2, 2, "b")
	before, _, _ := st.Get(DefaultStorageKey)

	assert.False(t, m.ToggleVisibility())
	for _, x := range []*Annotation{a, b} {
		mk, _ := scene.Marker(x.Marker())
		assert.False(t, mk.Visible)
	}

	assert.True(t, m.ToggleVisibility())
	for _, x := range []*Annotation{a, b} {
		mk, _ := scene.Marker(x.Marker())
		assert.True(t, mk.Visible)
	}

	after, _, _ := st.Get(DefaultStorageKey)
	assert.Equal(t, before, after)
}

func TestHiddenStateAppliesToNewMarkers(t *testing.T) {
	m, scene, _ := newTestManager(t)
	m.SetVisible(false)

	a := create(t, m, 1, 1, "hidden")
	mk, _ := scene.Marker(a.Marker())
	assert.False(t, mk.Visible)

	_, ok := m.Inspect(ScreenPoint{X: 1, Y: 1})
	assert.False(t, ok, "hidden markers cannot be picked")
}

func TestExportImportRoundTrip(t *testing.T) {
	m, _, _ := newTestManager(t)
	create(t, m, 1, 2, "wing")
	create(t, m, -3, 0.5, "tail")
	create(t, m, 0, 0, "")

	var buf bytes.Buffer
	require.NoError(t, m.Export(&buf))

	other, _, _ := newTestManager(t)
	create(t, other, 4, 4, "old")
	require.NoError(t, other.Import(&buf))

	assert.Equal(t, entrySet(m.Entries()), entrySet(other.Entries()))
}

func TestImportReplacesMarkers(t *testing.T) {
	m, scene, st := newTestManager(t)
	old := create(t, m, 1, 1, "old")

	doc := `[
		{"text": "nose", "position": {"x": 0, "y": 4, "z": 0}},
		{"text": "tip", "position": {"x": 4, "y": 0, "z": 0}, "color": "red"}
	]`
	require.NoError(t, m.Import(strings.NewReader(doc)))

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 2, scene.MarkerCount())
	_, ok := scene.Marker(old.Marker())
	assert.False(t, ok)

	stored, _, err := st.Get(DefaultStorageKey)
	require.NoError(t, err)
	assert.Contains(t, stored, "nose")
	assert.NotContains(t, stored, "old")
}

func TestImportMalformedKeepsState(t *testing.T) {
	docs := map[string]string{
		"not json":         `{{`,
		"object":           `{"text": "x"}`,
		"null":             `null`,
		"missing text":     `[{"position": {"x": 1, "y": 2, "z": 3}}]`,
		"missing position": `[{"text": "x"}]`,
		"missing z":        `[{"text": "x", "position": {"x": 1, "y": 2}}]`,
		"wrong type":       `[{"text": 3, "position": {"x": 1, "y": 2, "z": 3}}]`,
		"null entry":       `[null]`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			m, scene, st := newTestManager(t)
			a := create(t, m, 1, 2, "wing")
			before, _, _ := st.Get(DefaultStorageKey)

			err := m.Import(strings.NewReader(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)

			assert.Equal(t, []*Annotation{a}, m.Annotations())
			assert.Equal(t, 1, scene.MarkerCount())
			_, ok := scene.Marker(a.Marker())
			assert.True(t, ok)
			after, _, _ := st.Get(DefaultStorageKey)
			assert.Equal(t, before, after)
		})
	}
}

func TestImportEmptyList(t *testing.T) {
	m, scene, _ := newTestManager(t)
	create(t, m, 1, 2, "wing")
	require.NoError(t, m.Import(strings.NewReader(`[]`)))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, scene.MarkerCount())
}

func TestRestoreAfterReload(t *testing.T) {
	st := store.NewMemory()
	first := NewManager(NewMemoryScene(plane()), st)
	first.Propose(geometry.NewVector3(1, 2, 3), ScreenPoint{})
	_, err := first.ConfirmCreate("wing")
	require.NoError(t, err)

	scene := NewMemoryScene(plane())
	second := NewManager(scene, st)
	second.Restore()

	require.Equal(t, 1, second.Len())
	a := second.Annotations()[0]
	assert.Equal(t, "wing", a.Text)
	assert.Equal(t, geometry.NewVector3(1, 2, 3), a.Position)
	assert.Equal(t, 1, scene.MarkerCount())
}

func TestEditPersists(t *testing.T) {
	st := store.NewMemory()
	m := NewManager(NewMemoryScene(plane()), st)
	a := create(t, m, 1, 2, "wing")

	require.NoError(t, m.Edit(a, "tail"))
	assert.Equal(t, "tail", a.Text)

	reloaded := NewManager(NewMemoryScene(plane()), st)
	reloaded.Restore()
	require.Equal(t, 1, reloaded.Len())
	assert.Equal(t, "tail", reloaded.Annotations()[0].Text)

	assert.ErrorIs(t, m.Edit(&Annotation{}, "x"), ErrUnknownAnnotation)
}

func TestRestoreTreatsBadStoreAsEmpty(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		m, scene, _ := newTestManager(t)
		m.Restore()
		assert.Equal(t, 0, m.Len())
		assert.Equal(t, 0, scene.MarkerCount())
	})

	t.Run("invalid content", func(t *testing.T) {
		st := store.NewMemory()
		require.NoError(t, st.Set(DefaultStorageKey, "not json"))
		m := NewManager(NewMemoryScene(plane()), st)
		m.Restore()
		assert.Equal(t, 0, m.Len())
	})

	t.Run("read error", func(t *testing.T) {
		m := NewManager(NewMemoryScene(plane()), &failingStore{getErr: errors.New("disk on fire")})
		m.Restore()
		assert.Equal(t, 0, m.Len())
	})
}

func TestRestoreReplacesExisting(t *testing.T) {
	m, scene, st := newTestManager(t)
	create(t, m, 1, 1, "kept")
	m.Restore()
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, scene.MarkerCount())

	require.NoError(t, st.Set(DefaultStorageKey, "[]"))
	m.Restore()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, scene.MarkerCount())
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	fs := &failingStore{setErr: errors.New("read-only")}
	m := NewManager(NewMemoryScene(plane()), fs)

	_, ok := m.BeginCreate(ScreenPoint{X: 1, Y: 1})
	require.True(t, ok)
	a, err := m.ConfirmCreate("wing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
	require.NotNil(t, a)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, fs.sets)
}

func TestCustomStorageKey(t *testing.T) {
	m, _, st := newTestManager(t, WithStorageKey("notes"))
	create(t, m, 0, 0, "x")

	_, found, _ := st.Get(DefaultStorageKey)
	assert.False(t, found)
	_, found, _ = st.Get("notes")
	assert.True(t, found)
}

func TestPopupLifecycle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m, _, _ := newTestManager(t, WithClock(clock.Now))
	a := create(t, m, 1, 1, "wing")
	b := create(t, m, -2, -2, "tail")

	_, ok := m.Inspect(ScreenPoint{X: 3, Y: 3})
	assert.False(t, ok)
	_, ok = m.Popup()
	assert.False(t, ok)

	p, ok := m.Inspect(ScreenPoint{X: 1.01, Y: 1})
	require.True(t, ok)
	assert.Same(t, a, p.Annotation)
	assert.Equal(t, ScreenPoint{X: 1.01, Y: 1}, p.Anchor)
	assert.Equal(t, clock.now.Add(DefaultPopupTimeout), p.Deadline)

	// A second popup replaces the first
	p, ok = m.Inspect(ScreenPoint{X: -2, Y: -2})
	require.True(t, ok)
	assert.Same(t, b, p.Annotation)
	open, ok := m.Popup()
	require.True(t, ok)
	assert.Same(t, b, open.Annotation)

	clock.now = clock.now.Add(DefaultPopupTimeout - time.Millisecond)
	assert.False(t, m.Tick())
	_, ok = m.Popup()
	assert.True(t, ok)

	clock.now = clock.now.Add(time.Millisecond)
	assert.True(t, m.Tick())
	_, ok = m.Popup()
	assert.False(t, ok)
	assert.False(t, m.Tick())
}

func TestPopupActions(t *testing.T) {
	m, scene, st := newTestManager(t, WithPopupTimeout(time.Hour))
	a := create(t, m, 1, 1, "wing")

	assert.ErrorIs(t, m.EditPopup("x"), ErrNoPopup)
	assert.ErrorIs(t, m.DeletePopup(), ErrNoPopup)

	_, ok := m.Inspect(ScreenPoint{X: 1, Y: 1})
	require.True(t, ok)
	require.NoError(t, m.EditPopup("tail"))
	assert.Equal(t, "tail", a.Text)
	_, ok = m.Popup()
	assert.False(t, ok, "edit submit closes the popup")

	_, ok = m.Inspect(ScreenPoint{X: 1, Y: 1})
	require.True(t, ok)
	require.NoError(t, m.DeletePopup())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, scene.MarkerCount())
	_, ok = m.Popup()
	assert.False(t, ok, "delete closes the popup")

	stored, _, _ := st.Get(DefaultStorageKey)
	assert.JSONEq(t, `[]`, stored)
}

func TestClear(t *testing.T) {
	m, scene, st := newTestManager(t)
	create(t, m, 1, 1, "a")
	create(t, m, 2, 2, "b")

	require.NoError(t, m.Clear())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, scene.MarkerCount())
	stored, _, _ := st.Get(DefaultStorageKey)
	assert.JSONEq(t, `[]`, stored)
}

func TestExportImportFile(t *testing.T) {
	m, _, _ := newTestManager(t)
	create(t, m, 1, 2, "wing")

	path := filepath.Join(t.TempDir(), "annotations.json")
	require.NoError(t, m.ExportFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"wing","position":{"x":1,"y":2,"z":0}}]`, string(data))

	other, _, _ := newTestManager(t)
	require.NoError(t, other.ImportFile(path))
	assert.Equal(t, m.Entries(), other.Entries())

	assert.Error(t, other.ImportFile(filepath.Join(t.TempDir(), "missing.json")))
	assert.Equal(t, 1, other.Len())
}
