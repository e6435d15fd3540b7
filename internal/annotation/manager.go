package annotation

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/rs/zerolog"
)

const (
	// DefaultStorageKey is the store key the collection is mirrored under
	DefaultStorageKey = "annotations"
	// DefaultPopupTimeout is how long an inspection popup stays open
	DefaultPopupTimeout = 5 * time.Second
)

// ErrNoPopup is returned by popup actions while no popup is open
var ErrNoPopup = errors.New("no annotation popup is open")

// Draft is an annotation waiting for its text
type Draft struct {
	Position geometry.Vector3
	Anchor   ScreenPoint
}

// Popup is the inspection surface shown for a clicked marker
type Popup struct {
	Annotation *Annotation
	Anchor     ScreenPoint
	Deadline   time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithStorageKey sets the store key
func WithStorageKey(key string) Option {
	return func(m *Manager) { m.key = key }
}

// WithPopupTimeout sets how long popups stay open
func WithPopupTimeout(d time.Duration) Option {
	return func(m *Manager) { m.popupTimeout = d }
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithClock replaces time.Now for popup deadlines
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns the annotation collection of one viewer session. It is not
// safe for concurrent use; call it from the UI goroutine only.
type Manager struct {
	scene        Scene
	store        Store
	key          string
	popupTimeout time.Duration
	log          zerolog.Logger
	now          func() time.Time

	annotations []*Annotation
	byMarker    map[MarkerID]*Annotation
	visible     bool
	draft       *Draft
	popup       *Popup
}

// NewManager creates a manager drawing into scene. store may be nil, in
// which case nothing is persisted.
func NewManager(scene Scene, store Store, opts ...Option) *Manager {
	m := &Manager{
		scene:        scene,
		store:        store,
		key:          DefaultStorageKey,
		popupTimeout: DefaultPopupTimeout,
		log:          zerolog.Nop(),
		now:          time.Now,
		byMarker:     make(map[MarkerID]*Annotation),
		visible:      true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Annotations returns the current collection
func (m *Manager) Annotations() []*Annotation {
	return slices.Clone(m.annotations)
}

// Len returns the number of annotations
func (m *Manager) Len() int {
	return len(m.annotations)
}

// Entries returns the serializable view of the collection
func (m *Manager) Entries() []Entry {
	entries := make([]Entry, len(m.annotations))
	for i, a := range m.annotations {
		entries[i] = Entry{Text: a.Text, Position: a.Position}
	}
	return entries
}

// BeginCreate picks the model under the pointer and, on a hit, starts a
// draft anchored at the pointer. A miss leaves any earlier draft alone.
func (m *Manager) BeginCreate(at ScreenPoint) (Draft, bool) {
	pos, ok := m.scene.PickSurface(at)
	if !ok {
		return Draft{}, false
	}
	return m.Propose(pos, at), true
}

// Propose starts a draft at a known surface position, replacing any pending one
func (m *Manager) Propose(position geometry.Vector3, anchor ScreenPoint) Draft {
	d := Draft{Position: position, Anchor: anchor}
	m.draft = &d
	return d
}

// Pending returns the draft waiting for text
func (m *Manager) Pending() (Draft, bool) {
	if m.draft == nil {
		return Draft{}, false
	}
	return *m.draft, true
}

// CancelCreate drops the pending draft; nothing is added to the scene
func (m *Manager) CancelCreate() {
	m.draft = nil
}

// ConfirmCreate turns the pending draft into an annotation with its marker.
// A persist error is returned together with the created annotation.
func (m *Manager) ConfirmCreate(text string) (*Annotation, error) {
	if m.draft == nil {
		return nil, ErrNoDraft
	}
	d := *m.draft
	m.draft = nil

	a := m.add(Entry{Text: text, Position: d.Position})
	m.log.Info().Str("text", text).Msgf("annotation added at %.3f, %.3f, %.3f", d.Position.X, d.Position.Y, d.Position.Z)
	return a, m.persist()
}

func (m *Manager) add(e Entry) *Annotation {
	a := &Annotation{Text: e.Text, Position: e.Position}
	a.marker = m.scene.AddMarker(e.Position)
	if !m.visible {
		m.scene.SetMarkerVisible(a.marker, false)
	}
	m.annotations = append(m.annotations, a)
	m.byMarker[a.marker] = a
	return a
}

func (m *Manager) owns(a *Annotation) bool {
	return a != nil && m.byMarker[a.marker] == a
}

// Inspect picks markers under the pointer and opens a popup for the hit
// annotation, closing any popup that was open
func (m *Manager) Inspect(at ScreenPoint) (Popup, bool) {
	id, ok := m.scene.PickMarker(at)
	if !ok {
		return Popup{}, false
	}
	a, ok := m.byMarker[id]
	if !ok {
		return Popup{}, false
	}
	p := Popup{Annotation: a, Anchor: at, Deadline: m.now().Add(m.popupTimeout)}
	m.popup = &p
	return p, true
}

// Popup returns the open popup, closing it first if its deadline passed
func (m *Manager) Popup() (Popup, bool) {
	m.Tick()
	if m.popup == nil {
		return Popup{}, false
	}
	return *m.popup, true
}

// Tick closes an expired popup and reports whether it did
func (m *Manager) Tick() bool {
	if m.popup == nil || m.now().Before(m.popup.Deadline) {
		return false
	}
	m.popup = nil
	return true
}

// ClosePopup closes the popup if one is open
func (m *Manager) ClosePopup() {
	m.popup = nil
}

func (m *Manager) popupTarget() (*Annotation, error) {
	p, ok := m.Popup()
	if !ok {
		return nil, ErrNoPopup
	}
	return p.Annotation, nil
}

// Edit replaces the text of an annotation and persists
func (m *Manager) Edit(a *Annotation, text string) error {
	if !m.owns(a) {
		return ErrUnknownAnnotation
	}
	a.Text = text
	if m.popup != nil && m.popup.Annotation == a {
		m.popup = nil
	}
	m.log.Info().Str("text", text).Msg("annotation edited")
	return m.persist()
}

// EditPopup edits the annotation shown in the open popup
func (m *Manager) EditPopup(text string) error {
	a, err := m.popupTarget()
	if err != nil {
		return err
	}
	return m.Edit(a, text)
}

// Delete removes an annotation and its marker and persists
func (m *Manager) Delete(a *Annotation) error {
	if !m.owns(a) {
		return ErrUnknownAnnotation
	}
	m.remove(a)
	m.log.Info().Str("text", a.Text).Msg("annotation deleted")
	return m.persist()
}

func (m *Manager) remove(a *Annotation) {
	m.scene.RemoveMarker(a.marker)
	delete(m.byMarker, a.marker)
	if i := slices.Index(m.annotations, a); i >= 0 {
		m.annotations = slices.Delete(m.annotations, i, i+1)
	}
	if m.popup != nil && m.popup.Annotation == a {
		m.popup = nil
	}
}

// DeletePopup deletes the annotation shown in the open popup
func (m *Manager) DeletePopup() error {
	a, err := m.popupTarget()
	if err != nil {
		return err
	}
	return m.Delete(a)
}

// Clear deletes every annotation and persists the empty collection
func (m *Manager) Clear() error {
	m.reset()
	return m.persist()
}

func (m *Manager) reset() {
	for _, a := range slices.Clone(m.annotations) {
		m.remove(a)
	}
	m.popup = nil
}

// Visible reports whether markers are shown
func (m *Manager) Visible() bool {
	return m.visible
}

// SetVisible shows or hides every marker. Stored data is not touched.
func (m *Manager) SetVisible(visible bool) {
	m.visible = visible
	for _, a := range m.annotations {
		m.scene.SetMarkerVisible(a.marker, visible)
	}
}

// ToggleVisibility flips marker visibility and returns the new state
func (m *Manager) ToggleVisibility() bool {
	m.SetVisible(!m.visible)
	return m.visible
}

// Export writes the collection as a JSON document
func (m *Manager) Export(w io.Writer) error {
	return Encode(w, m.Entries())
}

// ExportFile writes the collection to path
func (m *Manager) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := m.Export(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to export annotations: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to export annotations: %w", err)
	}
	m.log.Info().Str("file", path).Int("count", m.Len()).Msg("annotations exported")
	return nil
}

// Import replaces the collection with the entries of a JSON document.
// On a parse error the collection and the scene are left unchanged.
func (m *Manager) Import(r io.Reader) error {
	entries, err := Decode(r)
	if err != nil {
		return err
	}
	m.replace(entries)
	m.log.Info().Int("count", len(entries)).Msg("annotations imported")
	return m.persist()
}

// ImportFile imports the document at path
func (m *Manager) ImportFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()
	return m.Import(f)
}

func (m *Manager) replace(entries []Entry) {
	m.reset()
	m.draft = nil
	for _, e := range entries {
		m.add(e)
	}
}

// Restore rebuilds the collection from the store. A missing key, a read
// error or unreadable content all yield an empty collection.
func (m *Manager) Restore() {
	if m.store == nil {
		return
	}
	value, found, err := m.store.Get(m.key)
	switch {
	case err != nil:
		m.log.Warn().Err(err).Str("key", m.key).Msg("failed to read stored annotations")
		m.replace(nil)
		return
	case !found:
		m.replace(nil)
		return
	}

	entries, err := DecodeString(value)
	if err != nil {
		m.log.Warn().Err(err).Str("key", m.key).Msg("ignoring stored annotations")
		entries = nil
	}
	m.replace(entries)
	m.log.Debug().Int("count", len(entries)).Msg("annotations restored")
}

// persist mirrors the collection into the store. The in-memory change
// stands even when this fails.
func (m *Manager) persist() error {
	if m.store == nil {
		return nil
	}
	value, err := EncodeString(m.Entries())
	if err != nil {
		return err
	}
	if err := m.store.Set(m.key, value); err != nil {
		m.log.Error().Err(err).Str("key", m.key).Msg("failed to persist annotations")
		return fmt.Errorf("failed to persist annotations: %w", err)
	}
	return nil
}
