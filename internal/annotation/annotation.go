// Package annotation manages labelled points anchored on a loaded model:
// creation from a surface pick, inspection popups, edit, delete,
// visibility, file export/import and mirroring into a key-value store.
package annotation

import (
	"errors"

	"github.com/philipparndt/annoview/pkg/geometry"
)

var (
	// ErrNoDraft is returned when confirming a create that was never started
	ErrNoDraft = errors.New("no annotation is being created")
	// ErrUnknownAnnotation is returned for an annotation the manager does not own
	ErrUnknownAnnotation = errors.New("annotation is not managed here")
	// ErrInvalidDocument is returned when an import document cannot be used
	ErrInvalidDocument = errors.New("invalid annotation document")
)

// MarkerID is an opaque handle to a marker in the scene. Zero is never
// handed out by a scene.
type MarkerID uint64

// ScreenPoint is a pointer position in window coordinates
type ScreenPoint struct {
	X, Y float64
}

// Annotation is a text note anchored to a point on the model
type Annotation struct {
	Text     string
	Position geometry.Vector3

	marker MarkerID
}

// Marker returns the scene handle of the annotation's marker
func (a *Annotation) Marker() MarkerID {
	return a.marker
}

// Scene is the part of the 3D view the manager drives
type Scene interface {
	// PickSurface casts a ray through the screen point against the model
	PickSurface(at ScreenPoint) (geometry.Vector3, bool)
	// PickMarker casts a ray through the screen point against markers only
	PickMarker(at ScreenPoint) (MarkerID, bool)
	AddMarker(position geometry.Vector3) MarkerID
	RemoveMarker(id MarkerID)
	SetMarkerVisible(id MarkerID, visible bool)
}

// Store is a string key-value store
type Store interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
}
