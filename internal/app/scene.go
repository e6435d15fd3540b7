package app

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/internal/annotation"
	"github.com/philipparndt/annoview/pkg/geometry"
)

var markerColor = rl.NewColor(230, 60, 50, 255)

type sceneMarker struct {
	position geometry.Vector3
	visible  bool
}

// scene exposes the window to the annotation manager. Markers are spheres
// whose radius follows the model size.
type scene struct {
	app     *App
	markers map[annotation.MarkerID]*sceneMarker
	next    annotation.MarkerID
	radius  float64
	fixed   bool // radius set by config, not derived from the model
}

func newScene(app *App, radius float64) *scene {
	s := &scene{
		app:     app,
		markers: make(map[annotation.MarkerID]*sceneMarker),
		radius:  0.05,
	}
	if radius > 0 {
		s.radius = radius
		s.fixed = true
	}
	return s
}

// fitMarkers scales markers to the model unless the radius is fixed
func (s *scene) fitMarkers(bbox geometry.BoundingBox) {
	if s.fixed || bbox.Empty() {
		return
	}
	if diag := bbox.Diagonal(); diag > 0 {
		s.radius = diag * 0.01
	}
}

func (s *scene) screenRay(at annotation.ScreenPoint) geometry.Ray {
	return s.app.mouseRay(rl.Vector2{X: float32(at.X), Y: float32(at.Y)})
}

// PickSurface implements annotation.Scene
func (s *scene) PickSurface(at annotation.ScreenPoint) (geometry.Vector3, bool) {
	hit, ok := s.app.Model.model.Raycast(s.screenRay(at))
	return hit.Point, ok
}

// PickMarker implements annotation.Scene
func (s *scene) PickMarker(at annotation.ScreenPoint) (annotation.MarkerID, bool) {
	ray := s.screenRay(at)
	var best annotation.MarkerID
	bestDist := math.MaxFloat64
	for id, m := range s.markers {
		if !m.visible {
			continue
		}
		if d, ok := ray.IntersectSphere(m.position, s.radius); ok && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best != 0
}

// AddMarker implements annotation.Scene
func (s *scene) AddMarker(position geometry.Vector3) annotation.MarkerID {
	s.next++
	s.markers[s.next] = &sceneMarker{position: position, visible: true}
	return s.next
}

// RemoveMarker implements annotation.Scene
func (s *scene) RemoveMarker(id annotation.MarkerID) {
	delete(s.markers, id)
}

// SetMarkerVisible implements annotation.Scene
func (s *scene) SetMarkerVisible(id annotation.MarkerID, visible bool) {
	if m, ok := s.markers[id]; ok {
		m.visible = visible
	}
}

// draw renders visible markers; call inside BeginMode3D
func (s *scene) draw() {
	for _, m := range s.markers {
		if m.visible {
			rl.DrawSphere(toRL(m.position), float32(s.radius), markerColor)
		}
	}
}
