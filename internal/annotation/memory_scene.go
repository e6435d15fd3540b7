package annotation

import (
	"math"

	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
)

const memorySceneDepth = 1e3

// MemoryMarker is a marker held by a MemoryScene
type MemoryMarker struct {
	Position geometry.Vector3
	Visible  bool
}

// MemoryScene is a windowless Scene. Screen points map to world x and y
// and picks look down the negative z axis.
type MemoryScene struct {
	Model        *mesh.Model
	MarkerRadius float64

	markers map[MarkerID]*MemoryMarker
	next    MarkerID
}

// NewMemoryScene creates a scene around model, which may be nil
func NewMemoryScene(model *mesh.Model) *MemoryScene {
	return &MemoryScene{
		Model:        model,
		MarkerRadius: 0.05,
		markers:      make(map[MarkerID]*MemoryMarker),
	}
}

func (s *MemoryScene) ray(at ScreenPoint) geometry.Ray {
	return geometry.NewRay(geometry.NewVector3(at.X, at.Y, memorySceneDepth), geometry.NewVector3(0, 0, -1))
}

// PickSurface implements Scene
func (s *MemoryScene) PickSurface(at ScreenPoint) (geometry.Vector3, bool) {
	hit, ok := s.Model.Raycast(s.ray(at))
	return hit.Point, ok
}

// PickMarker implements Scene
func (s *MemoryScene) PickMarker(at ScreenPoint) (MarkerID, bool) {
	ray := s.ray(at)
	var best MarkerID
	bestDist := math.MaxFloat64
	for id, m := range s.markers {
		if !m.Visible {
			continue
		}
		if d, ok := ray.IntersectSphere(m.Position, s.MarkerRadius); ok && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best != 0
}

// AddMarker implements Scene
func (s *MemoryScene) AddMarker(position geometry.Vector3) MarkerID {
	s.next++
	s.markers[s.next] = &MemoryMarker{Position: position, Visible: true}
	return s.next
}

// RemoveMarker implements Scene
func (s *MemoryScene) RemoveMarker(id MarkerID) {
	delete(s.markers, id)
}

// SetMarkerVisible implements Scene
func (s *MemoryScene) SetMarkerVisible(id MarkerID, visible bool) {
	if m, ok := s.markers[id]; ok {
		m.Visible = visible
	}
}

// Marker returns a copy of a marker
func (s *MemoryScene) Marker(id MarkerID) (MemoryMarker, bool) {
	m, ok := s.markers[id]
	if !ok {
		return MemoryMarker{}, false
	}
	return *m, true
}

// MarkerCount returns the number of markers in the scene
func (s *MemoryScene) MarkerCount() int {
	return len(s.markers)
}
