package main

import (
	"fyne.io/fyne/v2"
	"github.com/philipparndt/annoview/internal/annotation"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/viewer"
)

// viewScene exposes a ModelView to the annotation manager
type viewScene struct {
	view *viewer.ModelView
}

func toPosition(at annotation.ScreenPoint) fyne.Position {
	return fyne.NewPos(float32(at.X), float32(at.Y))
}

func toScreenPoint(pos fyne.Position) annotation.ScreenPoint {
	return annotation.ScreenPoint{X: float64(pos.X), Y: float64(pos.Y)}
}

func (s viewScene) PickSurface(at annotation.ScreenPoint) (geometry.Vector3, bool) {
	return s.view.PickSurface(toPosition(at))
}

func (s viewScene) PickMarker(at annotation.ScreenPoint) (annotation.MarkerID, bool) {
	id, ok := s.view.PickMarker(toPosition(at))
	return annotation.MarkerID(id), ok
}

func (s viewScene) AddMarker(position geometry.Vector3) annotation.MarkerID {
	return annotation.MarkerID(s.view.AddMarker(position))
}

func (s viewScene) RemoveMarker(id annotation.MarkerID) {
	s.view.RemoveMarker(viewer.MarkerID(id))
}

func (s viewScene) SetMarkerVisible(id annotation.MarkerID, visible bool) {
	s.view.SetMarkerVisible(viewer.MarkerID(id), visible)
}
