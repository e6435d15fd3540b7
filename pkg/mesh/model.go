// Package mesh holds triangle meshes loaded from model files and the
// ray queries the viewers run against them.
package mesh

import (
	"math"

	"github.com/philipparndt/annoview/pkg/geometry"
)

// UV is a texture coordinate. V runs down the image, so (0, 0) is the
// top left texel.
type UV struct {
	U, V float64
}

// Model is a triangle soup loaded from a model file
type Model struct {
	Name      string
	Triangles []geometry.Triangle
	// UVs holds the corner texture coordinates of each triangle, parallel to
	// Triangles. It is empty when the source has no texture coordinates.
	UVs [][3]UV

	bounds      geometry.BoundingBox
	boundsValid bool
}

// NewModel creates an empty model
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]geometry.Triangle, 0),
	}
}

// AddTriangle appends a triangle to the model
func (m *Model) AddTriangle(t geometry.Triangle) {
	m.Triangles = append(m.Triangles, t)
	if len(m.UVs) > 0 {
		m.UVs = append(m.UVs, [3]UV{})
	}
	m.boundsValid = false
}

// AddTexturedTriangle appends a triangle with texture coordinates. Earlier
// untextured triangles get zero coordinates.
func (m *Model) AddTexturedTriangle(t geometry.Triangle, uv [3]UV) {
	if missing := len(m.Triangles) - len(m.UVs); missing > 0 {
		m.UVs = append(m.UVs, make([][3]UV, missing)...)
	}
	m.Triangles = append(m.Triangles, t)
	m.UVs = append(m.UVs, uv)
	m.boundsValid = false
}

// Textured reports whether every triangle carries texture coordinates
func (m *Model) Textured() bool {
	return len(m.UVs) > 0 && len(m.UVs) == len(m.Triangles)
}

// TriangleCount returns the number of triangles
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// BoundingBox returns the cached bounds of all vertices
func (m *Model) BoundingBox() geometry.BoundingBox {
	if m.boundsValid {
		return m.bounds
	}
	bbox := geometry.NewBoundingBox()
	for _, t := range m.Triangles {
		bbox.Extend(t.V1)
		bbox.Extend(t.V2)
		bbox.Extend(t.V3)
	}
	m.bounds = bbox
	m.boundsValid = true
	return bbox
}

// SurfaceArea sums the area of every triangle
func (m *Model) SurfaceArea() float64 {
	total := 0.0
	for _, t := range m.Triangles {
		total += t.Area()
	}
	return total
}

// Hit is the result of a ray query against a model
type Hit struct {
	Point    geometry.Vector3
	Normal   geometry.Vector3
	Distance float64
	Triangle int
}

// Raycast returns the closest triangle hit along the ray.
// A nil or empty model never reports a hit.
func (m *Model) Raycast(r geometry.Ray) (Hit, bool) {
	if m == nil || len(m.Triangles) == 0 {
		return Hit{}, false
	}
	if !m.BoundingBox().IntersectsRay(r) {
		return Hit{}, false
	}

	best := Hit{Distance: math.MaxFloat64, Triangle: -1}
	for i, t := range m.Triangles {
		dist, ok := t.IntersectRay(r)
		if !ok || dist >= best.Distance {
			continue
		}
		best = Hit{Distance: dist, Triangle: i}
	}
	if best.Triangle < 0 {
		return Hit{}, false
	}
	best.Point = r.At(best.Distance)
	best.Normal = m.Triangles[best.Triangle].CalculateNormal()
	return best, true
}

// Stats summarizes a model for the info command and the HUD
type Stats struct {
	TriangleCount int
	SurfaceArea   float64
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
}

// Analyze computes Stats in a single pass over the triangles
func (m *Model) Analyze() Stats {
	s := Stats{
		TriangleCount: m.TriangleCount(),
		SurfaceArea:   m.SurfaceArea(),
		BoundingBox:   m.BoundingBox(),
	}
	s.Dimensions = s.BoundingBox.Size()
	if len(m.Triangles) == 0 {
		return s
	}

	s.MinEdgeLength = math.MaxFloat64
	total := 0.0
	for _, t := range m.Triangles {
		for _, l := range t.EdgeLengths() {
			total += l
			s.MinEdgeLength = math.Min(s.MinEdgeLength, l)
			s.MaxEdgeLength = math.Max(s.MaxEdgeLength, l)
		}
	}
	s.AvgEdgeLength = total / float64(3*len(m.Triangles))
	return s
}
