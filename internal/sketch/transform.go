package sketch

import (
	"math"

	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
)

// Scene orientation in radians, applied to both objects before their own
// scale and translation
const (
	baseRotationX = -250.0
	baseRotationY = 29.8

	// RotationStep is added to the X rotation every frame while rotating
	RotationStep = 0.005

	objectScale = 2.0
	lightRange  = 5.0
)

// transform is a rotation and uniform scale followed by a translation
type transform struct {
	m [3][3]float64
	t geometry.Vector3
}

func (tr transform) apply(v geometry.Vector3) geometry.Vector3 {
	return tr.linear(v).Add(tr.t)
}

func (tr transform) linear(v geometry.Vector3) geometry.Vector3 {
	return geometry.NewVector3(
		tr.m[0][0]*v.X+tr.m[0][1]*v.Y+tr.m[0][2]*v.Z,
		tr.m[1][0]*v.X+tr.m[1][1]*v.Y+tr.m[1][2]*v.Z,
		tr.m[2][0]*v.X+tr.m[2][1]*v.Y+tr.m[2][2]*v.Z,
	)
}

func mul3(a, b [3][3]float64) [3][3]float64 {
	var r [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return r
}

func rotationX(a float64) [3][3]float64 {
	s, c := math.Sincos(a)
	return [3][3]float64{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

func rotationY(a float64) [3][3]float64 {
	s, c := math.Sincos(a)
	return [3][3]float64{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

// objectTransform places an object: the scene rotation by angle, then the
// object scale, then its offset in object units
func objectTransform(angle float64, offset geometry.Vector3) transform {
	rot := mul3(rotationX(baseRotationX+angle), rotationY(baseRotationY))
	for i := range rot {
		for j := range rot[i] {
			rot[i][j] *= objectScale
		}
	}
	tr := transform{m: rot}
	tr.t = tr.linear(offset)
	return tr
}

// normalize centers the model at the origin and scales its largest
// dimension to size
func normalize(m *mesh.Model, size float64) *mesh.Model {
	bbox := m.BoundingBox()
	out := mesh.NewModel(m.Name)
	if bbox.Empty() {
		return out
	}
	center := bbox.Center()
	scale := 1.0
	if d := bbox.MaxDimension(); d > 0 {
		scale = size / d
	}
	fit := func(v geometry.Vector3) geometry.Vector3 {
		return v.Sub(center).Mul(scale)
	}
	for i, t := range m.Triangles {
		placed := geometry.NewTriangle(t.Normal, fit(t.V1), fit(t.V2), fit(t.V3))
		if m.Textured() {
			out.AddTexturedTriangle(placed, m.UVs[i])
		} else {
			out.AddTriangle(placed)
		}
	}
	return out
}

// textureCoords returns the per-vertex texture coordinates of the model,
// falling back to planarUV when the source has none
func textureCoords(m *mesh.Model) []float32 {
	if !m.Textured() {
		return planarUV(m)
	}
	uv := make([]float32, 0, len(m.Triangles)*6)
	for _, corners := range m.UVs {
		for _, c := range corners {
			uv = append(uv, float32(c.U), float32(c.V))
		}
	}
	return uv
}

// planarUV projects each vertex onto the XY plane of the model bounds
func planarUV(m *mesh.Model) []float32 {
	bbox := m.BoundingBox()
	size := bbox.Size()
	uv := make([]float32, 0, len(m.Triangles)*6)
	coord := func(v, min, extent float64) float32 {
		if extent == 0 {
			return 0
		}
		return float32((v - min) / extent)
	}
	for _, t := range m.Triangles {
		for _, v := range [3]geometry.Vector3{t.V1, t.V2, t.V3} {
			uv = append(uv,
				coord(v.X, bbox.Min.X, size.X),
				1-coord(v.Y, bbox.Min.Y, size.Y),
			)
		}
	}
	return uv
}

// mapRange linearly maps v from [inMin, inMax] to [outMin, outMax]
func mapRange(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	return outMin + (v-inMin)/(inMax-inMin)*(outMax-outMin)
}

// mouseLightDirection maps the mouse to a light direction whose x and y
// span [-5, 5] across the window. Screen y grows downwards so it is negated.
func mouseLightDirection(mouseX, mouseY, width, height, z float64) geometry.Vector3 {
	return geometry.NewVector3(
		mapRange(mouseX, 0, width, -lightRange, lightRange),
		-mapRange(mouseY, 0, height, -lightRange, lightRange),
		z,
	)
}
