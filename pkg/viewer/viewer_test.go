package viewer

import (
	"image"
	"math"
	"testing"

	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadModel() *mesh.Model {
	m := mesh.NewModel("quad")
	a := geometry.NewVector3(-1, -1, 0)
	b := geometry.NewVector3(1, -1, 0)
	c := geometry.NewVector3(1, 1, 0)
	d := geometry.NewVector3(-1, 1, 0)
	n := geometry.NewVector3(0, 0, 1)
	m.AddTriangle(geometry.NewTriangle(n, a, b, c))
	m.AddTriangle(geometry.NewTriangle(n, a, c, d))
	return m
}

func TestCameraProjectRayRoundTrip(t *testing.T) {
	cam := NewCamera(quadModel().BoundingBox())
	const w, h = 800.0, 600.0

	p := geometry.NewVector3(0.3, -0.2, 0.1)
	x, y, depth, ok := cam.Project(p, w, h)
	require.True(t, ok)
	assert.Greater(t, depth, 0.0)

	ray := cam.Ray(x, y, w, h)
	assert.Less(t, ray.DistanceToPoint(p), 1e-9)
}

func TestCameraProjectBehind(t *testing.T) {
	cam := NewCamera(quadModel().BoundingBox())
	behind := cam.Position.Add(cam.Forward().Negate())
	_, _, _, ok := cam.Project(behind, 100, 100)
	assert.False(t, ok)
}

func TestCameraRotateClampsElevation(t *testing.T) {
	cam := NewCamera(quadModel().BoundingBox())
	cam.Rotate(10, 0)
	assert.Less(t, cam.RotationX, math.Pi/2)
	assert.InDelta(t, cam.Distance, cam.Position.Distance(cam.Target), 1e-9)
}

func TestCameraOrbitDamping(t *testing.T) {
	cam := NewCamera(quadModel().BoundingBox())
	start := cam.RotationY

	cam.Orbit(0, 1)
	moves := 0
	for cam.Update() {
		moves++
		require.Less(t, moves, 1000)
	}
	assert.Greater(t, moves, 1)
	assert.InDelta(t, start+1, cam.RotationY, 1e-3)
}

func TestFollowLightUpdate(t *testing.T) {
	l := NewFollowLight()
	mouse := geometry.NewRay(geometry.NewVector3(0, 0, 5), geometry.NewVector3(0, 0, -1))

	moved := l.Update(geometry.NewVector3(0, 0, 5), geometry.NewVector3(0, 0, -2), mouse)
	assert.True(t, moved)
	assert.Equal(t, geometry.NewVector3(0, 0, 0), l.Position)
	assert.Equal(t, geometry.NewVector3(0, 0, -5), l.Target)
	assert.Equal(t, geometry.NewVector3(0, 0, -1), l.Direction())

	assert.False(t, l.Update(geometry.NewVector3(0, 0, 5), geometry.NewVector3(0, 0, -1), mouse))
}

func TestFollowLightShade(t *testing.T) {
	l := NewFollowLight()
	l.Position = geometry.NewVector3(0, 0, 5)
	l.Target = geometry.Vector3{}

	facing := geometry.NewVector3(0, 0, 1)
	away := geometry.NewVector3(0, 0, -1)
	assert.InDelta(t, DefaultAmbient+DefaultIntensity, l.Shade(facing), 1e-9)
	assert.InDelta(t, DefaultAmbient, l.Shade(away), 1e-9)

	assert.Equal(t, uint8(80), l.ShadeByte(100, away))
	assert.Equal(t, uint8(255), l.ShadeByte(100, facing))
}

func TestGray(t *testing.T) {
	assert.Equal(t, uint8(255), Gray(1))
	assert.Equal(t, uint8(0), Gray(0))
	assert.Equal(t, uint8(0), Gray(-3))
	assert.Equal(t, uint8(128), Gray(0.5))
}

func TestRasterizerDraw(t *testing.T) {
	model := quadModel()
	cam := NewCamera(model.BoundingBox())
	light := NewFollowLight()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))

	var r Rasterizer
	r.Draw(img, model, cam, light, 0xdd, []Marker{{Position: geometry.NewVector3(1, 1, 0), Radius: 3}})

	corner := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(0xdd), corner.R)

	x, y, _, ok := cam.Project(geometry.Vector3{}, 64, 48)
	require.True(t, ok)
	center := img.RGBAAt(int(x), int(y))
	assert.NotEqual(t, corner, center)

	mx, my, _, ok := cam.Project(geometry.NewVector3(1, 1, 0), 64, 48)
	require.True(t, ok)
	assert.Equal(t, MarkerColor, img.RGBAAt(int(mx), int(my)))
}

func TestRasterizerNilModel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var r Rasterizer
	r.Draw(img, nil, NewCamera(geometry.NewBoundingBox()), NewFollowLight(), 0, nil)
	assert.Equal(t, uint8(0), img.RGBAAt(4, 4).R)
	assert.Equal(t, uint8(255), img.RGBAAt(4, 4).A)
}
