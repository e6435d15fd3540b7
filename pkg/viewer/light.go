package viewer

import (
	"math"

	"github.com/philipparndt/annoview/pkg/geometry"
)

const (
	// DefaultAmbient is the ambient light level of the annotation viewer
	DefaultAmbient = 0.8
	// DefaultIntensity is the initial follow light intensity
	DefaultIntensity = 2.0
	// MaxIntensity is the upper bound of the intensity slider
	MaxIntensity = 5.0

	lightOffset    = 5.0
	targetDistance = 10.0
)

// FollowLight is a directional light that sits in front of the camera
// and aims at the point under the mouse
type FollowLight struct {
	Ambient   float64
	Intensity float64
	Position  geometry.Vector3
	Target    geometry.Vector3
}

// NewFollowLight creates a light with the default levels
func NewFollowLight() *FollowLight {
	return &FollowLight{
		Ambient:   DefaultAmbient,
		Intensity: DefaultIntensity,
		Target:    geometry.NewVector3(0, 0, -1),
	}
}

// Update places the light lightOffset units ahead of the camera and aims it
// targetDistance units along the mouse ray. It reports whether it moved.
func (l *FollowLight) Update(cameraPos, cameraDir geometry.Vector3, mouse geometry.Ray) bool {
	pos := cameraPos.Add(cameraDir.Normalize().Mul(lightOffset))
	target := mouse.At(targetDistance)
	moved := !pos.ApproxEqual(l.Position, 1e-9) || !target.ApproxEqual(l.Target, 1e-9)
	l.Position = pos
	l.Target = target
	return moved
}

// Direction is the normalized direction the light travels
func (l *FollowLight) Direction() geometry.Vector3 {
	return l.Target.Sub(l.Position).Normalize()
}

// Shade returns the light factor for a surface normal. The result is
// not clamped; callers clamp after multiplying with the surface colour.
func (l *FollowLight) Shade(normal geometry.Vector3) float64 {
	diffuse := math.Max(0, normal.Normalize().Dot(l.Direction().Negate()))
	return l.Ambient + l.Intensity*diffuse
}

// ShadeByte applies Shade to an 8-bit colour channel
func (l *FollowLight) ShadeByte(c uint8, normal geometry.Vector3) uint8 {
	return clampByte(float64(c) * l.Shade(normal))
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// Gray returns the channel value for a background slider position in [0, 1],
// interpolating from white at 1 to black at 0
func Gray(value float64) uint8 {
	return clampByte(math.Max(0, math.Min(1, value)) * 255)
}
