package viewer

import (
	"math"

	"github.com/philipparndt/annoview/pkg/geometry"
)

// Camera is a perspective orbit camera around Target
type Camera struct {
	Position  geometry.Vector3
	Target    geometry.Vector3
	Up        geometry.Vector3
	FOV       float64 // Vertical field of view in radians
	Near      float64
	Far       float64
	Distance  float64
	RotationX float64 // Elevation
	RotationY float64 // Azimuth

	// Damping is the fraction of orbit velocity kept each Update; zero disables inertia
	Damping   float64
	velocityX float64
	velocityY float64
}

// NewCamera creates a camera positioned to view a bounding box
func NewCamera(bbox geometry.BoundingBox) *Camera {
	center := geometry.Vector3{}
	distance := 5.0
	if !bbox.Empty() {
		center = bbox.Center()
		distance = math.Max(bbox.MaxDimension()*2.0, 0.5)
	}

	c := &Camera{
		Target:    center,
		Up:        geometry.NewVector3(0, 1, 0),
		FOV:       75 * math.Pi / 180,
		Near:      0.1,
		Far:       1000,
		Distance:  distance,
		RotationX: math.Atan2(2, 5),
		Damping:   0.85,
	}
	c.UpdatePosition()
	return c
}

// UpdatePosition updates camera position based on rotation angles
func (c *Camera) UpdatePosition() {
	x := c.Distance * math.Cos(c.RotationX) * math.Sin(c.RotationY)
	y := c.Distance * math.Sin(c.RotationX)
	z := c.Distance * math.Cos(c.RotationX) * math.Cos(c.RotationY)

	c.Position = c.Target.Add(geometry.NewVector3(x, y, z))
}

// Rotate rotates the camera by the given angles
func (c *Camera) Rotate(deltaX, deltaY float64) {
	c.RotationX += deltaX
	c.RotationY += deltaY

	// Clamp elevation so the view never flips over the pole
	maxAngle := math.Pi/2 - 0.1
	c.RotationX = math.Max(-maxAngle, math.Min(maxAngle, c.RotationX))

	c.UpdatePosition()
}

// Orbit adds rotational velocity that Update applies and decays
func (c *Camera) Orbit(deltaX, deltaY float64) {
	if c.Damping <= 0 {
		c.Rotate(deltaX, deltaY)
		return
	}
	c.velocityX += deltaX * (1 - c.Damping)
	c.velocityY += deltaY * (1 - c.Damping)
}

// Update advances damped orbit motion by one frame and reports whether the camera moved
func (c *Camera) Update() bool {
	if math.Abs(c.velocityX) < 1e-5 && math.Abs(c.velocityY) < 1e-5 {
		c.velocityX, c.velocityY = 0, 0
		return false
	}
	c.Rotate(c.velocityX, c.velocityY)
	c.velocityX *= c.Damping
	c.velocityY *= c.Damping
	return true
}

// Zoom changes the camera distance
func (c *Camera) Zoom(delta float64) {
	c.Distance *= (1.0 + delta)
	if c.Distance < c.Near {
		c.Distance = c.Near
	}
	c.UpdatePosition()
}

// Forward returns the normalized view direction
func (c *Camera) Forward() geometry.Vector3 {
	return c.Target.Sub(c.Position).Normalize()
}

func (c *Camera) basis() (forward, right, up geometry.Vector3) {
	forward = c.Forward()
	right = forward.Cross(c.Up).Normalize()
	up = right.Cross(forward).Normalize()
	return forward, right, up
}

// Project projects a 3D point to screen coordinates.
// ok is false when the point lies outside the near/far range.
func (c *Camera) Project(point geometry.Vector3, width, height float64) (x, y, depth float64, ok bool) {
	forward, right, up := c.basis()

	relative := point.Sub(c.Position)
	cx := relative.Dot(right)
	cy := relative.Dot(up)
	depth = relative.Dot(forward)

	ok = depth >= c.Near && depth <= c.Far
	z := math.Max(depth, 1e-6)

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	x = (cx/(z*fovScale*aspect))*(width/2) + (width / 2)
	y = (-cy/(z*fovScale))*(height/2) + (height / 2)
	return x, y, depth, ok
}

// Ray returns the pick ray through a screen position
func (c *Camera) Ray(screenX, screenY, width, height float64) geometry.Ray {
	ndcX := (2.0 * screenX / width) - 1.0
	ndcY := 1.0 - (2.0 * screenY / height)
	return c.RayNDC(ndcX, ndcY, width/height)
}

// RayNDC returns the pick ray through normalized device coordinates in [-1, 1]
func (c *Camera) RayNDC(ndcX, ndcY, aspect float64) geometry.Ray {
	forward, right, up := c.basis()
	fovScale := math.Tan(c.FOV / 2)

	dir := forward.Add(right.Mul(ndcX * fovScale * aspect)).Add(up.Mul(ndcY * fovScale))
	return geometry.NewRay(c.Position, dir)
}
