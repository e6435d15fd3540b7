package geometry

import (
	"math"
	"testing"
)

func unitTriangle() Triangle {
	return NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(1, 0, 0),
		NewVector3(0, 1, 0),
	)
}

func TestTriangleIntersectRay(t *testing.T) {
	tri := unitTriangle()

	ray := NewRay(NewVector3(0.25, 0.25, 5), NewVector3(0, 0, -1))
	dist, ok := tri.IntersectRay(ray)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(dist-5) > 1e-9 {
		t.Errorf("expected distance 5, got %v", dist)
	}
	if hit := ray.At(dist); !hit.ApproxEqual(NewVector3(0.25, 0.25, 0), 1e-9) {
		t.Errorf("unexpected hit point %v", hit)
	}

	// Back face is hit as well
	if _, ok := tri.IntersectRay(NewRay(NewVector3(0.25, 0.25, -5), NewVector3(0, 0, 1))); !ok {
		t.Error("expected back face hit")
	}

	// Outside the triangle
	if _, ok := tri.IntersectRay(NewRay(NewVector3(0.9, 0.9, 5), NewVector3(0, 0, -1))); ok {
		t.Error("expected miss outside the triangle")
	}

	// Pointing away
	if _, ok := tri.IntersectRay(NewRay(NewVector3(0.25, 0.25, 5), NewVector3(0, 0, 1))); ok {
		t.Error("expected miss when the triangle is behind the origin")
	}
}

func TestTriangleArea(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)
	if math.Abs(tri.Area()-6) > 1e-10 {
		t.Errorf("Area failed: expected 6, got %v", tri.Area())
	}
	lengths := tri.EdgeLengths()
	if math.Abs(lengths[1]-5) > 1e-10 {
		t.Errorf("hypotenuse: expected 5, got %v", lengths[1])
	}
	if n := tri.CalculateNormal(); !n.ApproxEqual(NewVector3(0, 0, 1), 1e-12) {
		t.Errorf("normal: got %v", n)
	}
}

func TestRayIntersectSphere(t *testing.T) {
	ray := NewRay(NewVector3(0, 0, 10), NewVector3(0, 0, -2))

	dist, ok := ray.IntersectSphere(NewVector3(0, 0, 0), 1)
	if !ok || math.Abs(dist-9) > 1e-9 {
		t.Errorf("expected hit at 9, got %v %v", dist, ok)
	}

	if _, ok := ray.IntersectSphere(NewVector3(5, 0, 0), 1); ok {
		t.Error("expected miss")
	}

	// Origin inside the sphere hits the far side
	inside := NewRay(NewVector3(0, 0, 0), NewVector3(1, 0, 0))
	if dist, ok := inside.IntersectSphere(NewVector3(0, 0, 0), 2); !ok || math.Abs(dist-2) > 1e-9 {
		t.Errorf("expected exit hit at 2, got %v %v", dist, ok)
	}
}

func TestRayDistanceToPoint(t *testing.T) {
	ray := NewRay(NewVector3(0, 0, 0), NewVector3(1, 0, 0))
	if d := ray.DistanceToPoint(NewVector3(5, 3, 0)); math.Abs(d-3) > 1e-12 {
		t.Errorf("expected 3, got %v", d)
	}
	// Behind the origin
	if d := ray.DistanceToPoint(NewVector3(-4, 3, 0)); math.Abs(d-5) > 1e-12 {
		t.Errorf("expected 5, got %v", d)
	}
}

func TestBoundingBox(t *testing.T) {
	b := NewBoundingBox()
	if !b.Empty() {
		t.Fatal("new box should be empty")
	}
	b.Extend(NewVector3(-1, 0, 2))
	b.Extend(NewVector3(3, 4, -2))

	if b.Center() != NewVector3(1, 2, 0) {
		t.Errorf("center: got %v", b.Center())
	}
	if b.MaxDimension() != 4 {
		t.Errorf("max dimension: got %v", b.MaxDimension())
	}
	if !b.IntersectsRay(NewRay(NewVector3(1, 2, 10), NewVector3(0, 0, -1))) {
		t.Error("expected ray through center to hit the box")
	}
	if b.IntersectsRay(NewRay(NewVector3(10, 10, 10), NewVector3(0, 0, -1))) {
		t.Error("expected ray beside the box to miss")
	}
}
