package app

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/viewer"
)

// fitCamera points the orbit camera at the model bounds
func (app *App) fitCamera(bbox geometry.BoundingBox) {
	cam := viewer.NewCamera(bbox)
	cam.FOV = float64(app.Camera.fovDeg) * math.Pi / 180
	app.Camera.orbit = cam
	app.Camera.defDist = cam.Distance
	app.syncCamera()
}

// resetCameraView resets the camera to the default view
func (app *App) resetCameraView() {
	target := geometry.Vector3{}
	if app.Model.model != nil {
		target = app.Model.model.BoundingBox().Center()
	}
	cam := app.Camera.orbit
	cam.Target = target
	cam.Distance = app.Camera.defDist
	cam.RotationX = math.Atan2(2, 5)
	cam.RotationY = 0
	cam.UpdatePosition()
}

// setCameraTopView looks straight down
func (app *App) setCameraTopView() {
	app.Camera.orbit.RotationX = math.Pi/2 - 0.1
	app.Camera.orbit.RotationY = 0
	app.Camera.orbit.UpdatePosition()
}

// setCameraFrontView looks along -Z
func (app *App) setCameraFrontView() {
	app.Camera.orbit.RotationX = 0
	app.Camera.orbit.RotationY = 0
	app.Camera.orbit.UpdatePosition()
}

// setCameraSideView looks along -X
func (app *App) setCameraSideView() {
	app.Camera.orbit.RotationX = 0
	app.Camera.orbit.RotationY = math.Pi / 2
	app.Camera.orbit.UpdatePosition()
}

// updateCamera applies orbit damping and copies the orbit into the raylib camera
func (app *App) updateCamera() {
	app.Camera.orbit.Update()
	app.syncCamera()
}

func (app *App) syncCamera() {
	cam := app.Camera.orbit
	app.Camera.camera.Position = toRL(cam.Position)
	app.Camera.camera.Target = toRL(cam.Target)
	app.Camera.camera.Up = rl.Vector3{X: 0, Y: 1, Z: 0}
	app.Camera.camera.Fovy = app.Camera.fovDeg
	app.Camera.camera.Projection = rl.CameraPerspective
}

// doPan moves the orbit target in the view plane
func (app *App) doPan(delta rl.Vector2) {
	cam := app.Camera.orbit
	forward := cam.Forward()
	right := forward.Cross(cam.Up).Normalize()
	up := right.Cross(forward).Normalize()

	// Pan speed based on distance from target
	panSpeed := cam.Distance * 0.001

	cam.Target = cam.Target.
		Add(right.Mul(-float64(delta.X) * panSpeed)).
		Add(up.Mul(float64(delta.Y) * panSpeed))
	cam.UpdatePosition()
}

// mouseRay returns the pick ray under a screen position
func (app *App) mouseRay(pos rl.Vector2) geometry.Ray {
	r := rl.GetScreenToWorldRay(pos, app.Camera.camera)
	return geometry.NewRay(fromRL(r.Position), fromRL(r.Direction))
}

func toRL(v geometry.Vector3) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

func fromRL(v rl.Vector3) geometry.Vector3 {
	return geometry.NewVector3(float64(v.X), float64(v.Y), float64(v.Z))
}
