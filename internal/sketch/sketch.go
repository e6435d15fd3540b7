// Package sketch is the two-object viewer: a pair of textured models under
// an orbit camera, each lit by a directional light that follows the mouse,
// with a button that starts and stops rotating the scene.
package sketch

import (
	"context"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/internal/config"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/philipparndt/annoview/pkg/viewer"
	"github.com/rs/zerolog"
)

const buttonLabel = "Start/Stop rotation"

var toggleButton = rl.Rectangle{X: 10, Y: 10, Width: 190, Height: 30}

// Sketch holds the state of the sketch window
type Sketch struct {
	objects    []*object
	angle      float64
	autoRotate bool
	orbit      *viewer.Camera
	camera     rl.Camera3D
	background uint8
	dragging   bool
	log        zerolog.Logger
}

// New loads both models. Nothing is sent to the GPU until Run.
func New(ctx context.Context, cfg config.Config, pathA, pathB string, log zerolog.Logger) (*Sketch, error) {
	a, _, err := mesh.Load(ctx, pathA)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", pathA, err)
	}
	b, _, err := mesh.Load(ctx, pathB)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", pathB, err)
	}
	ambient := float64(cfg.Sketch.Ambient) / 255

	s := &Sketch{
		objects: []*object{
			newObject(a, geometry.NewVector3(0, 2, 0), 1, ambient),
			newObject(b, geometry.Vector3{}, -1, ambient),
		},
		background: 200,
		log:        log,
	}
	s.orbit = viewer.NewCamera(worldBounds(s.objects, 0))
	s.orbit.FOV = cfg.Scene.FOV * math.Pi / 180
	return s, nil
}

// Toggle starts or stops the rotation
func (s *Sketch) Toggle() {
	s.autoRotate = !s.autoRotate
}

// Step advances the rotation by one frame
func (s *Sketch) Step() {
	if s.autoRotate {
		s.angle += RotationStep
	}
}

// Angle is the current extra rotation about X
func (s *Sketch) Angle() float64 {
	return s.angle
}

// aimLights points every object light from the mouse position
func (s *Sketch) aimLights(mouseX, mouseY, width, height float64) {
	for _, o := range s.objects {
		o.aim(mouseLightDirection(mouseX, mouseY, width, height, o.lightZ))
	}
}

// Run opens the window and blocks until it is closed
func (s *Sketch) Run(cfg config.Config) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagWindowHighdpi | rl.FlagMsaa4xHint) // Must be before InitWindow
	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), "annoview sketch")
	rl.SetTargetFPS(int32(cfg.Window.TargetFPS))

	for i, tex := range []string{cfg.Sketch.TextureA, cfg.Sketch.TextureB} {
		s.objects[i].upload()
		s.objects[i].loadTexture(tex, s.log)
	}

	for !rl.WindowShouldClose() {
		s.handleInput()
		s.Step()
		s.orbit.Update()
		s.syncCamera()

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(s.background, s.background, s.background, 255))

		rl.BeginMode3D(s.camera)
		for _, o := range s.objects {
			o.draw(s.angle)
		}
		rl.EndMode3D()

		s.drawButton()
		rl.EndDrawing()
	}

	for _, o := range s.objects {
		o.unload()
	}
	rl.CloseWindow()
}

func (s *Sketch) handleInput() {
	mouse := rl.GetMousePosition()
	s.aimLights(float64(mouse.X), float64(mouse.Y), float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))

	if rl.IsKeyPressed(rl.KeySpace) {
		s.Toggle()
	}

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		if rl.CheckCollisionPointRec(mouse, toggleButton) {
			s.Toggle()
		} else {
			s.dragging = true
		}
	}
	if !rl.IsMouseButtonDown(rl.MouseLeftButton) {
		s.dragging = false
	}
	if s.dragging {
		if delta := rl.GetMouseDelta(); delta.X != 0 || delta.Y != 0 {
			s.orbit.Orbit(-float64(delta.Y)*0.01, -float64(delta.X)*0.01)
		}
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		s.orbit.Zoom(-float64(wheel) * 0.1)
	}
}

func (s *Sketch) syncCamera() {
	s.camera.Position = toRL(s.orbit.Position)
	s.camera.Target = toRL(s.orbit.Target)
	s.camera.Up = rl.Vector3{X: 0, Y: 1, Z: 0}
	s.camera.Fovy = float32(s.orbit.FOV * 180 / math.Pi)
	s.camera.Projection = rl.CameraPerspective
}

func (s *Sketch) drawButton() {
	bg := rl.NewColor(240, 240, 240, 255)
	if rl.CheckCollisionPointRec(rl.GetMousePosition(), toggleButton) {
		bg = rl.NewColor(225, 225, 225, 255)
	}
	rl.DrawRectangleRec(toggleButton, bg)
	rl.DrawRectangleLinesEx(toggleButton, 1, rl.Gray)
	rl.DrawText(buttonLabel, int32(toggleButton.X)+10, int32(toggleButton.Y)+8, 14, rl.Black)
}

func toRL(v geometry.Vector3) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
