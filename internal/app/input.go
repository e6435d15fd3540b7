package app

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/internal/annotation"
)

// clickTolerance is how far the mouse may move between press and release
// for the gesture to count as a click
const clickTolerance = 5.0

func toScreenPoint(v rl.Vector2) annotation.ScreenPoint {
	return annotation.ScreenPoint{X: float64(v.X), Y: float64(v.Y)}
}

// handleInput processes user input
func (app *App) handleInput() {
	app.handleDroppedFiles()

	// Modal overlays take all input
	if app.UI.alert != "" {
		if rl.IsMouseButtonPressed(rl.MouseLeftButton) || rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyEscape) {
			app.UI.alert = ""
		}
		return
	}
	if app.UI.prompt != nil {
		app.handlePromptInput()
		return
	}

	app.handleKeys()
	if app.handleSliderInput() {
		return
	}
	app.handleRightButton()
	app.handleLeftButton()

	// Camera panning with the middle mouse button
	if rl.IsMouseButtonDown(rl.MouseMiddleButton) {
		if delta := rl.GetMouseDelta(); delta.X != 0 || delta.Y != 0 {
			app.doPan(delta)
		}
	}

	// Zoom with mouse wheel
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		app.Camera.orbit.Zoom(-float64(wheel) * 0.1)
	}
}

func (app *App) handleKeys() {
	// Camera view preset shortcuts
	if rl.IsKeyPressed(rl.KeyHome) {
		app.resetCameraView()
	}
	if rl.IsKeyPressed(rl.KeyT) {
		app.setCameraTopView()
	}
	if rl.IsKeyPressed(rl.KeyOne) {
		app.setCameraFrontView()
	}
	if rl.IsKeyPressed(rl.KeyThree) {
		app.setCameraSideView()
	}

	if rl.IsKeyPressed(rl.KeyH) {
		if app.manager.ToggleVisibility() {
			app.status("Annotations shown")
		} else {
			app.status("Annotations hidden")
		}
	}
	if rl.IsKeyPressed(rl.KeyE) {
		app.exportAnnotations()
	}
	if rl.IsKeyPressed(rl.KeyI) {
		app.importAnnotations(app.exportPath)
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		app.manager.ClosePopup()
	}
}

// handleRightButton starts the create flow on a right click without drag
func (app *App) handleRightButton() {
	if rl.IsMouseButtonPressed(rl.MouseRightButton) {
		app.Interaction.rightDownPos = rl.GetMousePosition()
		app.Interaction.rightMoved = false
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		if rl.Vector2Distance(app.Interaction.rightDownPos, rl.GetMousePosition()) >= clickTolerance {
			app.Interaction.rightMoved = true
		}
	}
	if !rl.IsMouseButtonReleased(rl.MouseRightButton) || app.Interaction.rightMoved {
		return
	}

	at := rl.GetMousePosition()
	if _, ok := app.manager.BeginCreate(toScreenPoint(at)); !ok {
		return
	}
	app.manager.ClosePopup()
	app.UI.prompt = newPrompt("New annotation", "", at,
		func(text string) {
			if _, err := app.manager.ConfirmCreate(text); err != nil {
				app.fail("Failed to save annotation", err)
			}
		},
		app.manager.CancelCreate,
	)
}

// handleLeftButton orbits on drag and inspects markers on click
func (app *App) handleLeftButton() {
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		app.Interaction.mouseDownPos = rl.GetMousePosition()
		app.Interaction.mouseMoved = false
		// Pan if Shift is pressed
		app.Interaction.isPanning = rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
	}

	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		delta := rl.GetMouseDelta()
		// Only count as moved if delta is significant (threshold of 1.0 pixels)
		if math.Abs(float64(delta.X)) > 1.0 || math.Abs(float64(delta.Y)) > 1.0 {
			app.Interaction.mouseMoved = true
		}
		if delta.X != 0 || delta.Y != 0 {
			if app.Interaction.isPanning {
				app.doPan(delta)
			} else {
				app.Camera.orbit.Orbit(-float64(delta.Y)*0.01, -float64(delta.X)*0.01)
			}
		}
	}

	if !rl.IsMouseButtonReleased(rl.MouseLeftButton) {
		return
	}
	at := rl.GetMousePosition()
	if app.Interaction.mouseMoved || app.Interaction.isPanning ||
		rl.Vector2Distance(app.Interaction.mouseDownPos, at) >= clickTolerance {
		return
	}

	if app.handlePopupClick(at) {
		return
	}
	if _, ok := app.manager.Inspect(toScreenPoint(at)); !ok {
		app.manager.ClosePopup()
	}
}

// handlePopupClick runs the popup buttons and reports whether the click
// landed on the popup
func (app *App) handlePopupClick(at rl.Vector2) bool {
	p, box, edit, del, ok := app.openPopupLayout()
	if !ok || !rl.CheckCollisionPointRec(at, box) {
		return false
	}
	switch {
	case rl.CheckCollisionPointRec(at, edit):
		a := p.Annotation
		app.manager.ClosePopup()
		app.UI.prompt = newPrompt("Edit annotation", a.Text, at,
			func(text string) {
				if err := app.manager.Edit(a, text); err != nil {
					app.fail("Failed to save annotation", err)
				}
			},
			nil,
		)
	case rl.CheckCollisionPointRec(at, del):
		if err := app.manager.DeletePopup(); err != nil {
			app.fail("Failed to delete annotation", err)
		}
	}
	return true
}

// handleSliderInput drags the light and background sliders and reports
// whether a slider has the mouse
func (app *App) handleSliderInput() bool {
	mouse := rl.GetMousePosition()
	screen := rl.Vector2{X: float32(rl.GetScreenWidth()), Y: float32(rl.GetScreenHeight())}

	app.Interaction.hoveredSlider = -1
	for i := range sliders {
		if rl.CheckCollisionPointRec(mouse, sliderHitBox(sliderTrack(i, screen))) {
			app.Interaction.hoveredSlider = i
		}
	}

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) && app.Interaction.hoveredSlider >= 0 {
		app.Interaction.activeSlider = app.Interaction.hoveredSlider
	}
	if app.Interaction.activeSlider < 0 {
		return false
	}
	if !rl.IsMouseButtonDown(rl.MouseLeftButton) {
		app.Interaction.activeSlider = -1
		return true
	}

	i := app.Interaction.activeSlider
	rng := sliders[i]
	app.setSlider(i, sliderValue(mouse.X, sliderTrack(i, screen), rng.min, rng.max))
	return true
}

// handleDroppedFiles imports dropped annotation documents
func (app *App) handleDroppedFiles() {
	if !rl.IsFileDropped() {
		return
	}
	files := rl.LoadDroppedFiles()
	rl.UnloadDroppedFiles()
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".json") {
			app.importAnnotations(f)
			return
		}
	}
	app.UI.alert = "Drop a .json annotation file to import it"
}

func (app *App) exportAnnotations() {
	if err := app.manager.ExportFile(app.exportPath); err != nil {
		app.fail("Export failed", err)
		return
	}
	app.status("Exported " + pluralize(app.manager.Len(), "annotation") + " to " + app.exportPath)
}

func (app *App) importAnnotations(path string) {
	if err := app.manager.ImportFile(path); err != nil {
		app.fail("Import failed", err)
		return
	}
	app.status("Imported " + pluralize(app.manager.Len(), "annotation") + " from " + path)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
