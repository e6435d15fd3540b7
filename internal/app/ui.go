package app

import (
	"fmt"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/internal/annotation"
	"github.com/philipparndt/annoview/pkg/viewer"
	"github.com/philipparndt/annoview/version"
)

const (
	sliderWidth        = float32(160)
	sliderHeight       = float32(6)
	sliderHandleRadius = float32(7)
	sliderIntensity    = 0
	sliderBackground   = 1
)

type sliderRange struct {
	label    string
	min, max float64
}

var sliders = [2]sliderRange{
	sliderIntensity:  {label: "Light", min: 0, max: viewer.MaxIntensity},
	sliderBackground: {label: "Background", min: 0, max: 1},
}

// sliderTrack returns the track rectangle of a slider in the bottom right corner
func sliderTrack(index int, screen rl.Vector2) rl.Rectangle {
	return rl.Rectangle{
		X:      screen.X - sliderWidth - 60,
		Y:      screen.Y - 60 + float32(index)*26,
		Width:  sliderWidth,
		Height: sliderHeight,
	}
}

// sliderHitBox grows the track by the handle radius for mouse interaction
func sliderHitBox(track rl.Rectangle) rl.Rectangle {
	return rl.Rectangle{
		X:      track.X - sliderHandleRadius,
		Y:      track.Y - sliderHandleRadius,
		Width:  track.Width + sliderHandleRadius*2,
		Height: track.Height + sliderHandleRadius*2,
	}
}

// sliderValue maps a mouse x position on the track to a clamped value
func sliderValue(mouseX float32, track rl.Rectangle, min, max float64) float64 {
	t := float64((mouseX - track.X) / track.Width)
	t = math.Max(0, math.Min(1, t))
	return min + t*(max-min)
}

func (app *App) sliderCurrent(index int) float64 {
	if index == sliderIntensity {
		return app.View.light.Intensity
	}
	return app.View.background
}

func (app *App) setSlider(index int, value float64) {
	if index == sliderIntensity {
		app.View.light.Intensity = value
		app.View.lightDirty = true
		return
	}
	app.View.background = value
}

func (app *App) drawSlider(index int, screen rl.Vector2) {
	rng := sliders[index]
	track := sliderTrack(index, screen)
	value := app.sliderCurrent(index)
	text := contrastText(app.View.background)

	labelWidth := rl.MeasureTextEx(app.UI.font, rng.label, 12, 1).X
	rl.DrawTextEx(app.UI.font, rng.label, rl.Vector2{X: track.X - labelWidth - 12, Y: track.Y - 4}, 12, 1, text)

	trackBg := rl.NewColor(40, 45, 55, 255)
	if app.Interaction.hoveredSlider == index {
		trackBg = rl.NewColor(60, 65, 75, 255)
	}
	rl.DrawRectangleRounded(track, 0.5, 8, trackBg)

	normalized := float32((value - rng.min) / (rng.max - rng.min))
	handleX := track.X + normalized*track.Width
	fill := rl.NewColor(255, 200, 80, 120)
	rl.DrawRectangleRounded(rl.Rectangle{X: track.X, Y: track.Y, Width: handleX - track.X, Height: track.Height}, 0.5, 8, fill)

	handleColor := rl.NewColor(255, 200, 80, 255)
	if app.Interaction.activeSlider == index {
		handleColor = rl.White
	}
	handleY := track.Y + track.Height/2
	rl.DrawCircleV(rl.Vector2{X: handleX, Y: handleY}, sliderHandleRadius, handleColor)
	rl.DrawCircleLines(int32(handleX), int32(handleY), sliderHandleRadius, rl.NewColor(255, 255, 255, 150))

	rl.DrawTextEx(app.UI.font, fmt.Sprintf("%.2f", value), rl.Vector2{X: track.X + track.Width + 12, Y: track.Y - 4}, 12, 1, text)
}

// popupLayout returns the popup box and its Edit and Delete buttons
func popupLayout(anchor rl.Vector2, textWidth float32, screen rl.Vector2) (box, edit, del rl.Rectangle) {
	width := float32(math.Max(float64(textWidth)+20, 170))
	box = clampRect(rl.Rectangle{X: anchor.X + 10, Y: anchor.Y + 10, Width: width, Height: 64}, screen)
	edit = rl.Rectangle{X: box.X + 10, Y: box.Y + 32, Width: 70, Height: 22}
	del = rl.Rectangle{X: box.X + 90, Y: box.Y + 32, Width: 70, Height: 22}
	return box, edit, del
}

func popupText(a *annotation.Annotation) string {
	if a.Text == "" {
		return "(no text)"
	}
	return a.Text
}

func (app *App) openPopupLayout() (annotation.Popup, rl.Rectangle, rl.Rectangle, rl.Rectangle, bool) {
	p, ok := app.manager.Popup()
	if !ok {
		return p, rl.Rectangle{}, rl.Rectangle{}, rl.Rectangle{}, false
	}
	screen := rl.Vector2{X: float32(rl.GetScreenWidth()), Y: float32(rl.GetScreenHeight())}
	width := rl.MeasureTextEx(app.UI.font, popupText(p.Annotation), 16, 1).X
	box, edit, del := popupLayout(rl.Vector2{X: float32(p.Anchor.X), Y: float32(p.Anchor.Y)}, width, screen)
	return p, box, edit, del, true
}

func (app *App) drawPopup() {
	p, box, edit, del, ok := app.openPopupLayout()
	if !ok {
		return
	}
	mouse := rl.GetMousePosition()
	rl.DrawRectangleRec(box, rl.NewColor(20, 24, 32, 235))
	rl.DrawRectangleLinesEx(box, 1, markerColor)
	rl.DrawTextEx(app.UI.font, popupText(p.Annotation), rl.Vector2{X: box.X + 10, Y: box.Y + 8}, 16, 1, rl.White)

	for _, b := range []struct {
		rect  rl.Rectangle
		label string
	}{{edit, "Edit"}, {del, "Delete"}} {
		bg := rl.NewColor(50, 55, 65, 255)
		if rl.CheckCollisionPointRec(mouse, b.rect) {
			bg = rl.NewColor(80, 85, 95, 255)
		}
		rl.DrawRectangleRec(b.rect, bg)
		rl.DrawTextEx(app.UI.font, b.label, rl.Vector2{X: b.rect.X + 8, Y: b.rect.Y + 4}, 14, 1, rl.White)
	}

	remaining := time.Until(p.Deadline).Seconds()
	if remaining > 0 {
		bar := box.Width * float32(remaining/app.popupTimeout.Seconds())
		rl.DrawRectangle(int32(box.X), int32(box.Y+box.Height-2), int32(bar), 2, markerColor)
	}
}

func (app *App) drawAlert() {
	if app.UI.alert == "" {
		return
	}
	screen := rl.Vector2{X: float32(rl.GetScreenWidth()), Y: float32(rl.GetScreenHeight())}
	rl.DrawRectangle(0, 0, int32(screen.X), int32(screen.Y), rl.NewColor(0, 0, 0, 120))

	width := rl.MeasureTextEx(app.UI.font, app.UI.alert, 16, 1).X + 40
	box := rl.Rectangle{X: (screen.X - width) / 2, Y: screen.Y/2 - 40, Width: width, Height: 80}
	rl.DrawRectangleRec(box, rl.NewColor(40, 20, 20, 245))
	rl.DrawRectangleLinesEx(box, 1, rl.Red)
	rl.DrawTextEx(app.UI.font, app.UI.alert, rl.Vector2{X: box.X + 20, Y: box.Y + 18}, 16, 1, rl.White)
	rl.DrawTextEx(app.UI.font, "Click or press Enter to close", rl.Vector2{X: box.X + 20, Y: box.Y + 50}, 12, 1, rl.LightGray)
}

func contrastText(background float64) rl.Color {
	if background > 0.5 {
		return rl.NewColor(20, 20, 20, 255)
	}
	return rl.NewColor(235, 235, 235, 255)
}

// drawUI draws the user interface
func (app *App) drawUI() {
	const (
		lineHeight = float32(20)
		fontSize16 = float32(16)
		fontSize14 = float32(14)
		fontSize12 = float32(12)
	)
	y := float32(10)
	screen := rl.Vector2{X: float32(rl.GetScreenWidth()), Y: float32(rl.GetScreenHeight())}
	text := contrastText(app.View.background)
	dim := text
	dim.A = 170

	// Loading indicator
	if app.FileWatch.isLoading {
		elapsed := time.Since(app.FileWatch.loadStart).Seconds()
		spinnerChars := []string{"|", "/", "-", "\\"}
		loadingText := fmt.Sprintf("%s Loading... (%.1fs)", spinnerChars[int(elapsed*10)%len(spinnerChars)], elapsed)

		boxWidth := float32(250)
		boxX := screen.X - boxWidth - 20
		rl.DrawRectangle(int32(boxX), 20, int32(boxWidth), 40, rl.NewColor(0, 0, 0, 180))
		rl.DrawRectangleLines(int32(boxX), 20, int32(boxWidth), 40, rl.Yellow)
		rl.DrawTextEx(app.UI.font, loadingText, rl.Vector2{X: boxX + 16, Y: 32}, fontSize16, 1, rl.Yellow)
	}

	// === MODEL ===
	rl.DrawTextEx(app.UI.font, "Model:", rl.Vector2{X: 10, Y: y}, fontSize16, 1, text)
	y += lineHeight
	if app.Model.model != nil {
		rl.DrawTextEx(app.UI.font, fmt.Sprintf("  %s", app.Model.model.Name), rl.Vector2{X: 10, Y: y}, fontSize14, 1, text)
		y += lineHeight
		rl.DrawTextEx(app.UI.font, fmt.Sprintf("  Triangles: %d", app.Model.model.TriangleCount()), rl.Vector2{X: 10, Y: y}, fontSize14, 1, text)
	} else if !app.FileWatch.isLoading {
		rl.DrawTextEx(app.UI.font, "  not loaded", rl.Vector2{X: 10, Y: y}, fontSize14, 1, rl.Red)
	}
	y += lineHeight * 2

	// === ANNOTATIONS ===
	rl.DrawTextEx(app.UI.font, "Annotations:", rl.Vector2{X: 10, Y: y}, fontSize16, 1, text)
	y += lineHeight
	visibility := "shown"
	if !app.manager.Visible() {
		visibility = "hidden"
	}
	rl.DrawTextEx(app.UI.font, fmt.Sprintf("  %d (%s)", app.manager.Len(), visibility), rl.Vector2{X: 10, Y: y}, fontSize14, 1, text)
	y += lineHeight
	for _, line := range []string{
		"  Right Click: Add | Click marker: Edit/Delete",
		"  H: Show/Hide | E: Export | I: Import",
		"  Drop a .json file to import",
	} {
		rl.DrawTextEx(app.UI.font, line, rl.Vector2{X: 10, Y: y}, fontSize14, 1, dim)
		y += lineHeight
	}
	y += lineHeight

	// === NAVIGATE ===
	rl.DrawTextEx(app.UI.font, "Navigate:", rl.Vector2{X: 10, Y: y}, fontSize16, 1, text)
	y += lineHeight
	for _, line := range []string{
		"  Left Drag: Rotate | Shift+Drag: Pan",
		"  Mouse Wheel: Zoom | Middle: Pan",
		"  Home: Reset | T: Top | 1: Front | 3: Side",
	} {
		rl.DrawTextEx(app.UI.font, line, rl.Vector2{X: 10, Y: y}, fontSize14, 1, dim)
		y += lineHeight
	}

	if app.UI.status != "" {
		rl.DrawTextEx(app.UI.font, app.UI.status, rl.Vector2{X: 10, Y: screen.Y - 54}, fontSize14, 1, text)
	}

	// Version and FPS in bottom-left corner
	bottomY := screen.Y - 30
	versionText := fmt.Sprintf("v%s", version.GetVersion())
	rl.DrawTextEx(app.UI.font, versionText, rl.Vector2{X: 10, Y: bottomY}, fontSize12, 1, dim)
	versionWidth := rl.MeasureTextEx(app.UI.font, versionText, fontSize12, 1).X
	rl.DrawTextEx(app.UI.font, fmt.Sprintf("FPS: %d", rl.GetFPS()), rl.Vector2{X: 10 + versionWidth + 15, Y: bottomY}, fontSize12, 1, rl.Lime)

	for i := range sliders {
		app.drawSlider(i, screen)
	}

	app.drawPopup()
	app.drawPrompt()
	app.drawAlert()
}
