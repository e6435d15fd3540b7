package app

import (
	"unicode/utf8"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const promptMaxRunes = 200

// prompt is a one-line modal text entry anchored at a screen position
type prompt struct {
	title    string
	text     []rune
	anchor   rl.Vector2
	onSubmit func(text string)
	onCancel func()
}

func newPrompt(title, initial string, anchor rl.Vector2, onSubmit func(string), onCancel func()) *prompt {
	return &prompt{
		title:    title,
		text:     []rune(initial),
		anchor:   anchor,
		onSubmit: onSubmit,
		onCancel: onCancel,
	}
}

func (p *prompt) insert(r rune) {
	if r < 32 || r == utf8.RuneError || len(p.text) >= promptMaxRunes {
		return
	}
	p.text = append(p.text, r)
}

func (p *prompt) backspace() {
	if len(p.text) > 0 {
		p.text = p.text[:len(p.text)-1]
	}
}

func (p *prompt) value() string {
	return string(p.text)
}

// handlePromptInput feeds keyboard input to the open prompt and closes it
// on Enter or Escape
func (app *App) handlePromptInput() {
	p := app.UI.prompt
	for r := rl.GetCharPressed(); r > 0; r = rl.GetCharPressed() {
		p.insert(rune(r))
	}
	if rl.IsKeyPressed(rl.KeyBackspace) || rl.IsKeyPressedRepeat(rl.KeyBackspace) {
		p.backspace()
	}

	switch {
	case rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeyKpEnter):
		app.UI.prompt = nil
		if p.onSubmit != nil {
			p.onSubmit(p.value())
		}
	case rl.IsKeyPressed(rl.KeyEscape):
		app.UI.prompt = nil
		if p.onCancel != nil {
			p.onCancel()
		}
	}
}

// drawPrompt draws the prompt box next to its anchor
func (app *App) drawPrompt() {
	p := app.UI.prompt
	if p == nil {
		return
	}
	const fontSize = 16
	screen := rl.Vector2{X: float32(rl.GetScreenWidth()), Y: float32(rl.GetScreenHeight())}
	box := clampRect(rl.Rectangle{X: p.anchor.X + 12, Y: p.anchor.Y + 12, Width: 340, Height: 84}, screen)

	rl.DrawRectangleRec(box, rl.NewColor(20, 24, 32, 235))
	rl.DrawRectangleLinesEx(box, 1, rl.Yellow)
	rl.DrawTextEx(app.UI.font, p.title, rl.Vector2{X: box.X + 10, Y: box.Y + 8}, fontSize, 1, rl.Yellow)

	field := rl.Rectangle{X: box.X + 10, Y: box.Y + 30, Width: box.Width - 20, Height: 24}
	rl.DrawRectangleRec(field, rl.NewColor(40, 45, 55, 255))
	text := p.value()
	if int(rl.GetTime()*2)%2 == 0 {
		text += "_"
	}
	rl.DrawTextEx(app.UI.font, text, rl.Vector2{X: field.X + 6, Y: field.Y + 4}, fontSize, 1, rl.White)
	rl.DrawTextEx(app.UI.font, "Enter: OK | Esc: Cancel", rl.Vector2{X: box.X + 10, Y: box.Y + 62}, 12, 1, rl.LightGray)
}

// clampRect keeps a rectangle inside the screen
func clampRect(r rl.Rectangle, screen rl.Vector2) rl.Rectangle {
	if r.X+r.Width > screen.X {
		r.X = screen.X - r.Width
	}
	if r.Y+r.Height > screen.Y {
		r.Y = screen.Y - r.Height
	}
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	return r
}
