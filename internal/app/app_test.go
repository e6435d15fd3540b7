package app

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/philipparndt/annoview/pkg/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoFacedModel() *mesh.Model {
	m := mesh.NewModel("faces")
	a := geometry.NewVector3(0, 0, 0)
	b := geometry.NewVector3(1, 0, 0)
	c := geometry.NewVector3(0, 1, 0)
	m.AddTriangle(geometry.NewTriangle(geometry.Vector3{}, a, b, c))
	// Same face wound the other way
	m.AddTriangle(geometry.NewTriangle(geometry.Vector3{}, a, c, b))
	return m
}

func TestModelArrays(t *testing.T) {
	vertices, normals := modelArrays(twoFacedModel())

	require.Len(t, vertices, 18)
	require.Len(t, normals, 18)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, vertices[:9])
	assert.Equal(t, []float32{0, 0, 1}, normals[:3])
	assert.Equal(t, []float32{0, 0, -1}, normals[9:12])
}

func TestBakeColorsLightsBothSides(t *testing.T) {
	light := viewer.NewFollowLight()
	light.Ambient = 0.5
	light.Intensity = 0.5

	colors := make([]uint8, 2*3*4)
	bakeColors(twoFacedModel(), light, colors)

	base := viewer.ModelColor
	want := []uint8{base.R, base.G, base.B, 255}
	for v := 0; v < 6; v++ {
		assert.Equal(t, want, colors[v*4:v*4+4], "vertex %d", v)
	}
}

func TestBakeColorsAmbientOnly(t *testing.T) {
	light := viewer.NewFollowLight()
	light.Ambient = 0.5
	light.Intensity = 0

	colors := make([]uint8, 2*3*4)
	bakeColors(twoFacedModel(), light, colors)

	assert.Equal(t, uint8(75), colors[0])
	assert.Equal(t, uint8(255), colors[3])
}

func TestPromptEditing(t *testing.T) {
	p := newPrompt("New annotation", "ab", rl.Vector2{}, nil, nil)

	p.insert('c')
	p.insert('\n')
	p.insert(0x7f - 0x60) // control character
	p.insert('ü')
	assert.Equal(t, "abcü", p.value())

	p.backspace()
	p.backspace()
	assert.Equal(t, "ab", p.value())

	p.backspace()
	p.backspace()
	p.backspace()
	assert.Equal(t, "", p.value())
}

func TestPromptMaxLength(t *testing.T) {
	p := newPrompt("", "", rl.Vector2{}, nil, nil)
	for i := 0; i < promptMaxRunes+10; i++ {
		p.insert('x')
	}
	assert.Len(t, []rune(p.value()), promptMaxRunes)
}

func TestClampRect(t *testing.T) {
	screen := rl.Vector2{X: 800, Y: 600}

	inside := rl.Rectangle{X: 10, Y: 20, Width: 100, Height: 50}
	assert.Equal(t, inside, clampRect(inside, screen))

	overflow := clampRect(rl.Rectangle{X: 780, Y: 590, Width: 100, Height: 50}, screen)
	assert.Equal(t, rl.Rectangle{X: 700, Y: 550, Width: 100, Height: 50}, overflow)

	tooBig := clampRect(rl.Rectangle{X: 50, Y: 50, Width: 900, Height: 700}, screen)
	assert.Equal(t, float32(0), tooBig.X)
	assert.Equal(t, float32(0), tooBig.Y)
}

func TestSliderValue(t *testing.T) {
	track := rl.Rectangle{X: 100, Y: 0, Width: 200, Height: 6}

	assert.InDelta(t, 0.0, sliderValue(50, track, 0, 1), 1e-9)
	assert.InDelta(t, 0.5, sliderValue(200, track, 0, 1), 1e-9)
	assert.InDelta(t, 1.0, sliderValue(400, track, 0, 1), 1e-9)
	assert.InDelta(t, viewer.MaxIntensity/4, sliderValue(150, track, 0, viewer.MaxIntensity), 1e-6)
}

func TestSliderLayout(t *testing.T) {
	screen := rl.Vector2{X: 1280, Y: 800}
	first := sliderTrack(sliderIntensity, screen)
	second := sliderTrack(sliderBackground, screen)

	assert.Equal(t, first.X, second.X)
	assert.Greater(t, second.Y, first.Y)
	assert.LessOrEqual(t, first.X+first.Width, screen.X)

	hit := sliderHitBox(first)
	assert.True(t, rl.CheckCollisionPointRec(rl.Vector2{X: first.X - 3, Y: first.Y + 3}, hit))
}

func TestPopupLayout(t *testing.T) {
	screen := rl.Vector2{X: 800, Y: 600}

	box, edit, del := popupLayout(rl.Vector2{X: 100, Y: 100}, 40, screen)
	assert.Equal(t, float32(110), box.X)
	assert.Equal(t, float32(170), box.Width)
	assert.True(t, edit.X+edit.Width < del.X)
	for _, b := range []rl.Rectangle{edit, del} {
		assert.GreaterOrEqual(t, b.X, box.X)
		assert.LessOrEqual(t, b.X+b.Width, box.X+box.Width)
		assert.LessOrEqual(t, b.Y+b.Height, box.Y+box.Height)
	}

	// Near the corner the popup moves back on screen
	box, _, _ = popupLayout(rl.Vector2{X: 790, Y: 590}, 300, screen)
	assert.Equal(t, screen.X, box.X+box.Width)
	assert.Equal(t, screen.Y, box.Y+box.Height)
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 annotation", pluralize(1, "annotation"))
	assert.Equal(t, "0 annotations", pluralize(0, "annotation"))
	assert.Equal(t, "3 annotations", pluralize(3, "annotation"))
}
