package app

import (
	"sync/atomic"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/philipparndt/annoview/pkg/viewer"
	"github.com/philipparndt/annoview/pkg/watcher"
)

// CameraState holds all camera-related state
type CameraState struct {
	camera  rl.Camera3D
	orbit   *viewer.Camera
	fovDeg  float32
	defDist float64 // Default camera distance (for reset)
}

// ModelData holds the loaded model and its GPU mesh
type ModelData struct {
	model  *mesh.Model
	source mesh.Source
	mesh   rl.Mesh
	loaded bool

	// CPU copies backing the mesh; colors is re-uploaded when the light moves
	vertices []float32
	normals  []float32
	colors   []uint8
}

// ViewSettings holds display settings driven by the sliders
type ViewSettings struct {
	light      *viewer.FollowLight
	background float64 // 1 is white, 0 is black
	lightDirty bool
}

// InteractionState holds mouse and interaction state
type InteractionState struct {
	mouseDownPos  rl.Vector2
	mouseMoved    bool
	isPanning     bool
	rightDownPos  rl.Vector2
	rightMoved    bool
	activeSlider  int // -1=none
	hoveredSlider int // -1=none
}

type loadResult struct {
	model   *mesh.Model
	source  mesh.Source
	err     error
	elapsed time.Duration
}

// FileWatchState holds file watching and reload state
type FileWatchState struct {
	sourceFile  string
	fileWatcher *watcher.Watcher
	needsReload atomic.Bool
	isLoading   bool
	loadStart   time.Time
	results     chan loadResult
	restored    bool
}

// UIState holds overlay state
type UIState struct {
	font   rl.Font
	prompt *prompt
	alert  string
	status string
}
