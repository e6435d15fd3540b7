// Package app is the raylib annotation viewer: a lit model under an orbit
// camera with a follow light, where markers with text notes are placed on
// the surface and persisted.
package app

import (
	"context"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/annoview/internal/annotation"
	"github.com/philipparndt/annoview/internal/config"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/viewer"
	"github.com/rs/zerolog"
)

// App is the state of one viewer window
type App struct {
	Camera      CameraState
	Model       ModelData
	View        ViewSettings
	Interaction InteractionState
	FileWatch   FileWatchState
	UI          UIState

	material     rl.Material
	manager      *annotation.Manager
	scene        *scene
	popupTimeout time.Duration
	exportPath   string

	cfg    config.Config
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// ExportFileName is where E writes and I reads annotations, relative to the
// working directory
const ExportFileName = "annotations.json"

func newApp(cfg config.Config, modelPath string, st annotation.Store, log zerolog.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Camera: CameraState{fovDeg: float32(cfg.Scene.FOV)},
		View: ViewSettings{
			light:      viewer.NewFollowLight(),
			background: cfg.Scene.Background,
		},
		Interaction: InteractionState{activeSlider: -1, hoveredSlider: -1},
		FileWatch: FileWatchState{
			sourceFile: modelPath,
			results:    make(chan loadResult, 1),
		},
		popupTimeout: cfg.Annotations.PopupTimeout,
		exportPath:   ExportFileName,
		cfg:          cfg,
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
	}
	app.View.light.Ambient = cfg.Scene.Ambient
	app.View.light.Intensity = cfg.Scene.Intensity

	app.scene = newScene(app, cfg.Annotations.MarkerRadius)
	app.manager = annotation.NewManager(app.scene, st,
		annotation.WithStorageKey(cfg.Annotations.StorageKey),
		annotation.WithPopupTimeout(cfg.Annotations.PopupTimeout),
		annotation.WithLogger(log),
	)
	return app
}

// Run opens the viewer window for modelPath and blocks until it is closed.
// Annotations are persisted in st under the configured key.
func Run(cfg config.Config, modelPath string, st annotation.Store, log zerolog.Logger) error {
	app := newApp(cfg, modelPath, st, log)
	defer app.cancel()

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagWindowHighdpi | rl.FlagMsaa4xHint) // Must be before InitWindow
	rl.InitWindow(int32(cfg.Window.Width), int32(cfg.Window.Height), "annoview")
	rl.SetTargetFPS(int32(cfg.Window.TargetFPS))
	// Escape closes prompts and popups, not the window
	rl.SetExitKey(0)

	app.UI.font = rl.GetFontDefault()
	app.material = rl.LoadMaterialDefault()
	app.fitCamera(geometry.NewBoundingBox())

	if cfg.Watch.Enabled {
		if err := app.setupFileWatcher(); err != nil {
			log.Warn().Err(err).Msg("file watching disabled")
		} else {
			defer app.FileWatch.fileWatcher.Close()
		}
	}

	app.startLoad()

	// Main loop
	for !rl.WindowShouldClose() {
		// Check for Ctrl+C to exit
		ctrlPressed := rl.IsKeyDown(rl.KeyLeftControl) || rl.IsKeyDown(rl.KeyRightControl)
		if ctrlPressed && rl.IsKeyPressed(rl.KeyC) {
			break
		}

		// Check if model needs reloading (file changed)
		if app.FileWatch.needsReload.Load() && !app.FileWatch.isLoading {
			app.FileWatch.needsReload.Store(false)
			app.startLoad()
		}

		// Apply loaded model if ready (must be on main thread)
		app.applyLoadedModel()

		// Update
		app.handleInput()
		app.updateCamera()
		app.updateLighting()
		app.manager.Tick()

		// Draw
		rl.BeginDrawing()
		gray := viewer.Gray(app.View.background)
		rl.ClearBackground(rl.NewColor(gray, gray, gray, 255))

		rl.BeginMode3D(app.Camera.camera)
		app.drawModel()
		app.scene.draw()
		rl.EndMode3D()

		app.drawUI()

		rl.EndDrawing()
	}

	// Cleanup
	app.unloadMesh()
	rl.CloseWindow()
	return nil
}

// status shows a message in the status line and logs it
func (app *App) status(msg string) {
	app.UI.status = msg
	app.log.Info().Msg(msg)
}

// fail shows an error in the alert overlay
func (app *App) fail(msg string, err error) {
	app.UI.alert = msg + ": " + err.Error()
	app.log.Error().Err(err).Msg(msg)
}
