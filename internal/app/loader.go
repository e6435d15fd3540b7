package app

import (
	"fmt"
	"time"

	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/philipparndt/annoview/pkg/watcher"
)

// setupFileWatcher starts watching the model source. The watched set is
// replaced after every load since OpenSCAD dependencies may change.
func (app *App) setupFileWatcher() error {
	fw, err := watcher.New(app.cfg.Watch.Debounce, app.log, func(changed string) {
		app.log.Info().Str("file", changed).Msg("file changed")
		app.FileWatch.needsReload.Store(true)
	})
	if err != nil {
		return err
	}
	if err := fw.Set([]string{app.FileWatch.sourceFile}); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch files: %w", err)
	}

	go fw.Run(app.ctx)
	app.FileWatch.fileWatcher = fw
	return nil
}

// startLoad loads the model in the background. The raylib mesh is built on
// the main thread by applyLoadedModel.
func (app *App) startLoad() {
	if app.FileWatch.isLoading {
		return
	}
	app.FileWatch.isLoading = true
	app.FileWatch.loadStart = time.Now()
	app.log.Info().Str("file", app.FileWatch.sourceFile).Msg("loading model")

	path := app.FileWatch.sourceFile
	results := app.FileWatch.results
	go func() {
		start := time.Now()
		model, src, err := mesh.Load(app.ctx, path)
		results <- loadResult{model: model, source: src, err: err, elapsed: time.Since(start)}
	}()
}

// applyLoadedModel swaps in a finished load (must be called on main thread)
func (app *App) applyLoadedModel() {
	var res loadResult
	select {
	case res = <-app.FileWatch.results:
	default:
		return
	}
	app.FileWatch.isLoading = false

	if res.err != nil {
		app.log.Error().Err(res.err).Str("file", app.FileWatch.sourceFile).Msg("failed to load model")
		app.UI.status = "Load failed: " + res.err.Error()
		app.restoreOnce()
		return
	}

	first := !app.Model.loaded
	app.unloadMesh()
	app.buildMesh(res.model)
	app.Model.model = res.model
	app.Model.source = res.source
	app.Model.loaded = true

	bbox := res.model.BoundingBox()
	if first {
		// Keep the view across reloads, fit it only the first time
		app.fitCamera(bbox)
		app.scene.fitMarkers(bbox)
	}
	app.View.lightDirty = true

	if w := app.FileWatch.fileWatcher; w != nil {
		if err := w.Set(res.source.Watch); err != nil {
			app.log.Warn().Err(err).Msg("failed to update watched files")
		}
	}

	app.status(fmt.Sprintf("Loaded %s (%d triangles) in %.2fs",
		res.model.Name, res.model.TriangleCount(), res.elapsed.Seconds()))
	app.restoreOnce()
}

// restoreOnce reloads persisted annotations after the first load attempt
func (app *App) restoreOnce() {
	if app.FileWatch.restored {
		return
	}
	app.FileWatch.restored = true
	app.manager.Restore()
	if n := app.manager.Len(); n > 0 {
		app.log.Info().Int("count", n).Msg("restored annotations")
	}
}
