package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/annoview/internal/annotation"
	"github.com/philipparndt/annoview/internal/config"
	"github.com/philipparndt/annoview/internal/logging"
	"github.com/philipparndt/annoview/internal/store"
	"github.com/philipparndt/annoview/pkg/mesh"
	"github.com/philipparndt/annoview/pkg/viewer"
	"github.com/philipparndt/annoview/pkg/watcher"
	"github.com/philipparndt/annoview/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const appID = "de.rnd7.annoview"

var (
	configDir    string
	logLevel     string
	storeBackend string
)

var rootCmd = &cobra.Command{
	Use:          "annoview-gui [file]",
	Short:        "Desktop viewer for annotated 3D models",
	Version:      version.GetFullVersion(),
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configDir, "config", "", "directory holding annoview.yaml (default: user config dir)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.Flags().StringVar(&storeBackend, "store", "preferences", "where annotations are kept: preferences or config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log := logging.New(cfg.LogLevel, nil)

	a := app.NewWithID(appID)

	var st annotation.Store
	switch storeBackend {
	case "preferences":
		st = prefsStore{prefs: a.Preferences()}
	case "config":
		s, err := store.New(cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer s.Close()
		st = s
	default:
		return fmt.Errorf("unknown store: %s", storeBackend)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g := newGUI(a, cfg, st, log)
	if cfg.Watch.Enabled {
		if err := g.watch(ctx); err != nil {
			log.Warn().Err(err).Msg("file watching disabled")
		}
	}
	if len(args) == 1 {
		g.load(ctx, args[0])
	} else {
		g.restoreOnce()
	}

	g.window.Resize(fyne.NewSize(float32(cfg.Window.Width), float32(cfg.Window.Height)))
	g.window.ShowAndRun()
	return nil
}

// gui wires the model view, the annotation manager and the controls
type gui struct {
	app     fyne.App
	window  fyne.Window
	view    *viewer.ModelView
	manager *annotation.Manager
	log     zerolog.Logger
	cfg     config.Config

	watcher  *watcher.Watcher
	path     string
	restored bool

	popup      *widget.PopUp
	popupTimer *time.Timer

	visibility *widget.Button
	count      *widget.Label
}

func newGUI(a fyne.App, cfg config.Config, st annotation.Store, log zerolog.Logger) *gui {
	g := &gui{
		app:    a,
		window: a.NewWindow("annoview"),
		view:   viewer.NewModelView(),
		log:    log,
		cfg:    cfg,
	}
	g.view.SetBackground(cfg.Scene.Background)
	g.view.SetAmbient(cfg.Scene.Ambient)
	g.view.SetIntensity(cfg.Scene.Intensity)
	g.manager = annotation.NewManager(viewScene{view: g.view}, st,
		annotation.WithStorageKey(cfg.Annotations.StorageKey),
		annotation.WithPopupTimeout(cfg.Annotations.PopupTimeout),
		annotation.WithLogger(log),
	)

	g.view.OnSecondaryTapped = g.create
	g.view.OnTapped = g.inspect
	g.window.SetOnDropped(g.dropped)
	g.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyH:
			g.toggleVisibility()
		case fyne.KeyEscape:
			g.closePopup()
		}
	})
	g.window.SetContent(g.layout())
	g.window.SetOnClosed(func() {
		g.view.Stop()
		if g.watcher != nil {
			g.watcher.Close()
		}
	})
	g.view.Start()
	return g
}

func (g *gui) layout() fyne.CanvasObject {
	g.visibility = widget.NewButton("Hide annotations", g.toggleVisibility)
	g.count = widget.NewLabel("")

	intensity := widget.NewSlider(0, viewer.MaxIntensity)
	intensity.Step = 0.1
	intensity.SetValue(g.cfg.Scene.Intensity)
	intensity.OnChanged = g.view.SetIntensity

	background := widget.NewSlider(0, 1)
	background.Step = 0.01
	background.SetValue(g.cfg.Scene.Background)
	background.OnChanged = g.view.SetBackground

	controls := container.NewVBox(
		widget.NewLabelWithStyle("Annotations", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		g.count,
		g.visibility,
		widget.NewButton("Export...", g.exportDialog),
		widget.NewButton("Import...", g.importDialog),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Scene", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Light intensity"),
		intensity,
		widget.NewLabel("Background"),
		background,
		widget.NewSeparator(),
		widget.NewButton("Open model...", g.openDialog),
		widget.NewLabel("Right click: add annotation\nClick marker: edit or delete\nDrag: rotate | Scroll: zoom\nH: show/hide"),
	)
	side := container.NewVScroll(controls)
	side.SetMinSize(fyne.NewSize(220, 0))

	g.updateCount()
	return container.NewBorder(nil, nil, nil, side, g.view)
}

// load reads a model in the background and shows it when done
func (g *gui) load(ctx context.Context, path string) {
	g.path = path
	g.view.SetStatus("Loading " + filepath.Base(path) + "...")
	go func() {
		start := time.Now()
		model, src, err := mesh.Load(ctx, path)
		fyne.Do(func() {
			if err != nil {
				g.log.Error().Err(err).Str("file", path).Msg("failed to load model")
				g.view.SetStatus("Load failed")
				dialog.ShowError(err, g.window)
				g.restoreOnce()
				return
			}
			g.view.SetModel(model)
			if r := g.cfg.Annotations.MarkerRadius; r > 0 {
				g.view.SetMarkerRadius(r)
			}
			g.view.SetStatus(fmt.Sprintf("%s: %d triangles", model.Name, model.TriangleCount()))
			g.window.SetTitle("annoview - " + filepath.Base(path))
			g.log.Info().Str("file", path).Dur("elapsed", time.Since(start)).Msg("model loaded")
			if g.watcher != nil {
				if err := g.watcher.Set(src.Watch); err != nil {
					g.log.Warn().Err(err).Msg("failed to update watched files")
				}
			}
			g.restoreOnce()
		})
	}()
}

func (g *gui) watch(ctx context.Context) error {
	w, err := watcher.New(g.cfg.Watch.Debounce, g.log, func(changed string) {
		g.log.Info().Str("file", changed).Msg("file changed")
		fyne.Do(func() {
			if g.path != "" {
				g.load(ctx, g.path)
			}
		})
	})
	if err != nil {
		return err
	}
	g.watcher = w
	go w.Run(ctx)
	return nil
}

// restoreOnce reloads persisted annotations after the first load attempt
func (g *gui) restoreOnce() {
	if g.restored {
		return
	}
	g.restored = true
	g.manager.Restore()
	g.updateCount()
}

func (g *gui) updateCount() {
	if g.count == nil {
		return
	}
	n := g.manager.Len()
	if n == 1 {
		g.count.SetText("1 annotation")
	} else {
		g.count.SetText(fmt.Sprintf("%d annotations", n))
	}
}

func (g *gui) fail(err error) {
	if err == nil {
		return
	}
	g.log.Error().Err(err).Msg("annotation operation failed")
	dialog.ShowError(err, g.window)
}

// create asks for the text of a new annotation at the tapped surface point
func (g *gui) create(pos, _ fyne.Position) {
	if _, ok := g.manager.BeginCreate(toScreenPoint(pos)); !ok {
		return
	}
	g.closePopup()
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Annotation text")
	dialog.ShowForm("New annotation", "Add", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			if !ok {
				g.manager.CancelCreate()
				return
			}
			_, err := g.manager.ConfirmCreate(entry.Text)
			g.updateCount()
			g.fail(err)
		}, g.window)
	g.window.Canvas().Focus(entry)
}

// inspect opens the popup of the marker under the pointer
func (g *gui) inspect(pos, absolute fyne.Position) {
	p, ok := g.manager.Inspect(toScreenPoint(pos))
	if !ok {
		g.closePopup()
		return
	}
	g.showPopup(p, absolute)
}

func (g *gui) showPopup(p annotation.Popup, absolute fyne.Position) {
	g.hidePopup()
	a := p.Annotation
	text := a.Text
	if text == "" {
		text = "(no text)"
	}

	edit := widget.NewButton("Edit", func() { g.edit(a) })
	del := widget.NewButton("Delete", func() {
		err := g.manager.DeletePopup()
		g.syncPopup()
		g.updateCount()
		g.fail(err)
	})
	content := container.NewVBox(widget.NewLabel(text), container.NewHBox(edit, del))

	g.popup = widget.NewPopUp(content, g.window.Canvas())
	g.popup.ShowAtPosition(absolute)
	g.popupTimer = time.AfterFunc(time.Until(p.Deadline), func() {
		fyne.Do(func() {
			g.manager.Tick()
			g.syncPopup()
		})
	})
}

// syncPopup hides the popup widget once the manager has closed the popup
func (g *gui) syncPopup() {
	if _, open := g.manager.Popup(); !open {
		g.hidePopup()
	}
}

func (g *gui) closePopup() {
	g.manager.ClosePopup()
	g.hidePopup()
}

func (g *gui) hidePopup() {
	if g.popupTimer != nil {
		g.popupTimer.Stop()
		g.popupTimer = nil
	}
	if g.popup != nil {
		g.popup.Hide()
		g.popup = nil
	}
}

func (g *gui) edit(a *annotation.Annotation) {
	g.closePopup()
	entry := widget.NewEntry()
	entry.SetText(a.Text)
	dialog.ShowForm("Edit annotation", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			if ok {
				g.fail(g.manager.Edit(a, entry.Text))
			}
		}, g.window)
}

func (g *gui) toggleVisibility() {
	if g.manager.ToggleVisibility() {
		g.visibility.SetText("Hide annotations")
	} else {
		g.visibility.SetText("Show annotations")
	}
}

func (g *gui) exportDialog() {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			g.fail(err)
			return
		}
		defer w.Close()
		g.fail(g.manager.Export(w))
	}, g.window)
	d.SetFileName("annotations.json")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

func (g *gui) importDialog() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			g.fail(err)
			return
		}
		defer r.Close()
		g.importFrom(r.URI().Path())
	}, g.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

func (g *gui) importFrom(path string) {
	g.closePopup()
	err := g.manager.ImportFile(path)
	g.updateCount()
	g.fail(err)
}

func (g *gui) openDialog() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			g.fail(err)
			return
		}
		r.Close()
		g.load(context.Background(), r.URI().Path())
	}, g.window)
	d.SetFilter(storage.NewExtensionFileFilter(mesh.SupportedExtensions))
	d.Show()
}

// dropped imports annotation documents and opens model files
func (g *gui) dropped(_ fyne.Position, uris []fyne.URI) {
	for _, u := range uris {
		ext := strings.ToLower(u.Extension())
		switch {
		case ext == ".json":
			g.importFrom(u.Path())
			return
		case slices.Contains(mesh.SupportedExtensions, ext):
			g.load(context.Background(), u.Path())
			return
		}
	}
}
