package viewer

import (
	"image"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
)

// MarkerID identifies a marker placed in a ModelView
type MarkerID uint64

type viewMarker struct {
	position geometry.Vector3
	visible  bool
}

// ModelView is a fyne widget that shades a model in software, draws
// annotation markers and reports pointer interaction to its owner
type ModelView struct {
	widget.BaseWidget

	mu           sync.Mutex
	model        *mesh.Model
	camera       *Camera
	light        *FollowLight
	background   uint8
	status       string
	markerRadius float64
	markers      map[MarkerID]*viewMarker
	nextMarker   MarkerID
	mouse        fyne.Position
	dragStart    *fyne.Position
	isDragging   bool
	size         fyne.Size

	raster     *canvas.Raster
	rasterizer Rasterizer
	anim       *fyne.Animation

	// OnTapped fires on a primary click that was not part of a drag
	OnTapped func(pos, absolute fyne.Position)
	// OnSecondaryTapped fires on a right click
	OnSecondaryTapped func(pos, absolute fyne.Position)
}

// NewModelView creates an empty view; call SetModel once a model is loaded
func NewModelView() *ModelView {
	v := &ModelView{
		camera:       NewCamera(geometry.NewBoundingBox()),
		light:        NewFollowLight(),
		background:   0xdd,
		markerRadius: 0.05,
		markers:      make(map[MarkerID]*viewMarker),
	}
	v.raster = canvas.NewRaster(v.draw)
	v.ExtendBaseWidget(v)
	return v
}

// SetModel replaces the displayed model and refits the camera
func (v *ModelView) SetModel(m *mesh.Model) {
	v.mu.Lock()
	v.model = m
	v.camera = NewCamera(m.BoundingBox())
	if diag := m.BoundingBox().Diagonal(); diag > 0 {
		v.markerRadius = diag * 0.01
	}
	v.mu.Unlock()
	v.Refresh()
}

// SetStatus shows a line of text in the top left corner
func (v *ModelView) SetStatus(text string) {
	v.mu.Lock()
	v.status = text
	v.mu.Unlock()
	v.Refresh()
}

// SetIntensity sets the follow light intensity
func (v *ModelView) SetIntensity(intensity float64) {
	v.mu.Lock()
	v.light.Intensity = intensity
	v.mu.Unlock()
	v.Refresh()
}

// SetAmbient sets the ambient light level
func (v *ModelView) SetAmbient(ambient float64) {
	v.mu.Lock()
	v.light.Ambient = ambient
	v.mu.Unlock()
	v.Refresh()
}

// SetBackground sets the background gray level from a slider value in [0, 1]
func (v *ModelView) SetBackground(value float64) {
	v.mu.Lock()
	v.background = Gray(value)
	v.mu.Unlock()
	v.Refresh()
}

// SetMarkerRadius overrides the world-space marker radius
func (v *ModelView) SetMarkerRadius(radius float64) {
	v.mu.Lock()
	v.markerRadius = radius
	v.mu.Unlock()
	v.Refresh()
}

// AddMarker places a visible marker at position
func (v *ModelView) AddMarker(position geometry.Vector3) MarkerID {
	v.mu.Lock()
	v.nextMarker++
	id := v.nextMarker
	v.markers[id] = &viewMarker{position: position, visible: true}
	v.mu.Unlock()
	v.Refresh()
	return id
}

// RemoveMarker deletes a marker; unknown ids are ignored
func (v *ModelView) RemoveMarker(id MarkerID) {
	v.mu.Lock()
	delete(v.markers, id)
	v.mu.Unlock()
	v.Refresh()
}

// SetMarkerVisible shows or hides a marker
func (v *ModelView) SetMarkerVisible(id MarkerID, visible bool) {
	v.mu.Lock()
	if m, ok := v.markers[id]; ok {
		m.visible = visible
	}
	v.mu.Unlock()
	v.Refresh()
}

// MarkerCount returns the number of markers in the view, hidden ones included
func (v *ModelView) MarkerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.markers)
}

// PickSurface casts a ray through pos against the model
func (v *ModelView) PickSurface(pos fyne.Position) (geometry.Vector3, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	hit, ok := v.model.Raycast(v.rayAt(pos))
	return hit.Point, ok
}

// PickMarker casts a ray through pos against the visible markers only
func (v *ModelView) PickMarker(pos fyne.Position) (MarkerID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ray := v.rayAt(pos)

	var best MarkerID
	bestDist := math.MaxFloat64
	for id, m := range v.markers {
		if !m.visible {
			continue
		}
		if d, ok := ray.IntersectSphere(m.position, v.markerRadius); ok && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, bestDist < math.MaxFloat64
}

func (v *ModelView) rayAt(pos fyne.Position) geometry.Ray {
	w, h := float64(v.size.Width), float64(v.size.Height)
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	return v.camera.Ray(float64(pos.X), float64(pos.Y), w, h)
}

// Start begins the per-frame update that applies orbit damping
func (v *ModelView) Start() {
	if v.anim != nil {
		return
	}
	v.anim = fyne.NewAnimation(time.Second, func(float32) {
		v.mu.Lock()
		moved := v.camera.Update()
		v.mu.Unlock()
		if moved {
			v.raster.Refresh()
		}
	})
	v.anim.RepeatCount = fyne.AnimationRepeatForever
	v.anim.Start()
}

// Stop halts the per-frame update
func (v *ModelView) Stop() {
	if v.anim != nil {
		v.anim.Stop()
		v.anim = nil
	}
}

func (v *ModelView) draw(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	v.mu.Lock()
	defer v.mu.Unlock()

	// The raster may be rendered at a higher pixel density than the widget
	// size, so scale the mouse into raster pixels before building the ray.
	scale := 1.0
	if v.size.Width > 0 {
		scale = float64(w) / float64(v.size.Width)
	}
	mouseRay := v.camera.Ray(float64(v.mouse.X)*scale, float64(v.mouse.Y)*scale, float64(w), float64(h))
	v.light.Update(v.camera.Position, v.camera.Forward(), mouseRay)

	markers := make([]Marker, 0, len(v.markers))
	for _, m := range v.markers {
		if !m.visible {
			continue
		}
		markers = append(markers, Marker{
			Position: m.position,
			Radius:   v.screenRadius(m.position, float64(h)),
		})
	}
	v.rasterizer.Draw(img, v.model, v.camera, v.light, v.background, markers)
	if v.status != "" {
		drawLabel(img, 8, 18, v.status, contrastColor(v.background))
	}
	return img
}

// screenRadius converts the world marker radius to pixels at the marker's depth
func (v *ModelView) screenRadius(p geometry.Vector3, height float64) float64 {
	depth := p.Sub(v.camera.Position).Dot(v.camera.Forward())
	if depth <= 0 {
		return 0
	}
	r := v.markerRadius / (depth * math.Tan(v.camera.FOV/2)) * height / 2
	return math.Max(3, r)
}

// Dragged orbits the camera
func (v *ModelView) Dragged(event *fyne.DragEvent) {
	v.mu.Lock()
	v.camera.Orbit(float64(-event.Dragged.DY)*0.01, float64(-event.Dragged.DX)*0.01)
	v.mouse = event.Position
	v.isDragging = true
	v.mu.Unlock()
	v.Start()
	v.raster.Refresh()
}

// DragEnd handles the end of a drag event
func (v *ModelView) DragEnd() {
	v.mu.Lock()
	v.isDragging = false
	v.mu.Unlock()
}

// Tapped forwards a primary click
func (v *ModelView) Tapped(event *fyne.PointEvent) {
	v.mu.Lock()
	dragging := v.isDragging
	v.mu.Unlock()
	if dragging || v.OnTapped == nil {
		return
	}
	v.OnTapped(event.Position, event.AbsolutePosition)
}

// TappedSecondary forwards a right click
func (v *ModelView) TappedSecondary(event *fyne.PointEvent) {
	if v.OnSecondaryTapped != nil {
		v.OnSecondaryTapped(event.Position, event.AbsolutePosition)
	}
}

// Scrolled zooms the camera
func (v *ModelView) Scrolled(event *fyne.ScrollEvent) {
	v.mu.Lock()
	v.camera.Zoom(-float64(event.Scrolled.DY) * 0.001)
	v.mu.Unlock()
	v.raster.Refresh()
}

// MouseIn implements desktop.Hoverable
func (v *ModelView) MouseIn(event *desktop.MouseEvent) {
	v.MouseMoved(event)
}

// MouseMoved moves the follow light target with the pointer
func (v *ModelView) MouseMoved(event *desktop.MouseEvent) {
	v.mu.Lock()
	v.mouse = event.Position
	v.mu.Unlock()
	v.raster.Refresh()
}

// MouseOut implements desktop.Hoverable
func (v *ModelView) MouseOut() {}

// CreateRenderer creates the renderer for the widget
func (v *ModelView) CreateRenderer() fyne.WidgetRenderer {
	return &modelViewRenderer{view: v}
}

type modelViewRenderer struct {
	view *ModelView
}

func (r *modelViewRenderer) Layout(size fyne.Size) {
	r.view.mu.Lock()
	r.view.size = size
	r.view.mu.Unlock()
	r.view.raster.Resize(size)
}

func (r *modelViewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 400)
}

func (r *modelViewRenderer) Refresh() {
	r.view.raster.Refresh()
}

func (r *modelViewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.view.raster}
}

func (r *modelViewRenderer) Destroy() {
	r.view.Stop()
}
