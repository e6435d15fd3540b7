package viewer

import (
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/annoview/pkg/geometry"
	"github.com/philipparndt/annoview/pkg/mesh"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ModelColor is the base surface colour before lighting
var ModelColor = color.RGBA{R: 150, G: 155, B: 165, A: 255}

// MarkerColor is the fill colour of annotation markers
var MarkerColor = color.RGBA{R: 230, G: 60, B: 50, A: 255}

// Marker is a point drawn on top of the shaded model
type Marker struct {
	Position geometry.Vector3
	Radius   float64 // Screen radius in pixels
}

// Rasterizer draws a lit model into an image with a depth buffer
type Rasterizer struct {
	zbuffer []float64
}

type projected struct {
	x, y, z float64
}

// Draw renders the model and markers into img
func (r *Rasterizer) Draw(img *image.RGBA, model *mesh.Model, cam *Camera, light *FollowLight, background uint8, markers []Marker) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	bg := color.RGBA{R: background, G: background, B: background, A: 255}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}

	if len(r.zbuffer) != w*h {
		r.zbuffer = make([]float64, w*h)
	}
	for i := range r.zbuffer {
		r.zbuffer[i] = math.MaxFloat64
	}
	if w == 0 || h == 0 {
		return
	}

	if model != nil {
		for _, t := range model.Triangles {
			var pv [3]projected
			visible := true
			for i, v := range [3]geometry.Vector3{t.V1, t.V2, t.V3} {
				x, y, z, ok := cam.Project(v, float64(w), float64(h))
				if !ok {
					visible = false
					break
				}
				pv[i] = projected{x, y, z}
			}
			if !visible {
				continue
			}

			normal := t.CalculateNormal()
			if normal.Dot(cam.Position.Sub(t.Center())) < 0 {
				normal = normal.Negate()
			}
			col := color.RGBA{
				R: light.ShadeByte(ModelColor.R, normal),
				G: light.ShadeByte(ModelColor.G, normal),
				B: light.ShadeByte(ModelColor.B, normal),
				A: 255,
			}
			fillTriangleWithDepth(img, r.zbuffer, pv, col)
		}
	}

	for _, m := range markers {
		x, y, _, ok := cam.Project(m.Position, float64(w), float64(h))
		if !ok {
			continue
		}
		radius := m.Radius
		if radius <= 0 {
			radius = 5
		}
		drawDisc(img, x, y, radius, MarkerColor)
	}
}

// fillTriangleWithDepth fills a triangle with depth testing
func fillTriangleWithDepth(img *image.RGBA, zbuffer []float64, v [3]projected, col color.RGBA) {
	// Sort vertices by Y coordinate (top to bottom)
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}
	if v[1].y > v[2].y {
		v[1], v[2] = v[2], v[1]
	}
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	edges := [3][2]projected{{v[0], v[1]}, {v[1], v[2]}, {v[0], v[2]}}

	for y := int(math.Max(0, math.Ceil(v[0].y))); y <= int(math.Min(float64(bounds.Dy()-1), v[2].y)); y++ {
		fy := float64(y)

		xs := make([]float64, 0, 2)
		zs := make([]float64, 0, 2)
		for _, e := range edges {
			a, b := e[0], e[1]
			if a.y == b.y || fy < a.y || fy > b.y {
				continue
			}
			t := (fy - a.y) / (b.y - a.y)
			xs = append(xs, a.x+t*(b.x-a.x))
			zs = append(zs, a.z+t*(b.z-a.z))
			if len(xs) == 2 {
				break
			}
		}
		if len(xs) < 2 {
			continue
		}

		xStart, xEnd, zStart, zEnd := xs[0], xs[1], zs[0], zs[1]
		if xStart > xEnd {
			xStart, xEnd = xEnd, xStart
			zStart, zEnd = zEnd, zStart
		}

		for x := int(math.Max(0, math.Ceil(xStart))); x <= int(math.Min(float64(width-1), xEnd)); x++ {
			t := 0.0
			if xEnd != xStart {
				t = (float64(x) - xStart) / (xEnd - xStart)
			}
			z := zStart + t*(zEnd-zStart)

			idx := y*width + x
			if z < zbuffer[idx] {
				zbuffer[idx] = z
				img.SetRGBA(bounds.Min.X+x, bounds.Min.Y+y, col)
			}
		}
	}
}

// drawDisc draws a filled circle with a white outline, ignoring depth
func drawDisc(img *image.RGBA, cx, cy, radius float64, col color.RGBA) {
	bounds := img.Bounds()
	outline := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	r2 := radius * radius
	inner := (radius - 1.5) * (radius - 1.5)

	for y := int(cy - radius); y <= int(cy+radius); y++ {
		for x := int(cx - radius); x <= int(cx+radius); x++ {
			p := image.Pt(bounds.Min.X+x, bounds.Min.Y+y)
			if !p.In(bounds) {
				continue
			}
			dx, dy := float64(x)-cx, float64(y)-cy
			d2 := dx*dx + dy*dy
			switch {
			case d2 <= inner:
				img.SetRGBA(p.X, p.Y, col)
			case d2 <= r2:
				img.SetRGBA(p.X, p.Y, outline)
			}
		}
	}
}

// drawLabel writes text with its baseline at (x, y)
func drawLabel(img *image.RGBA, x, y int, text string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(img.Bounds().Min.X+x, img.Bounds().Min.Y+y),
	}
	d.DrawString(text)
}

func contrastColor(background uint8) color.RGBA {
	if background > 127 {
		return color.RGBA{R: 20, G: 20, B: 20, A: 255}
	}
	return color.RGBA{R: 235, G: 235, B: 235, A: 255}
}
