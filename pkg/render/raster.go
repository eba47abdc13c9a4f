package render

import (
	"image"
	"image/color"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// Raster is a gg-backed Surface with full Compositor support: each layer
// renders into its own offscreen context and Composite flattens them onto
// the output image in layer order.
type Raster struct {
	w, h    int
	out     *gg.Context
	layers  [layerCount]*gg.Context
	current *gg.Context
}

var _ Compositor = (*Raster)(nil)

// NewRaster creates a raster surface of the given pixel size.
func NewRaster(w, h int) *Raster {
	r := &Raster{w: w, h: h, out: gg.NewContext(w, h)}
	r.out.SetFontFace(basicfont.Face7x13)
	r.current = r.out
	return r
}

// Image returns the composited output image.
func (r *Raster) Image() image.Image { return r.out.Image() }

// SavePNG writes the composited output to path.
func (r *Raster) SavePNG(path string) error { return r.out.SavePNG(path) }

func (r *Raster) Size() (float64, float64) { return float64(r.w), float64(r.h) }

// BeginLayer redirects drawing into the given layer's buffer, clearing it
// to transparent first.
func (r *Raster) BeginLayer(l LayerID) {
	if r.layers[l] == nil {
		r.layers[l] = gg.NewContext(r.w, r.h)
		r.layers[l].SetFontFace(basicfont.Face7x13)
	}
	dc := r.layers[l]
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()
	r.current = dc
}

// Composite flattens retained layer buffers onto the output in order and
// resets the draw target to the output.
func (r *Raster) Composite() error {
	r.current = r.out
	for l := LayerBackground; l < layerCount; l++ {
		if r.layers[l] == nil {
			continue
		}
		r.out.DrawImage(r.layers[l].Image(), 0, 0)
	}
	return nil
}

func (r *Raster) Clear(bg color.Color) {
	r.current.SetColor(bg)
	r.current.Clear()
}

func (r *Raster) StrokeLine(x1, y1, x2, y2 float64, s Stroke) {
	dc := r.current
	dc.SetColor(s.Color)
	dc.SetLineWidth(s.Width)
	dc.SetDash(s.Dash...)
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()
	dc.SetDash()
}

func (r *Raster) StrokeCircle(x, y, rad float64, s Stroke) {
	dc := r.current
	dc.SetColor(s.Color)
	dc.SetLineWidth(s.Width)
	dc.SetDash(s.Dash...)
	dc.DrawCircle(x, y, rad)
	dc.Stroke()
	dc.SetDash()
}

func (r *Raster) FillCircle(x, y, rad float64, p Paint) error {
	dc := r.current
	if p.Gradient != nil {
		grad := gg.NewRadialGradient(x, y, 0, x, y, rad)
		grad.AddColorStop(0, p.Gradient.Inner)
		grad.AddColorStop(1, p.Gradient.Outer)
		dc.SetFillStyle(grad)
	} else {
		dc.SetColor(p.Solid)
	}
	dc.DrawCircle(x, y, rad)
	dc.Fill()
	return nil
}

func (r *Raster) FillPolygon(pts []Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	dc := r.current
	dc.SetColor(c)
	dc.NewSubPath()
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.Fill()
}

func (r *Raster) DrawText(x, y float64, text string, c color.Color) error {
	dc := r.current
	dc.SetColor(c)
	dc.DrawStringAnchored(text, x, y, 0.5, 0.5)
	return nil
}
