package render

import (
	"fmt"
	"image/color"
	"io"

	svg "github.com/ajstarks/svgo"
)

// Vector is an svgo-backed Surface. SVG output is written immediately, so
// there is no Compositor support; the engine renders it direct.
type Vector struct {
	canvas *svg.SVG
	w, h   int
	grads  int
}

var _ Surface = (*Vector)(nil)

// NewVector starts an SVG document of the given size on w.
func NewVector(out io.Writer, w, h int) *Vector {
	v := &Vector{canvas: svg.New(out), w: w, h: h}
	v.canvas.Start(w, h)
	return v
}

// End closes the SVG document. Call exactly once, after rendering.
func (v *Vector) End() { v.canvas.End() }

func (v *Vector) Size() (float64, float64) { return float64(v.w), float64(v.h) }

func (v *Vector) Clear(bg color.Color) {
	v.canvas.Rect(0, 0, v.w, v.h, fmt.Sprintf("fill:%s", cssColor(bg)))
}

func (v *Vector) StrokeLine(x1, y1, x2, y2 float64, s Stroke) {
	style := fmt.Sprintf("stroke:%s;stroke-width:%.1f;stroke-opacity:%.2f;fill:none",
		cssColor(s.Color), s.Width, alphaOf(s.Color))
	if len(s.Dash) > 0 {
		style += fmt.Sprintf(";stroke-dasharray:%s", dashArray(s.Dash))
	}
	v.canvas.Line(int(x1), int(y1), int(x2), int(y2), style)
}

func (v *Vector) StrokeCircle(x, y, r float64, s Stroke) {
	style := fmt.Sprintf("stroke:%s;stroke-width:%.1f;stroke-opacity:%.2f;fill:none",
		cssColor(s.Color), s.Width, alphaOf(s.Color))
	if len(s.Dash) > 0 {
		style += fmt.Sprintf(";stroke-dasharray:%s", dashArray(s.Dash))
	}
	v.canvas.Circle(int(x), int(y), int(r), style)
}

func (v *Vector) FillCircle(x, y, r float64, p Paint) error {
	if p.Gradient != nil {
		v.grads++
		id := fmt.Sprintf("rg%d", v.grads)
		v.canvas.Def()
		v.canvas.RadialGradient(id, 50, 50, 50, 50, 50, []svg.Offcolor{
			{Offset: 0, Color: cssColor(p.Gradient.Inner), Opacity: 1},
			{Offset: 100, Color: cssColor(p.Gradient.Outer), Opacity: 1},
		})
		v.canvas.DefEnd()
		v.canvas.Circle(int(x), int(y), int(r), fmt.Sprintf("fill:url(#%s)", id))
		return nil
	}
	v.canvas.Circle(int(x), int(y), int(r), fmt.Sprintf("fill:%s", cssColor(p.Solid)))
	return nil
}

func (v *Vector) FillPolygon(pts []Point, c color.Color) {
	xs := make([]int, len(pts))
	ys := make([]int, len(pts))
	for i, p := range pts {
		xs[i] = int(p.X)
		ys[i] = int(p.Y)
	}
	v.canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;fill-opacity:%.2f", cssColor(c), alphaOf(c)))
}

func (v *Vector) DrawText(x, y float64, text string, c color.Color) error {
	v.canvas.Text(int(x), int(y), text,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:middle;dominant-baseline:middle", cssColor(c)))
	return nil
}

func cssColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

func alphaOf(c color.Color) float64 {
	_, _, _, a := c.RGBA()
	return float64(a) / 0xffff
}

func dashArray(dash []float64) string {
	out := ""
	for i, d := range dash {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%.0f", d)
	}
	return out
}
