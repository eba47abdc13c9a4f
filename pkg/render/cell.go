package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Cells is a terminal-cell Surface used by the TUI host. It cannot express
// gradients, so FillCircle with a gradient paint returns ErrUnsupported and
// the engine steps down to the minimal tier of plain discs and lines, which
// is exactly what a character grid can show. A terminal cell is roughly
// twice as tall as wide; y coordinates are compressed accordingly.
type Cells struct {
	w, h  int
	cells [][]rune
}

var _ Surface = (*Cells)(nil)

// cellAspect compensates for terminal cells being taller than wide.
const cellAspect = 2.0

// NewCells creates a cell surface of the given character grid size. The
// logical drawing size is w by h*cellAspect so circles stay round.
func NewCells(w, h int) *Cells {
	c := &Cells{w: w, h: h}
	c.reset()
	return c
}

func (c *Cells) reset() {
	c.cells = make([][]rune, c.h)
	for y := range c.cells {
		c.cells[y] = make([]rune, c.w)
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

// String returns the drawn grid as newline-joined rows.
func (c *Cells) String() string {
	rows := make([]string, c.h)
	for y, row := range c.cells {
		rows[y] = strings.TrimRight(string(row), " ")
	}
	return strings.Join(rows, "\n")
}

func (c *Cells) Size() (float64, float64) {
	return float64(c.w), float64(c.h) * cellAspect
}

func (c *Cells) set(x, y float64, r rune) {
	cx := int(math.Round(x))
	cy := int(math.Round(y / cellAspect))
	if cx < 0 || cx >= c.w || cy < 0 || cy >= c.h {
		return
	}
	c.cells[cy][cx] = r
}

func (c *Cells) Clear(color.Color) { c.reset() }

func (c *Cells) StrokeLine(x1, y1, x2, y2 float64, s Stroke) {
	steps := int(math.Max(math.Abs(x2-x1), math.Abs(y2-y1)/cellAspect)) + 1
	glyph := '·'
	if len(s.Dash) == 0 {
		glyph = '•'
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.set(x1+(x2-x1)*t, y1+(y2-y1)*t, glyph)
	}
}

func (c *Cells) StrokeCircle(x, y, r float64, s Stroke) {
	points := int(2*math.Pi*r) + 8
	for i := 0; i < points; i++ {
		a := 2 * math.Pi * float64(i) / float64(points)
		c.set(x+r*math.Cos(a), y+r*math.Sin(a), 'o')
	}
}

func (c *Cells) FillCircle(x, y, r float64, p Paint) error {
	if p.Gradient != nil {
		return ErrUnsupported
	}
	for dy := -r; dy <= r; dy += cellAspect {
		span := math.Sqrt(math.Max(0, r*r-dy*dy))
		for dx := -span; dx <= span; dx++ {
			c.set(x+dx, y+dy, '█')
		}
	}
	return nil
}

func (c *Cells) FillPolygon(pts []Point, col color.Color) {
	for i := range pts {
		next := pts[(i+1)%len(pts)]
		c.StrokeLine(pts[i].X, pts[i].Y, next.X, next.Y, Stroke{Color: col, Width: 1})
	}
}

func (c *Cells) DrawText(x, y float64, text string, col color.Color) error {
	start := x - float64(runewidth.StringWidth(text))/2
	offset := 0.0
	for _, r := range text {
		c.set(start+offset, y, r)
		offset += float64(runewidth.RuneWidth(r))
	}
	return nil
}
