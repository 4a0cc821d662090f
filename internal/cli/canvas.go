package cli

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/forcegraph/pkg/interact"
	"github.com/matzehuels/forcegraph/pkg/physics"
	"github.com/matzehuels/forcegraph/pkg/vec"
)

// Terminal cells are treated as cellW×cellH pixel blocks, so the engine's
// pixel radii and the viewport keep their meaning in the terminal.
const (
	cellW = 8
	cellH = 16
)

const (
	glyphNode = '█'
	glyphEdge = '·'
)

// cellToPixel returns the pixel at the centre of a terminal cell.
func cellToPixel(x, y int) image.Point {
	return image.Pt(x*cellW+cellW/2, y*cellH+cellH/2)
}

// pixelToCell returns the cell containing a pixel.
func pixelToCell(p image.Point) image.Point {
	return image.Pt(floorDiv(p.X, cellW), floorDiv(p.Y, cellH))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// sprite is a node copied out of the engine for drawing.
type sprite struct {
	pos    vec.Vec // screen pixels
	radius float64 // pixels
	color  color.RGBA
	label  string // pre-styled label, empty when names are hidden
	width  int    // label width in cells
}

// stroke is an edge copied out of the engine for drawing.
type stroke struct {
	from, to vec.Vec // screen pixels
	color    color.RGBA
}

// scene is one frame's worth of drawing input.
type scene struct {
	sprites []sprite
	strokes []stroke
}

// captureScene copies what is visible under view into a scene while
// holding the engine lock. Labels come from each node's style cache and
// are rebuilt only after the style changed.
func captureScene(e *physics.Engine, view *interact.Viewport, size image.Point, names bool) scene {
	var sc scene
	e.View(func(tx *physics.Tx) {
		for n := range tx.Nodes() {
			from := view.ProjectVec(n.Pos)
			for m, es := range n.Edges() {
				if m == n {
					continue
				}
				// Draw mutual edges once.
				if m.HasEdge(n) && m.Handle() < n.Handle() {
					continue
				}
				sc.strokes = append(sc.strokes, stroke{from: from, to: view.ProjectVec(m.Pos), color: es.Color})
			}

			s := n.Style.Value
			if !view.Visible(n.Pos, s.Radius, size) {
				continue
			}
			sp := sprite{pos: from, radius: s.Radius, color: s.Color}
			if names && s.Name != "" {
				sp.label = n.Style.Get(renderLabel)
				sp.width = lipgloss.Width(s.Name)
			}
			sc.sprites = append(sc.sprites, sp)
		}
	})
	return sc
}

// renderLabel styles a node name with its font colour on its fill colour.
func renderLabel(s physics.Style) string {
	return lipgloss.NewStyle().
		Foreground(hexColor(s.FontColor)).
		Background(hexColor(s.Color)).
		Render(s.Name)
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// cell is one terminal cell. A cell covered by a label to its left has
// covered set and draws nothing.
type cell struct {
	glyph   rune
	color   color.RGBA
	label   string
	covered bool
}

// canvas rasterises scenes into a grid of terminal cells.
type canvas struct {
	cols, rows int
	cells      []cell
	styles     map[color.RGBA]lipgloss.Style
}

func newCanvas(cols, rows int) *canvas {
	return &canvas{
		cols:   cols,
		rows:   rows,
		cells:  make([]cell, cols*rows),
		styles: make(map[color.RGBA]lipgloss.Style),
	}
}

func (c *canvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return nil
	}
	return &c.cells[y*c.cols+x]
}

func (c *canvas) clear() {
	clear(c.cells)
}

// draw paints edges first, then nodes, then labels on top.
func (c *canvas) draw(sc scene) {
	c.clear()
	for _, s := range sc.strokes {
		c.line(s.from, s.to, s.color)
	}
	for _, sp := range sc.sprites {
		c.disc(sp)
	}
	for _, sp := range sc.sprites {
		if sp.label != "" {
			c.text(sp)
		}
	}
}

// line draws a Bresenham line between two pixel positions, clipped to the
// canvas first so far-away endpoints cost nothing.
func (c *canvas) line(from, to vec.Vec, col color.RGBA) {
	p := vec.New(from.X/cellW, from.Y/cellH)
	q := vec.New(to.X/cellW, to.Y/cellH)
	p, q, ok := clip(p, q, float64(c.cols), float64(c.rows))
	if !ok {
		return
	}
	a := image.Pt(int(math.Floor(p.X)), int(math.Floor(p.Y)))
	b := image.Pt(int(math.Floor(q.X)), int(math.Floor(q.Y)))

	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	errv := dx + dy
	x, y := a.X, a.Y
	for {
		if cl := c.at(x, y); cl != nil && cl.glyph == 0 {
			cl.glyph, cl.color = glyphEdge, col
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * errv
		if e2 >= dy {
			errv += dy
			x += sx
		}
		if e2 <= dx {
			errv += dx
			y += sy
		}
	}
}

// clip trims the segment pq to the rectangle [0,w]×[0,h] (Liang-Barsky).
func clip(p, q vec.Vec, w, h float64) (vec.Vec, vec.Vec, bool) {
	d := q.Sub(p)
	t0, t1 := 0.0, 1.0
	for _, edge := range [4][2]float64{
		{-d.X, p.X},
		{d.X, w - p.X},
		{-d.Y, p.Y},
		{d.Y, h - p.Y},
	} {
		den, num := edge[0], edge[1]
		if den == 0 {
			if num < 0 {
				return p, q, false
			}
			continue
		}
		t := num / den
		if den < 0 {
			t0 = max(t0, t)
		} else {
			t1 = min(t1, t)
		}
		if t0 > t1 {
			return p, q, false
		}
	}
	return p.Add(d.Scale(t0)), p.Add(d.Scale(t1)), true
}

// disc fills every cell whose centre lies within the sprite's radius, or
// the centre cell when the disc is smaller than a cell.
func (c *canvas) disc(sp sprite) {
	centre := pixelToCell(sp.pos.Round())
	rx := int(sp.radius)/cellW + 1
	ry := int(sp.radius)/cellH + 1
	filled := false
	for y := centre.Y - ry; y <= centre.Y+ry; y++ {
		for x := centre.X - rx; x <= centre.X+rx; x++ {
			cl := c.at(x, y)
			if cl == nil {
				continue
			}
			if vec.FromPoint(cellToPixel(x, y)).Dist(sp.pos) <= sp.radius {
				cl.glyph, cl.color, cl.label, cl.covered = glyphNode, sp.color, "", false
				filled = true
			}
		}
	}
	if !filled {
		if cl := c.at(centre.X, centre.Y); cl != nil {
			cl.glyph, cl.color = glyphNode, sp.color
		}
	}
}

// text centres the sprite's label on its row. Labels that would run off
// either edge are dropped.
func (c *canvas) text(sp sprite) {
	centre := pixelToCell(sp.pos.Round())
	start := centre.X - sp.width/2
	if start < 0 || start+sp.width > c.cols || centre.Y < 0 || centre.Y >= c.rows {
		return
	}
	for x := start; x < start+sp.width; x++ {
		if cl := c.at(x, centre.Y); cl.covered || cl.label != "" {
			return // overlaps an earlier label
		}
	}
	c.at(start, centre.Y).label = sp.label
	for x := start + 1; x < start+sp.width; x++ {
		c.at(x, centre.Y).covered = true
	}
}

// String renders the grid, batching runs of same-coloured glyphs into one
// styled string.
func (c *canvas) String() string {
	var b strings.Builder
	var run strings.Builder
	for y := range c.rows {
		var runColor color.RGBA
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(c.style(runColor).Render(run.String()))
			run.Reset()
		}
		for x := range c.cols {
			cl := c.at(x, y)
			switch {
			case cl.covered:
			case cl.label != "":
				flush()
				b.WriteString(cl.label)
			case cl.glyph == 0:
				if run.Len() > 0 && runColor != (color.RGBA{}) {
					flush()
				}
				runColor = color.RGBA{}
				run.WriteByte(' ')
			default:
				if run.Len() > 0 && runColor != cl.color {
					flush()
				}
				runColor = cl.color
				run.WriteRune(cl.glyph)
			}
		}
		flush()
		if y < c.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (c *canvas) style(col color.RGBA) lipgloss.Style {
	if col == (color.RGBA{}) {
		return lipgloss.NewStyle()
	}
	s, ok := c.styles[col]
	if !ok {
		s = lipgloss.NewStyle().Foreground(hexColor(col))
		c.styles[col] = s
	}
	return s
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
