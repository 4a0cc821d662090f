package crawl

import (
	"image/color"

	"github.com/matzehuels/forcegraph/pkg/physics"
)

// Radius range for fetched pages, in pixels.
const (
	minRadius   = 8
	radiusRange = 20
)

// styleFor sizes and colours a page by its link count relative to the
// best-connected page: small and blue for few links, large and red for many.
func styleFor(degree, highest int, pinned bool) (float64, color.RGBA) {
	score := float64(degree) / float64(max(highest, 1))
	radius := float64(int(radiusRange*score + minRadius))
	if pinned {
		return radius, pinnedColor
	}
	return radius, color.RGBA{
		R: uint8(score * 255),
		B: uint8((1 - score) * 255),
		A: 255,
	}
}

// restyle applies styleFor to n. Called under the engine lock.
func (c *Crawler) restyle(p *page, n *physics.Node) {
	radius, col := styleFor(p.degree, c.highest, p.manualStatic)
	s := &n.Style.Value
	if s.Radius == radius && s.Color == col {
		return
	}
	s.Radius = radius
	s.Color = col
	n.Style.Invalidate()
}

// setFont changes the label colour. Called under the engine lock.
func setFont(n *physics.Node, c color.RGBA) {
	if n.Style.Value.FontColor == c {
		return
	}
	n.Style.Value.FontColor = c
	n.Style.Invalidate()
}
