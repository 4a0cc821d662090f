package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/physics"
)

// DefaultScale is the number of points per world unit.
const DefaultScale = 10.0

// Options configures DOT generation.
type Options struct {
	// Scale converts world units to points. Zero means DefaultScale.
	Scale float64
	// HideLabels drops node names from the drawing.
	HideLabels bool
}

// ToDOT converts a snapshot to Graphviz DOT with every node pinned at its
// simulated position. Nodes without a position are left to neato.
func ToDOT(g graph.Graph, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"black\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, penwidth=0, fontsize=10];\n")
	buf.WriteString("  edge [arrowsize=0.5];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, scale, opts.HideLabels), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, scale float64, hideLabels bool) []string {
	label := n.DisplayLabel()
	if hideLabels {
		label = ""
	}
	radius := n.Radius
	if radius <= 0 {
		radius = physics.DefaultRadius
	}
	fill := n.Color
	if fill == "" {
		fill = graph.FormatColor(physics.DefaultNodeColor)
	}
	font := n.FontColor
	if font == "" {
		font = graph.FormatColor(physics.DefaultFontColor)
	}

	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("width=%s", fmtFloat(2*radius/72)),
		fmt.Sprintf("fillcolor=%q", fill),
		fmt.Sprintf("fontcolor=%q", font),
	}
	if n.Pos != nil {
		x, y := n.Pos.X*scale, n.Pos.Y*scale
		if y != 0 {
			y = -y
		}
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(x), fmtFloat(y)))
	}
	if n.Static {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []string {
	col := e.Color
	if col == "" {
		col = graph.FormatColor(physics.DefaultEdgeColor)
	}
	thickness := e.Thickness
	if thickness <= 0 {
		thickness = physics.DefaultEdgeThickness
	}
	attrs := []string{
		fmt.Sprintf("color=%q", col),
		fmt.Sprintf("penwidth=%s", fmtFloat(thickness*10)),
	}
	if !e.OneWay {
		attrs = append(attrs, "dir=none")
	}
	return attrs
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// RenderSVG renders DOT to SVG with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed pt sizing with a viewBox so
// the SVG scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
