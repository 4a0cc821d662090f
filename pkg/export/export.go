package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
)

// Format is an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatDOT, FormatSVG}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch Format(ext) {
	case FormatJSON, FormatDOT, FormatSVG:
		return Format(ext), nil
	case "gv":
		return FormatDOT, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported output extension %q (want .json, .dot or .svg)", filepath.Ext(path))
}

// Write renders g in format f to w.
func Write(ctx context.Context, w io.Writer, g graph.Graph, f Format, opts Options) error {
	switch f {
	case FormatJSON:
		return graph.WriteGraph(g, w)
	case FormatDOT:
		_, err := io.WriteString(w, ToDOT(g, opts))
		return err
	case FormatSVG:
		svg, err := RenderSVG(ctx, ToDOT(g, opts))
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
}

// WriteFile renders g to path in the format its extension names. The file
// is only created once rendering has succeeded.
func WriteFile(ctx context.Context, path string, g graph.Graph, opts Options) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	var buf strings.Builder
	if err := Write(ctx, &buf, g, f, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
