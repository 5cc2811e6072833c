package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	pkgio "github.com/matzehuels/lineagewalk/pkg/io"
	"github.com/matzehuels/lineagewalk/pkg/lineage"
	"github.com/matzehuels/lineagewalk/pkg/render/nodelink"
)

// Graph output formats, handled here rather than in pkg/io.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// writeResult renders res in format to path, or to w when path is empty.
func writeResult(ctx context.Context, w io.Writer, res *lineage.Result, format, path string, detailed bool) error {
	switch format {
	case formatDOT, formatSVG:
		data, err := renderGraph(ctx, res.Table, format, detailed)
		if err != nil {
			return err
		}
		if path == "" {
			_, err = w.Write(data)
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	default:
		if path == "" {
			return pkgio.Write(w, res, format)
		}
		if err := pkgio.Export(res, path, format); err != nil {
			return err
		}
	}
	printFile(path)
	if format == pkgio.FormatJSON {
		printNextStep("Render it", fmt.Sprintf("%s render %s -o lineage.svg", appName, path))
	}
	return nil
}

func renderGraph(ctx context.Context, t lineage.Table, format string, detailed bool) ([]byte, error) {
	dot := nodelink.ToDOT(t, nodelink.Options{Detailed: detailed})
	if format == formatDOT {
		return []byte(dot), nil
	}
	return nodelink.RenderSVG(ctx, dot)
}
