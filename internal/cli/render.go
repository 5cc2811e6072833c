package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineagewalk/pkg/config"
	"github.com/matzehuels/lineagewalk/pkg/errors"
	pkgio "github.com/matzehuels/lineagewalk/pkg/io"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	format   string // output format
	output   string // output file path (stdout if empty)
	detailed bool   // label nodes and edges with details in graph formats
}

// renderCommand creates the render command. It re-renders a JSON document
// written by "extract -f json" without querying the warehouse.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: formatSVG}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a saved lineage document",
		Long: `Render a lineage document produced by "extract --format json".

Examples:
  lineagewalk render lineage.json -o lineage.svg
  lineagewalk render lineage.json -f dot --detailed
  lineagewalk render lineage.json -f markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(config.Formats, opts.format) {
				return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", opts.format, strings.Join(config.Formats, ", "))
			}
			res, err := pkgio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("loaded document", "file", args[0], "rows", res.Table.Len(), "run_id", res.RunID)
			return writeResult(cmd.Context(), cmd.OutOrStdout(), res, opts.format, opts.output, opts.detailed)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: table, json, csv, markdown, dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label graph nodes and edges with details")

	return cmd
}
