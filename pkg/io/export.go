package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/matzehuels/lineagewalk/pkg/errors"
	"github.com/matzehuels/lineagewalk/pkg/lineage"
)

// Tabular output formats.
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Null is how table and markdown output print a null value.
const Null = "NULL"

type document struct {
	RunID   string               `json:"run_id,omitempty"`
	Columns []string             `json:"columns"`
	Rows    []lineage.Edge       `json:"rows"`
	Roots   []lineage.RootResult `json:"roots,omitempty"`
	Skipped []lineage.Skip       `json:"skipped,omitempty"`
}

// Write renders res in format. Graph formats (dot, svg) are handled by the
// render packages and are rejected here.
func Write(w io.Writer, res *lineage.Result, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatTable, FormatCSV, FormatMarkdown:
		return WriteTable(w, res.Table, format)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported tabular format %q", format)
	}
}

// WriteTable renders the rows of t with go-pretty.
func WriteTable(w io.Writer, t lineage.Table, format string) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)

	header := make(table.Row, len(lineage.Columns))
	for i, c := range lineage.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	null := Null
	if format == FormatCSV {
		null = ""
	}
	for _, e := range t.Rows {
		vals := e.Values()
		row := make(table.Row, len(vals))
		for i, v := range vals {
			if v == nil {
				row[i] = null
			} else {
				row[i] = v
			}
		}
		tw.AppendRow(row)
	}

	switch format {
	case FormatTable:
		tw.Render()
		_, err := fmt.Fprintf(w, "(%d rows)\n", t.Len())
		return err
	case FormatCSV:
		tw.RenderCSV()
	case FormatMarkdown:
		tw.RenderMarkdown()
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported tabular format %q", format)
	}
	return nil
}

// WriteJSON encodes res as an indented JSON document.
// The output can be re-imported with [ReadJSON].
func WriteJSON(w io.Writer, res *lineage.Result) error {
	doc := document{
		RunID:   res.RunID,
		Columns: lineage.Columns,
		Rows:    res.Table.Rows,
		Roots:   res.Roots,
		Skipped: res.Skipped,
	}
	if doc.Rows == nil {
		doc.Rows = []lineage.Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Export writes res to a file at path in format.
func Export(res *lineage.Result, path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, res, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
