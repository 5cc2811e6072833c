package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/lineagewalk/pkg/errors"
	"github.com/matzehuels/lineagewalk/pkg/lineage"
)

// ReadJSON decodes a document written by [WriteJSON].
//
// The "columns" array, when present, must match [lineage.Columns] exactly;
// documents from an incompatible schema are rejected with INVALID_FORMAT.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*lineage.Result, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode lineage document")
	}
	if doc.Columns != nil && !slices.Equal(doc.Columns, lineage.Columns) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unexpected columns %v", doc.Columns)
	}
	return &lineage.Result{
		RunID:   doc.RunID,
		Table:   lineage.Table{Rows: doc.Rows},
		Roots:   doc.Roots,
		Skipped: doc.Skipped,
	}, nil
}

// ImportJSON reads a document from the file at path.
func ImportJSON(path string) (*lineage.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
