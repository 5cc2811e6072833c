package snowflake

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matzehuels/lineagewalk/pkg/lineage"
)

// Classifier resolves object types from the database's INFORMATION_SCHEMA.
// Tables (including views and dynamic tables listed there) are checked
// first, then views, then stages.
type Classifier struct {
	db   Querier
	opts Options
}

// NewClassifier creates a Classifier over db.
func NewClassifier(db Querier, opts Options) *Classifier {
	return &Classifier{db: db, opts: opts.withDefaults()}
}

// Classify implements [lineage.Classifier]. It returns [lineage.TypeUnknown]
// when no catalog lists the object.
func (c *Classifier) Classify(ctx context.Context, key lineage.ObjectKey) (lineage.ObjectType, error) {
	catalog := lineage.QuoteIdent(key.Database) + ".INFORMATION_SCHEMA"

	tableType, err := c.probe(ctx,
		fmt.Sprintf("SELECT TABLE_TYPE FROM %s.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?", catalog),
		key.Schema, key.Name)
	if err != nil {
		return "", err
	}
	if tableType != "" {
		return lineage.ObjectType(tableType), nil
	}

	found, err := c.probe(ctx,
		fmt.Sprintf("SELECT 'VIEW' FROM %s.VIEWS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?", catalog),
		key.Schema, key.Name)
	if err != nil {
		return "", err
	}
	if found != "" {
		return lineage.TypeView, nil
	}

	found, err = c.probe(ctx,
		fmt.Sprintf("SELECT 'STAGE' FROM %s.STAGES WHERE STAGE_SCHEMA = ? AND STAGE_NAME = ?", catalog),
		key.Schema, key.Name)
	if err != nil {
		return "", err
	}
	if found != "" {
		return lineage.TypeStage, nil
	}
	return lineage.TypeUnknown, nil
}

// probe returns the first column of the first row, or "" when there is none.
func (c *Classifier) probe(ctx context.Context, query string, args ...any) (string, error) {
	var value string
	err := c.opts.Retry.Do(ctx, func() error {
		rows, err := c.db.QueryContext(ctx, query, args...)
		if err != nil {
			return transient(err)
		}
		defer rows.Close()

		value = ""
		if rows.Next() {
			var v sql.NullString
			if err := rows.Scan(&v); err != nil {
				return err
			}
			value = v.String
		}
		return transient(rows.Err())
	})
	if err != nil {
		return "", fmt.Errorf("classify: %w", unwrapRetryable(err))
	}
	return value, nil
}

var _ lineage.Classifier = (*Classifier)(nil)
