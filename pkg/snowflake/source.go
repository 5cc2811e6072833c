package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/matzehuels/lineagewalk/pkg/lineage"
)

// Source queries SNOWFLAKE.CORE.GET_LINEAGE one hop at a time. Each reply
// row is tagged with the requested distance and the requesting root.
type Source struct {
	db   Querier
	opts Options
}

// NewSource creates a Source over db.
func NewSource(db Querier, opts Options) *Source {
	return &Source{db: db, opts: opts.withDefaults()}
}

// LineageQuery renders the oracle call for req.
func LineageQuery(req lineage.Request) string {
	return fmt.Sprintf(`SELECT %d AS DISTANCE,
  SOURCE_OBJECT_DOMAIN, SOURCE_OBJECT_DATABASE, SOURCE_OBJECT_SCHEMA, SOURCE_OBJECT_NAME, SOURCE_STATUS,
  TARGET_OBJECT_DOMAIN, TARGET_OBJECT_DATABASE, TARGET_OBJECT_SCHEMA, TARGET_OBJECT_NAME, TARGET_STATUS
FROM TABLE(SNOWFLAKE.CORE.GET_LINEAGE(%s, %s, %s, 1))`,
		req.Distance,
		quoteLiteral(req.Object.Qualified()),
		quoteLiteral(string(req.Domain)),
		quoteLiteral(strings.ToUpper(string(req.Direction))),
	)
}

// Lineage implements [lineage.Source].
func (s *Source) Lineage(ctx context.Context, req lineage.Request) ([]lineage.Edge, error) {
	query := LineageQuery(req)

	var edges []lineage.Edge
	err := s.opts.Retry.Do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return transient(err)
		}
		defer rows.Close()

		edges = edges[:0]
		for rows.Next() {
			e, err := scanEdge(rows)
			if err != nil {
				return err
			}
			e.Input = req.Root
			edges = append(edges, e)
		}
		return transient(rows.Err())
	})
	if err != nil {
		return nil, fmt.Errorf("get_lineage %s: %w", req.Object, unwrapRetryable(err))
	}
	return edges, nil
}

func scanEdge(rows *sql.Rows) (lineage.Edge, error) {
	var (
		distance int
		cols     [10]sql.NullString
	)
	dest := []any{&distance}
	for i := range cols {
		dest = append(dest, &cols[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return lineage.Edge{}, err
	}
	return lineage.Edge{
		Distance: distance,
		Source: lineage.Endpoint{
			Domain: ptr(cols[0]), Database: ptr(cols[1]), Schema: ptr(cols[2]), Name: ptr(cols[3]), Status: ptr(cols[4]),
		},
		Target: lineage.Endpoint{
			Domain: ptr(cols[5]), Database: ptr(cols[6]), Schema: ptr(cols[7]), Name: ptr(cols[8]), Status: ptr(cols[9]),
		},
	}, nil
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return lineage.String(ns.String)
}

var _ lineage.Source = (*Source)(nil)
