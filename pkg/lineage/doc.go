// Package lineage computes the transitive lineage of warehouse objects.
//
// A warehouse exposes a one-hop lineage oracle: given an object it returns
// the objects directly upstream or downstream of it. This package turns that
// oracle into a bounded breadth-first traversal and assembles the result into
// a flat 14-column table.
//
// # Components
//
//   - [Classifier] resolves an object's catalog type, which maps to the oracle
//     [Domain] (TABLE or STAGE).
//   - [Source] is the one-hop oracle.
//   - [Expander] runs the traversal for one root. Each object is queried at
//     most once per root, and no edge beyond Options.MaxDistance is kept.
//   - [Extractor] drives classification and expansion for a batch of roots
//     and unions the per-root tables.
//
// # Usage
//
//	x := lineage.NewExtractor(classifier, source)
//	res, err := x.Extract(ctx, []lineage.ObjectKey{root}, lineage.Options{
//	    Direction:   lineage.Upstream,
//	    MaxDistance: 3,
//	})
//	for _, row := range res.Table.Rows {
//	    fmt.Println(row.Values()...)
//	}
//
// Every root contributes a distance-0 self record followed by its edges in
// discovery order. When no root yields anything the table holds a single
// all-null [Placeholder] row.
package lineage
