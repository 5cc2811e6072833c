package lineage

// Merge concatenates two edge batches. Order is kept (a, then b) and nothing
// is dropped; the result never shares a backing array with a or b.
func Merge(a, b []Edge) []Edge {
	out := make([]Edge, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// UnionRoots concatenates per-root tables in argument order. With no tables
// it returns an empty table that still has the fixed schema.
func UnionRoots(tables ...Table) Table {
	n := 0
	for _, t := range tables {
		n += t.Len()
	}
	rows := make([]Edge, 0, n)
	for _, t := range tables {
		rows = append(rows, t.Rows...)
	}
	return Table{Rows: rows}
}
