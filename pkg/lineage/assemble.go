package lineage

// StatusActive is the status given to the root in its self record.
const StatusActive = "ACTIVE"

// Assemble builds the table for one root: the distance-0 self record
// followed by the traversal edges in order. The self record names the root
// as its source (domain, identity, ACTIVE status), leaves the target side
// null and uses the root as provenance. A root without dependencies still
// yields one row.
func Assemble(root ObjectKey, domain Domain, edges []Edge) Table {
	self := Edge{
		Distance: 0,
		Source:   EndpointOf(root, domain, StatusActive),
		Input:    root,
	}
	rows := make([]Edge, 0, len(edges)+1)
	rows = append(rows, self)
	rows = append(rows, edges...)
	return Table{Rows: rows}
}

// Placeholder returns a table holding a single all-null row. The driver
// returns it when no root produced any rows, so consumers always see at
// least one row.
func Placeholder() Table {
	return Table{Rows: []Edge{{placeholder: true}}}
}
