package lineage

import (
	"encoding/json"
	"strings"

	"github.com/matzehuels/lineagewalk/pkg/errors"
)

// Domain is the object domain tag understood by the lineage oracle.
type Domain string

const (
	DomainTable Domain = "TABLE"
	DomainStage Domain = "STAGE"
)

// ObjectType is the catalog classification of an object.
type ObjectType string

const (
	TypeBaseTable    ObjectType = "BASE TABLE"
	TypeView         ObjectType = "VIEW"
	TypeDynamicTable ObjectType = "DYNAMIC TABLE"
	TypeStage        ObjectType = "STAGE"
	TypeUnknown      ObjectType = "UNKNOWN"
)

// Domain maps an object type to the oracle domain. Tables, views and dynamic
// tables share the TABLE domain. Any other type yields an UNKNOWN_DOMAIN error.
func (t ObjectType) Domain() (Domain, error) {
	switch t {
	case TypeBaseTable, TypeView, TypeDynamicTable:
		return DomainTable, nil
	case TypeStage:
		return DomainStage, nil
	default:
		return "", errors.New(errors.ErrCodeUnknownDomain, "unknown object type: %s", t)
	}
}

// Direction selects which side of the lineage graph is explored.
type Direction string

const (
	// Upstream explores what an object depends on.
	Upstream Direction = "UPSTREAM"
	// Downstream explores what depends on an object.
	Downstream Direction = "DOWNSTREAM"
)

// ParseDirection parses a direction case-insensitively. An empty string
// yields [Upstream].
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Upstream):
		return Upstream, nil
	case string(Downstream):
		return Downstream, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid direction %q (want UPSTREAM or DOWNSTREAM)", s)
	}
}

// Endpoint is one side of a lineage edge. Nil fields are nulls.
type Endpoint struct {
	Domain   *string
	Database *string
	Schema   *string
	Name     *string
	Status   *string
}

// Key returns the endpoint identity. ok is false when any identity part is
// missing, which happens for the null side of the synthetic self record.
func (e Endpoint) Key() (ObjectKey, bool) {
	if e.Database == nil || e.Schema == nil || e.Name == nil {
		return ObjectKey{}, false
	}
	return ObjectKey{Database: *e.Database, Schema: *e.Schema, Name: *e.Name}, true
}

// EndpointOf builds a non-null endpoint for key.
func EndpointOf(key ObjectKey, domain Domain, status string) Endpoint {
	return Endpoint{
		Domain:   String(string(domain)),
		Database: String(key.Database),
		Schema:   String(key.Schema),
		Name:     String(key.Name),
		Status:   nullable(status),
	}
}

// Edge is one row of the lineage table: a directed relationship discovered
// at Distance hops from the input object, or the distance-0 self record.
type Edge struct {
	Distance int
	Source   Endpoint
	Target   Endpoint
	Input    ObjectKey

	placeholder bool
}

// NewEdge validates and builds an edge. Distance must be non-negative and the
// input provenance complete.
func NewEdge(distance int, source, target Endpoint, input ObjectKey) (Edge, error) {
	if distance < 0 {
		return Edge{}, errors.New(errors.ErrCodeInvalidInput, "negative distance %d", distance)
	}
	if input.Database == "" || input.Schema == "" || input.Name == "" {
		return Edge{}, errors.New(errors.ErrCodeInvalidInput, "edge without input object")
	}
	return Edge{Distance: distance, Source: source, Target: target, Input: input}, nil
}

// IsPlaceholder reports whether e is the all-null placeholder row.
func (e Edge) IsPlaceholder() bool { return e.placeholder }

// IsSelf reports whether e is the synthetic distance-0 record.
func (e Edge) IsSelf() bool { return !e.placeholder && e.Distance == 0 }

// Next returns the endpoint the traversal continues from. The oracle reports
// edges in data-flow order (source feeds target), so walking downstream
// continues at the target and walking upstream continues at the source.
func (e Edge) Next(dir Direction) (ObjectKey, bool) {
	if dir == Upstream {
		return e.Source.Key()
	}
	return e.Target.Key()
}

// Columns is the fixed output schema, in order.
var Columns = []string{
	"distance",
	"source_object_domain",
	"source_object_database",
	"source_object_schema",
	"source_object_name",
	"source_status",
	"target_object_domain",
	"target_object_database",
	"target_object_schema",
	"target_object_name",
	"target_status",
	"input_database",
	"input_schema",
	"input_object_name",
}

// Values returns the row in [Columns] order. Nulls are nil; distance is an int.
func (e Edge) Values() []any {
	r := e.record()
	out := []any{
		r.Distance,
		r.SourceDomain, r.SourceDatabase, r.SourceSchema, r.SourceName, r.SourceStatus,
		r.TargetDomain, r.TargetDatabase, r.TargetSchema, r.TargetName, r.TargetStatus,
		r.InputDatabase, r.InputSchema, r.InputName,
	}
	for i, v := range out {
		switch p := v.(type) {
		case *int:
			if p == nil {
				out[i] = nil
			} else {
				out[i] = *p
			}
		case *string:
			if p == nil {
				out[i] = nil
			} else {
				out[i] = *p
			}
		}
	}
	return out
}

// record is the wire form of an edge; field order matches Columns.
type record struct {
	Distance       *int    `json:"distance"`
	SourceDomain   *string `json:"source_object_domain"`
	SourceDatabase *string `json:"source_object_database"`
	SourceSchema   *string `json:"source_object_schema"`
	SourceName     *string `json:"source_object_name"`
	SourceStatus   *string `json:"source_status"`
	TargetDomain   *string `json:"target_object_domain"`
	TargetDatabase *string `json:"target_object_database"`
	TargetSchema   *string `json:"target_object_schema"`
	TargetName     *string `json:"target_object_name"`
	TargetStatus   *string `json:"target_status"`
	InputDatabase  *string `json:"input_database"`
	InputSchema    *string `json:"input_schema"`
	InputName      *string `json:"input_object_name"`
}

func (e Edge) record() record {
	if e.placeholder {
		return record{}
	}
	d := e.Distance
	return record{
		Distance:       &d,
		SourceDomain:   e.Source.Domain,
		SourceDatabase: e.Source.Database,
		SourceSchema:   e.Source.Schema,
		SourceName:     e.Source.Name,
		SourceStatus:   e.Source.Status,
		TargetDomain:   e.Target.Domain,
		TargetDatabase: e.Target.Database,
		TargetSchema:   e.Target.Schema,
		TargetName:     e.Target.Name,
		TargetStatus:   e.Target.Status,
		InputDatabase:  String(e.Input.Database),
		InputSchema:    String(e.Input.Schema),
		InputName:      String(e.Input.Name),
	}
}

// MarshalJSON encodes the edge as an object keyed by [Columns].
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.record())
}

// UnmarshalJSON decodes the form written by MarshalJSON. A row whose distance
// is null decodes as the placeholder.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Distance == nil {
		*e = Edge{placeholder: true}
		return nil
	}
	*e = Edge{
		Distance: *r.Distance,
		Source: Endpoint{
			Domain: r.SourceDomain, Database: r.SourceDatabase, Schema: r.SourceSchema,
			Name: r.SourceName, Status: r.SourceStatus,
		},
		Target: Endpoint{
			Domain: r.TargetDomain, Database: r.TargetDatabase, Schema: r.TargetSchema,
			Name: r.TargetName, Status: r.TargetStatus,
		},
		Input: ObjectKey{Database: deref(r.InputDatabase), Schema: deref(r.InputSchema), Name: deref(r.InputName)},
	}
	return nil
}

// Table is a lineage result in the fixed 14-column schema.
type Table struct {
	Rows []Edge
}

// Columns returns the column names of the table.
func (Table) Columns() []string { return Columns }

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// String returns a pointer to s.
func String(s string) *string { return &s }

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
