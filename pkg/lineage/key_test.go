package lineage

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/matzehuels/lineagewalk/pkg/errors"
)

func TestParseObjectKey(t *testing.T) {
	tests := []struct {
		in      string
		want    ObjectKey
		wantErr bool
	}{
		{in: "db.sch.orders", want: ObjectKey{"DB", "SCH", "ORDERS"}},
		{in: " Db . Sch . Orders ", want: ObjectKey{"DB", "SCH", "ORDERS"}},
		{in: `DB."MixedCase".t`, want: ObjectKey{"DB", "MixedCase", "T"}},
		{in: `DB.S."a.b"`, want: ObjectKey{"DB", "S", "a.b"}},
		{in: `DB.S."say ""hi"""`, want: ObjectKey{"DB", "S", `say "hi"`}},
		{in: "DB.S", wantErr: true},
		{in: "A.B.C.D", wantErr: true},
		{in: "DB..T", wantErr: true},
		{in: `DB.S."open`, wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseObjectKey(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidIdentifier) {
					t.Errorf("ParseObjectKey(%q) err = %v, want INVALID_IDENTIFIER", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseObjectKey(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseObjectKey(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestObjectKeyQualified(t *testing.T) {
	tests := []struct {
		key  ObjectKey
		want string
	}{
		{ObjectKey{"DB", "S", "T"}, "DB.S.T"},
		{ObjectKey{"DB", "MixedCase", "T$1"}, `DB."MixedCase".T$1`},
		{ObjectKey{"DB", "S", "a.b"}, `DB.S."a.b"`},
		{ObjectKey{"DB", "S", `q"t`}, `DB.S."q""t"`},
		{ObjectKey{"1DB", "S", "T"}, `"1DB".S.T`},
	}
	for _, tt := range tests {
		if got := tt.key.Qualified(); got != tt.want {
			t.Errorf("%+v.Qualified() = %s, want %s", tt.key, got, tt.want)
		}
		back, err := ParseObjectKey(tt.key.Qualified())
		if err != nil || back != tt.key {
			t.Errorf("ParseObjectKey(%s) = %+v, %v; want %+v", tt.key.Qualified(), back, err, tt.key)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"":           Upstream,
		"upstream":   Upstream,
		" UPSTREAM ": Upstream,
		"Downstream": Downstream,
	} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseDirection("both"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseDirection(both) err = %v, want INVALID_INPUT", err)
	}
}

func TestObjectTypeDomain(t *testing.T) {
	for typ, want := range map[ObjectType]Domain{
		TypeBaseTable:    DomainTable,
		TypeView:         DomainTable,
		TypeDynamicTable: DomainTable,
		TypeStage:        DomainStage,
	} {
		got, err := typ.Domain()
		if err != nil || got != want {
			t.Errorf("%s.Domain() = %s, %v; want %s", typ, got, err, want)
		}
	}
	for _, typ := range []ObjectType{TypeUnknown, "EXTERNAL TABLE", ""} {
		if _, err := typ.Domain(); !errors.Is(err, errors.ErrCodeUnknownDomain) {
			t.Errorf("%q.Domain() err = %v, want UNKNOWN_DOMAIN", typ, err)
		}
	}
}

func TestNewEdge(t *testing.T) {
	src := EndpointOf(MustParseObjectKey("DB.S.B"), DomainTable, "ACTIVE")
	dst := EndpointOf(rootA, DomainTable, "")
	e, err := NewEdge(2, src, dst, rootA)
	if err != nil {
		t.Fatalf("NewEdge: %v", err)
	}
	if e.IsSelf() || e.IsPlaceholder() {
		t.Error("regular edge misreported")
	}
	if dst.Status != nil {
		t.Error("empty status should be null")
	}
	if _, err := NewEdge(-1, src, dst, rootA); err == nil {
		t.Error("negative distance should fail")
	}
	if _, err := NewEdge(1, src, dst, ObjectKey{}); err == nil {
		t.Error("missing input should fail")
	}
}

func TestEdgeNext(t *testing.T) {
	b := MustParseObjectKey("DB.S.B")
	e := Edge{Distance: 1, Source: EndpointOf(b, DomainTable, ""), Target: EndpointOf(rootA, DomainTable, "")}

	if k, ok := e.Next(Upstream); !ok || k != b {
		t.Errorf("Next(Upstream) = %v, %v; want %v", k, ok, b)
	}
	if k, ok := e.Next(Downstream); !ok || k != rootA {
		t.Errorf("Next(Downstream) = %v, %v; want %v", k, ok, rootA)
	}
	self := Assemble(rootA, DomainTable, nil).Rows[0]
	if _, ok := self.Next(Downstream); ok {
		t.Error("null target should not yield a key")
	}
}

func TestEdgeJSON(t *testing.T) {
	rows := []Edge{
		Assemble(rootA, DomainTable, nil).Rows[0],
		{Distance: 3, Source: EndpointOf(MustParseObjectKey(`DB.S."x"`), DomainStage, "DELETED"), Target: EndpointOf(rootA, DomainTable, ""), Input: rootA},
		Placeholder().Rows[0],
	}
	data, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back []Edge
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(rows, back) {
		t.Errorf("JSON round trip changed rows:\n%+v\n%+v", rows, back)
	}

	one, err := json.Marshal(rows[1])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(one, &obj); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(obj) != len(Columns) {
		t.Errorf("JSON has %d keys, want %d", len(obj), len(Columns))
	}
	for _, c := range Columns {
		if _, ok := obj[c]; !ok {
			t.Errorf("missing column %s in JSON", c)
		}
	}
	if obj["target_status"] != nil {
		t.Errorf("target_status = %v, want null", obj["target_status"])
	}
}
