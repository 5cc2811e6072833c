package lineage

import (
	"context"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/matzehuels/lineagewalk/pkg/errors"
)

func TestExtractSingleRootNoDependencies(t *testing.T) {
	x := NewExtractor(typeMap{"DB.S.A": TypeBaseTable}, newFlowGraph())

	res, err := x.Extract(context.Background(), []ObjectKey{rootA}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Table.Len() != 1 {
		t.Fatalf("rows = %d, want 1", res.Table.Len())
	}
	self := res.Table.Rows[0]
	if !self.IsSelf() {
		t.Errorf("row is not the self record: %+v", self)
	}
	if k, _ := self.Source.Key(); k != rootA {
		t.Errorf("self source = %v, want %v", k, rootA)
	}
	if *self.Source.Domain != string(DomainTable) || *self.Source.Status != StatusActive {
		t.Errorf("self source domain/status = %s/%s", *self.Source.Domain, *self.Source.Status)
	}
	if _, ok := self.Target.Key(); ok || self.Target.Domain != nil || self.Target.Status != nil {
		t.Errorf("self target should be null: %+v", self.Target)
	}
	if self.Input != rootA {
		t.Errorf("self input = %v", self.Input)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if len(res.Roots) != 1 || res.Roots[0].Domain != DomainTable || res.Roots[0].Rows != 1 {
		t.Errorf("Roots = %+v", res.Roots)
	}
}

func TestExtractChain(t *testing.T) {
	g := newFlowGraph(
		[2]string{"DB.S.B", "DB.S.A"},
		[2]string{"DB.S.C", "DB.S.B"},
	)
	x := NewExtractor(typeMap{"DB.S.A": TypeView}, g)

	res, err := x.Extract(context.Background(), []ObjectKey{rootA}, Options{Direction: Upstream})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := edgeNames(res.Table.Rows[1:])
	if want := []string{"1:B>A", "2:C>B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
	if res.Table.Rows[0].Distance != 0 {
		t.Error("first row should be the self record")
	}
}

func TestExtractCycleBackToRoot(t *testing.T) {
	g := newFlowGraph(
		[2]string{"DB.S.A", "DB.S.B"},
		[2]string{"DB.S.A", "DB.S.C"},
		[2]string{"DB.S.B", "DB.S.A"},
	)
	x := NewExtractor(typeMap{"DB.S.A": TypeBaseTable}, g)

	res, err := x.Extract(context.Background(), []ObjectKey{rootA}, Options{Direction: Downstream, MaxDistance: 5})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Table.Len() != 4 {
		t.Fatalf("rows = %d, want 4", res.Table.Len())
	}
	if !res.Table.Rows[0].IsSelf() {
		t.Error("first row should be the self record")
	}
	got := edgeNames(res.Table.Rows[1:])
	if want := []string{"1:A>B", "1:A>C", "2:B>A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
	counts := g.callCounts()
	if counts["DB.S.A"] != 1 {
		t.Errorf("A queried %d times, want 1", counts["DB.S.A"])
	}
	if want := map[string]int{"DB.S.A": 1, "DB.S.B": 1, "DB.S.C": 1}; !reflect.DeepEqual(counts, want) {
		t.Errorf("lookups = %v, want %v", counts, want)
	}
}

func TestExtractCancelledReturnsNoResult(t *testing.T) {
	g := newFlowGraph(
		[2]string{"DB.S.B", "DB.S.A"},
		[2]string{"DB.S.C", "DB.S.A"},
		[2]string{"DB.S.D", "DB.S.B"},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := SourceFunc(func(ctx context.Context, req Request) ([]Edge, error) {
		if req.Object.Name == "B" {
			cancel()
		}
		return g.Lineage(ctx, req)
	})
	x := NewExtractor(typeMap{"DB.S.A": TypeBaseTable}, src)

	res, err := x.Extract(ctx, []ObjectKey{rootA}, Options{MaxDistance: 2, Concurrency: 2})
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Error("no partial result should be returned")
	}
}

func TestExtractStageDomain(t *testing.T) {
	stage := MustParseObjectKey("DB.S.LANDING")
	g := newFlowGraph([2]string{"DB.S.LANDING", "DB.S.RAW"})
	var domains []Domain
	src := SourceFunc(func(ctx context.Context, req Request) ([]Edge, error) {
		domains = append(domains, req.Domain)
		return g.Lineage(ctx, req)
	})
	x := NewExtractor(typeMap{"DB.S.LANDING": TypeStage}, src)

	res, err := x.Extract(context.Background(), []ObjectKey{stage}, Options{Direction: Downstream})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if *res.Table.Rows[0].Source.Domain != string(DomainStage) {
		t.Errorf("self domain = %s, want STAGE", *res.Table.Rows[0].Source.Domain)
	}
	for _, d := range domains {
		if d != DomainStage {
			t.Errorf("lookup domain = %s, want STAGE", d)
		}
	}
}

func TestExtractSkipsUnknownDomain(t *testing.T) {
	g := newFlowGraph([2]string{"DB.S.B", "DB.S.A"})
	unknown := MustParseObjectKey("DB.S.MYSTERY")
	x := NewExtractor(typeMap{"DB.S.A": TypeBaseTable}, g)

	res, err := x.Extract(context.Background(), []ObjectKey{unknown, rootA}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Root != unknown {
		t.Fatalf("Skipped = %+v", res.Skipped)
	}
	if res.Skipped[0].Code != string(errors.ErrCodeUnknownDomain) {
		t.Errorf("skip code = %s", res.Skipped[0].Code)
	}
	for _, c := range g.calls {
		if c.Object == unknown {
			t.Error("unknown root should never reach the lineage source")
		}
	}
	if res.Table.Len() != 2 {
		t.Errorf("rows = %d, want 2", res.Table.Len())
	}
}

func TestExtractSkipsClassificationFailure(t *testing.T) {
	cls := ClassifierFunc(func(context.Context, ObjectKey) (ObjectType, error) {
		return "", stderrors.New("permission denied")
	})
	res, err := NewExtractor(cls, newFlowGraph()).Extract(context.Background(), []ObjectKey{rootA}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Code != string(errors.ErrCodeClassificationFailed) {
		t.Errorf("Skipped = %+v", res.Skipped)
	}
	if !res.Table.Rows[0].IsPlaceholder() {
		t.Error("expected placeholder table")
	}
}

func TestExtractPlaceholder(t *testing.T) {
	x := NewExtractor(typeMap{}, newFlowGraph())

	for _, roots := range [][]ObjectKey{nil, {rootA}} {
		res, err := x.Extract(context.Background(), roots, Options{})
		if err != nil {
			t.Fatalf("Extract(%v): %v", roots, err)
		}
		if res.Table.Len() != 1 || !res.Table.Rows[0].IsPlaceholder() {
			t.Fatalf("Extract(%v) table = %+v, want placeholder", roots, res.Table)
		}
		for i, v := range res.Table.Rows[0].Values() {
			if v != nil {
				t.Errorf("placeholder column %s = %v, want null", Columns[i], v)
			}
		}
		if got := len(res.Table.Rows[0].Values()); got != len(Columns) {
			t.Errorf("placeholder has %d columns, want %d", got, len(Columns))
		}
	}
}

func TestExtractLineageFailureFailsBatch(t *testing.T) {
	g := newFlowGraph()
	g.fail["DB.S.B"] = stderrors.New("query timeout")
	x := NewExtractor(typeMap{"DB.S.A": TypeBaseTable, "DB.S.B": TypeBaseTable}, g)

	res, err := x.Extract(context.Background(), []ObjectKey{rootA, MustParseObjectKey("DB.S.B")}, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Error("no partial result should be returned")
	}
	if !errors.Is(err, errors.ErrCodeLineageQuery) {
		t.Errorf("code = %s, want LINEAGE_QUERY", errors.GetCode(err))
	}
}

func TestExtractRejectsInvalidRoot(t *testing.T) {
	x := NewExtractor(typeMap{}, newFlowGraph())
	_, err := x.Extract(context.Background(), []ObjectKey{{Database: "DB", Schema: "", Name: "T"}}, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidIdentifier) {
		t.Errorf("err = %v, want INVALID_IDENTIFIER", err)
	}
}

func TestExtractRootsKeepInputOrder(t *testing.T) {
	var flows [][2]string
	types := typeMap{}
	var roots []ObjectKey
	for _, n := range []string{"R1", "R2", "R3", "R4", "R5"} {
		flows = append(flows, [2]string{"DB.S.UP_" + n, "DB.S." + n})
		types["DB.S."+n] = TypeBaseTable
		roots = append(roots, MustParseObjectKey("DB.S."+n))
	}

	run := func(rootConc int) []string {
		x := NewExtractor(types, newFlowGraph(flows...))
		res, err := x.Extract(context.Background(), roots, Options{RootConcurrency: rootConc})
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		return rowStrings(res.Table)
	}
	seq := run(1)
	par := run(5)
	if !reflect.DeepEqual(seq, par) {
		t.Errorf("parallel roots reordered rows:\n%v\n%v", seq, par)
	}
	if len(seq) != 10 {
		t.Errorf("rows = %d, want 10", len(seq))
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	g := newFlowGraph(
		[2]string{"DB.S.B", "DB.S.A"},
		[2]string{"DB.S.C", "DB.S.B"},
		[2]string{"DB.S.A", "DB.S.C"},
	)
	x := NewExtractor(typeMap{"DB.S.A": TypeBaseTable}, g)

	first, err := x.Extract(context.Background(), []ObjectKey{rootA}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := x.Extract(context.Background(), []ObjectKey{rootA}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rowStrings(first.Table), rowStrings(second.Table)) {
		t.Error("repeated extraction produced different tables")
	}
}

func TestExtractDuplicateRootsExpandIndependently(t *testing.T) {
	g := newFlowGraph([2]string{"DB.S.B", "DB.S.A"})
	x := NewExtractor(typeMap{"DB.S.A": TypeBaseTable}, g)

	res, err := x.Extract(context.Background(), []ObjectKey{rootA, rootA}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Table.Len() != 4 {
		t.Errorf("rows = %d, want 4 (no cross-root dedup)", res.Table.Len())
	}
}
