package lineage

import (
	"context"
	"sync"
)

// flowGraph is an in-memory lineage oracle. Each flow is a data-flow edge
// "from" feeds "to", given as DB.SCHEMA.NAME strings.
type flowGraph struct {
	flows [][2]string
	fail  map[string]error // object -> error to return

	mu    sync.Mutex
	calls []Request
}

func newFlowGraph(flows ...[2]string) *flowGraph {
	return &flowGraph{flows: flows, fail: map[string]error{}}
}

func (g *flowGraph) Lineage(_ context.Context, req Request) ([]Edge, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()

	if err := g.fail[req.Object.String()]; err != nil {
		return nil, err
	}
	var out []Edge
	for _, f := range g.flows {
		from, to := MustParseObjectKey(f[0]), MustParseObjectKey(f[1])
		if (req.Direction == Upstream && to == req.Object) ||
			(req.Direction == Downstream && from == req.Object) {
			out = append(out, Edge{
				Distance: req.Distance,
				Source:   EndpointOf(from, req.Domain, StatusActive),
				Target:   EndpointOf(to, req.Domain, StatusActive),
				Input:    req.Root,
			})
		}
	}
	return out, nil
}

// callCounts returns the number of lookups per object.
func (g *flowGraph) callCounts() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	counts := map[string]int{}
	for _, c := range g.calls {
		counts[c.Object.String()]++
	}
	return counts
}

func (g *flowGraph) numCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// typeMap classifies objects from a fixed table; anything missing is unknown.
type typeMap map[string]ObjectType

func (m typeMap) Classify(_ context.Context, key ObjectKey) (ObjectType, error) {
	if t, ok := m[key.String()]; ok {
		return t, nil
	}
	return TypeUnknown, nil
}

// edgeNames renders edges as "d:SOURCE>TARGET" for compact comparisons.
func edgeNames(edges []Edge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		src, _ := e.Source.Key()
		dst, _ := e.Target.Key()
		out[i] = string(rune('0'+e.Distance)) + ":" + src.Name + ">" + dst.Name
	}
	return out
}
