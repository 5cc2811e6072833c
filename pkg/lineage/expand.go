package lineage

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lineagewalk/pkg/errors"
	"github.com/matzehuels/lineagewalk/pkg/observability"
)

// Stats summarizes one root traversal.
type Stats struct {
	Rounds   int           `json:"rounds"`   // Rounds that issued at least one lookup
	Lookups  int           `json:"lookups"`  // Calls made to the Source
	Edges    int           `json:"edges"`    // Discovered edges (self record excluded)
	Duration time.Duration `json:"duration"` // Wall time of the traversal
}

// Expander explores lineage breadth-first from a root through a [Source].
type Expander struct {
	source Source
}

// NewExpander creates an Expander backed by source.
func NewExpander(source Source) *Expander {
	return &Expander{source: source}
}

// Expand returns every edge reachable from root within opts.MaxDistance hops
// in opts.Direction, in discovery order.
//
// The root is queried at distance 1. Each following round takes the objects
// the previous round reached, drops those already queried, and queries the
// rest at one hop further than the largest distance the previous round
// reported. Expansion stops when a round returns nothing, the next distance
// would exceed the ceiling, or no unvisited objects remain. Every object is
// passed to the source at most once, so cycles terminate.
//
// A source failure aborts the traversal and is returned as a LINEAGE_QUERY
// error; no partial result is returned. Cancellation is checked before
// every lookup and again before the edges are returned, so a cancelled
// traversal never reports success.
func (x *Expander) Expand(ctx context.Context, root ObjectKey, domain Domain, opts Options) ([]Edge, Stats, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, Stats{}, err
	}
	t := &traversal{
		ctx:     ctx,
		opts:    opts,
		source:  x.source,
		root:    root,
		domain:  domain,
		visited: NewVisited(),
	}
	start := time.Now()
	edges, err := t.run()
	stats := Stats{
		Rounds:   t.rounds,
		Lookups:  int(t.lookups.Load()),
		Edges:    len(edges),
		Duration: time.Since(start),
	}
	if err != nil {
		return nil, stats, err
	}
	return edges, stats, nil
}

// traversal holds the state of one root's expansion. It is never shared
// between roots.
type traversal struct {
	ctx    context.Context
	opts   Options
	source Source
	root   ObjectKey
	domain Domain

	visited *Visited
	edges   []Edge // accumulator
	rounds  int
	lookups atomic.Int64
}

func (t *traversal) run() ([]Edge, error) {
	t.visited.Mark(t.root)
	basis, err := t.lookup(t.ctx, t.root, 1)
	if err != nil {
		return nil, err
	}
	t.rounds = 1

	for len(basis) > 0 {
		t.edges = Merge(t.edges, basis)

		next := maxDistance(basis) + 1
		if next > t.opts.MaxDistance {
			t.opts.Logger.Debug("depth ceiling reached", "root", t.root, "max_distance", t.opts.MaxDistance)
			break
		}
		frontier := t.frontier(basis)
		if len(frontier) == 0 {
			break
		}
		if err := t.ctx.Err(); err != nil {
			return nil, err
		}

		round, err := t.round(frontier, next)
		if err != nil {
			return nil, err
		}
		t.rounds++
		observability.Traversal().OnRound(t.ctx, t.root.String(), next, len(frontier), len(round))
		t.opts.Logger.Debug("round complete", "root", t.root, "distance", next, "frontier", len(frontier), "edges", len(round))
		basis = round
	}
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	return t.edges, nil
}

// frontier lists the not-yet-visited objects reached by basis, in first-seen
// order and without duplicates.
func (t *traversal) frontier(basis []Edge) []ObjectKey {
	seen := make(map[ObjectKey]bool, len(basis))
	var keys []ObjectKey
	for _, e := range basis {
		key, ok := e.Next(t.opts.Direction)
		if !ok || seen[key] || t.visited.Seen(key) {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// round queries every frontier object at distance and returns the combined
// edges in frontier order. Each object is marked visited before its lookup
// is dispatched.
func (t *traversal) round(frontier []ObjectKey, distance int) ([]Edge, error) {
	batches := make([][]Edge, len(frontier))

	if t.opts.Concurrency <= 1 {
		for i, key := range frontier {
			if err := t.ctx.Err(); err != nil {
				return nil, err
			}
			if !t.visited.MarkIfNew(key) {
				continue
			}
			edges, err := t.lookup(t.ctx, key, distance)
			if err != nil {
				return nil, err
			}
			batches[i] = edges
		}
	} else {
		g, ctx := errgroup.WithContext(t.ctx)
		g.SetLimit(t.opts.Concurrency)
		for i, key := range frontier {
			if ctx.Err() != nil {
				break
			}
			if !t.visited.MarkIfNew(key) {
				continue
			}
			g.Go(func() error {
				edges, err := t.lookup(ctx, key, distance)
				if err != nil {
					return err
				}
				batches[i] = edges
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		// A cancelled dispatch loop leaves part of the frontier unqueried.
		if err := t.ctx.Err(); err != nil {
			return nil, err
		}
	}

	var out []Edge
	for _, b := range batches {
		out = append(out, b...)
	}
	return out, nil
}

// lookup asks the source for key's neighbours and checks the reply against
// the distance ceiling.
func (t *traversal) lookup(ctx context.Context, key ObjectKey, distance int) ([]Edge, error) {
	t.lookups.Add(1)
	start := time.Now()
	edges, err := t.source.Lineage(ctx, Request{
		Object:    key,
		Domain:    t.domain,
		Direction: t.opts.Direction,
		Distance:  distance,
		Root:      t.root,
	})
	observability.Traversal().OnLookup(ctx, key.String(), distance, len(edges), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLineageQuery, err, "lineage of %s at distance %d", key, distance)
	}

	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		switch {
		case e.Distance < 1:
			return nil, errors.New(errors.ErrCodeLineageQuery,
				"lineage of %s: oracle returned distance %d", key, e.Distance)
		case e.Distance > t.opts.MaxDistance:
			t.opts.Logger.Debug("dropping edge beyond ceiling", "object", key, "distance", e.Distance)
			continue
		}
		e.Input = t.root
		kept = append(kept, e)
	}
	return kept, nil
}

func maxDistance(edges []Edge) int {
	m := 0
	for _, e := range edges {
		m = max(m, e.Distance)
	}
	return m
}
