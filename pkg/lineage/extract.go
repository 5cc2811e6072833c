package lineage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lineagewalk/pkg/errors"
	"github.com/matzehuels/lineagewalk/pkg/observability"
)

// Extractor is the top-level driver: it classifies each root, expands the
// supported ones and unions the per-root tables.
type Extractor struct {
	classifier Classifier
	expander   *Expander
}

// NewExtractor creates an Extractor from the two warehouse collaborators.
func NewExtractor(classifier Classifier, source Source) *Extractor {
	return &Extractor{classifier: classifier, expander: NewExpander(source)}
}

// RootResult describes how one root was processed.
type RootResult struct {
	Root   ObjectKey  `json:"root"`
	Type   ObjectType `json:"type"`
	Domain Domain     `json:"domain,omitempty"`
	Rows   int        `json:"rows"`
	Stats  Stats      `json:"stats"`
}

// Skip records a root excluded from the result.
type Skip struct {
	Root   ObjectKey `json:"root"`
	Reason string    `json:"reason"`
	Code   string    `json:"code,omitempty"`
}

// Result is the consolidated output of an extraction.
type Result struct {
	RunID   string       `json:"run_id"`
	Table   Table        `json:"-"`
	Roots   []RootResult `json:"roots"`
	Skipped []Skip       `json:"skipped,omitempty"`
}

// Extract computes the lineage table for every root.
//
// Roots that cannot be classified into a supported domain are logged and
// listed in Result.Skipped; they never fail the batch. A lineage query
// failure for any root fails the whole call. Tables are unioned in the order
// of roots even when roots run in parallel. When no root yields rows the
// table is [Placeholder].
func (x *Extractor) Extract(ctx context.Context, roots []ObjectKey, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, r := range roots {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID[:8])
	opts.Logger = logger

	var (
		tables  = make([]Table, len(roots))
		results = make([]*RootResult, len(roots))
		skips   = make([]*Skip, len(roots))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.RootConcurrency)
	for i, root := range roots {
		g.Go(func() error {
			res, table, skip, err := x.extractRoot(gctx, root, opts)
			if err != nil {
				return err
			}
			tables[i], results[i], skips[i] = table, res, skip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{RunID: runID}
	var found []Table
	for i := range roots {
		if skips[i] != nil {
			out.Skipped = append(out.Skipped, *skips[i])
			continue
		}
		out.Roots = append(out.Roots, *results[i])
		if tables[i].Len() > 0 {
			found = append(found, tables[i])
		}
	}
	if len(found) == 0 {
		out.Table = Placeholder()
	} else {
		out.Table = UnionRoots(found...)
	}
	return out, nil
}

// extractRoot runs RESOLVING_DOMAIN then EXPANDING for one root. It returns
// a skip instead of an error when the root cannot be classified.
func (x *Extractor) extractRoot(ctx context.Context, root ObjectKey, opts Options) (*RootResult, Table, *Skip, error) {
	logger := opts.Logger.With("root", root.String())

	objType, err := x.classifier.Classify(ctx, root)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Table{}, nil, ctx.Err()
		}
		logger.Warn("classification failed, skipping", "err", err)
		return nil, Table{}, &Skip{
			Root:   root,
			Reason: errors.UserMessage(err),
			Code:   string(errors.ErrCodeClassificationFailed),
		}, nil
	}
	domain, err := objType.Domain()
	if err != nil {
		logger.Warn("unknown object type, skipping", "type", objType)
		return nil, Table{}, &Skip{
			Root:   root,
			Reason: errors.UserMessage(err),
			Code:   string(errors.GetCode(err)),
		}, nil
	}

	logger.Info("expanding lineage", "type", objType, "direction", opts.Direction, "max_distance", opts.MaxDistance)
	observability.Traversal().OnRootStart(ctx, root.String(), string(opts.Direction))
	start := time.Now()

	rootOpts := opts
	rootOpts.Logger = logger
	edges, stats, err := x.expander.Expand(ctx, root, domain, rootOpts)
	if err != nil {
		observability.Traversal().OnRootComplete(ctx, root.String(), 0, time.Since(start), err)
		return nil, Table{}, nil, err
	}

	table := Assemble(root, domain, edges)
	observability.Traversal().OnRootComplete(ctx, root.String(), table.Len(), time.Since(start), nil)
	logger.Info("lineage complete", "edges", stats.Edges, "lookups", stats.Lookups, "rounds", stats.Rounds,
		"duration", stats.Duration.Round(time.Millisecond))

	return &RootResult{
		Root:   root,
		Type:   objType,
		Domain: domain,
		Rows:   table.Len(),
		Stats:  stats,
	}, table, nil, nil
}
