package lineage

import "context"

// Classifier resolves the catalog type of an object.
//
// Implementations return [TypeUnknown] with a nil error when the object is
// not found in any catalog, and a non-nil error only when the catalog itself
// could not be queried.
type Classifier interface {
	Classify(ctx context.Context, key ObjectKey) (ObjectType, error)
}

// Request is one call to the one-hop lineage oracle.
type Request struct {
	Object    ObjectKey // object whose neighbours are requested
	Domain    Domain    // oracle domain tag of the traversal
	Direction Direction // UPSTREAM or DOWNSTREAM
	Distance  int       // hop distance to tag returned edges with
	Root      ObjectKey // input object of the traversal, copied into edge provenance
}

// Source returns the immediate lineage neighbours of one object.
//
// Returned edges are tagged with req.Distance (the expander reads the value
// back rather than assuming it) and carry req.Root as provenance. An empty
// slice means the object has no neighbours in that direction.
//
// Source must be safe for concurrent use when the expander runs with
// Options.Concurrency greater than one.
type Source interface {
	Lineage(ctx context.Context, req Request) ([]Edge, error)
}

// SourceFunc adapts a function to the [Source] interface.
type SourceFunc func(ctx context.Context, req Request) ([]Edge, error)

// Lineage calls f.
func (f SourceFunc) Lineage(ctx context.Context, req Request) ([]Edge, error) { return f(ctx, req) }

// ClassifierFunc adapts a function to the [Classifier] interface.
type ClassifierFunc func(ctx context.Context, key ObjectKey) (ObjectType, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, key ObjectKey) (ObjectType, error) {
	return f(ctx, key)
}
