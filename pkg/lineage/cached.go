package lineage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/lineagewalk/pkg/cache"
	"github.com/matzehuels/lineagewalk/pkg/observability"
)

// CacheOptions configures the caching wrappers.
type CacheOptions struct {
	Keyer   cache.Keyer   // Key derivation (default: cache.NewDefaultKeyer())
	TTL     time.Duration // Entry lifetime; zero keeps entries until evicted
	Refresh bool          // Skip reads but still write fresh replies
}

func (o CacheOptions) withDefaults() CacheOptions {
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	return o
}

// CachedSource memoizes one-hop lineage replies. Entries are keyed by object,
// domain, direction and distance. Provenance is not part of the key: edges
// read from the cache are re-stamped with the requesting root, so one entry
// serves every root whose traversal reaches the object at that distance.
//
// Cache failures are treated as misses; only the wrapped source can fail a
// lookup.
type CachedSource struct {
	source Source
	cache  cache.Cache
	opts   CacheOptions
}

// NewCachedSource wraps source with c.
func NewCachedSource(source Source, c cache.Cache, opts CacheOptions) *CachedSource {
	return &CachedSource{source: source, cache: c, opts: opts.withDefaults()}
}

// Lineage implements [Source].
func (s *CachedSource) Lineage(ctx context.Context, req Request) ([]Edge, error) {
	key := s.opts.Keyer.LineageKey(req.Object.Qualified(), cache.LineageKeyOpts{
		Domain:    string(req.Domain),
		Direction: string(req.Direction),
		Distance:  req.Distance,
	})

	if !s.opts.Refresh {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var edges []Edge
			if json.Unmarshal(data, &edges) == nil {
				observability.Cache().OnCacheHit(ctx, "lineage")
				for i := range edges {
					edges[i].Input = req.Root
				}
				return edges, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "lineage")
	}

	edges, err := s.source.Lineage(ctx, req)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(edges); err == nil {
		if s.cache.Set(ctx, key, data, s.opts.TTL) == nil {
			observability.Cache().OnCacheSet(ctx, "lineage", len(data))
		}
	}
	return edges, nil
}

// CachedClassifier memoizes object classifications. [TypeUnknown] results
// are not stored so that objects created after a miss are picked up.
type CachedClassifier struct {
	classifier Classifier
	cache      cache.Cache
	opts       CacheOptions
}

// NewCachedClassifier wraps classifier with c.
func NewCachedClassifier(classifier Classifier, c cache.Cache, opts CacheOptions) *CachedClassifier {
	return &CachedClassifier{classifier: classifier, cache: c, opts: opts.withDefaults()}
}

// Classify implements [Classifier].
func (c *CachedClassifier) Classify(ctx context.Context, key ObjectKey) (ObjectType, error) {
	ck := c.opts.Keyer.ClassifyKey(key.Qualified())

	if !c.opts.Refresh {
		if data, ok, err := c.cache.Get(ctx, ck); err == nil && ok && len(data) > 0 {
			observability.Cache().OnCacheHit(ctx, "classify")
			return ObjectType(data), nil
		}
		observability.Cache().OnCacheMiss(ctx, "classify")
	}

	t, err := c.classifier.Classify(ctx, key)
	if err != nil {
		return t, err
	}
	if t != TypeUnknown {
		if c.cache.Set(ctx, ck, []byte(t), c.opts.TTL) == nil {
			observability.Cache().OnCacheSet(ctx, "classify", len(t))
		}
	}
	return t, nil
}

var (
	_ Source     = (*CachedSource)(nil)
	_ Classifier = (*CachedClassifier)(nil)
)
