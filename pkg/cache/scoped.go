package cache

// ScopedKeyer wraps a Keyer with a prefix. Lineage visibility depends on the
// account and role a query runs as, so the CLI and the server scope keys by
// both:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "acme:ANALYST:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LineageKey generates a prefixed lineage key.
func (k *ScopedKeyer) LineageKey(object string, opts LineageKeyOpts) string {
	return k.prefix + k.inner.LineageKey(object, opts)
}

// ClassifyKey generates a prefixed classification key.
func (k *ScopedKeyer) ClassifyKey(object string) string {
	return k.prefix + k.inner.ClassifyKey(object)
}
