package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, for
// example to separate per-skin cache namespaces.
//
// Example usage:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "skin:default:")
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

// DiagramKey generates a prefixed key for rendered drawings.
func (k *ScopedKeyer) DiagramKey(netlistHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(netlistHash, opts)
}
