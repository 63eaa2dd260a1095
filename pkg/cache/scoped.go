package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments or worlds
// can share one backend.
//
// Example usage:
//
//	// Server instances of one deployment share a namespace
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "worldmap:prod:")
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

// LayoutKey generates a prefixed key for engine output.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// RouteKey generates a prefixed key for routed edges.
func (k *ScopedKeyer) RouteKey(positionsHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(positionsHash, opts)
}

// DocumentKey generates a prefixed key for layout documents.
func (k *ScopedKeyer) DocumentKey(world string) string {
	return k.prefix + k.inner.DocumentKey(world)
}
