package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one backend.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "mtxspy:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// DefaultPrefix namespaces every key written by the service.
const DefaultPrefix = "mtxspy:"

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

// GridKey generates a prefixed key for grid caching.
func (k *ScopedKeyer) GridKey(fingerprint string, opts GridKeyOpts) string {
	return k.prefix + k.inner.GridKey(fingerprint, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(gridHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(gridHash, opts)
}
