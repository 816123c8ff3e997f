package cache

// ScopedKeyer prefixes every key of an inner keyer, so several datasets or
// deployments can share one Redis database:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "flowmap:prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SceneKey implements [Keyer].
func (k *ScopedKeyer) SceneKey(datasetHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(datasetHash, opts)
}

// TopologyKey implements [Keyer].
func (k *ScopedKeyer) TopologyKey(source string) string {
	return k.prefix + k.inner.TopologyKey(source)
}
