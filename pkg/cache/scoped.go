package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. The API server uses it
// to keep its entries apart from CLI runs sharing a Redis instance:
//
//	keyer := cache.NewScopedKeyer(nil, "njtree:api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// TreeKey implements [Keyer].
func (k *ScopedKeyer) TreeKey(alignmentHash string) string {
	return k.prefix + k.inner.TreeKey(alignmentHash)
}

// BootstrapKey implements [Keyer].
func (k *ScopedKeyer) BootstrapKey(alignmentHash string, opts BootstrapKeyOpts) string {
	return k.prefix + k.inner.BootstrapKey(alignmentHash, opts)
}

// RenderKey implements [Keyer].
func (k *ScopedKeyer) RenderKey(treeHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(treeHash, opts)
}
