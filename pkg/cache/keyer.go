package cache

// Keyer derives cache keys. Wrap one with [NewScopedKeyer] to isolate
// namespaces on a shared backend.
type Keyer interface {
	// TreeKey identifies the neighbor-joining tree of an alignment.
	TreeKey(alignmentHash string) string

	// BootstrapKey identifies bootstrap support for an alignment.
	BootstrapKey(alignmentHash string, opts BootstrapKeyOpts) string

	// RenderKey identifies a drawing of a tree.
	RenderKey(treeHash string, opts RenderKeyOpts) string
}

// BootstrapKeyOpts lists the inputs besides the alignment that determine
// bootstrap support. Worker count is deliberately absent: it does not change
// the result.
type BootstrapKeyOpts struct {
	Replicates int    `json:"replicates"`
	Seed       uint64 `json:"seed"`
}

// RenderKeyOpts lists the inputs that determine a drawing.
type RenderKeyOpts struct {
	Format  string `json:"format"`
	Layout  string `json:"layout"`
	Support string `json:"support,omitempty"` // hash of the support values, empty when undrawn
	Lengths bool   `json:"lengths"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// TreeKey implements [Keyer].
func (DefaultKeyer) TreeKey(alignmentHash string) string {
	return "tree:" + alignmentHash
}

// BootstrapKey implements [Keyer].
func (DefaultKeyer) BootstrapKey(alignmentHash string, opts BootstrapKeyOpts) string {
	return hashKey("bootstrap", alignmentHash, opts)
}

// RenderKey implements [Keyer].
func (DefaultKeyer) RenderKey(treeHash string, opts RenderKeyOpts) string {
	return hashKey("render", treeHash, opts)
}

var _ Keyer = DefaultKeyer{}
