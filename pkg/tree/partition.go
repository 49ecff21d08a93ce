package tree

import (
	"slices"
	"strconv"
	"strings"
)

// Partition describes how a node splits the tips below it: one sorted tip
// list per child, with the lists themselves sorted lexicographically. Two
// nodes, possibly from different trees over the same tips, are structurally
// equivalent exactly when their partitions are equal.
type Partition [][]NodeID

// Equal reports whether p and q list the same tip sets.
func (p Partition) Equal(q Partition) bool {
	return slices.EqualFunc(p, q, slices.Equal[[]NodeID])
}

// Key returns a canonical string for p, usable as a map key. Equal
// partitions have equal keys.
func (p Partition) Key() string {
	var b strings.Builder
	for i, tips := range p {
		if i > 0 {
			b.WriteByte('|')
		}
		for j, id := range tips {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(id)))
		}
	}
	return b.String()
}

// TipsUnder returns the sorted tip IDs below id. A tip returns itself.
func (t *Tree) TipsUnder(id NodeID) []NodeID {
	var tips []NodeID
	t.collectTips(id, &tips)
	slices.Sort(tips)
	return tips
}

func (t *Tree) collectTips(id NodeID, tips *[]NodeID) {
	if !t.IsInternal(id) {
		*tips = append(*tips, id)
		return
	}
	for _, e := range t.children(id) {
		t.collectTips(e.Child, tips)
	}
}

// Partition returns the partition of the internal node id.
func (t *Tree) Partition(id NodeID) Partition {
	kids := t.children(id)
	p := make(Partition, len(kids))
	for i, e := range kids {
		p[i] = t.TipsUnder(e.Child)
	}
	sortPartition(p)
	return p
}

// Partitions returns the partition of every internal node.
//
// Tip sets are computed once per subtree, bottom-up, so the whole catalog
// costs O(n^2) in the worst case rather than one traversal per node. Tip
// lists are shared between partitions and must not be modified.
func (t *Tree) Partitions() map[NodeID]Partition {
	under := make(map[NodeID][]NodeID, t.Size())
	var tipsOf func(id NodeID) []NodeID
	tipsOf = func(id NodeID) []NodeID {
		if tips, ok := under[id]; ok {
			return tips
		}
		var tips []NodeID
		if t.IsInternal(id) {
			for _, e := range t.children(id) {
				tips = append(tips, tipsOf(e.Child)...)
			}
			slices.Sort(tips)
		} else {
			tips = []NodeID{id}
		}
		under[id] = tips
		return tips
	}

	out := make(map[NodeID]Partition, len(t.nodes))
	for _, id := range t.Internal() {
		kids := t.children(id)
		p := make(Partition, len(kids))
		for i, e := range kids {
			p[i] = tipsOf(e.Child)
		}
		sortPartition(p)
		out[id] = p
	}
	return out
}

func sortPartition(p Partition) {
	slices.SortFunc(p, slices.Compare[[]NodeID])
}
