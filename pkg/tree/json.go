package tree

import (
	"encoding/json"
	"fmt"
)

type treeJSON struct {
	Labels []string `json:"labels"`
	Edges  []Edge   `json:"edges"`
}

// MarshalJSON encodes the tip labels and the edges in [Tree.Edges] order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(treeJSON{Labels: t.labels, Edges: t.Edges()})
}

// UnmarshalJSON rebuilds a tree from [Tree.MarshalJSON] output and validates
// it.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := New(raw.Labels)
	if err != nil {
		return err
	}

	var order []NodeID
	byParent := make(map[NodeID][]Edge)
	for _, e := range raw.Edges {
		if _, ok := byParent[e.Parent]; !ok {
			order = append(order, e.Parent)
		}
		byParent[e.Parent] = append(byParent[e.Parent], e)
	}
	for _, p := range order {
		if err := built.Join(p, byParent[p]...); err != nil {
			return fmt.Errorf("decode tree: %w", err)
		}
	}
	if err := built.Validate(); err != nil {
		return fmt.Errorf("decode tree: %w", err)
	}
	*t = *built
	return nil
}
