package menu

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Forest is the ordered collection of root-level nodes.
type Forest []*Node

// Parse decodes a serialized forest.
func Parse(data []byte) (Forest, error) {
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if f == nil {
		f = Forest{}
	}
	return f, nil
}

// Bytes serializes the forest to its persisted JSON form.
func (f Forest) Bytes() ([]byte, error) {
	if f == nil {
		f = Forest{}
	}
	b, err := json.Marshal([]*Node(f))
	if err != nil {
		return nil, fmt.Errorf("encode forest: %w", err)
	}
	return b, nil
}

// Walk visits every node depth-first in display order. The walk stops
// when fn returns false.
func (f Forest) Walk(fn func(n *Node, depth int) bool) {
	walk(f, 0, fn)
}

func walk(list []*Node, depth int, fn func(n *Node, depth int) bool) bool {
	for _, n := range list {
		if !fn(n, depth) {
			return false
		}
		if !walk(n.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// Count returns the total number of nodes in the forest.
func (f Forest) Count() int {
	var c int
	f.Walk(func(*Node, int) bool {
		c++
		return true
	})
	return c
}

// Find returns the first node with the given id in depth-first order, or nil.
func (f Forest) Find(id string) *Node {
	var found *Node
	f.Walk(func(n *Node, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Depth returns the depth of the node with the given id (roots are 0),
// or -1 when the id is not present.
func (f Forest) Depth(id string) int {
	depth := -1
	f.Walk(func(n *Node, d int) bool {
		if n.ID == id {
			depth = d
			return false
		}
		return true
	})
	return depth
}

// Has reports whether any node carries the id.
func (f Forest) Has(id string) bool {
	return f.Find(id) != nil
}

// Clone returns a deep copy of the forest.
func (f Forest) Clone() Forest {
	if f == nil {
		return nil
	}
	out := make(Forest, len(f))
	for i, n := range f {
		out[i] = n.clone()
	}
	return out
}

// location is the sibling sequence holding a node, its index there and its depth.
type location struct {
	list  *[]*Node
	index int
	depth int
}

func (l location) node() *Node {
	return (*l.list)[l.index]
}

// locate finds the first node with id and returns where it lives.
func (f *Forest) locate(id string) (location, bool) {
	return locateIn((*[]*Node)(f), id, 0)
}

func locateIn(list *[]*Node, id string, depth int) (location, bool) {
	for i, n := range *list {
		if n.ID == id {
			return location{list: list, index: i, depth: depth}, true
		}
		if n.Children != nil {
			if loc, ok := locateIn(&n.Children, id, depth+1); ok {
				return loc, true
			}
		}
	}
	return location{}, false
}

// Remove detaches the first node with id, together with its subtree, and
// returns the resulting forest and the removed node.
func (f Forest) Remove(id string) (Forest, *Node, error) {
	loc, ok := f.locate(id)
	if !ok {
		return f, nil, fmt.Errorf("remove %q: %w", id, ErrNodeNotFound)
	}
	n := loc.node()
	*loc.list = slices.Delete(*loc.list, loc.index, loc.index+1)
	return f, n, nil
}

// MoveNode relocates the node nodeID so that it takes the position of destID
// within destID's sibling sequence. The destination index is taken before the
// node is detached, matching the row index a drag library reports.
//
// The receiver is never modified: a moved copy is returned. The boolean is
// false when the move is a no-op (node dropped onto itself).
func (f Forest) MoveNode(nodeID, destID string, sameLevel bool) (Forest, bool, error) {
	out := f.Clone()

	dest, ok := out.locate(destID)
	if !ok {
		return f, false, fmt.Errorf("move destination %q: %w", destID, ErrNodeNotFound)
	}
	src, ok := out.locate(nodeID)
	if !ok {
		return f, false, fmt.Errorf("move %q: %w", nodeID, ErrNodeNotFound)
	}
	if nodeID == destID {
		return f, false, nil
	}

	dragged := src.node()
	if Forest(dragged.Children).Has(destID) {
		return f, false, fmt.Errorf("move %q under %q: %w", nodeID, destID, ErrMoveIntoDescendant)
	}
	if sameLevel && src.depth != dest.depth {
		return f, false, ErrCrossLevelMove
	}

	*src.list = slices.Delete(*src.list, src.index, src.index+1)
	*dest.list = slices.Insert(*dest.list, dest.index, dragged)

	return out, true, nil
}
