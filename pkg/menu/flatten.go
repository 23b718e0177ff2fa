package menu

import "sort"

// FlatNode is one display row of the tree.
type FlatNode struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Link       string `json:"link,omitempty"`
	Type       string `json:"type,omitempty"`
	Level      int    `json:"level"`
	Expandable bool   `json:"expandable"`
}

func flat(n *Node, level int) FlatNode {
	return FlatNode{
		ID:         n.ID,
		Name:       n.Name,
		Link:       n.Link,
		Type:       n.Type,
		Level:      level,
		Expandable: n.IsContainer(),
	}
}

// Flatten returns every node as a row, depth-first.
func (f Forest) Flatten() []FlatNode {
	rows := make([]FlatNode, 0, len(f))
	f.Walk(func(n *Node, depth int) bool {
		rows = append(rows, flat(n, depth))
		return true
	})
	return rows
}

// Visible returns the rows a tree view shows: depth-first, descending only
// into expanded nodes. Row positions match drop indexes.
func (f Forest) Visible(expanded Expansion) []FlatNode {
	rows := make([]FlatNode, 0, len(f))
	var add func(list []*Node, depth int)
	add = func(list []*Node, depth int) {
		for _, n := range list {
			rows = append(rows, flat(n, depth))
			if expanded.IsExpanded(n.ID) {
				add(n.Children, depth+1)
			}
		}
	}
	add(f, 0)
	return rows
}

// Expansion is the set of node ids shown expanded.
// The zero value is an empty set ready for reads; use NewExpansion before writing.
type Expansion map[string]struct{}

// NewExpansion returns a set holding the given ids.
func NewExpansion(ids ...string) Expansion {
	e := make(Expansion, len(ids))
	for _, id := range ids {
		e[id] = struct{}{}
	}
	return e
}

// IsExpanded reports whether id is expanded.
func (e Expansion) IsExpanded(id string) bool {
	_, ok := e[id]
	return ok
}

// Expand marks id as expanded.
func (e Expansion) Expand(id string) {
	e[id] = struct{}{}
}

// Collapse marks id as collapsed.
func (e Expansion) Collapse(id string) {
	delete(e, id)
}

// Toggle flips id and returns the new state.
func (e Expansion) Toggle(id string) bool {
	if e.IsExpanded(id) {
		e.Collapse(id)
		return false
	}
	e.Expand(id)
	return true
}

// Retain drops ids that no longer name a container in f.
func (e Expansion) Retain(f Forest) {
	for id := range e {
		if n := f.Find(id); n == nil || !n.IsContainer() {
			delete(e, id)
		}
	}
}

// IDs returns the expanded ids in sorted order.
func (e Expansion) IDs() []string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
