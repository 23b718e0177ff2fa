package menu

import "encoding/json"

// Node represents an individual entry in the menu, which may contain child nodes.
type Node struct {
	// ID is the unique identifier for the node within the forest.
	// Seeded nodes carry positional paths such as "0/0/1".
	ID string `json:"id"`

	// Name is the display label of the node.
	Name string `json:"name"`

	// Link is the URL-like target of the node.
	Link string `json:"link,omitempty"`

	// Type is an optional opaque leaf-type tag.
	Type string `json:"type,omitempty"`

	// Children are the child nodes of this node. A non-nil slice, even an
	// empty one, marks the node as an expandable container.
	Children []*Node `json:"children,omitempty"`
}

// IsContainer reports whether the node can hold children.
func (n *Node) IsContainer() bool {
	return n.Children != nil
}

// clone returns a deep copy of the node, preserving empty vs absent children.
func (n *Node) clone() *Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone()
		}
	}
	return &c
}

// nodeJSON is the wire form of a Node. Children is a pointer so an empty
// container survives as "children": [] while leaves omit the key.
// Filename is only read, it is the label key of legacy browser blobs.
type nodeJSON struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Filename string   `json:"filename,omitempty"`
	Link     string   `json:"link,omitempty"`
	Type     string   `json:"type,omitempty"`
	Children *[]*Node `json:"children,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	w := nodeJSON{
		ID:   n.ID,
		Name: n.Name,
		Link: n.Link,
		Type: n.Type,
	}
	if n.Children != nil {
		children := n.Children
		w.Children = &children
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	n.ID = w.ID
	n.Name = w.Name
	if n.Name == "" {
		n.Name = w.Filename
	}
	n.Link = w.Link
	n.Type = w.Type
	n.Children = nil
	if w.Children != nil {
		n.Children = *w.Children
		if n.Children == nil {
			n.Children = []*Node{}
		}
	}
	return nil
}
