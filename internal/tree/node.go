// Package tree provides the generic labeled tree used for both parsed
// markup documents and synthesized column hierarchies, plus the traversal
// operations (flatten, search, stats) shared by both.
//
// The node type is deliberately domain-agnostic: how paths are assigned
// (positional suffixes for repeated markup siblings vs. segment joining
// for column hierarchies) is the builders' business, not this package's.
package tree

// Node is a single vertex of a labeled tree.
//
// Label is the tag name for markup trees or the column-name segment for
// synthesized hierarchies. Path is the slash-delimited ancestry identifier
// and is unique within one tree. Value holds trimmed text content; the
// empty string means no value (text is trimmed before storage, so
// whitespace-only text and absent text are equivalent).
type Node struct {
	Label      string            `json:"label"`
	Path       string            `json:"path"`
	Value      string            `json:"value,omitempty"`
	Attributes map[string]string `json:"attributes"`
	Children   []*Node           `json:"children"`
}

// New creates a node with initialized attribute and children collections.
func New(label, path string) *Node {
	return &Node{
		Label:      label,
		Path:       path,
		Attributes: map[string]string{},
		Children:   []*Node{},
	}
}

// AddChild appends c to n's children, preserving insertion order.
func (n *Node) AddChild(c *Node) {
	n.Children = append(n.Children, c)
}

// HasValue reports whether the node carries non-empty text content.
func (n *Node) HasValue() bool {
	return n.Value != ""
}
