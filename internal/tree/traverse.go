package tree

import "strings"

// FlatRecord is one row of a flattened tree: the node's identity without
// its children.
type FlatRecord struct {
	Path       string            `json:"path"`
	Label      string            `json:"label"`
	Value      string            `json:"value,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

// Flatten returns every node of the tree as a FlatRecord in pre-order:
// root first, then each child's entire subtree in stored child order.
// The result for a tree of N nodes always has exactly N records.
func Flatten(root *Node) []FlatRecord {
	if root == nil {
		return nil
	}
	return flattenInto(root, make([]FlatRecord, 0, 16))
}

// flattenInto appends root's subtree to acc and returns the extended slice.
// The accumulator is explicit so traversal is a pure function of the tree.
func flattenInto(n *Node, acc []FlatRecord) []FlatRecord {
	acc = append(acc, FlatRecord{
		Path:       n.Path,
		Label:      n.Label,
		Value:      n.Value,
		Attributes: n.Attributes,
	})
	for _, child := range n.Children {
		acc = flattenInto(child, acc)
	}
	return acc
}

// SearchFields selects which node fields substring matching applies to.
type SearchFields struct {
	Label     bool
	Attribute bool
	Value     bool
}

// AllSearchFields enables matching on every field.
func AllSearchFields() SearchFields {
	return SearchFields{Label: true, Attribute: true, Value: true}
}

// Search returns all nodes whose enabled fields contain query,
// case-insensitively, in pre-order. Fields are checked label first, then
// attribute values, then text; the first hit decides the match. An empty
// query matches every node as long as at least one field is enabled.
func Search(root *Node, query string, fields SearchFields) []*Node {
	if root == nil {
		return nil
	}
	return searchInto(root, strings.ToLower(query), fields, nil)
}

func searchInto(n *Node, query string, fields SearchFields, acc []*Node) []*Node {
	if matches(n, query, fields) {
		acc = append(acc, n)
	}
	for _, child := range n.Children {
		acc = searchInto(child, query, fields, acc)
	}
	return acc
}

// matches checks the node's fields in priority order, stopping at the
// first hit. query must already be lowercased.
func matches(n *Node, query string, fields SearchFields) bool {
	if fields.Label && strings.Contains(strings.ToLower(n.Label), query) {
		return true
	}
	if fields.Attribute {
		for _, v := range n.Attributes {
			if strings.Contains(strings.ToLower(v), query) {
				return true
			}
		}
	}
	if fields.Value && n.HasValue() && strings.Contains(strings.ToLower(n.Value), query) {
		return true
	}
	return false
}

// Stats returns the total node count and the maximum depth of the tree.
// The root alone has depth 1; each additional level adds 1.
func Stats(root *Node) (totalNodes, maxDepth int) {
	if root == nil {
		return 0, 0
	}
	totalNodes = 1
	maxDepth = 1
	for _, child := range root.Children {
		childNodes, childDepth := Stats(child)
		totalNodes += childNodes
		if childDepth+1 > maxDepth {
			maxDepth = childDepth + 1
		}
	}
	return totalNodes, maxDepth
}
