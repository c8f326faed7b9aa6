// Package hierarchy reconstructs a nested tree from flat, underscore-
// delimited column names ("customer_address_city" becomes customer >
// address > city).
//
// The default policy builds structure only: CSV rows are independent
// records, and attaching row values to a shared tree position would
// silently conflate them. SynthesizeAggregated implements the historical
// value-joining behavior for callers that explicitly ask for it.
package hierarchy

import (
	"strings"

	"github.com/datalens/datalens/internal/tabular"
	"github.com/datalens/datalens/internal/tree"
)

// Delimiter splits a flat column name into hierarchy segments.
const Delimiter = "_"

// SplitSegments returns the ordered hierarchy segments of one column name.
// A name with no delimiter yields a single segment.
func SplitSegments(header string) []string {
	return strings.Split(header, Delimiter)
}

// Synthesize builds the structural tree implied by the given column
// names. Children keep first-discovery order across all columns, repeated
// construction of the same segment path reuses the existing node, and no
// node carries a value.
func Synthesize(headers []string) *tree.Node {
	root := tree.New("root", "/root")
	nodes := make(map[string]*tree.Node)

	for _, header := range headers {
		segments := SplitSegments(header)
		parent := root
		key := ""
		path := ""

		for _, segment := range segments {
			// The shared map is keyed by rejoining segments with the
			// delimiter: the delimiter cannot occur inside a segment, so
			// the key identifies the segment tuple exactly. Joining with
			// any other character would let a segment containing that
			// character collide with a genuinely nested column.
			if key == "" {
				key = segment
			} else {
				key = key + Delimiter + segment
			}
			path = path + "/" + segment

			node, ok := nodes[key]
			if !ok {
				node = tree.New(segment, path)
				nodes[key] = node
				parent.AddChild(node)
			}
			parent = node
		}
	}

	return root
}

// SynthesizeAggregated builds the same structural tree but additionally
// attaches values to leaves, aggregated across all rows of the table:
// the sole distinct non-empty value when there is only one, or the
// distinct values joined with ", " in first-seen row order. This conflates
// independent records per position and exists only for parity with the
// legacy hierarchical export.
func SynthesizeAggregated(headers []string, rows []tabular.Row) *tree.Node {
	root := Synthesize(headers)

	for _, header := range headers {
		segments := SplitSegments(header)
		node := findBySegments(root, segments)
		if node == nil || len(node.Children) > 0 {
			continue
		}

		var distinct []string
		seen := make(map[string]struct{})
		for _, row := range rows {
			value := row[header]
			if value == "" {
				continue
			}
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			distinct = append(distinct, value)
		}
		node.Value = strings.Join(distinct, ", ")
	}

	return root
}

// findBySegments walks the synthesized tree by segment labels.
func findBySegments(root *tree.Node, segments []string) *tree.Node {
	node := root
	for _, segment := range segments {
		var next *tree.Node
		for _, child := range node.Children {
			if child.Label == segment {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}
