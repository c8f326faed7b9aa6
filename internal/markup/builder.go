// Package markup parses XML documents into the generic labeled tree.
//
// Every element becomes a tree.Node whose Path encodes its ancestry.
// When several children of one parent share a tag, the second and later
// occurrences get a 1-based positional suffix ("item", "item[2]",
// "item[3]") so paths stay unique across the tree. Text content is
// trimmed; only the text before the first child element counts.
package markup

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/datalens/datalens/internal/tree"
)

// Parse parses one XML document into its root node. Malformed input
// (unbalanced tags, invalid syntax, multiple root elements) fails the
// whole parse; there is no partial-tree recovery.
func Parse(content string) (*tree.Node, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	root, err := findRoot(decoder)
	if err != nil {
		return nil, err
	}

	node, err := buildElement(decoder, root, "", 0)
	if err != nil {
		return nil, err
	}

	if err := expectEOF(decoder); err != nil {
		return nil, err
	}
	return node, nil
}

// findRoot skips prolog tokens (declarations, comments, whitespace) and
// returns the document's root start element.
func findRoot(decoder *xml.Decoder) (xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return xml.StartElement{}, fmt.Errorf("parse xml: document has no root element")
			}
			return xml.StartElement{}, fmt.Errorf("parse xml: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			return t, nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return xml.StartElement{}, fmt.Errorf("parse xml: text outside root element")
			}
		}
	}
}

// expectEOF verifies nothing but trailing whitespace and comments follows
// the root element.
func expectEOF(decoder *xml.Decoder) error {
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("parse xml: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			return fmt.Errorf("parse xml: multiple root elements")
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return fmt.Errorf("parse xml: text after root element")
			}
		case xml.EndElement:
			return fmt.Errorf("parse xml: unexpected end element after root")
		}
	}
}

// buildElement consumes tokens through start's matching end element and
// returns the subtree rooted at it. index is the element's occurrence
// count among same-tag siblings seen so far; occurrences past the first
// get a positional suffix on their path.
func buildElement(decoder *xml.Decoder, start xml.StartElement, parentPath string, index int) (*tree.Node, error) {
	label := start.Name.Local

	path := label
	if parentPath != "" {
		path = parentPath + "/" + label
	}
	if index > 0 {
		path = fmt.Sprintf("%s[%d]", path, index+1)
	}

	node := tree.New(label, path)
	for _, attr := range start.Attr {
		node.Attributes[attr.Name.Local] = attr.Value
	}

	var text strings.Builder
	sawChild := false
	tagCounts := make(map[string]int)

	for {
		token, err := decoder.Token()
		if err != nil {
			// Includes io.EOF before the matching end tag, i.e. an
			// unbalanced document.
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			childIndex := tagCounts[t.Name.Local]
			tagCounts[t.Name.Local]++

			child, err := buildElement(decoder, t, path, childIndex)
			if err != nil {
				return nil, err
			}
			node.AddChild(child)
			sawChild = true

		case xml.CharData:
			// Only text before the first child is element text; text
			// between or after children is layout noise.
			if !sawChild {
				text.Write(t)
			}

		case xml.EndElement:
			node.Value = strings.TrimSpace(text.String())
			return node, nil
		}
	}
}
