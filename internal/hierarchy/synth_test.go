package hierarchy

import (
	"reflect"
	"testing"

	"github.com/datalens/datalens/internal/tabular"
	"github.com/datalens/datalens/internal/tree"
)

func TestSynthesizeSharedPrefix(t *testing.T) {
	root := Synthesize([]string{"a_b_c", "a_b_d"})

	if root.Label != "root" || root.Path != "/root" {
		t.Fatalf("root = %q at %q", root.Label, root.Path)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}

	a := root.Children[0]
	if a.Label != "a" || a.Path != "/a" || len(a.Children) != 1 {
		t.Fatalf("a = %+v", a)
	}

	b := a.Children[0]
	if b.Path != "/a/b" || len(b.Children) != 2 {
		t.Fatalf("b = %+v", b)
	}

	var leaves []string
	for _, leaf := range b.Children {
		leaves = append(leaves, leaf.Label)
		if len(leaf.Children) != 0 {
			t.Errorf("leaf %q has children", leaf.Label)
		}
		if leaf.HasValue() {
			t.Errorf("leaf %q carries value %q, want none", leaf.Label, leaf.Value)
		}
	}
	if !reflect.DeepEqual(leaves, []string{"c", "d"}) {
		t.Errorf("leaves = %v, want [c d]", leaves)
	}
}

func TestSynthesizeNoDelimiter(t *testing.T) {
	root := Synthesize([]string{"plain"})
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}
	if got := root.Children[0]; got.Label != "plain" || got.Path != "/plain" {
		t.Errorf("child = %q at %q, want plain at /plain", got.Label, got.Path)
	}
}

func TestSynthesizeFirstDiscoveryOrder(t *testing.T) {
	root := Synthesize([]string{"b_x", "a_y", "b_z"})

	var order []string
	for _, child := range root.Children {
		order = append(order, child.Label)
	}
	if !reflect.DeepEqual(order, []string{"b", "a"}) {
		t.Errorf("top-level order = %v, want [b a]", order)
	}

	b := root.Children[0]
	var grandchildren []string
	for _, child := range b.Children {
		grandchildren = append(grandchildren, child.Label)
	}
	if !reflect.DeepEqual(grandchildren, []string{"x", "z"}) {
		t.Errorf("b children = %v, want [x z]", grandchildren)
	}
}

func TestSynthesizeSlashInColumnName(t *testing.T) {
	// A column whose name contains a slash is a single segment and must
	// not be folded into a nested column that happens to share the same
	// slash-joined spelling.
	root := Synthesize([]string{"a_b", "a/b"})

	var order []string
	for _, child := range root.Children {
		order = append(order, child.Label)
	}
	if !reflect.DeepEqual(order, []string{"a", "a/b"}) {
		t.Fatalf("top-level children = %v, want [a a/b]", order)
	}

	a := root.Children[0]
	if len(a.Children) != 1 || a.Children[0].Label != "b" {
		t.Errorf("a children = %+v, want single b", a.Children)
	}
	if len(root.Children[1].Children) != 0 {
		t.Errorf("a/b should be a leaf, has %d children", len(root.Children[1].Children))
	}
}

func TestSynthesizeIdempotentAttachment(t *testing.T) {
	// A repeated column name must not duplicate nodes.
	root := Synthesize([]string{"a_b", "a_b"})
	a := root.Children[0]
	if len(root.Children) != 1 || len(a.Children) != 1 {
		t.Errorf("duplicated nodes: root children %d, a children %d", len(root.Children), len(a.Children))
	}
}

func TestSynthesizeEmptyHeaders(t *testing.T) {
	root := Synthesize(nil)
	nodes, depth := tree.Stats(root)
	if nodes != 1 || depth != 1 {
		t.Errorf("Stats = (%d, %d), want bare root", nodes, depth)
	}
}

func TestSynthesizeAggregated(t *testing.T) {
	headers := []string{"person_name", "person_age", "city"}
	rows := []tabular.Row{
		{"person_name": "John", "person_age": "40", "city": "Oslo"},
		{"person_name": "Jane", "person_age": "40", "city": ""},
	}

	root := SynthesizeAggregated(headers, rows)

	person := root.Children[0]
	name := person.Children[0]
	if name.Value != "John, Jane" {
		t.Errorf("name value = %q, want %q", name.Value, "John, Jane")
	}

	age := person.Children[1]
	if age.Value != "40" {
		t.Errorf("age value = %q, want sole distinct %q", age.Value, "40")
	}

	city := root.Children[1]
	if city.Value != "Oslo" {
		t.Errorf("city value = %q, want %q (empty cells skipped)", city.Value, "Oslo")
	}

	// Interior nodes never aggregate.
	if person.HasValue() {
		t.Errorf("interior node carries value %q", person.Value)
	}
}
