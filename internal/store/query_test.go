package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/datalens/datalens/internal/tabular"
)

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    tabular.Row
		wantOK  bool
	}{
		{
			name:    "plain field map",
			payload: `{"a":"1","b":""}`,
			want:    tabular.Row{"a": "1", "b": ""},
			wantOK:  true,
		},
		{
			name:    "empty object",
			payload: `{}`,
			want:    tabular.Row{},
			wantOK:  true,
		},
		{
			name:    "double-encoded object",
			payload: `"{\"a\":\"1\"}"`,
			want:    tabular.Row{"a": "1"},
			wantOK:  true,
		},
		{
			name:    "mixed value types stringified",
			payload: `{"a":1,"b":true,"c":null,"d":"x"}`,
			want:    tabular.Row{"a": "1", "b": "true", "c": "", "d": "x"},
			wantOK:  true,
		},
		{
			name:    "garbage degrades to empty row",
			payload: `not json`,
			want:    tabular.Row{},
			wantOK:  false,
		},
		{
			name:    "double-encoded garbage degrades",
			payload: `"not an object"`,
			want:    tabular.Row{},
			wantOK:  false,
		},
		{
			name:    "json array degrades",
			payload: `[1,2,3]`,
			want:    tabular.Row{},
			wantOK:  false,
		},
		{
			name:    "null becomes empty row",
			payload: `null`,
			want:    tabular.Row{},
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodePayload([]byte(tt.payload))
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("row = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchPredicate(t *testing.T) {
	predicate, args := searchPredicate([]string{"a", "b"}, "jo", 2)

	wantSQL := "(row_data->>$2 ILIKE $3 OR row_data->>$4 ILIKE $5)"
	if predicate != wantSQL {
		t.Errorf("predicate = %q, want %q", predicate, wantSQL)
	}

	wantArgs := []any{"a", "%jo%", "b", "%jo%"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
}

func TestSearchPredicateNoColumns(t *testing.T) {
	predicate, args := searchPredicate(nil, "x", 2)
	if predicate != "TRUE" || args != nil {
		t.Errorf("predicate = %q args = %v, want TRUE and nil", predicate, args)
	}
}

func TestSearchPredicateEmptyQueryMatchesEverything(t *testing.T) {
	_, args := searchPredicate([]string{"a"}, "", 2)
	if args[1] != "%%" {
		t.Errorf("pattern = %v, want %%%% (substring of everything)", args[1])
	}
}

func TestNormalizeRowsCorruptRowDegrades(t *testing.T) {
	raw := []rawRow{
		{index: 0, payload: []byte(`{"a":"1"}`)},
		{index: 1, payload: []byte(`[not a field map]`)},
		{index: 2, payload: []byte(`{"a":"3"}`)},
	}

	rows := normalizeRows(context.Background(), raw)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want one row per input", len(rows))
	}

	if rows[0]["a"] != "1" || rows[2]["a"] != "3" {
		t.Errorf("healthy rows disturbed: %v", rows)
	}
	if len(rows[1]) != 0 {
		t.Errorf("corrupt row = %v, want empty field map", rows[1])
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
