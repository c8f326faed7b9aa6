package tabular

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantHeaders []string
		wantRows    []Row
	}{
		{
			name:        "simple two rows",
			content:     "a,b\n1,2\n3,4",
			wantHeaders: []string{"a", "b"},
			wantRows: []Row{
				{"a": "1", "b": "2"},
				{"a": "3", "b": "4"},
			},
		},
		{
			name:        "header only",
			content:     "a,b,c",
			wantHeaders: []string{"a", "b", "c"},
			wantRows:    []Row{},
		},
		{
			name:        "empty content",
			content:     "",
			wantHeaders: []string{},
			wantRows:    []Row{},
		},
		{
			name:        "short row omits trailing fields",
			content:     "a,b,c\n1",
			wantHeaders: []string{"a", "b", "c"},
			wantRows:    []Row{{"a": "1"}},
		},
		{
			name:        "quoted field with embedded delimiter and newline",
			content:     "a,b\n\"x,y\",\"line1\nline2\"",
			wantHeaders: []string{"a", "b"},
			wantRows:    []Row{{"a": "x,y", "b": "line1\nline2"}},
		},
		{
			name:        "trailing newline ignored",
			content:     "a\n1\n",
			wantHeaders: []string{"a"},
			wantRows:    []Row{{"a": "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, rows, err := Parse(tt.content)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(headers, tt.wantHeaders) {
				t.Errorf("headers = %v, want %v", headers, tt.wantHeaders)
			}
			if !reflect.DeepEqual(rows, tt.wantRows) {
				t.Errorf("rows = %v, want %v", rows, tt.wantRows)
			}
		})
	}
}

func TestParseUnterminatedQuote(t *testing.T) {
	_, _, err := Parse("a,b\n\"unterminated,2")
	if err == nil {
		t.Fatal("Parse() expected error for unterminated quote, got nil")
	}
}
