package ocr

import (
	"reflect"
	"testing"
)

func box() [][]int {
	return [][]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{
			name: "nil result",
			raw:  nil,
			want: []string{},
		},
		{
			name: "single line entry",
			raw:  []any{[]any{box(), []any{"Hello", 0.98}}},
			want: []string{"Hello"},
		},
		{
			name: "page of line entries",
			raw: []any{
				[]any{
					[]any{box(), []any{"Invoice", 0.99}},
					[]any{box(), []any{" Total: 42 ", 0.91}},
					[]any{box(), []any{"Thanks", 0.87}},
				},
			},
			want: []string{"Invoice", "Total: 42", "Thanks"},
		},
		{
			name: "page with two lines",
			raw: []any{
				[]any{
					[]any{box(), []any{"first", 0.9}},
					[]any{box(), []any{"second", 0.9}},
				},
			},
			want: []string{"first", "second"},
		},
		{
			name: "bare text instead of pair",
			raw:  []any{[]any{[]any{box(), "plain"}, []any{box(), "text"}, []any{box(), "here"}}},
			want: []string{"plain", "text", "here"},
		},
		{
			name: "block records",
			raw:  []any{map[string]any{"rec_texts": []any{"A", "", "  B  "}}},
			want: []string{"A", "B"},
		},
		{
			name: "block records keep order across records",
			raw: []any{
				map[string]any{"rec_texts": []string{"one", "two"}, "rec_scores": []float64{0.9, 0.8}},
				map[string]any{"rec_texts": []string{"three"}},
			},
			want: []string{"one", "two", "three"},
		},
		{
			name: "record without rec_texts is skipped",
			raw: []any{
				map[string]any{"texts": []any{"ignored"}},
				map[string]any{"rec_texts": []any{"kept"}},
			},
			want: []string{"kept"},
		},
		{
			name: "top-level record",
			raw:  map[string]any{"rec_texts": []any{"solo"}},
			want: []string{"solo"},
		},
		{
			name: "opaque entries are stringified",
			raw:  []any{"  raw text  ", 42, "   "},
			want: []string{"raw text", "42"},
		},
		{
			name: "nil page is skipped",
			raw:  []any{nil},
			want: []string{},
		},
		{
			name: "non-iterable result",
			raw:  "just a string",
			want: []string{},
		},
		{
			name: "whitespace-only text dropped",
			raw: []any{
				[]any{
					[]any{box(), []any{"   ", 0.5}},
					[]any{box(), []any{"", 0.5}},
					[]any{box(), []any{"ok", 0.5}},
				},
			},
			want: []string{"ok"},
		},
		{
			name: "text-score pair falls back to first item",
			raw:  []any{[]any{[]any{"pair text", 0.7}, []any{"other", 0.6}, []any{"third", 0.5}}},
			want: []string{"pair text", "other", "third"},
		},
		{
			name: "page of exactly two text-score pairs",
			raw:  []any{[]any{[]any{"Name", 0.9}, []any{"Total", 0.8}}},
			want: []string{"Name", "Total"},
		},
		{
			name: "page of two bare-text entries",
			raw:  []any{[]any{[]any{box(), "left"}, []any{box(), "right"}}},
			want: []string{"left", "right"},
		},
		{
			name: "malformed elements are skipped",
			raw: []any{
				[]any{
					[]any{box()},
					42,
					[]any{box(), []any{map[string]any{"x": 1}, 0.1}},
					[]any{box(), []any{"good", 0.9}},
				},
			},
			want: []string{"good"},
		},
		{
			name: "mixed dialects keep input order",
			raw: []any{
				map[string]any{"rec_texts": []any{"block"}},
				[]any{box(), []any{"line", 0.9}},
				"opaque",
			},
			want: []string{"block", "line", "opaque"},
		},
		{
			name: "typed go slices",
			raw: [][]any{
				{[4][2]int{}, [2]any{"typed", 0.5}},
			},
			want: []string{"typed"},
		},
		{
			name: "duplicates are preserved",
			raw:  []any{map[string]any{"rec_texts": []any{"x", "x"}}},
			want: []string{"x", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if got == nil {
				t.Fatalf("Normalize() returned nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Dialect
	}{
		{"nil", nil, DialectNone},
		{"empty list", []any{}, DialectNone},
		{"lines", []any{[]any{box(), []any{"a", 1.0}}}, DialectLineEntries},
		{"records", []any{map[string]any{"rec_texts": []any{"a"}}}, DialectBlockRecords},
		{"opaque", []any{"a", 3}, DialectOpaque},
		{"mixed", []any{"a", map[string]any{}}, DialectMixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDialect(tt.raw); got != tt.want {
				t.Fatalf("DetectDialect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyVariants(t *testing.T) {
	entries, ok := Classify([]any{
		map[string]any{"rec_texts": []any{"a"}},
		map[string]any{"other": 1},
		[]any{"x"},
		7,
	})
	if !ok {
		t.Fatalf("Classify() reported non-iterable input")
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if rec, ok := entries[0].(BlockRecord); !ok || !rec.HasTexts || len(rec.Texts) != 1 {
		t.Fatalf("entry 0: unexpected %#v", entries[0])
	}
	if rec, ok := entries[1].(BlockRecord); !ok || rec.HasTexts {
		t.Fatalf("entry 1: unexpected %#v", entries[1])
	}
	if _, ok := entries[2].(LineGroup); !ok {
		t.Fatalf("entry 2: unexpected %#v", entries[2])
	}
	if _, ok := entries[3].(OpaqueEntry); !ok {
		t.Fatalf("entry 3: unexpected %#v", entries[3])
	}
}
