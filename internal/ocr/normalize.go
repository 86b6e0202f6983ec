package ocr

import (
	"fmt"
	"reflect"
	"strings"
)

// RecTextsKey is the record key holding recognized strings in block-record
// results.
const RecTextsKey = "rec_texts"

// Dialect names the shape of a raw engine result.
type Dialect string

const (
	DialectNone         Dialect = "none"
	DialectLineEntries  Dialect = "line_entries"
	DialectBlockRecords Dialect = "block_records"
	DialectOpaque       Dialect = "opaque"
	DialectMixed        Dialect = "mixed"
)

// Entry is one top-level element of a raw result after classification.
// The set of implementations is closed: LineGroup, BlockRecord, OpaqueEntry.
type Entry interface {
	dialect() Dialect
}

// LineGroup is a sequence-shaped entry: either one line entry
// ([box, (text, score)]) or a list of them.
type LineGroup struct {
	Items []any
}

// BlockRecord is a mapping-shaped entry. HasTexts is false when the record
// carries no rec_texts key.
type BlockRecord struct {
	Texts    []any
	HasTexts bool
}

// OpaqueEntry is any other value; it is stringified.
type OpaqueEntry struct {
	Value any
}

func (LineGroup) dialect() Dialect   { return DialectLineEntries }
func (BlockRecord) dialect() Dialect { return DialectBlockRecords }
func (OpaqueEntry) dialect() Dialect { return DialectOpaque }

// Classify splits raw into typed entries. It reports false when raw is nil
// or not iterable. A top-level mapping is treated as a single record.
func Classify(raw any) ([]Entry, bool) {
	if raw == nil {
		return nil, false
	}
	if _, ok := asMapping(raw); ok {
		return []Entry{classifyEntry(raw)}, true
	}
	items, ok := asSequence(raw)
	if !ok {
		return nil, false
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, classifyEntry(item))
	}
	return entries, true
}

func classifyEntry(v any) Entry {
	if m, ok := asMapping(v); ok {
		texts, found := m(RecTextsKey)
		if !found {
			return BlockRecord{}
		}
		items, _ := asSequence(texts)
		return BlockRecord{Texts: items, HasTexts: true}
	}
	if items, ok := asSequence(v); ok {
		return LineGroup{Items: items}
	}
	return OpaqueEntry{Value: v}
}

// DetectDialect reports the dialect of raw for diagnostics.
func DetectDialect(raw any) Dialect {
	entries, ok := Classify(raw)
	if !ok || len(entries) == 0 {
		return DialectNone
	}
	d := entries[0].dialect()
	for _, e := range entries[1:] {
		if e.dialect() != d {
			return DialectMixed
		}
	}
	return d
}

// Normalize flattens raw into ordered, trimmed, non-empty lines. It never
// panics: malformed parts are skipped, and an unexpected internal failure
// yields the stringified raw value as the only line.
func Normalize(raw any) (lines []string) {
	defer func() {
		if r := recover(); r != nil {
			lines = []string{fmt.Sprint(raw)}
		}
	}()

	entries, ok := Classify(raw)
	if !ok {
		return []string{}
	}

	lines = make([]string, 0, len(entries))
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}

	for _, entry := range entries {
		switch e := entry.(type) {
		case BlockRecord:
			for _, t := range e.Texts {
				if s, ok := scalarText(t); ok {
					add(s)
				}
			}
		case LineGroup:
			if len(e.Items) == 2 && isBox(e.Items[0]) {
				if text, ok := lineText(e.Items); ok {
					add(text)
					continue
				}
			}
			for _, item := range e.Items {
				if text, ok := elementText(item); ok {
					add(text)
				}
			}
		case OpaqueEntry:
			if e.Value != nil {
				add(fmt.Sprint(e.Value))
			}
		}
	}
	return lines
}

// elementText reads one line entry, falling back to the first item of a
// short sequence. Any panic while reading the element only drops it.
func elementText(v any) (text string, ok bool) {
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()

	items, isSeq := asSequence(v)
	if !isSeq {
		return "", false
	}
	if text, ok := lineText(items); ok {
		return text, true
	}
	if len(items) >= 2 {
		return scalarText(items[0])
	}
	return "", false
}

// lineText extracts the text of a [box, (text, score)] or [box, text] entry.
func lineText(items []any) (string, bool) {
	if len(items) != 2 {
		return "", false
	}
	second := items[1]
	if s, ok := asString(second); ok {
		return s, true
	}
	if pair, ok := asSequence(second); ok && len(pair) >= 1 {
		if s, ok := asString(pair[0]); ok {
			return s, true
		}
	}
	return "", false
}

// isBox reports whether v looks like a polygon: a sequence of point
// sequences. A (text, score) pair never qualifies.
func isBox(v any) bool {
	points, ok := asSequence(v)
	if !ok {
		return false
	}
	for _, p := range points {
		if _, ok := asSequence(p); !ok {
			return false
		}
	}
	return true
}

// scalarText stringifies strings, numbers and booleans; containers and nil
// are rejected.
func scalarText(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if s, ok := asString(v); ok {
		return s, true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v), true
	}
	return "", false
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case nil:
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// asSequence views slices and arrays (other than byte slices) as []any.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []byte, string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, true
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, false
		}
		return asSequence(rv.Elem().Interface())
	}
	return nil, false
}

// asMapping views string-keyed maps as a lookup function.
func asMapping(v any) (func(key string) (any, bool), bool) {
	if m, ok := v.(map[string]any); ok {
		return func(key string) (any, bool) {
			val, found := m[key]
			return val, found
		}, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	return func(key string) (any, bool) {
		val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	}, true
}
