package models

import (
	"fmt"
	"strings"
)

// PropertyBag is a read-only snapshot of external record fields for one
// evaluation cycle. Values are scalars or native lists; multi-value fields
// may also arrive as a single string using ";" or "," separators. The bag
// is refreshed wholesale on every fetch, never patched field by field.
type PropertyBag map[string]any

// Lookup returns the value for a field name. The lookup is case-sensitive
// first; when the exact key is absent it falls back to a case-insensitive
// scan, because external schemas do not guarantee field casing. The
// fallback applies to keys only, never to compared values.
func (b PropertyBag) Lookup(name string) (any, bool) {
	if v, ok := b[name]; ok {
		return v, true
	}
	for k, v := range b {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// String returns the field value rendered as a trimmed string, or "" when
// absent or nil.
func (b PropertyBag) String(name string) string {
	v, ok := b.Lookup(name)
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(toString(v))
}

// Bool interprets the field as a boolean flag. Accepts native bools and
// the usual string spellings; anything else is false.
func (b PropertyBag) Bool(name string) bool {
	v, ok := b.Lookup(name)
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "yes"
	default:
		return false
	}
}

// Items resolves the field into its member values for "in" comparisons.
// Resolution order: native list, then ";"-separated, then ","-separated,
// then the whole value as a single item. Every item is trimmed and has
// internal whitespace collapsed, so the three representations of the same
// set compare identically. Absent or empty fields yield no items.
func (b PropertyBag) Items(name string) []string {
	v, ok := b.Lookup(name)
	if !ok || v == nil {
		return nil
	}

	if list, ok := asList(v); ok {
		items := make([]string, 0, len(list))
		for _, item := range list {
			if s := collapseWhitespace(item); s != "" {
				items = append(items, s)
			}
		}
		return items
	}

	raw := strings.TrimSpace(toString(v))
	if raw == "" {
		return nil
	}
	sep := ""
	switch {
	case strings.Contains(raw, ";"):
		sep = ";"
	case strings.Contains(raw, ","):
		sep = ","
	default:
		return []string{collapseWhitespace(raw)}
	}

	parts := strings.Split(raw, sep)
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := collapseWhitespace(part); s != "" {
			items = append(items, s)
		}
	}
	return items
}

// asList normalizes the native list representations a store client may
// hand us.
func asList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, toString(item))
		}
		return items, true
	default:
		return nil, false
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// collapseWhitespace trims the string and folds internal whitespace runs
// into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
