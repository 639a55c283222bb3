// Package config holds the value conversions shared by the ConfigStore adapters.
// TOML decodes integers as int64 and arrays as []any; settings written at
// runtime arrive as plain Go values. Both shapes are accepted.
package config

import (
	"strconv"
	"strings"
	"time"
)

// AsString returns v as a string, or "".
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsInt returns v as an int, or 0. Whole floats are accepted.
func AsInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return 0
}

// AsFloat64 returns v as a float64, or 0. Integers are widened.
func AsFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// AsBool returns v as a bool, or false.
func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// AsStringSlice returns v as a string slice, or nil. Non-string items are skipped.
func AsStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// AsDuration accepts a duration string, a time.Duration, or whole seconds.
func AsDuration(v any) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(d); err == nil {
			return time.Duration(secs) * time.Second
		}
	case int, int64:
		return time.Duration(AsInt(d)) * time.Second
	}
	return 0
}

// Flatten converts nested tables to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	flatten(out, m, "")
	return out
}

func flatten(out, m map[string]any, prefix string) {
	for key, value := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(out, nested, full)
			continue
		}
		out[full] = value
	}
}

// Nest is the inverse of Flatten, so the file is written as TOML tables.
// A value stored where a table is needed is replaced by the table.
func Nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		table := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := table[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				table[p] = child
			}
			table = child
		}
		leaf := parts[len(parts)-1]
		if _, isTable := table[leaf].(map[string]any); !isTable {
			table[leaf] = value
		}
	}
	return out
}
