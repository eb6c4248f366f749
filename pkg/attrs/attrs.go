// Package attrs reads values back out of slog-style key-value attribute slices.
package attrs

import (
	"fmt"
	"strings"
)

// ExtractString returns the string value stored under key in a
// [key1, value1, key2, value2, ...] slice, or "" when the key is missing or
// its value is not a string.
func ExtractString(attrs []any, key string) string {
	if v, ok := lookup(attrs, key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Summary renders the listed keys that are present as "k=v" pairs, in the
// order the keys are given. Values of any type are formatted with %v.
func Summary(attrs []any, keys ...string) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if v, ok := lookup(attrs, key); ok {
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	return strings.Join(parts, " ")
}

func lookup(attrs []any, key string) (any, bool) {
	for i := 0; i+1 < len(attrs); i += 2 {
		if k, ok := attrs[i].(string); ok && k == key {
			return attrs[i+1], true
		}
	}
	return nil, false
}
