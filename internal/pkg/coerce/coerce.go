// Package coerce holds total conversion helpers for loosely-typed upstream
// payloads. Every function has a documented fallback and never panics.
package coerce

import (
	"strconv"
	"strings"
)

// ToInt64 converts any JSON-decoded scalar to an int64, returning fallback on
// anything unparseable.
func ToInt64(value any, fallback int64) int64 {
	switch v := value.(type) {
	case nil:
		return fallback
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// ToInt is ToInt64 narrowed to int.
func ToInt(value any, fallback int) int {
	return int(ToInt64(value, int64(fallback)))
}

// ToBool converts mixed scalar types to bool. Strings accept the usual truthy
// spellings; numbers are true when non-zero; everything else is false.
func ToBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y":
			return true
		}
		return false
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return false
	}
}
