package differ

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize unwraps a remote value. A non-empty sequence becomes its
// first element and an empty one becomes nil. Pointers are dereferenced.
func Normalize(v any) any {
	switch x := v.(type) {
	case []any:
		if len(x) == 0 {
			return nil
		}
		return x[0]
	case []string:
		if len(x) == 0 {
			return nil
		}
		return x[0]
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

// IsEmptyish reports whether v counts as absent: nil, an empty sequence,
// NaN, a blank string, or one of the strings "None", "nan" and "-".
func IsEmptyish(v any) bool {
	switch x := Normalize(v).(type) {
	case nil:
		return true
	case string:
		if x == "None" || x == "nan" || x == "-" {
			return true
		}
		return strings.TrimSpace(x) == ""
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Canonical renders v for comparison. Sequences are comma-joined and
// every empty-ish value renders as "".
func Canonical(v any) string {
	switch x := v.(type) {
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, Canonical(e))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(x, ",")
	}
	if IsEmptyish(v) {
		return ""
	}
	switch x := Normalize(v).(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Equal reports whether a and b canonicalize to the same value.
func Equal(a, b any) bool {
	return Canonical(a) == Canonical(b)
}

// sendable returns a local value ready for the store: pointers
// dereferenced and NaN replaced with nil.
func sendable(v any) any {
	switch x := v.(type) {
	case *string, *float64, *int:
		v = Normalize(x)
	}
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(x)) {
			return nil
		}
	}
	return v
}
