package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeValue folds Go scalars into the record value domain:
// string, int64, float64, bool or nil.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string, int64, float64, bool:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// InferScalar converts text from a textual codec into a typed value. Numbers
// and booleans are only recognised when their canonical form round-trips, so
// "007" stays a string.
func InferScalar(s string) any {
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == s {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// FormatScalar renders a value as text for textual codecs. nil renders as "".
func FormatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ToFloat returns v as a number when it is numeric or numeric text.
func ToFloat(v any) (float64, bool) {
	switch x := NormalizeValue(v).(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ValuesEqual compares two values numerically when both are numeric,
// otherwise by their textual form. nil only equals nil.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := ToFloat(a); ok {
		if bf, ok := ToFloat(b); ok {
			return af == bf
		}
	}
	return FormatScalar(NormalizeValue(a)) == FormatScalar(NormalizeValue(b))
}

// TypeName names the value kind for result metadata.
func TypeName(v any) string {
	switch NormalizeValue(v).(type) {
	case nil:
		return "null"
	case int64:
		return "integer"
	case float64:
		return "float"
	case bool:
		return "boolean"
	default:
		return "string"
	}
}
