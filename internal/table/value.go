package table

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// IsNull reports whether v is the missing-value sentinel (nil or NaN).
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// ToFloat converts numeric scalars and numeric strings to a finite float64.
// Booleans, times and non-numeric strings do not convert.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil, bool, time.Time:
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String renders a cell for display or CSV output. Missing cells render empty.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return FormatTime(x)
	default:
		return cast.ToString(v)
	}
}

// FormatTime renders dates without a clock component as YYYY-MM-DD.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Key returns a type-tagged identity for v so that 1.0 and "1" stay distinct.
func Key(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case float64:
		if math.IsNaN(x) {
			return "\x00"
		}
		return "f" + strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return "s" + x
	case time.Time:
		return "t" + x.UTC().Format(time.RFC3339Nano)
	default:
		return "o" + cast.ToString(v)
	}
}
