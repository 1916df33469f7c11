package college

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxExactInt is the bound beyond which truncating a float64 to int64 overflows.
const maxExactInt = float64(1 << 63)

// ToFloat treats v as a number by attempting a floating-point parse.
// Null, non-numeric strings, NaN and infinities report false.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		p, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToInt parses v as a float and truncates it toward zero.
func ToInt(v any) (int64, bool) {
	f, ok := ToFloat(v)
	if !ok || f >= maxExactInt || f < -maxExactInt {
		return 0, false
	}
	return int64(f), true
}

// Float is ToFloat returning nil when absent.
func Float(v any) *float64 {
	f, ok := ToFloat(v)
	if !ok {
		return nil
	}
	return &f
}

// Int is ToInt returning nil when absent.
func Int(v any) *int64 {
	i, ok := ToInt(v)
	if !ok {
		return nil
	}
	return &i
}

// Text returns strings verbatim and renders numbers; anything else is absent.
func Text(v any) *string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	default:
		return nil
	}
	return &s
}
