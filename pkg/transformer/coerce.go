package transformer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// truthy lists the lower-cased strings coerced to boolean true.
var truthy = map[string]bool{
	"true": true,
	"t":    true,
	"yes":  true,
	"y":    true,
	"1":    true,
	"on":   true,
}

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// coerce converts v to the primitive shape of format. Nil stays nil for every
// format except bool, where it becomes false.
func coerce(format wire.Format, v any) any {
	switch {
	case format == wire.FormatBool:
		return toBool(v)
	case v == nil:
		return nil
	case format == wire.FormatFloat:
		return toFloat(v)
	case format.IsInteger():
		return toInt(v)
	case format == wire.FormatString:
		return devices.Stringify(v)
	default:
		return v
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	default:
		return truthy[strings.ToLower(devices.Stringify(v))]
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	}

	if f, ok := numericFloat(v); ok {
		return f
	}

	s := strings.NewReplacer(" ", "", ",", ".").Replace(devices.Stringify(v))
	return parseLeadingFloat(s)
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int8:
		return int(t)
	case int16:
		return int(t)
	case int32:
		return int(t)
	case int64:
		return clampToInt(t)
	case uint:
		return clampUintToInt(uint64(t))
	case uint8:
		return int(t)
	case uint16:
		return int(t)
	case uint32:
		return clampUintToInt(uint64(t))
	case uint64:
		return clampUintToInt(t)
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	}

	s := devices.Stringify(v)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return clampToInt(i)
	}

	s = whitespace.ReplaceAllString(s, "")
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return floatToInt(f)
	}
	if m := leadingInt.FindString(s); m != "" {
		// ParseInt saturates out-of-range input and reports ErrRange.
		i, _ := strconv.ParseInt(m, 10, 64)
		return clampToInt(i)
	}
	return 0
}

// floatToInt truncates f toward zero, saturating at the int range. NaN
// becomes 0.
func floatToInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

func clampToInt(i int64) int {
	switch {
	case i > math.MaxInt:
		return math.MaxInt
	case i < math.MinInt:
		return math.MinInt
	}
	return int(i)
}

func clampUintToInt(u uint64) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}

// numericFloat handles integer kinds and strings that parse as a number as a
// whole.
func numericFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func parseLeadingFloat(s string) float64 {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// roundPrecision rounds f to the given number of decimal places.
func roundPrecision(f float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', places, 64), 64)
	if err != nil {
		return f
	}
	return r
}
