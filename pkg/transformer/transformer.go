package transformer

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// stepPrecision is the number of decimal places kept after step rounding.
const stepPrecision = 14

// PropertyMetadata is the part of a device property the transformer reads.
// devices.Property satisfies it.
type PropertyMetadata interface {
	DataType() devices.DataType
	Format() devices.Format
}

// FromClient converts a value written by a HomeKit controller into the device
// domain.
//
// The raw value is first coerced to the primitive shape of format. Without
// property metadata the coerced value is returned. For enum-like properties
// the value is resolved through the property's string or combined enum format;
// anything but exactly one match yields nil.
func FromClient(property PropertyMetadata, format wire.Format, raw any) any {
	value := coerce(format, raw)
	if value == nil {
		return nil
	}

	if property == nil || !property.DataType().IsEnumLike() {
		return value
	}

	needle := strings.ToLower(devices.Stringify(value))

	switch f := property.Format().(type) {
	case devices.StringEnumFormat:
		return fromStringEnum(property.DataType(), f, needle)
	case *devices.StringEnumFormat:
		return fromStringEnum(property.DataType(), *f, needle)
	case devices.CombinedEnumFormat:
		return fromCombinedEnum(property.DataType(), f, needle)
	case *devices.CombinedEnumFormat:
		return fromCombinedEnum(property.DataType(), *f, needle)
	}

	return value
}

func fromStringEnum(dataType devices.DataType, format devices.StringEnumFormat, needle string) any {
	var matches []string
	for _, item := range format.Items {
		if item == needle {
			matches = append(matches, item)
		}
	}
	if len(matches) != 1 {
		return nil
	}

	payload, ok := devices.PayloadFor(dataType, matches[0])
	if !ok {
		return nil
	}
	return payload
}

func fromCombinedEnum(dataType devices.DataType, format devices.CombinedEnumFormat, needle string) any {
	var matches []devices.CombinedEnumRow
	for _, row := range format.Items {
		item := row[devices.CombinedFromClient]
		if item != nil && strings.ToLower(item.String()) == needle {
			matches = append(matches, row)
		}
	}
	if len(matches) != 1 || matches[0][devices.CombinedDomain] == nil {
		return nil
	}

	domain := matches[0][devices.CombinedDomain]
	if dataType == devices.DataTypeEnum {
		return domain.Value
	}

	payload, ok := devices.PayloadFor(dataType, domain.String())
	if !ok {
		return nil
	}
	return payload
}

// ToClient converts a device domain value into the value a HomeKit controller
// reads.
//
// Enum-like properties are resolved through their format first. The result is
// coerced to format; numeric values are rounded to minStep and clamped into
// [minValue, maxValue] (a nil bound does not clamp), strings are truncated to
// maxLength. A value outside validValues yields nil. Payloads are flattened to
// their string value.
func ToClient(
	property PropertyMetadata,
	format wire.Format,
	validValues []int,
	maxLength *int,
	minValue, maxValue, minStep *float64,
	value any,
) any {
	transformed := value

	if property != nil && property.DataType().IsEnumLike() {
		switch f := property.Format().(type) {
		case devices.StringEnumFormat:
			transformed = toStringEnum(f, value)
		case *devices.StringEnumFormat:
			transformed = toStringEnum(*f, value)
		case devices.CombinedEnumFormat:
			transformed = toCombinedEnum(f, value)
		case *devices.CombinedEnumFormat:
			transformed = toCombinedEnum(*f, value)
		default:
			transformed = Flatten(value)
		}
	}

	transformed = coerce(format, transformed)

	switch v := transformed.(type) {
	case float64:
		transformed = clampFloat(stepFloat(v, minStep), minValue, maxValue)
	case int:
		transformed = clampInt(stepInt(v, minStep), minValue, maxValue)
	case string:
		if maxLength != nil {
			transformed = truncate(v, *maxLength)
		}
	}

	if validValues != nil && transformed != nil {
		if !containsInt(validValues, toInt(Flatten(transformed))) {
			return nil
		}
	}

	return Flatten(transformed)
}

func toStringEnum(format devices.StringEnumFormat, value any) any {
	flat := devices.Stringify(Flatten(value))

	matches := 0
	for _, item := range format.Items {
		if item == flat {
			matches++
		}
	}
	if matches != 1 {
		return nil
	}
	return value
}

func toCombinedEnum(format devices.CombinedEnumFormat, value any) any {
	flat := devices.Stringify(Flatten(value))

	var matches []devices.CombinedEnumRow
	for _, row := range format.Items {
		item := row[devices.CombinedDomain]
		if item != nil && item.String() == flat {
			matches = append(matches, row)
		}
	}
	if len(matches) != 1 || matches[0][devices.CombinedToClient] == nil {
		return nil
	}
	return matches[0][devices.CombinedToClient].Value
}

// Flatten returns the primitive scalar of a payload value. Other values are
// returned unchanged.
func Flatten(v any) any {
	if p, ok := v.(devices.Payload); ok {
		return p.Value()
	}
	return v
}

func stepFloat(v float64, minStep *float64) float64 {
	if minStep == nil || *minStep == 0 {
		return v
	}
	return roundPrecision(*minStep*math.Round(v / *minStep), stepPrecision)
}

func stepInt(v int, minStep *float64) int {
	if minStep == nil || *minStep == 0 {
		return v
	}
	return int(math.Round(stepFloat(float64(v), minStep)))
}

func clampFloat(v float64, minValue, maxValue *float64) float64 {
	if minValue != nil && v < *minValue {
		v = *minValue
	}
	if maxValue != nil && v > *maxValue {
		v = *maxValue
	}
	return v
}

func clampInt(v int, minValue, maxValue *float64) int {
	f := clampFloat(float64(v), minValue, maxValue)
	if f == float64(v) {
		return v
	}
	return int(math.Round(f))
}

func truncate(s string, maxLength int) string {
	if maxLength < 0 || utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	return string([]rune(s)[:maxLength])
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
