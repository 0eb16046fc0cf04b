package devices

import (
	"fmt"
	"strconv"
	"strings"
)

// Format constrains the values of a property. A nil Format means the property
// is unconstrained.
type Format interface {
	// Kind returns the format kind.
	Kind() FormatKind
}

// FormatKind identifies the concrete Format implementation.
type FormatKind uint8

const (
	FormatNone FormatKind = iota
	FormatStringEnum
	FormatCombinedEnum
	FormatNumberRange
)

// String returns the format kind name.
func (k FormatKind) String() string {
	switch k {
	case FormatNone:
		return "none"
	case FormatStringEnum:
		return "string_enum"
	case FormatCombinedEnum:
		return "combined_enum"
	case FormatNumberRange:
		return "number_range"
	default:
		return "unknown"
	}
}

// StringEnumFormat is a list of allowed canonical strings.
type StringEnumFormat struct {
	Items []string
}

// Kind implements Format.
func (StringEnumFormat) Kind() FormatKind { return FormatStringEnum }

// CombinedEnumItem is one typed member of a combined enum row.
type CombinedEnumItem struct {
	DataType DataType
	Value    any
}

// String returns the item value as string.
func (i CombinedEnumItem) String() string {
	return Stringify(i.Value)
}

// Indexes of the members of a combined enum row.
const (
	CombinedDomain     = 0 // value as used in the device domain
	CombinedFromClient = 1 // value as received from the client
	CombinedToClient   = 2 // value as sent to the client
)

// CombinedEnumRow maps one domain value to the values exchanged with a client.
// Any member may be nil.
type CombinedEnumRow [3]*CombinedEnumItem

// CombinedEnumFormat is a table of domain <-> client value mappings.
type CombinedEnumFormat struct {
	Items []CombinedEnumRow
}

// Kind implements Format.
func (CombinedEnumFormat) Kind() FormatKind { return FormatCombinedEnum }

// NumberRangeFormat is an optional numeric range.
type NumberRangeFormat struct {
	Min *float64
	Max *float64
}

// Kind implements Format.
func (NumberRangeFormat) Kind() FormatKind { return FormatNumberRange }

// Stringify returns the canonical string form of a scalar or payload value.
// Nil yields the empty string and booleans yield "1" or "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case Payload:
		return t.Value()
	case bool:
		if t {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(t)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	case float32:
		return formatFloat(float64(t))
	case float64:
		return formatFloat(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.Contains(s, "e") {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return s
}
