package devices

import (
	"fmt"
	"strings"
)

// DataType is the domain data type of a device property.
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypeChar
	DataTypeUchar
	DataTypeShort
	DataTypeUshort
	DataTypeInt
	DataTypeUint
	DataTypeFloat
	DataTypeBool
	DataTypeString
	DataTypeEnum
	DataTypeDate
	DataTypeTime
	DataTypeDatetime
	DataTypeButton
	DataTypeSwitch
	DataTypeCover
)

var dataTypeNames = []string{
	"unknown", "char", "uchar", "short", "ushort", "int", "uint", "float",
	"bool", "string", "enum", "date", "time", "datetime", "button", "switch",
	"cover",
}

// String returns the data type name.
func (d DataType) String() string {
	if int(d) < len(dataTypeNames) {
		return dataTypeNames[d]
	}
	return "unknown"
}

// IsEnumLike returns true for data types whose values are enumerated payloads.
func (d DataType) IsEnumLike() bool {
	switch d {
	case DataTypeEnum, DataTypeSwitch, DataTypeButton, DataTypeCover:
		return true
	default:
		return false
	}
}

// IsNumeric returns true for integer and float data types.
func (d DataType) IsNumeric() bool {
	switch d {
	case DataTypeChar, DataTypeUchar, DataTypeShort, DataTypeUshort,
		DataTypeInt, DataTypeUint, DataTypeFloat:
		return true
	default:
		return false
	}
}

// ParseDataType parses a data type name (case-insensitive).
func ParseDataType(s string) (DataType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range dataTypeNames {
		if n == name {
			return DataType(i), nil
		}
	}
	return DataTypeUnknown, fmt.Errorf("unknown data type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d DataType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DataType) UnmarshalText(text []byte) error {
	v, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
