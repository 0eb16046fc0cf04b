package wire

import "fmt"

// Format is the HAP data format of a characteristic value.
type Format string

const (
	FormatBool   Format = "bool"
	FormatFloat  Format = "float"
	FormatInt    Format = "int"
	FormatUint8  Format = "uint8"
	FormatUint16 Format = "uint16"
	FormatUint32 Format = "uint32"
	FormatUint64 Format = "uint64"
	FormatString Format = "string"
	FormatTLV8   Format = "tlv8"
	FormatData   Format = "data"
)

// IsInteger returns true for the signed and unsigned integer formats.
func (f Format) IsInteger() bool {
	switch f {
	case FormatInt, FormatUint8, FormatUint16, FormatUint32, FormatUint64:
		return true
	default:
		return false
	}
}

// IsNumeric returns true for integer and float formats.
func (f Format) IsNumeric() bool {
	return f == FormatFloat || f.IsInteger()
}

// Valid returns true if f is a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatBool, FormatFloat, FormatInt, FormatUint8, FormatUint16,
		FormatUint32, FormatUint64, FormatString, FormatTLV8, FormatData:
		return true
	default:
		return false
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown HAP format %q", s)
	}
	return f, nil
}

// Permission is a HAP characteristic permission.
type Permission string

const (
	// PermPairedRead allows paired controllers to read the value.
	PermPairedRead Permission = "pr"

	// PermPairedWrite allows paired controllers to write the value.
	PermPairedWrite Permission = "pw"

	// PermEvents allows paired controllers to subscribe to notifications.
	PermEvents Permission = "ev"

	// PermAdditionalAuthorization requires additional authorization data.
	PermAdditionalAuthorization Permission = "aa"

	// PermTimedWrite requires a timed write procedure.
	PermTimedWrite Permission = "tw"

	// PermHidden hides the characteristic from the user.
	PermHidden Permission = "hd"

	// PermWriteResponse allows a write to return a response value.
	PermWriteResponse Permission = "wr"
)

// Valid returns true if p is a known permission.
func (p Permission) Valid() bool {
	switch p {
	case PermPairedRead, PermPairedWrite, PermEvents, PermAdditionalAuthorization,
		PermTimedWrite, PermHidden, PermWriteResponse:
		return true
	default:
		return false
	}
}

// Permissions is an ordered set of permissions.
type Permissions []Permission

// Has returns true if the set contains p.
func (ps Permissions) Has(p Permission) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}

// CanRead returns true if paired read is allowed.
func (ps Permissions) CanRead() bool { return ps.Has(PermPairedRead) }

// CanWrite returns true if paired write is allowed.
func (ps Permissions) CanWrite() bool { return ps.Has(PermPairedWrite) }

// CanNotify returns true if events are allowed.
func (ps Permissions) CanNotify() bool { return ps.Has(PermEvents) }

// Strings returns the permissions as plain strings.
func (ps Permissions) Strings() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

// Unit is a HAP characteristic unit.
type Unit string

const (
	UnitNone        Unit = ""
	UnitCelsius     Unit = "celsius"
	UnitPercentage  Unit = "percentage"
	UnitArcDegrees  Unit = "arcdegrees"
	UnitLux         Unit = "lux"
	UnitSeconds     Unit = "seconds"
	UnitPPM         Unit = "ppm"
	UnitMicrogramsM Unit = "micrograms/m^3"
)
