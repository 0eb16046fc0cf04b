// Package version provides the bridge firmware version and HAP protocol
// version parsing and comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Firmware is the version of this package, reported as FirmwareRevision of
// every accessory.
const Firmware = "0.3.0"

// Protocol is the HAP protocol version reported by the bridge's
// ProtocolInformation service.
const Protocol = "1.1.0"

// Version represents a parsed "major.minor[.revision]" version.
type Version struct {
	Major    uint16
	Minor    uint16
	Revision uint16
}

// Parse parses a "major.minor" or "major.minor.revision" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor[.revision]", s)
	}

	var nums [3]uint16
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 16)
		if err != nil || part == "" {
			return Version{}, fmt.Errorf("invalid version %q: bad component %q", s, part)
		}
		nums[i] = uint16(n)
	}

	return Version{Major: nums[0], Minor: nums[1], Revision: nums[2]}, nil
}

// MustParse is like Parse but panics on error. Use it for constants only.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor.revision".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Compare returns -1, 0 or 1 when v is older, equal or newer than other.
func (v Version) Compare(other Version) int {
	a := [3]uint16{v.Major, v.Minor, v.Revision}
	b := [3]uint16{other.Major, other.Minor, other.Revision}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// FirmwareRevision returns the firmware version in the form HomeKit expects
// for the FirmwareRevision characteristic.
func FirmwareRevision() string {
	return MustParse(Firmware).String()
}
