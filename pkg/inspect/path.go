// Package inspect provides bridge inspection and characteristic manipulation
// utilities.
//
// The inspect package offers a unified interface for:
//   - Parsing path expressions (e.g., "2/Lightbulb/Brightness" or "2.10")
//   - Reading, writing and updating characteristics of a server.Database
//   - Formatting output for display
package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath     = errors.New("empty path")
	ErrInvalidPath   = errors.New("invalid path format")
	ErrInvalidNumber = errors.New("invalid numeric value in path")
)

// Path represents a parsed inspection path.
// Format: aid[/service[/characteristic]], aid/iid or aid.iid
type Path struct {
	// AID is the accessory id.
	AID int

	// IID is the instance id when the path addresses a characteristic by
	// number.
	IID int

	// Service is the service name. Snake case input is converted to the
	// catalog's PascalCase ("television_speaker" -> "TelevisionSpeaker").
	Service string

	// Characteristic is the characteristic name, converted like Service.
	Characteristic string

	// IsPartial indicates the path doesn't include a characteristic
	// (used for inspect operations that show a whole accessory or service).
	IsPartial bool

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
//
// Supported formats:
//   - "aid" - partial (whole accessory)
//   - "aid/service" - partial (one service)
//   - "aid/service/characteristic" - characteristic by name
//   - "aid/iid" or "aid.iid" - characteristic by instance id
//
// Numeric values can be decimal or hex (0x prefix).
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidPath
	}

	p := &Path{Raw: input}

	if aid, iid, ok := strings.Cut(input, "."); ok && !strings.Contains(input, "/") {
		var err error
		if p.AID, err = parseID(aid); err != nil {
			return nil, fmt.Errorf("aid: %w", err)
		}
		if p.IID, err = parseID(iid); err != nil {
			return nil, fmt.Errorf("iid: %w", err)
		}
		return p, nil
	}

	parts := strings.Split(input, "/")
	if len(parts) > 3 {
		return nil, ErrInvalidPath
	}

	aid, err := parseID(parts[0])
	if err != nil {
		return nil, fmt.Errorf("aid: %w", err)
	}
	p.AID = aid

	switch len(parts) {
	case 1:
		p.IsPartial = true
	case 2:
		if iid, err := parseID(parts[1]); err == nil {
			p.IID = iid
		} else {
			p.Service = normalizeName(parts[1])
			p.IsPartial = true
		}
	case 3:
		p.Service = normalizeName(parts[1])
		p.Characteristic = normalizeName(parts[2])
	}

	return p, nil
}

// ByIID reports whether the path addresses a characteristic by instance id.
func (p *Path) ByIID() bool {
	return p.IID != 0
}

// String returns the path as a string.
func (p *Path) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(p.AID))

	if p.ByIID() {
		sb.WriteString("/")
		sb.WriteString(strconv.Itoa(p.IID))
		return sb.String()
	}
	if p.Service != "" {
		sb.WriteString("/")
		sb.WriteString(p.Service)
	}
	if p.Characteristic != "" {
		sb.WriteString("/")
		sb.WriteString(p.Characteristic)
	}
	return sb.String()
}

// normalizeName converts snake_case and kebab-case names to PascalCase.
// Names without separators are kept; they are matched case-insensitively.
func normalizeName(s string) string {
	if !strings.ContainsAny(s, "_-") {
		return s
	}
	var sb strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' }) {
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}

// parseID parses a positive id from decimal or hex string.
func parseID(s string) (int, error) {
	var v uint64
	var err error

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 32)
	} else {
		v, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidNumber, s)
	}
	return int(v), nil
}

// ParseValue parses a value typed by a user: integer, then float, then bool,
// then string with surrounding quotes stripped.
func ParseValue(s string) any {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	if s == "null" {
		return nil
	}
	return strings.Trim(s, "\"'")
}
