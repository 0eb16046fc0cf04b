package inspect

import (
	"fmt"
	"strings"

	"github.com/hapbridge/hap-go/pkg/wire"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes format and permission information
	ShowMetadata bool

	// ShowIDs includes instance ids alongside names
	ShowIDs bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		ShowIDs:      true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// unitSuffixes are the display suffixes of HAP units.
var unitSuffixes = map[wire.Unit]string{
	wire.UnitCelsius:     " °C",
	wire.UnitPercentage:  " %",
	wire.UnitArcDegrees:  "°",
	wire.UnitLux:         " lx",
	wire.UnitSeconds:     " s",
	wire.UnitPPM:         " ppm",
	wire.UnitMicrogramsM: " µg/m³",
}

// FormatValue formats a value for display, including the unit.
func (f *Formatter) FormatValue(value any, unit wire.Unit) string {
	suffix := unitSuffixes[unit]

	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return fmt.Sprintf("%q", v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d%s", v, suffix)
	case float32:
		return fmt.Sprintf("%.2f%s", v, suffix)
	case float64:
		return fmt.Sprintf("%.2f%s", v, suffix)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatPermissions formats permissions in their HAP short form
// ("pr,pw,ev").
func FormatPermissions(perms wire.Permissions) string {
	if len(perms) == 0 {
		return "-"
	}
	return strings.Join(perms.Strings(), ",")
}

// CharacteristicRow represents a formatted characteristic for display.
type CharacteristicRow struct {
	IID    int
	Name   string
	Value  string
	Format string
	Perms  string
}

// FormatCharacteristicTable formats a list of characteristics as a table.
func (f *Formatter) FormatCharacteristicTable(rows []CharacteristicRow) string {
	if len(rows) == 0 {
		return "  (no characteristics)"
	}

	var sb strings.Builder
	for _, row := range rows {
		if f.ShowIDs {
			sb.WriteString(fmt.Sprintf("  [%d] %s: %s", row.IID, row.Name, row.Value))
		} else {
			sb.WriteString(fmt.Sprintf("  %s: %s", row.Name, row.Value))
		}
		if f.ShowMetadata && row.Format != "" {
			sb.WriteString(fmt.Sprintf(" (%s, %s)", row.Format, row.Perms))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
