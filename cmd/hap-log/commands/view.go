// Package commands implements the hap-log CLI commands.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hapbridge/hap-go/pkg/log"
)

// timestampLayout is the timestamp format of every command's output.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	AID       int
	Source    *log.Source
	Direction *log.Direction
	Category  *log.Category
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{
		AID:       f.AID,
		Source:    f.Source,
		Direction: f.Direction,
		Category:  f.Category,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format(timestampLayout)

	target := "-"
	if event.AID != 0 {
		target = fmt.Sprintf("%d", event.AID)
		if event.Characteristic != nil {
			target = fmt.Sprintf("%d.%d", event.AID, event.Characteristic.IID)
		}
	}

	fmt.Fprintf(w, "%s [aid:%s] %-3s %-7s %s\n", ts, target, event.Direction, event.Source, event.Category)

	switch {
	case event.Characteristic != nil:
		formatCharacteristicDetails(w, event.Characteristic)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func formatCharacteristicDetails(w io.Writer, c *log.CharacteristicEvent) {
	if c.Service != "" {
		fmt.Fprintf(w, "  Characteristic: %s.%s\n", c.Service, c.Name)
	} else {
		fmt.Fprintf(w, "  Characteristic: %s\n", c.Name)
	}
	if c.Raw != nil {
		fmt.Fprintf(w, "  Raw: %s\n", formatValue(c.Raw))
	}
	if c.Value != nil {
		fmt.Fprintf(w, "  Value: %s\n", formatValue(c.Value))
	}
	if c.Status != nil && *c.Status != 0 {
		fmt.Fprintf(w, "  Status: %s (%d)\n", c.Status.String(), *c.Status)
	}
}

func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseSourceFlag parses a source name (case-insensitive).
func ParseSourceFlag(s string) (log.Source, error) {
	switch strings.ToLower(s) {
	case "homekit":
		return log.SourceHomeKit, nil
	case "device":
		return log.SourceDevice, nil
	case "bridge":
		return log.SourceBridge, nil
	default:
		return 0, fmt.Errorf("invalid source: %s (must be homekit, device, or bridge)", s)
	}
}

// ParseDirectionFlag parses a direction name (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "read":
		return log.CategoryRead, nil
	case "write":
		return log.CategoryWrite, nil
	case "change":
		return log.CategoryChange, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be read, write, change, state, or error)", s)
	}
}

// RunView prints the matching events of the log file at path.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}
