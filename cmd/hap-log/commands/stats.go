package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/hapbridge/hap-go/pkg/log"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsBySource    map[log.Source]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Accessories       map[int]*AccessoryStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// AccessoryStats holds statistics for a single accessory.
type AccessoryStats struct {
	Events          int
	Reads           int
	Writes          int
	Changes         int
	FailedWrites    int
	LastSeen        time.Time
	Characteristics map[string]int
}

// CollectStats reads every event of the log file at path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsBySource:    make(map[log.Source]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Accessories:       make(map[int]*AccessoryStats),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsBySource[event.Source]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.Error != nil {
		s.Errors++
	}

	if event.AID == 0 {
		return
	}
	acc, ok := s.Accessories[event.AID]
	if !ok {
		acc = &AccessoryStats{Characteristics: make(map[string]int)}
		s.Accessories[event.AID] = acc
	}
	acc.Events++
	if event.Timestamp.After(acc.LastSeen) {
		acc.LastSeen = event.Timestamp
	}

	switch event.Category {
	case log.CategoryRead:
		acc.Reads++
	case log.CategoryWrite:
		acc.Writes++
		if c := event.Characteristic; c != nil && c.Status != nil && *c.Status != wire.StatusSuccess {
			acc.FailedWrites++
		}
	case log.CategoryChange:
		acc.Changes++
	}
	if event.Characteristic != nil {
		acc.Characteristics[event.Characteristic.Name]++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== HAP Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Source:")
	for _, src := range []log.Source{log.SourceHomeKit, log.SourceDevice, log.SourceBridge} {
		if count := stats.EventsBySource[src]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", src.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryRead, log.CategoryWrite, log.CategoryChange, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Accessories: %d\n", len(stats.Accessories))
	aids := make([]int, 0, len(stats.Accessories))
	for aid := range stats.Accessories {
		aids = append(aids, aid)
	}
	slices.Sort(aids)
	for _, aid := range aids {
		acc := stats.Accessories[aid]
		fmt.Fprintf(w, "  [%d] %d events (%d reads, %d writes, %d changes)\n",
			aid, acc.Events, acc.Reads, acc.Writes, acc.Changes)
		if acc.FailedWrites > 0 {
			fmt.Fprintf(w, "       Failed writes: %d\n", acc.FailedWrites)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
