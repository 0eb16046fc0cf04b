package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hapbridge/hap-go/pkg/log"
	"github.com/hapbridge/hap-go/pkg/wire"
)

var testStart = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

func testEvents() []log.Event {
	ok := wire.StatusSuccess
	readOnly := wire.StatusReadOnly
	code := int(wire.StatusResourceDoesNotExist)
	return []log.Event{
		{
			Timestamp:   testStart,
			Direction:   log.DirectionOut,
			Source:      log.SourceBridge,
			Category:    log.CategoryState,
			AID:         2,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityAccessory, NewState: "ADDED"},
		},
		{
			Timestamp: testStart.Add(time.Second),
			Direction: log.DirectionIn,
			Source:    log.SourceHomeKit,
			Category:  log.CategoryWrite,
			AID:       2,
			Characteristic: &log.CharacteristicEvent{
				IID: 10, Name: "On", Service: "Lightbulb", Raw: 1, Value: true, Status: &ok,
			},
		},
		{
			Timestamp: testStart.Add(2 * time.Second),
			Direction: log.DirectionIn,
			Source:    log.SourceHomeKit,
			Category:  log.CategoryWrite,
			AID:       2,
			Characteristic: &log.CharacteristicEvent{
				IID: 3, Name: "Manufacturer", Raw: "x", Status: &readOnly,
			},
		},
		{
			Timestamp: testStart.Add(3 * time.Second),
			Direction: log.DirectionIn,
			Source:    log.SourceDevice,
			Category:  log.CategoryChange,
			AID:       3,
			Characteristic: &log.CharacteristicEvent{
				IID: 11, Name: "Brightness", Value: 80, Status: &ok,
			},
		},
		{
			Timestamp: testStart.Add(4 * time.Second),
			Direction: log.DirectionOut,
			Source:    log.SourceHomeKit,
			Category:  log.CategoryError,
			AID:       9,
			Error:     &log.ErrorEventData{Message: "unknown characteristic", Code: &code, Context: "READ iid 1"},
		},
	}
}

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test"+log.FileExtension)
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func TestFormatCharacteristicEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, testEvents()[1])
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:33.123456Z",
		"[aid:2.10]",
		"IN ",
		"HOMEKIT",
		"WRITE",
		"Characteristic: Lightbulb.On",
		"Raw: 1",
		"Value: true",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Status:") {
		t.Errorf("successful status should be omitted:\n%s", output)
	}
}

func TestFormatStateAndErrorEvents(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, testEvents()[0])
	formatEvent(&buf, testEvents()[4])
	output := buf.String()

	for _, want := range []string{
		"[aid:2]",
		"Entity: ACCESSORY",
		"-> ADDED",
		"Message: unknown characteristic",
		"Code: -70409",
		"Context: READ iid 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRunView(t *testing.T) {
	path := createTestLogFile(t, testEvents())

	write := log.CategoryWrite
	device := log.SourceDevice
	tests := []struct {
		name   string
		filter ViewFilter
		want   int
	}{
		{"all", ViewFilter{}, 5},
		{"category", ViewFilter{Category: &write}, 2},
		{"source", ViewFilter{Source: &device}, 1},
		{"aid", ViewFilter{AID: 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RunView(path, tt.filter, &buf); err != nil {
				t.Fatalf("RunView() error = %v", err)
			}
			if got := strings.Count(buf.String(), "[aid:"); got != tt.want {
				t.Errorf("printed %d events, want %d", got, tt.want)
			}
		})
	}

	if err := RunView(filepath.Join(t.TempDir(), "missing.hlog"), ViewFilter{}, &bytes.Buffer{}); err == nil {
		t.Error("RunView() expected error for missing file")
	}
}

func TestParseFlags(t *testing.T) {
	if s, err := ParseSourceFlag("HomeKit"); err != nil || s != log.SourceHomeKit {
		t.Errorf("ParseSourceFlag(HomeKit) = %v, %v", s, err)
	}
	if d, err := ParseDirectionFlag("OUT"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(OUT) = %v, %v", d, err)
	}
	if c, err := ParseCategoryFlag("change"); err != nil || c != log.CategoryChange {
		t.Errorf("ParseCategoryFlag(change) = %v, %v", c, err)
	}

	for _, bad := range []func() error{
		func() error { _, err := ParseSourceFlag("zigbee"); return err },
		func() error { _, err := ParseDirectionFlag("sideways"); return err },
		func() error { _, err := ParseCategoryFlag("message"); return err },
	} {
		if bad() == nil {
			t.Error("expected parse error")
		}
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestLogFile(t, testEvents())
	output := filepath.Join(t.TempDir(), "filtered"+log.FileExtension)

	var buf bytes.Buffer
	err := RunFilter(path, FilterOptions{
		Output:    output,
		Source:    "homekit",
		TimeStart: testStart.Add(time.Second).Format(time.RFC3339),
		TimeEnd:   testStart.Add(4 * time.Second).Format(time.RFC3339),
	}, &buf)
	if err != nil {
		t.Fatalf("RunFilter() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Filtered 2 events") {
		t.Errorf("summary = %q", buf.String())
	}

	r, err := log.NewReader(output)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()
	events, err := r.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("filtered file has %d events, want 2", len(events))
	}
}

func TestRunFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, testEvents())
	output := filepath.Join(t.TempDir(), "out"+log.FileExtension)

	for _, opts := range []FilterOptions{
		{Output: output, TimeStart: "yesterday"},
		{Output: output, TimeEnd: "tomorrow"},
		{Output: output, Source: "zigbee"},
		{Output: output, Direction: "up"},
		{Output: output, Category: "message"},
	} {
		if err := RunFilter(path, opts, &bytes.Buffer{}); err == nil {
			t.Errorf("RunFilter(%+v) expected error", opts)
		}
	}
}

func TestCollectStats(t *testing.T) {
	stats, err := CollectStats(createTestLogFile(t, testEvents()))
	if err != nil {
		t.Fatalf("CollectStats() error = %v", err)
	}

	if stats.TotalEvents != 5 {
		t.Errorf("TotalEvents = %d, want 5", stats.TotalEvents)
	}
	if stats.EventsBySource[log.SourceHomeKit] != 3 {
		t.Errorf("HomeKit events = %d, want 3", stats.EventsBySource[log.SourceHomeKit])
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if !stats.TimeRange.Start.Equal(testStart) || !stats.TimeRange.End.Equal(testStart.Add(4*time.Second)) {
		t.Errorf("TimeRange = %v - %v", stats.TimeRange.Start, stats.TimeRange.End)
	}

	acc := stats.Accessories[2]
	if acc == nil {
		t.Fatal("no stats for aid 2")
	}
	if acc.Events != 3 || acc.Writes != 2 || acc.FailedWrites != 1 {
		t.Errorf("aid 2 stats = %+v", acc)
	}
	if acc.Characteristics["On"] != 1 {
		t.Errorf("On count = %d, want 1", acc.Characteristics["On"])
	}
	if stats.Accessories[3].Changes != 1 {
		t.Errorf("aid 3 changes = %d, want 1", stats.Accessories[3].Changes)
	}
}

func TestRunStats(t *testing.T) {
	var buf bytes.Buffer
	if err := RunStats(createTestLogFile(t, testEvents()), &buf); err != nil {
		t.Fatalf("RunStats() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 5",
		"HOMEKIT:",
		"WRITE:",
		"Accessories: 3",
		"[2] 3 events (0 reads, 2 writes, 0 changes)",
		"Failed writes: 1",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := createTestLogFile(t, testEvents())
	output := filepath.Join(t.TempDir(), "events.jsonl")

	if err := RunExport(path, "jsonl", output); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("exported %d lines, want 5", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if first["AID"] != float64(2) {
		t.Errorf("AID = %v, want 2", first["AID"])
	}
}

func TestRunExportCSV(t *testing.T) {
	path := createTestLogFile(t, testEvents())
	output := filepath.Join(t.TempDir(), "events.csv")

	if err := RunExport(path, "csv", output); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}
	write := rows[2]
	if write[3] != "WRITE" || write[4] != "2" || write[5] != "10" || write[6] != "On" || write[7] != "true" || write[8] != "0" {
		t.Errorf("write row = %v", write)
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, testEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Error("RunExport() expected error for unknown format")
	}
}
