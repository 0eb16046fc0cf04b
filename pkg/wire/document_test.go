package wire

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestShortType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00000043-0000-1000-8000-0026BB765291", "43"},
		{"0000003e-0000-1000-8000-0026bb765291", "3E"},
		{"000000A2-0000-1000-8000-0026BB765291", "A2"},
		{"00000000-0000-1000-8000-0026BB765291", "0"},
		{"6b5d2c1e-6a2f-4a5c-9c3d-1f2e3d4c5b6a", "6B5D2C1E-6A2F-4A5C-9C3D-1F2E3D4C5B6A"},
	}
	for _, tt := range tests {
		if got := ShortType(tt.in); got != tt.want {
			t.Errorf("ShortType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLongType(t *testing.T) {
	got, err := LongType("43")
	if err != nil {
		t.Fatalf("LongType: %v", err)
	}
	if got != "00000043-0000-1000-8000-0026BB765291" {
		t.Errorf("LongType(43) = %q", got)
	}

	got, err = LongType("6b5d2c1e-6a2f-4a5c-9c3d-1f2e3d4c5b6a")
	if err != nil {
		t.Fatalf("LongType: %v", err)
	}
	if got != "6B5D2C1E-6A2F-4A5C-9C3D-1F2E3D4C5B6A" {
		t.Errorf("LongType(full) = %q", got)
	}

	if _, err := LongType("zz"); err == nil {
		t.Error("expected error for non-hex short type")
	}
	if _, err := LongType("not-a-uuid-at-all"); err == nil {
		t.Error("expected error for malformed uuid")
	}

	if short := ShortType(mustLong(t, "A2")); short != "A2" {
		t.Errorf("round trip = %q", short)
	}
}

func mustLong(t *testing.T, s string) string {
	t.Helper()
	long, err := LongType(s)
	if err != nil {
		t.Fatalf("LongType(%q): %v", s, err)
	}
	return long
}

func TestCharacteristicResultMarshal(t *testing.T) {
	tests := []struct {
		name   string
		result CharacteristicResult
		want   string
	}{
		{"read nil value", CharacteristicResult{AID: 2, IID: 10, HasValue: true}, `{"aid":2,"iid":10,"value":null}`},
		{"read value", CharacteristicResult{AID: 2, IID: 10, Value: 40, HasValue: true}, `{"aid":2,"iid":10,"value":40}`},
		{"read false", CharacteristicResult{AID: 2, IID: 10, Value: false, HasValue: true}, `{"aid":2,"iid":10,"value":false}`},
		{"write ok", CharacteristicResult{AID: 2, IID: 10}, `{"aid":2,"iid":10}`},
		{"failed", CharacteristicResult{AID: 9, IID: 1, Status: StatusResourceDoesNotExist}, `{"aid":9,"iid":1,"status":-70409}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.result)
		if err != nil {
			t.Fatalf("%s: Marshal: %v", tt.name, err)
		}
		if string(data) != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, data, tt.want)
		}
	}

	// Results inside a response use the same encoding.
	data, err := json.Marshal(CharacteristicResponse{Characteristics: []CharacteristicResult{{AID: 2, IID: 10, HasValue: true}}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"value":null`) {
		t.Errorf("expected null value in response: %s", data)
	}
}

func TestCharacteristicMarshalValue(t *testing.T) {
	c := &Characteristic{
		IID:    10,
		Type:   "25",
		Perms:  []string{"pr", "pw", "ev"},
		Format: FormatBool,
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), `"value"`) {
		t.Errorf("value emitted without HasValue: %s", data)
	}

	c.HasValue = true
	data, err = json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"value":null`) {
		t.Errorf("expected null value: %s", data)
	}

	c.Value = true
	data, err = json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["value"] != true {
		t.Errorf("value = %v, want true", decoded["value"])
	}
	if decoded["iid"] != float64(10) || decoded["format"] != "bool" {
		t.Errorf("unexpected fields: %v", decoded)
	}
	if _, ok := decoded["minValue"]; ok {
		t.Error("minValue should be omitted")
	}
}

func TestCharacteristicMarshalInService(t *testing.T) {
	lo, hi := 0.0, 100.0
	s := &Service{
		IID:  8,
		Type: "43",
		Characteristics: []*Characteristic{
			{IID: 9, Type: "8", Perms: []string{"pr"}, Format: FormatInt, Value: 50, HasValue: true, MinValue: &lo, MaxValue: &hi, Unit: "percentage"},
			{IID: 10, Type: "14", Perms: []string{"pw"}, Format: FormatBool},
		},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"value":50`, `"minValue":0`, `"maxValue":100`, `"unit":"percentage"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
	if strings.Count(out, `"value"`) != 1 {
		t.Errorf("write-only characteristic must not carry a value: %s", out)
	}
	if strings.Contains(out, `"primary"`) || strings.Contains(out, `"linked"`) {
		t.Errorf("empty service flags should be omitted: %s", out)
	}
}

func TestStatusString(t *testing.T) {
	if StatusReadOnly.String() != "READ_ONLY" {
		t.Errorf("StatusReadOnly = %s", StatusReadOnly)
	}
	if StatusResourceDoesNotExist.String() != "RESOURCE_DOES_NOT_EXIST" {
		t.Errorf("StatusResourceDoesNotExist = %s", StatusResourceDoesNotExist)
	}
}
