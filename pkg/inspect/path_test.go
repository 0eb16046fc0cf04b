package inspect

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Path
		wantErr bool
	}{
		{
			name:  "accessory only",
			input: "2",
			want:  &Path{AID: 2, IsPartial: true},
		},
		{
			name:  "service",
			input: "2/Lightbulb",
			want:  &Path{AID: 2, Service: "Lightbulb", IsPartial: true},
		},
		{
			name:  "characteristic by name",
			input: "2/Lightbulb/Brightness",
			want:  &Path{AID: 2, Service: "Lightbulb", Characteristic: "Brightness"},
		},
		{
			name:  "snake case names",
			input: "3/television_speaker/volume_selector",
			want:  &Path{AID: 3, Service: "TelevisionSpeaker", Characteristic: "VolumeSelector"},
		},
		{
			name:  "characteristic by iid",
			input: "2/10",
			want:  &Path{AID: 2, IID: 10},
		},
		{
			name:  "dotted iid",
			input: "2.10",
			want:  &Path{AID: 2, IID: 10},
		},
		{
			name:  "hex iid",
			input: "2/0x0A",
			want:  &Path{AID: 2, IID: 10},
		},
		{
			name:    "empty path",
			input:   "",
			wantErr: true,
		},
		{
			name:    "leading slash",
			input:   "/2",
			wantErr: true,
		},
		{
			name:    "double slash",
			input:   "2//On",
			wantErr: true,
		},
		{
			name:    "too many parts",
			input:   "2/Lightbulb/On/extra",
			wantErr: true,
		},
		{
			name:    "zero aid",
			input:   "0/Lightbulb",
			wantErr: true,
		},
		{
			name:    "named aid",
			input:   "lamp/Lightbulb",
			wantErr: true,
		},
		{
			name:    "dotted without iid",
			input:   "2.x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got.AID != tt.want.AID {
				t.Errorf("AID = %d, want %d", got.AID, tt.want.AID)
			}
			if got.IID != tt.want.IID {
				t.Errorf("IID = %d, want %d", got.IID, tt.want.IID)
			}
			if got.Service != tt.want.Service {
				t.Errorf("Service = %q, want %q", got.Service, tt.want.Service)
			}
			if got.Characteristic != tt.want.Characteristic {
				t.Errorf("Characteristic = %q, want %q", got.Characteristic, tt.want.Characteristic)
			}
			if got.IsPartial != tt.want.IsPartial {
				t.Errorf("IsPartial = %v, want %v", got.IsPartial, tt.want.IsPartial)
			}
			if got.Raw != tt.input {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.input)
			}
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	if _, err := ParsePath("  "); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("blank path error = %v, want ErrEmptyPath", err)
	}
	if _, err := ParsePath("2/"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("trailing slash error = %v, want ErrInvalidPath", err)
	}
	if _, err := ParsePath("x/On"); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("named aid error = %v, want ErrInvalidNumber", err)
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		name string
		path *Path
		want string
	}{
		{"accessory", &Path{AID: 2, IsPartial: true}, "2"},
		{"service", &Path{AID: 2, Service: "Lightbulb", IsPartial: true}, "2/Lightbulb"},
		{"characteristic", &Path{AID: 2, Service: "Lightbulb", Characteristic: "On"}, "2/Lightbulb/On"},
		{"iid", &Path{AID: 2, IID: 10}, "2/10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"42", 42},
		{"-3", -3},
		{"2.5", 2.5},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"\"Living Room\"", "Living Room"},
		{"hello", "hello"},
	}

	for _, tt := range tests {
		if got := ParseValue(tt.input); got != tt.want {
			t.Errorf("ParseValue(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}
