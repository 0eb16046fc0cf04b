package wire

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// AppleBaseUUIDSuffix is the suffix shared by all Apple-defined HAP types.
const AppleBaseUUIDSuffix = "-0000-1000-8000-0026BB765291"

// ShortType returns the HAP type string for a type UUID. Apple-defined types
// are shortened to their leading hex digits without zero padding
// ("00000043-0000-1000-8000-0026BB765291" -> "43"); custom types keep the full
// upper-case UUID.
func ShortType(typeID string) string {
	t := strings.ToUpper(typeID)
	if strings.HasSuffix(t, AppleBaseUUIDSuffix) {
		head := strings.TrimLeft(strings.TrimSuffix(t, AppleBaseUUIDSuffix), "0")
		if head == "" {
			return "0"
		}
		return head
	}
	return t
}

// LongType expands a short HAP type ("43") to its full UUID form. Full UUIDs
// are returned upper-cased.
func LongType(t string) (string, error) {
	if len(t) <= 8 {
		full := strings.Repeat("0", 8-len(t)) + strings.ToUpper(t) + AppleBaseUUIDSuffix
		if _, err := uuid.Parse(full); err != nil {
			return "", err
		}
		return full, nil
	}
	u, err := uuid.Parse(t)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(u.String()), nil
}

// AccessoryDatabase is the /accessories response body.
type AccessoryDatabase struct {
	Accessories []*Accessory `json:"accessories"`
}

// Accessory is the HAP representation of one accessory.
type Accessory struct {
	AID      int        `json:"aid"`
	Services []*Service `json:"services"`
}

// Service is the HAP representation of one service.
type Service struct {
	IID             int               `json:"iid"`
	Type            string            `json:"type"`
	Primary         bool              `json:"primary,omitempty"`
	Hidden          bool              `json:"hidden,omitempty"`
	Characteristics []*Characteristic `json:"characteristics"`
	Linked          []int             `json:"linked,omitempty"`
}

// Characteristic is the HAP representation of one characteristic.
//
// HasValue controls whether the "value" key is emitted; readable
// characteristics carry it even when Value is nil.
type Characteristic struct {
	IID         int      `json:"iid"`
	Type        string   `json:"type"`
	Perms       []string `json:"perms"`
	Format      Format   `json:"format"`
	Value       any      `json:"-"`
	HasValue    bool     `json:"-"`
	Unit        Unit     `json:"unit,omitempty"`
	MinValue    *float64 `json:"minValue,omitempty"`
	MaxValue    *float64 `json:"maxValue,omitempty"`
	MinStep     *float64 `json:"minStep,omitempty"`
	MaxLen      *int     `json:"maxLen,omitempty"`
	ValidValues []int    `json:"valid-values,omitempty"`
}

type characteristicFields Characteristic

type characteristicWithValue struct {
	*characteristicFields
	Value any `json:"value"`
}

// MarshalJSON emits the value key only when HasValue is set.
func (c *Characteristic) MarshalJSON() ([]byte, error) {
	if c.HasValue {
		return json.Marshal(characteristicWithValue{
			characteristicFields: (*characteristicFields)(c),
			Value:                c.Value,
		})
	}
	return json.Marshal((*characteristicFields)(c))
}

// CharacteristicWrite is one entry of a PUT /characteristics request.
type CharacteristicWrite struct {
	AID      int   `json:"aid"`
	IID      int   `json:"iid"`
	Value    any   `json:"value,omitempty"`
	Events   *bool `json:"ev,omitempty"`
	Response bool  `json:"r,omitempty"`
}

// CharacteristicWriteRequest is the PUT /characteristics request body.
type CharacteristicWriteRequest struct {
	Characteristics []CharacteristicWrite `json:"characteristics"`
}

// CharacteristicResult is one entry of a /characteristics response or an
// event notification.
//
// As with Characteristic, HasValue controls the "value" key: a successful
// read of a characteristic without a value reports "value": null.
type CharacteristicResult struct {
	AID      int    `json:"aid"`
	IID      int    `json:"iid"`
	Value    any    `json:"-"`
	HasValue bool   `json:"-"`
	Status   Status `json:"status,omitempty"`
}

type resultFields CharacteristicResult

type resultWithValue struct {
	*resultFields
	Value any `json:"value"`
}

// MarshalJSON emits the value key only when HasValue is set.
func (r CharacteristicResult) MarshalJSON() ([]byte, error) {
	if r.HasValue {
		return json.Marshal(resultWithValue{resultFields: (*resultFields)(&r), Value: r.Value})
	}
	return json.Marshal((*resultFields)(&r))
}

// CharacteristicResponse is the /characteristics response (and event) body.
type CharacteristicResponse struct {
	Characteristics []CharacteristicResult `json:"characteristics"`
}

// CharacteristicID addresses one characteristic of one accessory.
type CharacteristicID struct {
	AID int
	IID int
}
