package log

import (
	"time"

	"github.com/hapbridge/hap-go/pkg/wire"
)

// Event represents one protocol event of the accessory database.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Direction indicates value flow relative to the bridge.
	Direction Direction `cbor:"2,keyasint"`

	// Source is the party that caused the event.
	Source Source `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// AID is the accessory id (0 when not accessory specific).
	AID int `cbor:"5,keyasint,omitempty"`

	// Owner is the connector or device id backing the accessory.
	Owner string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Characteristic *CharacteristicEvent `cbor:"10,keyasint,omitempty"` // Read, write, change
	StateChange    *StateChangeEvent    `cbor:"11,keyasint,omitempty"` // Accessory lifecycle
	Error          *ErrorEventData      `cbor:"12,keyasint,omitempty"` // Errors
}

// Direction indicates the direction of value flow.
type Direction uint8

const (
	// DirectionIn indicates a value arriving at the bridge.
	DirectionIn Direction = 0
	// DirectionOut indicates a value leaving the bridge.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Source identifies who caused an event.
type Source uint8

const (
	// SourceHomeKit is a HomeKit controller.
	SourceHomeKit Source = 0
	// SourceDevice is the device behind an accessory.
	SourceDevice Source = 1
	// SourceBridge is the bridge itself.
	SourceBridge Source = 2
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceHomeKit:
		return "HOMEKIT"
	case SourceDevice:
		return "DEVICE"
	case SourceBridge:
		return "BRIDGE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRead indicates a characteristic read.
	CategoryRead Category = 0
	// CategoryWrite indicates a characteristic write.
	CategoryWrite Category = 1
	// CategoryChange indicates a characteristic value change notification.
	CategoryChange Category = 2
	// CategoryState indicates an accessory state change.
	CategoryState Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRead:
		return "READ"
	case CategoryWrite:
		return "WRITE"
	case CategoryChange:
		return "CHANGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CharacteristicEvent captures one characteristic value event.
type CharacteristicEvent struct {
	// IID is the characteristic instance id.
	IID int `cbor:"1,keyasint"`

	// Name is the characteristic type name.
	Name string `cbor:"2,keyasint"`

	// Service is the owning service type name.
	Service string `cbor:"3,keyasint,omitempty"`

	// Raw is the value as HomeKit sent or received it.
	Raw any `cbor:"4,keyasint,omitempty"`

	// Value is the device domain value.
	Value any `cbor:"5,keyasint,omitempty"`

	// Status is the HAP status of a read or write.
	Status *wire.Status `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures accessory lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityAccessory indicates an accessory state change.
	StateEntityAccessory StateEntity = 0
	// StateEntityDatabase indicates an accessory database state change.
	StateEntityDatabase StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityAccessory:
		return "ACCESSORY"
	case StateEntityDatabase:
		return "DATABASE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the HAP status code (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
