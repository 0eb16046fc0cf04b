package model

import (
	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/transformer"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// CharacteristicMetadata is the static definition a Characteristic is built
// from.
type CharacteristicMetadata struct {
	TypeID      string
	Name        string
	Format      wire.Format
	Permissions wire.Permissions
	Unit        wire.Unit
	MinValue    *float64
	MaxValue    *float64
	MinStep     *float64
	MaxLength   *int
	ValidValues []int
	Default     any
	Virtual     bool
}

// Characteristic is a single typed value of a Service.
type Characteristic struct {
	meta     CharacteristicMetadata
	property devices.Property

	arena   *arena
	service ServiceID
	key     string
	iid     int

	actualValue   any
	expectedValue any
	valid         bool
}

// NewCharacteristic creates a detached characteristic. The actual value starts
// at the metadata default.
func NewCharacteristic(meta CharacteristicMetadata, property devices.Property) *Characteristic {
	return &Characteristic{
		meta:        meta,
		property:    property,
		service:     NoService,
		actualValue: meta.Default,
		valid:       true,
	}
}

// TypeID returns the characteristic type UUID.
func (c *Characteristic) TypeID() string { return c.meta.TypeID }

// Name returns the HAP characteristic type name.
func (c *Characteristic) Name() string { return c.meta.Name }

// Format returns the HAP value format.
func (c *Characteristic) Format() wire.Format { return c.meta.Format }

// Permissions returns the HAP permissions.
func (c *Characteristic) Permissions() wire.Permissions { return c.meta.Permissions }

// Unit returns the HAP unit, if any.
func (c *Characteristic) Unit() wire.Unit { return c.meta.Unit }

// MinValue returns the lower bound, nil when unbounded.
func (c *Characteristic) MinValue() *float64 { return c.meta.MinValue }

// MaxValue returns the upper bound, nil when unbounded.
func (c *Characteristic) MaxValue() *float64 { return c.meta.MaxValue }

// MinStep returns the step size, nil when unstepped.
func (c *Characteristic) MinStep() *float64 { return c.meta.MinStep }

// MaxLength returns the maximum string length, nil when unlimited.
func (c *Characteristic) MaxLength() *int { return c.meta.MaxLength }

// ValidValues returns the allowed values, nil when unconstrained.
func (c *Characteristic) ValidValues() []int { return c.meta.ValidValues }

// IsVirtual reports whether the characteristic is hidden from HomeKit and
// only drives device writes.
func (c *Characteristic) IsVirtual() bool { return c.meta.Virtual }

// Property returns the bound device property, or nil.
func (c *Characteristic) Property() devices.Property { return c.property }

// Value returns the actual value.
func (c *Characteristic) Value() any { return c.actualValue }

// SetValue stores the actual value. The value is not validated.
func (c *Characteristic) SetValue(v any) { c.actualValue = v }

// ExpectedValue returns the value written by HomeKit that the device has not
// confirmed yet.
func (c *Characteristic) ExpectedValue() any { return c.expectedValue }

// SetExpectedValue stores the pending value.
func (c *Characteristic) SetExpectedValue(v any) { c.expectedValue = v }

// IsValid reports whether the actual value reflects the device state.
func (c *Characteristic) IsValid() bool { return c.valid }

// SetValid marks the actual value as valid or stale.
func (c *Characteristic) SetValid(valid bool) { c.valid = valid }

// IID returns the instance id, 0 while detached or virtual.
func (c *Characteristic) IID() int { return c.iid }

// Key returns the stable IID key, empty while detached.
func (c *Characteristic) Key() string { return c.key }

// ServiceID returns the id of the owning service, NoService while detached.
func (c *Characteristic) ServiceID() ServiceID { return c.service }

// Service resolves the owning service.
func (c *Characteristic) Service() *Service {
	if c.arena == nil {
		return nil
	}
	return c.arena.service(c.service)
}

// ReadValue returns the actual value converted for HomeKit.
func (c *Characteristic) ReadValue() any {
	return transformer.ToClient(
		c.propertyMetadata(),
		c.meta.Format,
		c.meta.ValidValues,
		c.meta.MaxLength,
		c.meta.MinValue,
		c.meta.MaxValue,
		c.meta.MinStep,
		c.actualValue,
	)
}

// ConvertWrite converts a value written by HomeKit into the device domain.
// A nil result means the write carries no usable value.
func (c *Characteristic) ConvertWrite(raw any) any {
	return transformer.FromClient(c.propertyMetadata(), c.meta.Format, raw)
}

func (c *Characteristic) propertyMetadata() transformer.PropertyMetadata {
	if c.property == nil {
		return nil
	}
	return c.property
}

// ToHap returns the HAP representation. The value is included only for
// readable characteristics.
func (c *Characteristic) ToHap() *wire.Characteristic {
	hc := &wire.Characteristic{
		IID:         c.iid,
		Type:        wire.ShortType(c.meta.TypeID),
		Perms:       c.meta.Permissions.Strings(),
		Format:      c.meta.Format,
		Unit:        c.meta.Unit,
		MinValue:    c.meta.MinValue,
		MaxValue:    c.meta.MaxValue,
		MinStep:     c.meta.MinStep,
		MaxLen:      c.meta.MaxLength,
		ValidValues: c.meta.ValidValues,
	}

	if c.meta.Permissions.CanRead() {
		hc.HasValue = true
		hc.Value = c.ReadValue()
	}

	return hc
}
