package devices

import (
	"sync"

	"github.com/google/uuid"
)

// Connector is the connector-level entity owning the bridge accessory.
type Connector interface {
	ID() uuid.UUID
	Identifier() string
	Name() string
}

// Device is a device-level entity owning one non-bridge accessory.
type Device interface {
	ID() uuid.UUID
	Identifier() string
	Name() string
	Manufacturer() string
	Model() string
	Channels() []Channel
}

// Channel groups the properties of one device function. A Service may be
// bound to one channel.
type Channel interface {
	ID() uuid.UUID
	Identifier() string
	Properties() []Property
	FindProperty(identifier string) Property
}

// Property is one value of a channel. A Characteristic may be bound to one
// property.
type Property interface {
	ID() uuid.UUID
	Identifier() string
	DataType() DataType
	Format() Format
	Value() any
}

// StaticConnector is an in-memory Connector.
type StaticConnector struct {
	UUID      uuid.UUID
	Ident     string
	LabelName string
}

// ID implements Connector.
func (c *StaticConnector) ID() uuid.UUID { return c.UUID }

// Identifier implements Connector.
func (c *StaticConnector) Identifier() string { return c.Ident }

// Name implements Connector.
func (c *StaticConnector) Name() string {
	if c.LabelName == "" {
		return c.Ident
	}
	return c.LabelName
}

// StaticDevice is an in-memory Device.
type StaticDevice struct {
	UUID           uuid.UUID
	Ident          string
	LabelName      string
	HardwareVendor string
	HardwareModel  string
	DeviceChannels []*StaticChannel
}

// ID implements Device.
func (d *StaticDevice) ID() uuid.UUID { return d.UUID }

// Identifier implements Device.
func (d *StaticDevice) Identifier() string { return d.Ident }

// Name implements Device.
func (d *StaticDevice) Name() string {
	if d.LabelName == "" {
		return d.Ident
	}
	return d.LabelName
}

// Manufacturer implements Device.
func (d *StaticDevice) Manufacturer() string { return d.HardwareVendor }

// Model implements Device.
func (d *StaticDevice) Model() string { return d.HardwareModel }

// Channels implements Device.
func (d *StaticDevice) Channels() []Channel {
	out := make([]Channel, 0, len(d.DeviceChannels))
	for _, ch := range d.DeviceChannels {
		out = append(out, ch)
	}
	return out
}

// StaticChannel is an in-memory Channel.
type StaticChannel struct {
	UUID              uuid.UUID
	Ident             string
	ChannelProperties []*StaticProperty
}

// ID implements Channel.
func (c *StaticChannel) ID() uuid.UUID { return c.UUID }

// Identifier implements Channel.
func (c *StaticChannel) Identifier() string { return c.Ident }

// Properties implements Channel.
func (c *StaticChannel) Properties() []Property {
	out := make([]Property, 0, len(c.ChannelProperties))
	for _, p := range c.ChannelProperties {
		out = append(out, p)
	}
	return out
}

// FindProperty implements Channel. Returns nil if no property matches.
func (c *StaticChannel) FindProperty(identifier string) Property {
	for _, p := range c.ChannelProperties {
		if p.Ident == identifier {
			return p
		}
	}
	return nil
}

// StaticProperty is an in-memory Property. Its value may be updated
// concurrently with reads.
type StaticProperty struct {
	UUID           uuid.UUID
	Ident          string
	PropertyType   DataType
	PropertyFormat Format

	mu    sync.RWMutex
	value any
}

// NewStaticProperty creates a property with an initial value.
func NewStaticProperty(identifier string, dataType DataType, format Format, value any) *StaticProperty {
	return &StaticProperty{
		UUID:           uuid.New(),
		Ident:          identifier,
		PropertyType:   dataType,
		PropertyFormat: format,
		value:          value,
	}
}

// ID implements Property.
func (p *StaticProperty) ID() uuid.UUID { return p.UUID }

// Identifier implements Property.
func (p *StaticProperty) Identifier() string { return p.Ident }

// DataType implements Property.
func (p *StaticProperty) DataType() DataType { return p.PropertyType }

// Format implements Property.
func (p *StaticProperty) Format() Format { return p.PropertyFormat }

// Value implements Property.
func (p *StaticProperty) Value() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// SetValue stores a new domain value.
func (p *StaticProperty) SetValue(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
}

// Compile-time interface satisfaction checks.
var (
	_ Connector = (*StaticConnector)(nil)
	_ Device    = (*StaticDevice)(nil)
	_ Channel   = (*StaticChannel)(nil)
	_ Property  = (*StaticProperty)(nil)
)
