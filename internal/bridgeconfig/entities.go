package bridgeconfig

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/model"
)

// Device is a configured device with the accessory category it is exposed
// as.
type Device struct {
	*devices.StaticDevice
	Category model.Category
}

// ConnectorID returns the connector id. Without a configured id it is derived
// from the bridge name, so the same file always yields the same id.
func (c *Config) ConnectorID() uuid.UUID {
	if id, err := uuid.Parse(c.Bridge.ID); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(c.Bridge.Name))
}

// Connector returns the connector owning the bridge accessory.
func (c *Config) Connector() *devices.StaticConnector {
	return &devices.StaticConnector{
		UUID:      c.ConnectorID(),
		Ident:     c.Bridge.Identifier,
		LabelName: c.Bridge.Name,
	}
}

// BuildDevices converts the configured devices into static device entities.
// Channel and property ids are derived from their parents so they are stable
// across restarts.
func (c *Config) BuildDevices() ([]Device, error) {
	connector := c.ConnectorID()

	out := make([]Device, 0, len(c.Devices))
	for _, dc := range c.Devices {
		id, err := uuid.Parse(dc.ID)
		if err != nil {
			id = uuid.NewSHA1(connector, []byte(dc.Identifier))
		}
		category, err := model.ParseCategory(dc.Category)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", dc.Identifier, err)
		}

		device := &devices.StaticDevice{
			UUID:           id,
			Ident:          dc.Identifier,
			LabelName:      dc.Name,
			HardwareVendor: dc.Manufacturer,
			HardwareModel:  dc.Model,
		}
		for _, cc := range dc.Channels {
			channel := &devices.StaticChannel{
				UUID:  uuid.NewSHA1(id, []byte(cc.Identifier)),
				Ident: cc.Identifier,
			}
			for _, pc := range cc.Properties {
				p, err := pc.build(channel.UUID)
				if err != nil {
					return nil, fmt.Errorf("device %s channel %s: %w", dc.Identifier, cc.Identifier, err)
				}
				channel.ChannelProperties = append(channel.ChannelProperties, p)
			}
			device.DeviceChannels = append(device.DeviceChannels, channel)
		}

		out = append(out, Device{StaticDevice: device, Category: category})
	}
	return out, nil
}

func (pc PropertyConfig) build(channel uuid.UUID) (*devices.StaticProperty, error) {
	format, err := pc.format()
	if err != nil {
		return nil, err
	}
	value, err := domainValue(pc.Type, pc.Value)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", pc.Identifier, err)
	}

	p := devices.NewStaticProperty(pc.Identifier, pc.Type, format, value)
	p.UUID = uuid.NewSHA1(channel, []byte(pc.Identifier))
	return p, nil
}

// format returns the first configured format kind. A property carries at
// most one.
func (pc PropertyConfig) format() (devices.Format, error) {
	switch {
	case len(pc.Enum) > 0:
		return devices.StringEnumFormat{Items: pc.Enum}, nil
	case len(pc.Combined) > 0:
		rows := make([]devices.CombinedEnumRow, 0, len(pc.Combined))
		for _, rc := range pc.Combined {
			domain, err := domainValue(pc.Type, rc.Domain)
			if err != nil {
				return nil, fmt.Errorf("property %s combined row: %w", pc.Identifier, err)
			}
			rows = append(rows, devices.CombinedEnumRow{
				item(pc.Type, domain),
				item(dataTypeOf(rc.FromClient), rc.FromClient),
				item(dataTypeOf(rc.ToClient), rc.ToClient),
			})
		}
		return devices.CombinedEnumFormat{Items: rows}, nil
	case pc.Min != nil || pc.Max != nil:
		return devices.NumberRangeFormat{Min: pc.Min, Max: pc.Max}, nil
	default:
		return nil, nil
	}
}

func item(dataType devices.DataType, v any) *devices.CombinedEnumItem {
	if v == nil {
		return nil
	}
	return &devices.CombinedEnumItem{DataType: dataType, Value: v}
}

// dataTypeOf infers the data type of a decoded YAML scalar.
func dataTypeOf(v any) devices.DataType {
	switch v.(type) {
	case bool:
		return devices.DataTypeBool
	case int:
		return devices.DataTypeInt
	case float64:
		return devices.DataTypeFloat
	case string:
		return devices.DataTypeString
	default:
		return devices.DataTypeUnknown
	}
}

// domainValue converts a decoded YAML scalar into the domain value of
// dataType. Payload types are parsed from their string form.
func domainValue(dataType devices.DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch dataType {
	case devices.DataTypeSwitch, devices.DataTypeButton, devices.DataTypeCover:
		s := devices.Stringify(v)
		p, ok := devices.PayloadFor(dataType, s)
		if !ok {
			return nil, fmt.Errorf("invalid %s payload %q", dataType, s)
		}
		return p, nil
	case devices.DataTypeFloat:
		if i, ok := v.(int); ok {
			return float64(i), nil
		}
	case devices.DataTypeString, devices.DataTypeEnum:
		return devices.Stringify(v), nil
	}
	return v, nil
}
