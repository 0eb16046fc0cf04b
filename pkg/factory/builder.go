package factory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hapbridge/hap-go/pkg/catalog"
	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/model"
)

// channelSuffix matches the ordinal suffix of repeated channels
// ("input_source_2").
var channelSuffix = regexp.MustCompile(`_\d+$`)

// Builder assembles complete accessories from device channels and
// properties.
//
// Each channel becomes one service. The service type is derived from the
// channel identifier ("television_speaker_2" is a TelevisionSpeaker) and each
// property feeds the characteristic named after it ("remote_key_rewind" feeds
// RemoteKeyRewind). Required characteristics are always created; optional and
// virtual ones only when the channel has a matching property.
type Builder struct {
	accessories *AccessoryFactory
	catalog     *catalog.Catalog
}

// NewBuilder creates a builder.
func NewBuilder(c *catalog.Catalog, accessories *AccessoryFactory) *Builder {
	return &Builder{accessories: accessories, catalog: c}
}

// Bridge builds the bridge accessory for connector.
func (b *Builder) Bridge(connector devices.Connector) (*model.Accessory, error) {
	return b.accessories.Create(connector, BridgeAID, model.CategoryBridge)
}

// Device builds the accessory for device, with one service per channel.
// Channels that map to no known service are skipped.
func (b *Builder) Device(device devices.Device, aid int, category model.Category) (*model.Accessory, error) {
	acc, err := b.accessories.Create(device, aid, category)
	if err != nil {
		return nil, err
	}

	for _, channel := range device.Channels() {
		name, ok := b.ServiceName(channel.Identifier())
		if !ok {
			if logger := b.accessories.config.Logger; logger != nil {
				logger.Warn("channel skipped: no matching service",
					"device", device.Identifier(), "channel", channel.Identifier())
			}
			continue
		}

		s, err := b.service(name, channel)
		if err != nil {
			return nil, fmt.Errorf("device %s channel %s: %w", device.Identifier(), channel.Identifier(), err)
		}
		if err := acc.AddService(s); err != nil {
			return nil, err
		}
	}

	return acc, nil
}

func (b *Builder) service(name string, channel devices.Channel) (*model.Service, error) {
	services := b.accessories.services
	s, err := services.Create(name, channel)
	if err != nil {
		return nil, err
	}

	properties := make(map[string]devices.Property)
	for _, p := range channel.Properties() {
		properties[strings.ToLower(pascalCase(p.Identifier()))] = p
	}

	for _, char := range s.RequiredCharacteristics() {
		if _, err := services.AddCharacteristic(s, char, properties[strings.ToLower(char)]); err != nil {
			return nil, err
		}
	}

	for _, group := range [][]string{s.OptionalCharacteristics(), s.VirtualCharacteristics()} {
		for _, char := range group {
			property, ok := properties[strings.ToLower(char)]
			if !ok {
				continue
			}
			if _, err := services.AddCharacteristic(s, char, property); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// ServiceName resolves a channel identifier to a catalog service name.
func (b *Builder) ServiceName(channelIdentifier string) (string, bool) {
	candidate := pascalCase(channelSuffix.ReplaceAllString(channelIdentifier, ""))
	for name := range b.catalog.Services {
		if strings.EqualFold(name, candidate) {
			return name, true
		}
	}
	return "", false
}

// pascalCase converts a snake_case identifier to PascalCase.
func pascalCase(identifier string) string {
	var sb strings.Builder
	for _, part := range strings.FieldsFunc(identifier, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}
