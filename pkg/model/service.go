package model

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// Service errors.
var (
	ErrServiceNotAttached = errors.New("service is not attached to an accessory")
	ErrForeignService     = errors.New("service belongs to another accessory")
)

// ServiceID identifies a service within its accessory.
type ServiceID int

// NoService is the id of a service that is not attached to an accessory.
const NoService ServiceID = -1

// ServiceKind is the closed set of service variants. The kind selects the
// recalculation behavior and the automatic service links.
type ServiceKind uint8

const (
	ServiceKindGeneric ServiceKind = iota
	ServiceKindTelevision
	ServiceKindTelevisionSpeaker
	ServiceKindInputSource
	ServiceKindLightBulb
)

// String returns the kind name.
func (k ServiceKind) String() string {
	switch k {
	case ServiceKindGeneric:
		return "generic"
	case ServiceKindTelevision:
		return "television"
	case ServiceKindTelevisionSpeaker:
		return "television_speaker"
	case ServiceKindInputSource:
		return "input_source"
	case ServiceKindLightBulb:
		return "lightbulb"
	default:
		return "unknown"
	}
}

// ServiceKindFor returns the variant for a HAP service type name.
func ServiceKindFor(name string) ServiceKind {
	switch name {
	case ServiceNameTelevision:
		return ServiceKindTelevision
	case ServiceNameTelevisionSpeaker:
		return ServiceKindTelevisionSpeaker
	case ServiceNameInputSource:
		return ServiceKindInputSource
	case ServiceNameLightbulb:
		return ServiceKindLightBulb
	default:
		return ServiceKindGeneric
	}
}

// ServiceMetadata is the static definition a Service is built from.
type ServiceMetadata struct {
	TypeID   string
	Name     string
	Required []string
	Optional []string
	Virtual  []string
}

// Service is a named group of characteristics, optionally bound to a device
// channel.
type Service struct {
	meta    ServiceMetadata
	kind    ServiceKind
	channel devices.Channel

	primary bool
	hidden  bool

	arena *arena
	id    ServiceID
	key   string
	iid   int

	characteristics []*Characteristic
	linked          []ServiceID
}

// NewService creates a detached service of the kind matching its name.
func NewService(meta ServiceMetadata, channel devices.Channel) *Service {
	return &Service{
		meta:    meta,
		kind:    ServiceKindFor(meta.Name),
		channel: channel,
		id:      NoService,
	}
}

// TypeID returns the service type UUID.
func (s *Service) TypeID() string { return s.meta.TypeID }

// Name returns the HAP service type name.
func (s *Service) Name() string { return s.meta.Name }

// Kind returns the service variant.
func (s *Service) Kind() ServiceKind { return s.kind }

// Channel returns the bound device channel, or nil.
func (s *Service) Channel() devices.Channel { return s.channel }

// RequiredCharacteristics returns the names every instance must carry.
func (s *Service) RequiredCharacteristics() []string { return s.meta.Required }

// OptionalCharacteristics returns the names an instance may carry.
func (s *Service) OptionalCharacteristics() []string { return s.meta.Optional }

// VirtualCharacteristics returns the names of characteristics that are never
// exposed to HomeKit.
func (s *Service) VirtualCharacteristics() []string { return s.meta.Virtual }

// IsPrimary reports whether the service is the accessory's primary service.
func (s *Service) IsPrimary() bool { return s.primary }

// SetPrimary marks the service as primary.
func (s *Service) SetPrimary(primary bool) { s.primary = primary }

// IsHidden reports whether the service is hidden from the user.
func (s *Service) IsHidden() bool { return s.hidden }

// SetHidden marks the service as hidden.
func (s *Service) SetHidden(hidden bool) { s.hidden = hidden }

// ID returns the service id, NoService while detached.
func (s *Service) ID() ServiceID { return s.id }

// IID returns the instance id, 0 while detached.
func (s *Service) IID() int { return s.iid }

// Key returns the stable IID key, empty while detached.
func (s *Service) Key() string { return s.key }

// Characteristics returns the owned characteristics in insertion order.
func (s *Service) Characteristics() []*Characteristic { return s.characteristics }

// AddCharacteristic appends c. Duplicate names are not rejected. When the
// service is already attached, c receives its IID immediately.
func (s *Service) AddCharacteristic(c *Characteristic) {
	s.characteristics = append(s.characteristics, c)
	if s.arena != nil {
		s.arena.attachCharacteristic(s, c)
	}
}

// FindCharacteristic returns the first characteristic with the given type
// name, or nil.
func (s *Service) FindCharacteristic(name string) *Characteristic {
	for _, c := range s.characteristics {
		if c.meta.Name == name {
			return c
		}
	}
	return nil
}

// HasCharacteristic reports whether a characteristic with the given name
// exists.
func (s *Service) HasCharacteristic(name string) bool {
	return s.FindCharacteristic(name) != nil
}

// AddLinkedService links other to s. Both services must belong to the same
// accessory. Linking the same service twice is allowed; ToHap emits it once.
func (s *Service) AddLinkedService(other *Service) error {
	if s.arena == nil || other.arena == nil {
		return ErrServiceNotAttached
	}
	if s.arena != other.arena {
		return fmt.Errorf("%w: %s", ErrForeignService, other.meta.Name)
	}
	s.linked = append(s.linked, other.id)
	return nil
}

// LinkedServices returns the linked services, explicit links first, without
// duplicates.
func (s *Service) LinkedServices() []*Service {
	if s.arena == nil {
		return nil
	}

	ids := s.linkedIDs()
	out := make([]*Service, 0, len(ids))
	for _, id := range ids {
		if linked := s.arena.service(id); linked != nil {
			out = append(out, linked)
		}
	}
	return out
}

func (s *Service) linkedIDs() []ServiceID {
	ids := append([]ServiceID(nil), s.linked...)

	// A television links every input source and speaker of its accessory.
	if s.kind == ServiceKindTelevision {
		for _, other := range s.arena.services {
			if other.kind == ServiceKindInputSource || other.kind == ServiceKindTelevisionSpeaker {
				ids = append(ids, other.id)
			}
		}
	}

	seen := make(map[ServiceID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == s.id || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ToHap returns the HAP representation. Virtual characteristics are omitted.
func (s *Service) ToHap() *wire.Service {
	hs := &wire.Service{
		IID:             s.iid,
		Type:            wire.ShortType(s.meta.TypeID),
		Primary:         s.primary,
		Hidden:          s.hidden,
		Characteristics: make([]*wire.Characteristic, 0, len(s.characteristics)),
	}

	for _, c := range s.characteristics {
		if c.IsVirtual() {
			continue
		}
		hs.Characteristics = append(hs.Characteristics, c.ToHap())
	}

	for _, linked := range s.LinkedServices() {
		hs.Linked = append(hs.Linked, linked.iid)
	}

	return hs
}

// serviceKey identifies s among the services of its accessory. ordinal counts
// the earlier services with the same name and channel. The first service of
// a channel keeps the plain channel key.
func serviceKey(s *Service, ordinal int) string {
	if s.channel != nil {
		key := s.meta.Name + "@" + s.channel.ID().String()
		if ordinal > 0 {
			key += "#" + strconv.Itoa(ordinal)
		}
		return key
	}
	return s.meta.Name + "#" + strconv.Itoa(ordinal)
}

func sameChannel(a, b devices.Channel) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

func characteristicKey(serviceKey, name string, ordinal int) string {
	return serviceKey + "/" + name + "#" + strconv.Itoa(ordinal)
}
