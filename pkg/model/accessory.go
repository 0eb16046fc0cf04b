package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hapbridge/hap-go/pkg/wire"
)

// Accessory errors.
var (
	ErrMissingRequiredCharacteristic = errors.New("missing required characteristic")
	ErrMissingInformationService     = errors.New("missing accessory information service")
	ErrMissingProtocolService        = errors.New("missing protocol information service")
	ErrServiceAlreadyAttached        = errors.New("service already attached")
)

// arena holds the services of one accessory. Services and characteristics
// refer back to their owner through it by id.
type arena struct {
	services []*Service
	iids     *IIDManager
}

func (a *arena) service(id ServiceID) *Service {
	if id < 0 || int(id) >= len(a.services) {
		return nil
	}
	return a.services[id]
}

func (a *arena) attachService(s *Service) {
	ordinal := 0
	for _, other := range a.services {
		if other.meta.Name == s.meta.Name && sameChannel(other.channel, s.channel) {
			ordinal++
		}
	}

	s.arena = a
	s.id = ServiceID(len(a.services))
	s.key = serviceKey(s, ordinal)
	a.services = append(a.services, s)
	s.iid = a.iids.Assign(s.key)

	for _, c := range s.characteristics {
		a.attachCharacteristic(s, c)
	}
}

func (a *arena) attachCharacteristic(s *Service, c *Characteristic) {
	ordinal := 0
	for _, other := range s.characteristics {
		if other == c {
			break
		}
		if other.meta.Name == c.meta.Name {
			ordinal++
		}
	}

	c.arena = a
	c.service = s.id
	c.key = characteristicKey(s.key, c.meta.Name, ordinal)
	if !c.meta.Virtual {
		c.iid = a.iids.Assign(c.key)
	}
}

// Accessory is the bridge or one bridged device.
type Accessory struct {
	aid      int
	category Category
	kind     AccessoryKind
	name     string
	owner    uuid.UUID

	arena arena
}

// NewAccessory creates an accessory without services.
func NewAccessory(aid int, category Category, kind AccessoryKind, name string, owner uuid.UUID) *Accessory {
	return &Accessory{
		aid:      aid,
		category: category,
		kind:     kind,
		name:     name,
		owner:    owner,
		arena:    arena{iids: NewIIDManager()},
	}
}

// AID returns the accessory id.
func (a *Accessory) AID() int { return a.aid }

// SetAID changes the accessory id. The owning server keeps it unique.
func (a *Accessory) SetAID(aid int) { a.aid = aid }

// Category returns the HAP category.
func (a *Accessory) Category() Category { return a.category }

// Kind returns the accessory variant.
func (a *Accessory) Kind() AccessoryKind { return a.kind }

// IsBridge reports whether this is the bridge accessory.
func (a *Accessory) IsBridge() bool { return a.kind == KindBridge }

// Name returns the display name.
func (a *Accessory) Name() string { return a.name }

// Owner returns the id of the connector or device backing the accessory.
func (a *Accessory) Owner() uuid.UUID { return a.owner }

// IIDs returns the accessory's IID manager.
func (a *Accessory) IIDs() *IIDManager { return a.arena.iids }

// Services returns the services in insertion order.
func (a *Accessory) Services() []*Service { return a.arena.services }

// AddService attaches s and assigns IIDs to it and its characteristics, the
// service first. When s is the kind's primary service it is marked primary.
func (a *Accessory) AddService(s *Service) error {
	if s.arena != nil {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyAttached, s.meta.Name)
	}

	if primary := a.kind.PrimaryService(); primary != "" && primary == s.meta.Name && a.primaryService() == nil {
		s.primary = true
	}

	a.arena.attachService(s)
	return nil
}

func (a *Accessory) primaryService() *Service {
	for _, s := range a.arena.services {
		if s.primary {
			return s
		}
	}
	return nil
}

// Service returns the service with the given id, or nil.
func (a *Accessory) Service(id ServiceID) *Service {
	return a.arena.service(id)
}

// FindService returns the first service with the given type name, or nil.
func (a *Accessory) FindService(name string) *Service {
	for _, s := range a.arena.services {
		if s.meta.Name == name {
			return s
		}
	}
	return nil
}

// FindServices returns every service with the given type name.
func (a *Accessory) FindServices(name string) []*Service {
	var out []*Service
	for _, s := range a.arena.services {
		if s.meta.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// FindByIID returns the characteristic with the given iid and its service.
func (a *Accessory) FindByIID(iid int) (*Service, *Characteristic) {
	for _, s := range a.arena.services {
		for _, c := range s.characteristics {
			if c.iid == iid && !c.meta.Virtual {
				return s, c
			}
		}
	}
	return nil, nil
}

// FindServiceByIID returns the service with the given iid, or nil.
func (a *Accessory) FindServiceByIID(iid int) *Service {
	for _, s := range a.arena.services {
		if s.iid == iid {
			return s
		}
	}
	return nil
}

// Characteristics returns every characteristic of every service.
func (a *Accessory) Characteristics() []*Characteristic {
	var out []*Characteristic
	for _, s := range a.arena.services {
		out = append(out, s.characteristics...)
	}
	return out
}

// Validate checks that the tree can be exposed to HomeKit: exactly one
// information service (and protocol service for bridges) and every required
// characteristic present.
func (a *Accessory) Validate() error {
	if n := len(a.FindServices(ServiceNameAccessoryInformation)); n != 1 {
		return fmt.Errorf("%w: aid %d has %d", ErrMissingInformationService, a.aid, n)
	}
	if a.IsBridge() {
		if n := len(a.FindServices(ServiceNameProtocolInformation)); n != 1 {
			return fmt.Errorf("%w: aid %d has %d", ErrMissingProtocolService, a.aid, n)
		}
	}

	for _, s := range a.arena.services {
		for _, name := range s.meta.Required {
			if !s.HasCharacteristic(name) {
				return fmt.Errorf("%w: %s.%s on aid %d", ErrMissingRequiredCharacteristic, s.meta.Name, name, a.aid)
			}
		}
	}

	return a.validateIIDs()
}

// validateIIDs checks that no two services or characteristics share an iid.
func (a *Accessory) validateIIDs() error {
	owners := make(map[int]string)
	claim := func(iid int, name string) error {
		if other, ok := owners[iid]; ok {
			return fmt.Errorf("%w: %d shared by %s and %s on aid %d", ErrDuplicateIID, iid, other, name, a.aid)
		}
		owners[iid] = name
		return nil
	}

	for _, s := range a.arena.services {
		if err := claim(s.iid, s.meta.Name); err != nil {
			return err
		}
		for _, c := range s.characteristics {
			if c.meta.Virtual {
				continue
			}
			if err := claim(c.iid, s.meta.Name+"."+c.meta.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToHap returns the HAP representation of the accessory.
func (a *Accessory) ToHap() *wire.Accessory {
	ha := &wire.Accessory{
		AID:      a.aid,
		Services: make([]*wire.Service, 0, len(a.arena.services)),
	}
	for _, s := range a.arena.services {
		ha.Services = append(ha.Services, s.ToHap())
	}
	return ha
}

// RestoreIIDs replaces the IID assignments with a persisted snapshot. Objects
// whose key is in the snapshot get their previous iid back; others get fresh
// ones above every restored iid.
func (a *Accessory) RestoreIIDs(snapshot IIDSnapshot) error {
	iids := NewIIDManager()
	if err := iids.Restore(snapshot); err != nil {
		return err
	}

	a.arena.iids = iids
	for _, s := range a.arena.services {
		s.iid = iids.Assign(s.key)
		for _, c := range s.characteristics {
			if !c.meta.Virtual {
				c.iid = iids.Assign(c.key)
			}
		}
	}
	return nil
}
