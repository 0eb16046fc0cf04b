package factory

import (
	"fmt"

	"github.com/hapbridge/hap-go/pkg/catalog"
	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/model"
)

// ServiceFactory creates services from catalog definitions.
type ServiceFactory struct {
	catalog         *catalog.Catalog
	characteristics *CharacteristicsFactory
}

// NewServiceFactory creates a factory backed by c.
func NewServiceFactory(c *catalog.Catalog) *ServiceFactory {
	return &ServiceFactory{
		catalog:         c,
		characteristics: NewCharacteristicsFactory(c),
	}
}

// Characteristics returns the characteristics factory used for services.
func (f *ServiceFactory) Characteristics() *CharacteristicsFactory {
	return f.characteristics
}

// Create builds an empty service of the given type, optionally bound to
// channel.
func (f *ServiceFactory) Create(name string, channel devices.Channel) (*model.Service, error) {
	meta, err := f.catalog.ServiceMetadata(name)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", name, err)
	}
	return model.NewService(meta, channel), nil
}

// AddCharacteristic creates the characteristic name and appends it to s.
// The characteristic is virtual when s declares it so.
func (f *ServiceFactory) AddCharacteristic(s *model.Service, name string, property devices.Property) (*model.Characteristic, error) {
	c, err := f.characteristics.Create(name, property, contains(s.VirtualCharacteristics(), name))
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", s.Name(), err)
	}
	s.AddCharacteristic(c)
	return c, nil
}

// CreateWithRequired builds a service together with all its required
// characteristics, unbound.
func (f *ServiceFactory) CreateWithRequired(name string) (*model.Service, error) {
	s, err := f.Create(name, nil)
	if err != nil {
		return nil, err
	}
	for _, char := range s.RequiredCharacteristics() {
		if _, err := f.AddCharacteristic(s, char, nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
