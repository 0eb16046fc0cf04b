package catalog

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hapbridge/hap-go/pkg/model"
	"github.com/hapbridge/hap-go/pkg/transformer"
	"github.com/hapbridge/hap-go/pkg/wire"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Catalog errors.
var (
	ErrInvalidState          = errors.New("invalid catalog state")
	ErrUnknownService        = errors.New("unknown service")
	ErrUnknownCharacteristic = errors.New("unknown characteristic")
)

// ServiceDef is the static definition of one HAP service type.
type ServiceDef struct {
	UUID                    string   `yaml:"uuid"`
	RequiredCharacteristics []string `yaml:"required"`
	OptionalCharacteristics []string `yaml:"optional"`
	VirtualCharacteristics  []string `yaml:"virtual"`
}

// CharacteristicDef is the static definition of one HAP characteristic type.
type CharacteristicDef struct {
	UUID        string   `yaml:"uuid"`
	Format      string   `yaml:"format"`
	Permissions []string `yaml:"perms"`
	Unit        string   `yaml:"unit"`
	MinValue    *float64 `yaml:"minValue"`
	MaxValue    *float64 `yaml:"maxValue"`
	MinStep     *float64 `yaml:"minStep"`
	MaxLength   *int     `yaml:"maxLen"`
	ValidValues []int    `yaml:"validValues"`
	Value       any      `yaml:"value"`
}

// Catalog holds the service and characteristic definitions by type name.
type Catalog struct {
	Services        map[string]ServiceDef
	Characteristics map[string]CharacteristicDef
}

// Parse decodes service and characteristic definitions from YAML.
func Parse(services, characteristics []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(services, &c.Services); err != nil {
		return nil, fmt.Errorf("parsing services: %w", err)
	}
	if err := yaml.Unmarshal(characteristics, &c.Characteristics); err != nil {
		return nil, fmt.Errorf("parsing characteristics: %w", err)
	}
	if c.Services == nil {
		c.Services = make(map[string]ServiceDef)
	}
	if c.Characteristics == nil {
		c.Characteristics = make(map[string]CharacteristicDef)
	}
	return c, nil
}

var (
	loadOnce sync.Once
	loaded   *Catalog
	loadErr  error
)

// Load returns the embedded catalog. It is parsed and validated once.
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = loadEmbedded()
	})
	return loaded, loadErr
}

func loadEmbedded() (*Catalog, error) {
	services, err := dataFS.ReadFile("data/services.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading services: %w", err)
	}
	characteristics, err := dataFS.ReadFile("data/characteristics.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading characteristics: %w", err)
	}

	c, err := Parse(services, characteristics)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ServiceNames returns all service type names, sorted.
func (c *Catalog) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CharacteristicNames returns all characteristic type names, sorted.
func (c *Catalog) CharacteristicNames() []string {
	names := make([]string, 0, len(c.Characteristics))
	for name := range c.Characteristics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service returns the definition of a service type.
func (c *Catalog) Service(name string) (ServiceDef, error) {
	def, ok := c.Services[name]
	if !ok {
		return ServiceDef{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	return def, nil
}

// Characteristic returns the definition of a characteristic type.
func (c *Catalog) Characteristic(name string) (CharacteristicDef, error) {
	def, ok := c.Characteristics[name]
	if !ok {
		return CharacteristicDef{}, fmt.Errorf("%w: %s", ErrUnknownCharacteristic, name)
	}
	return def, nil
}

// ServiceMetadata returns the model metadata of a service type. A definition
// without UUID or RequiredCharacteristics is an ErrInvalidState.
func (c *Catalog) ServiceMetadata(name string) (model.ServiceMetadata, error) {
	def, err := c.Service(name)
	if err != nil {
		return model.ServiceMetadata{}, err
	}
	if def.UUID == "" {
		return model.ServiceMetadata{}, fmt.Errorf("%w: service %s has no uuid", ErrInvalidState, name)
	}
	if def.RequiredCharacteristics == nil {
		return model.ServiceMetadata{}, fmt.Errorf("%w: service %s has no required characteristics", ErrInvalidState, name)
	}

	return model.ServiceMetadata{
		TypeID:   def.UUID,
		Name:     name,
		Required: def.RequiredCharacteristics,
		Optional: def.OptionalCharacteristics,
		Virtual:  def.VirtualCharacteristics,
	}, nil
}

// CharacteristicMetadata returns the model metadata of a characteristic type.
// A definition without UUID or with a missing or unknown format is an
// ErrInvalidState.
func (c *Catalog) CharacteristicMetadata(name string) (model.CharacteristicMetadata, error) {
	def, err := c.Characteristic(name)
	if err != nil {
		return model.CharacteristicMetadata{}, err
	}
	if def.UUID == "" {
		return model.CharacteristicMetadata{}, fmt.Errorf("%w: characteristic %s has no uuid", ErrInvalidState, name)
	}
	if def.Format == "" {
		return model.CharacteristicMetadata{}, fmt.Errorf("%w: characteristic %s has no format", ErrInvalidState, name)
	}

	format, err := wire.ParseFormat(def.Format)
	if err != nil {
		return model.CharacteristicMetadata{}, fmt.Errorf("%w: characteristic %s: %v", ErrInvalidState, name, err)
	}

	perms := make(wire.Permissions, 0, len(def.Permissions))
	for _, p := range def.Permissions {
		perm := wire.Permission(p)
		if !perm.Valid() {
			return model.CharacteristicMetadata{}, fmt.Errorf("%w: characteristic %s has invalid permission %q", ErrInvalidState, name, p)
		}
		perms = append(perms, perm)
	}

	var value any
	if def.Value != nil {
		value = transformer.FromClient(nil, format, def.Value)
	}

	return model.CharacteristicMetadata{
		TypeID:      def.UUID,
		Name:        name,
		Format:      format,
		Permissions: perms,
		Unit:        wire.Unit(def.Unit),
		MinValue:    def.MinValue,
		MaxValue:    def.MaxValue,
		MinStep:     def.MinStep,
		MaxLength:   def.MaxLength,
		ValidValues: def.ValidValues,
		Default:     value,
	}, nil
}

// Validate checks every definition and every characteristic a service
// references. All problems are reported together.
func (c *Catalog) Validate() error {
	var errs []error

	for _, name := range c.CharacteristicNames() {
		if _, err := c.CharacteristicMetadata(name); err != nil {
			errs = append(errs, err)
		}
	}

	for _, name := range c.ServiceNames() {
		meta, err := c.ServiceMetadata(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, group := range [][]string{meta.Required, meta.Optional, meta.Virtual} {
			for _, char := range group {
				if _, ok := c.Characteristics[char]; !ok {
					errs = append(errs, fmt.Errorf("%w: service %s references %s", ErrInvalidState, name, char))
				}
			}
		}
	}

	return errors.Join(errs...)
}
