package factory

import (
	"fmt"

	"github.com/hapbridge/hap-go/pkg/catalog"
	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/model"
)

// CharacteristicsFactory creates characteristics from catalog definitions.
type CharacteristicsFactory struct {
	catalog *catalog.Catalog
}

// NewCharacteristicsFactory creates a factory backed by c.
func NewCharacteristicsFactory(c *catalog.Catalog) *CharacteristicsFactory {
	return &CharacteristicsFactory{catalog: c}
}

// Create builds the characteristic name, optionally bound to property.
//
// A bound property supplies the initial value and, when it carries a number
// range format, overrides the catalog bounds.
func (f *CharacteristicsFactory) Create(name string, property devices.Property, virtual bool) (*model.Characteristic, error) {
	meta, err := f.catalog.CharacteristicMetadata(name)
	if err != nil {
		return nil, fmt.Errorf("characteristic %s: %w", name, err)
	}
	meta.Virtual = virtual

	if property != nil {
		applyRange(&meta, property.Format())
	}

	c := model.NewCharacteristic(meta, property)
	if property != nil {
		c.SetValue(property.Value())
		c.SetValid(property.Value() != nil)
	}
	return c, nil
}

func applyRange(meta *model.CharacteristicMetadata, format devices.Format) {
	var r devices.NumberRangeFormat
	switch f := format.(type) {
	case devices.NumberRangeFormat:
		r = f
	case *devices.NumberRangeFormat:
		r = *f
	default:
		return
	}

	if r.Min != nil {
		meta.MinValue = r.Min
	}
	if r.Max != nil {
		meta.MaxValue = r.Max
	}
}
