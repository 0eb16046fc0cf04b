package factory

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/speps/go-hashids/v2"

	"github.com/hapbridge/hap-go/pkg/catalog"
	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/model"
	"github.com/hapbridge/hap-go/pkg/version"
)

// ErrInvalidArgument is returned when the owner does not match the category.
var ErrInvalidArgument = errors.New("invalid argument")

// BridgeAID is the accessory id of the bridge.
const BridgeAID = 1

// serialChunk is the number of decimal digits encoded per hashids number.
const serialChunk = 5

// Config configures an AccessoryFactory.
type Config struct {
	// Manufacturer is reported by the bridge accessory.
	Manufacturer string

	// BridgeModel is the model reported by the bridge accessory.
	BridgeModel string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// AccessoryFactory creates accessories with their information services.
type AccessoryFactory struct {
	services *ServiceFactory
	config   Config
	hasher   *hashids.HashID
}

// NewAccessoryFactory creates a factory backed by c.
func NewAccessoryFactory(c *catalog.Catalog, config Config) (*AccessoryFactory, error) {
	if config.Manufacturer == "" {
		config.Manufacturer = "hap-go"
	}
	if config.BridgeModel == "" {
		config.BridgeModel = "Bridge"
	}

	hasher, err := hashids.NewWithData(hashids.NewData())
	if err != nil {
		return nil, fmt.Errorf("creating serial encoder: %w", err)
	}

	return &AccessoryFactory{
		services: NewServiceFactory(c),
		config:   config,
		hasher:   hasher,
	}, nil
}

// Services returns the service factory.
func (f *AccessoryFactory) Services() *ServiceFactory {
	return f.services
}

// Create builds an accessory for owner.
//
// CategoryBridge requires a devices.Connector owner that is not a device and
// yields a bridge with AccessoryInformation and ProtocolInformation. Any other
// category requires a devices.Device owner; the accessory kind follows the
// category.
func (f *AccessoryFactory) Create(owner any, aid int, category model.Category) (*model.Accessory, error) {
	var (
		acc          *model.Accessory
		manufacturer string
		modelName    string
	)

	if category == model.CategoryBridge {
		connector, ok := owner.(devices.Connector)
		if _, isDevice := owner.(devices.Device); !ok || isDevice {
			return nil, fmt.Errorf("%w: bridge accessory requires a connector owner, got %T", ErrInvalidArgument, owner)
		}
		acc = model.NewAccessory(aid, category, model.KindBridge, connector.Name(), connector.ID())
		manufacturer = f.config.Manufacturer
		modelName = f.config.BridgeModel
	} else {
		device, ok := owner.(devices.Device)
		if !ok {
			return nil, fmt.Errorf("%w: %s accessory requires a device owner, got %T", ErrInvalidArgument, category, owner)
		}
		acc = model.NewAccessory(aid, category, model.DeviceKind(category), device.Name(), device.ID())
		manufacturer = device.Manufacturer()
		modelName = device.Model()
	}

	info, err := f.informationService(acc, manufacturer, modelName)
	if err != nil {
		return nil, err
	}
	if err := acc.AddService(info); err != nil {
		return nil, err
	}

	if acc.IsBridge() {
		protocol, err := f.protocolService()
		if err != nil {
			return nil, err
		}
		if err := acc.AddService(protocol); err != nil {
			return nil, err
		}
	}

	if f.config.Logger != nil {
		f.config.Logger.Debug("accessory created",
			"aid", aid, "category", category.String(), "kind", acc.Kind().String(), "name", acc.Name())
	}

	return acc, nil
}

func (f *AccessoryFactory) informationService(acc *model.Accessory, manufacturer, modelName string) (*model.Service, error) {
	s, err := f.services.Create(model.ServiceNameAccessoryInformation, nil)
	if err != nil {
		return nil, err
	}

	serial, err := f.SerialNumber(acc.Owner())
	if err != nil {
		return nil, err
	}

	values := []struct {
		name  string
		value any
	}{
		{model.CharIdentify, nil},
		{model.CharManufacturer, manufacturer},
		{model.CharModel, modelName},
		{model.CharName, acc.Name()},
		{model.CharSerialNumber, serial},
		{model.CharFirmwareRevision, version.FirmwareRevision()},
	}
	for _, v := range values {
		c, err := f.services.AddCharacteristic(s, v.name, nil)
		if err != nil {
			return nil, err
		}
		c.SetValue(v.value)
	}

	return s, nil
}

func (f *AccessoryFactory) protocolService() (*model.Service, error) {
	s, err := f.services.Create(model.ServiceNameProtocolInformation, nil)
	if err != nil {
		return nil, err
	}
	c, err := f.services.AddCharacteristic(s, model.CharVersion, nil)
	if err != nil {
		return nil, err
	}
	c.SetValue(version.Protocol)
	return s, nil
}

// SerialNumber derives a short stable serial number from an owner id. The
// decimal form of the 128-bit id is split into 5-digit chunks and the chunks
// are hashids-encoded.
func (f *AccessoryFactory) SerialNumber(id uuid.UUID) (string, error) {
	digits := new(big.Int).SetBytes(id[:]).String()

	chunks := make([]int, 0, len(digits)/serialChunk+1)
	for i := 0; i < len(digits); i += serialChunk {
		end := min(i+serialChunk, len(digits))
		n, err := strconv.Atoi(digits[i:end])
		if err != nil {
			return "", fmt.Errorf("serial chunk %q: %w", digits[i:end], err)
		}
		chunks = append(chunks, n)
	}

	serial, err := f.hasher.Encode(chunks)
	if err != nil {
		return "", fmt.Errorf("encoding serial: %w", err)
	}
	return serial, nil
}
