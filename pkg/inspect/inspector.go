package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hapbridge/hap-go/pkg/model"
	"github.com/hapbridge/hap-go/pkg/server"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// Inspector errors.
var (
	ErrServiceNotFound        = errors.New("service not found")
	ErrCharacteristicNotFound = errors.New("characteristic not found")
	ErrPartialPath            = errors.New("path does not address a characteristic")
)

// Inspector provides inspection and mutation capabilities for the accessories
// of a server.Database.
type Inspector struct {
	db *server.Database
}

// NewInspector creates a new Inspector for the given database.
func NewInspector(db *server.Database) *Inspector {
	return &Inspector{db: db}
}

// Database returns the underlying database.
func (i *Inspector) Database() *server.Database {
	return i.db
}

// BridgeTree represents all registered accessories for display.
type BridgeTree struct {
	Accessories []AccessoryInfo
}

// AccessoryInfo represents accessory information for display.
type AccessoryInfo struct {
	AID      int
	Name     string
	Category model.Category
	Kind     model.AccessoryKind
	Services []ServiceInfo
}

// ServiceInfo represents service information for display.
type ServiceInfo struct {
	IID             int
	Name            string
	Primary         bool
	Hidden          bool
	Linked          []int
	Characteristics []CharacteristicInfo
}

// CharacteristicInfo represents characteristic information for display.
type CharacteristicInfo struct {
	IID         int
	Service     string
	Name        string
	Value       any
	Expected    any
	Format      wire.Format
	Permissions wire.Permissions
	Unit        wire.Unit
	Virtual     bool

	// Property is the identifier of the bound device property, if any.
	Property string
}

// InspectBridge returns a tree of all registered accessories.
func (i *Inspector) InspectBridge() *BridgeTree {
	tree := &BridgeTree{}
	for _, aid := range i.db.AIDs() {
		info, err := i.InspectAccessory(aid)
		if err != nil {
			// removed concurrently
			continue
		}
		tree.Accessories = append(tree.Accessories, *info)
	}
	return tree
}

// InspectAccessory returns information about one accessory.
func (i *Inspector) InspectAccessory(aid int) (*AccessoryInfo, error) {
	var info AccessoryInfo
	err := i.db.View(aid, func(acc *model.Accessory) {
		info = AccessoryInfo{
			AID:      acc.AID(),
			Name:     acc.Name(),
			Category: acc.Category(),
			Kind:     acc.Kind(),
		}
		for _, s := range acc.Services() {
			info.Services = append(info.Services, inspectService(s))
		}
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// InspectService returns information about the service a partial path with
// a service name addresses.
func (i *Inspector) InspectService(path *Path) (*ServiceInfo, error) {
	var (
		info  ServiceInfo
		found bool
	)
	err := i.db.View(path.AID, func(acc *model.Accessory) {
		if s := findService(acc, path.Service); s != nil {
			info = inspectService(s)
			found = true
		}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s on aid %d", ErrServiceNotFound, path.Service, path.AID)
	}
	return &info, nil
}

func inspectService(s *model.Service) ServiceInfo {
	info := ServiceInfo{
		IID:     s.IID(),
		Name:    s.Name(),
		Primary: s.IsPrimary(),
		Hidden:  s.IsHidden(),
	}
	for _, linked := range s.LinkedServices() {
		info.Linked = append(info.Linked, linked.IID())
	}
	for _, c := range s.Characteristics() {
		info.Characteristics = append(info.Characteristics, inspectCharacteristic(s, c))
	}
	return info
}

func inspectCharacteristic(s *model.Service, c *model.Characteristic) CharacteristicInfo {
	info := CharacteristicInfo{
		IID:         c.IID(),
		Service:     s.Name(),
		Name:        c.Name(),
		Expected:    c.ExpectedValue(),
		Format:      c.Format(),
		Permissions: c.Permissions(),
		Unit:        c.Unit(),
		Virtual:     c.IsVirtual(),
	}
	if c.Permissions().CanRead() || c.IsVirtual() {
		info.Value = c.ReadValue()
	}
	if p := c.Property(); p != nil {
		info.Property = p.Identifier()
	}
	return info
}

func findService(acc *model.Accessory, name string) *model.Service {
	for _, s := range acc.Services() {
		if strings.EqualFold(s.Name(), name) {
			return s
		}
	}
	return nil
}

// Resolve returns the characteristic a full path addresses. The first
// matching service and characteristic win.
func (i *Inspector) Resolve(path *Path) (*CharacteristicInfo, error) {
	if path.IsPartial {
		return nil, fmt.Errorf("%w: %s", ErrPartialPath, path.Raw)
	}

	var (
		info  CharacteristicInfo
		found bool
	)
	err := i.db.View(path.AID, func(acc *model.Accessory) {
		var (
			s *model.Service
			c *model.Characteristic
		)
		if path.ByIID() {
			s, c = acc.FindByIID(path.IID)
		} else if s = findService(acc, path.Service); s != nil {
			for _, candidate := range s.Characteristics() {
				if strings.EqualFold(candidate.Name(), path.Characteristic) {
					c = candidate
					break
				}
			}
		}
		if s != nil && c != nil {
			info = inspectCharacteristic(s, c)
			found = true
		}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCharacteristicNotFound, path)
	}
	return &info, nil
}

// ReadCharacteristic reads the value HomeKit would see.
func (i *Inspector) ReadCharacteristic(path *Path) (any, *CharacteristicInfo, error) {
	info, err := i.Resolve(path)
	if err != nil {
		return nil, nil, err
	}
	value, err := i.db.ReadCharacteristic(wire.CharacteristicID{AID: path.AID, IID: info.IID})
	if err != nil {
		return nil, info, err
	}
	return value, info, nil
}

// WriteCharacteristic writes value on behalf of session, as HomeKit would.
func (i *Inspector) WriteCharacteristic(session string, path *Path, value any) error {
	info, err := i.Resolve(path)
	if err != nil {
		return err
	}
	return i.db.WriteCharacteristic(session, wire.CharacteristicID{AID: path.AID, IID: info.IID}, value)
}

// UpdateCharacteristic reports value as coming from the device. Virtual
// characteristics can be updated too.
func (i *Inspector) UpdateCharacteristic(path *Path, value any) error {
	info, err := i.Resolve(path)
	if err != nil {
		return err
	}
	return i.db.UpdateCharacteristic(path.AID, info.Service, info.Name, value)
}

// FormatBridgeTree formats the bridge tree for display.
func (i *Inspector) FormatBridgeTree(tree *BridgeTree, formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Accessories: %d\n", len(tree.Accessories)))
	sb.WriteString("---\n")
	for _, acc := range tree.Accessories {
		sb.WriteString(i.formatAccessory(&acc, formatter, 0))
	}
	return sb.String()
}

// FormatAccessory formats an accessory for display.
func (i *Inspector) FormatAccessory(acc *AccessoryInfo, formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return i.formatAccessory(acc, formatter, 0)
}

func (i *Inspector) formatAccessory(acc *AccessoryInfo, f *Formatter, depth int) string {
	var sb strings.Builder

	header := fmt.Sprintf("Accessory %d: %s (%s, %s)", acc.AID, acc.Name, acc.Category, acc.Kind)
	sb.WriteString(f.Indent(depth, header) + "\n")

	for _, s := range acc.Services {
		sb.WriteString(i.formatService(&s, f, depth+1))
	}
	return sb.String()
}

// FormatService formats a service for display.
func (i *Inspector) FormatService(s *ServiceInfo, formatter *Formatter) string {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return i.formatService(s, formatter, 0)
}

func (i *Inspector) formatService(s *ServiceInfo, f *Formatter, depth int) string {
	var sb strings.Builder

	header := s.Name
	if f.ShowIDs {
		header = fmt.Sprintf("[%d] %s", s.IID, s.Name)
	}
	var flags []string
	if s.Primary {
		flags = append(flags, "primary")
	}
	if s.Hidden {
		flags = append(flags, "hidden")
	}
	if len(s.Linked) > 0 {
		flags = append(flags, fmt.Sprintf("linked %v", s.Linked))
	}
	if len(flags) > 0 {
		header += " (" + strings.Join(flags, ", ") + ")"
	}
	sb.WriteString(f.Indent(depth, header) + "\n")

	for _, c := range s.Characteristics {
		sb.WriteString(f.Indent(depth+1, i.FormatCharacteristic(&c, f)) + "\n")
	}
	return sb.String()
}

// FormatCharacteristic formats one characteristic on a single line.
func (i *Inspector) FormatCharacteristic(c *CharacteristicInfo, f *Formatter) string {
	if f == nil {
		f = NewFormatter()
	}

	var line string
	switch {
	case c.Virtual:
		line = fmt.Sprintf("(virtual) %s = %s", c.Name, f.FormatValue(c.Value, c.Unit))
	case f.ShowIDs:
		line = fmt.Sprintf("[%d] %s = %s", c.IID, c.Name, f.FormatValue(c.Value, c.Unit))
	default:
		line = fmt.Sprintf("%s = %s", c.Name, f.FormatValue(c.Value, c.Unit))
	}

	if c.Expected != nil {
		line += fmt.Sprintf(" (expected %v)", c.Expected)
	}
	if f.ShowMetadata {
		line += fmt.Sprintf(" [%s %s]", c.Format, FormatPermissions(c.Permissions))
	}
	if c.Property != "" {
		line += " <- " + c.Property
	}
	return line
}
