// Package devices defines the device-domain collaborators the HAP object
// model consumes.
//
// Devices are organized as Connector > Device > Channel > Property. The
// bridge accessory is owned by a Connector, every other accessory by a
// Device; a Service may be bound to one Channel and a Characteristic to one
// Property.
//
// Persistence of this hierarchy lives outside of this module. The Static*
// types are plain in-memory implementations, populated from configuration
// files or directly in tests.
//
// # Property metadata
//
// The value transformer only looks at two things on a property:
//
//   - DataType: the domain type of the value (bool, float, switch, button, ...)
//   - Format: how values are constrained (string enum, combined enum, range)
//
// Enum-like data types (enum, switch, button, cover) carry payload values
// such as SwitchPayload or ButtonPayload.
package devices
