// Package model implements the HomeKit Accessory Protocol object model.
//
// # Hierarchy
//
// HAP uses a 3-level hierarchy:
//
//	Accessory > Service > Characteristic
//
// An Accessory is either the bridge itself or one bridged device. Accessories
// contain Services, each a named capability (Lightbulb, Television, ...).
// Services contain Characteristics, each a single typed value (On,
// Brightness, ...).
//
//	Bridge (aid 1)
//	├── AccessoryInformation (iid 1)
//	│   ├── Identify (iid 2)
//	│   └── ...
//	└── ProtocolInformation
//	    └── Version
//	Device (aid 2)
//	├── AccessoryInformation (iid 1)
//	├── Television (primary, linked: InputSource, TelevisionSpeaker)
//	├── InputSource
//	└── TelevisionSpeaker
//
// # Ownership
//
// Downward references own: an Accessory owns its Services and a Service owns
// its Characteristics. Upward references are ServiceIDs resolved through the
// accessory's service arena, never pointers to the parent object.
//
// # Instance IDs
//
// Every Service and Characteristic gets an instance id (IID) unique within its
// Accessory. IIDs are keyed by a stable object key (type, channel, ordinal) so
// that they survive a restart when the IIDManager is restored from a snapshot.
// IIDs are never reused.
//
// # Values
//
// Characteristics store values as produced by the transformer package; they
// do not validate on their own. Values are converted to the HAP wire domain
// when the tree is serialized with ToHap.
//
// # Concurrency
//
// The object model is not safe for concurrent mutation. Callers serialize
// access per accessory (see the server package).
package model
