// Package factory builds HAP accessory trees from catalog definitions and
// device metadata.
//
// The factories are layered:
//
//	AccessoryFactory  accessory + AccessoryInformation (+ ProtocolInformation)
//	ServiceFactory    one service from its catalog definition
//	CharacteristicsFactory  one characteristic, optionally bound to a property
//
// Builder combines them to turn a whole device, with its channels and
// properties, into an accessory.
//
// Owner/category mismatches return ErrInvalidArgument. Catalog problems
// surface as catalog.ErrInvalidState, catalog.ErrUnknownService or
// catalog.ErrUnknownCharacteristic, wrapped with the failing name.
package factory
