// Package server holds the accessory database of a HAP bridge.
//
// Database owns the registered accessories, allocates their accessory ids and
// answers the three HomeKit operations the object model needs:
//
//	GET /accessories       Accessories
//	GET /characteristics   ReadCharacteristics
//	PUT /characteristics   WriteCharacteristics
//
// Values written by HomeKit are converted into the device domain, stored as
// expected values and recalculated within their service; every resulting
// change is handed to the listeners registered with Subscribe so it can be
// forwarded to the device. Values reported by the device go through
// UpdateFromDevice and are turned into event notifications for the controller
// sessions that enabled events.
//
// Each accessory is guarded by its own mutex, so operations on different
// accessories do not block each other.
//
// Accessory ids are stable across restarts when a persistence.Store is
// configured: the bridge is always aid 1, devices keep the aid first assigned
// to their owner id, and IIDs are restored from the saved snapshot.
package server
