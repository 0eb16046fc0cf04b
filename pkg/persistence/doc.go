// Package persistence keeps the bridge's accessory and instance ids stable
// across restarts.
//
// HomeKit controllers cache the accessory database of a paired bridge, so an
// accessory must keep its aid and every service and characteristic its iid
// for the lifetime of the pairing. BridgeState records the aid per owner
// (connector or device id) and the IID assignments per aid.
//
// Three Store implementations exist: FileStore writes one JSON file,
// BoltStore keeps the state in a bbolt database and SQLiteStore spreads it
// over relational tables.
package persistence
