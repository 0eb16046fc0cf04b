// Package wire defines the HomeKit Accessory Protocol wire vocabulary.
//
// HAP exchanges JSON documents over (encrypted) HTTP. This package holds the
// value formats, permissions, units and status codes of the protocol, and the
// document shapes produced for /accessories and /characteristics.
//
// # Accessory Database
//
// The /accessories response is a tree:
//
//	{"accessories": [
//	  {"aid": 1, "services": [
//	    {"iid": 1, "type": "3E", "characteristics": [
//	      {"iid": 2, "type": "14", "perms": ["pw"], "format": "bool"},
//	      ...
//	    ]},
//	    ...
//	  ]}
//	]}
//
// # Nullable vs Absent
//
// A readable characteristic always carries the "value" key, even when the
// value is null. Write-only characteristics never carry it.
package wire
