// Package catalog provides the static HAP service and characteristic
// definitions the factories build accessories from.
//
// The definitions ship embedded as YAML (data/services.yaml and
// data/characteristics.yaml). Load returns the embedded catalog; Parse accepts
// definitions from any source, which keeps file I/O out of the factories.
//
// A definition that lacks a UUID, its required characteristics or a format is
// reported as ErrInvalidState. Such a catalog is a packaging error and the
// caller should refuse to start.
package catalog
