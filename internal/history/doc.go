// Package history records characteristic changes in InfluxDB.
//
// Every change published by the accessory database becomes one point of the
// "characteristic" measurement:
//
//	characteristic,aid=2,characteristic=Brightness,iid=10,service=Lightbulb,source=HOMEKIT value=30
//
// Numeric and boolean values are stored in the float field "value" (booleans
// as 0 or 1). Strings and enumerated payloads are stored in the string field
// "text". Changes without a value are not recorded.
//
// Writes are batched and non-blocking. Write errors are reported through the
// configured logger.
package history
