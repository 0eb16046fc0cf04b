// Package mqttlink connects the bridged devices to an MQTT broker.
//
// Every device property bound to a characteristic gets two topics:
//
//	<prefix>/<device>/<channel>/<property>      state reported by the device
//	<prefix>/<device>/<channel>/<property>/set  value requested by HomeKit
//
// State messages are applied to the accessory database as device updates.
// HomeKit writes are published on the set topic. Payloads are JSON scalars;
// enumerated payloads travel as strings ("switch_on"), and a bare word that
// is not valid JSON is accepted as a string.
//
// The bridge publishes "online" to <prefix>/bridge/state when connected and
// registers "offline" as its last will.
package mqttlink
