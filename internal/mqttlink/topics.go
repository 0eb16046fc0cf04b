package mqttlink

import "strings"

// Bridge availability payloads.
const (
	stateOnline  = "online"
	stateOffline = "offline"
)

const setSuffix = "set"

// Topics builds the topic names under Prefix.
type Topics struct {
	Prefix string
}

// BridgeState is the retained availability topic of the bridge.
func (t Topics) BridgeState() string {
	return t.Prefix + "/bridge/state"
}

// State is the topic a device reports property on.
func (t Topics) State(p PropertyPath) string {
	return t.Prefix + "/" + p.String()
}

// Set is the topic HomeKit writes to property are published on.
func (t Topics) Set(p PropertyPath) string {
	return t.State(p) + "/" + setSuffix
}

// StateFilter matches the state topics of all properties.
func (t Topics) StateFilter() string {
	return t.Prefix + "/+/+/+"
}

// ParseState returns the property path of a state topic. Set topics and
// topics outside Prefix are rejected.
func (t Topics) ParseState(topic string) (PropertyPath, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return PropertyPath{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return PropertyPath{}, false
	}
	for _, part := range parts {
		if part == "" {
			return PropertyPath{}, false
		}
	}
	return PropertyPath{Device: parts[0], Channel: parts[1], Property: parts[2]}, true
}

// PropertyPath addresses one property by the identifiers of its device,
// channel and itself.
type PropertyPath struct {
	Device   string
	Channel  string
	Property string
}

func (p PropertyPath) String() string {
	return p.Device + "/" + p.Channel + "/" + p.Property
}
