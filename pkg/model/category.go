package model

import (
	"fmt"
	"strings"
)

// Category is the HAP accessory category advertised for an accessory.
type Category uint8

const (
	CategoryOther              Category = 1
	CategoryBridge             Category = 2
	CategoryFan                Category = 3
	CategoryGarageDoorOpener   Category = 4
	CategoryLightbulb          Category = 5
	CategoryDoorLock           Category = 6
	CategoryOutlet             Category = 7
	CategorySwitch             Category = 8
	CategoryThermostat         Category = 9
	CategorySensor             Category = 10
	CategorySecuritySystem     Category = 11
	CategoryDoor               Category = 12
	CategoryWindow             Category = 13
	CategoryWindowCovering     Category = 14
	CategoryProgrammableSwitch Category = 15
	CategoryRangeExtender      Category = 16
	CategoryIPCamera           Category = 17
	CategoryVideoDoorbell      Category = 18
	CategoryAirPurifier        Category = 19
	CategoryHeater             Category = 20
	CategoryAirConditioner     Category = 21
	CategoryHumidifier         Category = 22
	CategoryDehumidifier       Category = 23
	CategorySprinkler          Category = 28
	CategoryFaucet             Category = 29
	CategoryShowerSystem       Category = 30
	CategoryTelevision         Category = 31
	CategoryRemoteControl      Category = 32
	CategoryRouter             Category = 33
	CategoryAudioReceiver      Category = 34
	CategoryTVSetTopBox        Category = 35
	CategoryTVStreamingStick   Category = 36
)

var categoryNames = map[Category]string{
	CategoryOther:              "other",
	CategoryBridge:             "bridge",
	CategoryFan:                "fan",
	CategoryGarageDoorOpener:   "garage_door_opener",
	CategoryLightbulb:          "lightbulb",
	CategoryDoorLock:           "door_lock",
	CategoryOutlet:             "outlet",
	CategorySwitch:             "switch",
	CategoryThermostat:         "thermostat",
	CategorySensor:             "sensor",
	CategorySecuritySystem:     "security_system",
	CategoryDoor:               "door",
	CategoryWindow:             "window",
	CategoryWindowCovering:     "window_covering",
	CategoryProgrammableSwitch: "programmable_switch",
	CategoryRangeExtender:      "range_extender",
	CategoryIPCamera:           "ip_camera",
	CategoryVideoDoorbell:      "video_doorbell",
	CategoryAirPurifier:        "air_purifier",
	CategoryHeater:             "heater",
	CategoryAirConditioner:     "air_conditioner",
	CategoryHumidifier:         "humidifier",
	CategoryDehumidifier:       "dehumidifier",
	CategorySprinkler:          "sprinkler",
	CategoryFaucet:             "faucet",
	CategoryShowerSystem:       "shower_system",
	CategoryTelevision:         "television",
	CategoryRemoteControl:      "remote_control",
	CategoryRouter:             "router",
	CategoryAudioReceiver:      "audio_receiver",
	CategoryTVSetTopBox:        "tv_set_top_box",
	CategoryTVStreamingStick:   "tv_streaming_stick",
}

// String returns the category name.
func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown accessory category %q", s)
}

// AccessoryKind is the closed set of accessory variants.
type AccessoryKind uint8

const (
	// KindGeneric is a device accessory without special behavior.
	KindGeneric AccessoryKind = iota

	// KindBridge is the hub accessory owned by the connector.
	KindBridge

	// KindLightBulb is a device accessory whose Lightbulb service is primary.
	KindLightBulb

	// KindTelevision is a device accessory whose Television service is primary.
	KindTelevision

	// KindOutlet is a device accessory whose Outlet service is primary.
	KindOutlet

	// KindThermostat is a device accessory whose Thermostat service is primary.
	KindThermostat
)

// String returns the accessory kind name.
func (k AccessoryKind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindBridge:
		return "bridge"
	case KindLightBulb:
		return "lightbulb"
	case KindTelevision:
		return "television"
	case KindOutlet:
		return "outlet"
	case KindThermostat:
		return "thermostat"
	default:
		return "unknown"
	}
}

// DeviceKind returns the accessory variant for a device accessory of the
// given category. Categories without a dedicated variant map to KindGeneric.
func DeviceKind(category Category) AccessoryKind {
	switch category {
	case CategoryLightbulb:
		return KindLightBulb
	case CategoryTelevision, CategoryTVSetTopBox, CategoryTVStreamingStick:
		return KindTelevision
	case CategoryOutlet:
		return KindOutlet
	case CategoryThermostat:
		return KindThermostat
	default:
		return KindGeneric
	}
}

// PrimaryService returns the service name marked primary for the kind, or
// the empty string when the kind has none.
func (k AccessoryKind) PrimaryService() string {
	switch k {
	case KindLightBulb:
		return ServiceNameLightbulb
	case KindTelevision:
		return ServiceNameTelevision
	case KindOutlet:
		return ServiceNameOutlet
	case KindThermostat:
		return ServiceNameThermostat
	default:
		return ""
	}
}
