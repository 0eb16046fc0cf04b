package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/transformer"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// remoteKeyActions maps RemoteKey values to the virtual characteristic that
// carries the key press to the device.
var remoteKeyActions = map[int]string{
	0:  CharRemoteKeyRewind,
	1:  CharRemoteKeyFastForward,
	2:  CharRemoteKeyNextTrack,
	3:  CharRemoteKeyPreviousTrack,
	4:  CharRemoteKeyArrowUp,
	5:  CharRemoteKeyArrowDown,
	6:  CharRemoteKeyArrowLeft,
	7:  CharRemoteKeyArrowRight,
	8:  CharRemoteKeySelect,
	9:  CharRemoteKeyBack,
	10: CharRemoteKeyExit,
	11: CharRemoteKeyPlayPause,
	15: CharRemoteKeyInformation,
}

var powerModeActions = map[int]string{
	0: CharPowerModeSelectionShow,
	1: CharPowerModeSelectionHide,
}

var volumeSelectorActions = map[int]string{
	0: CharVolumeIncrement,
	1: CharVolumeDecrement,
}

// RecalculateValues updates the characteristics that derive from changed.
// fromDevice is true when changed got a new actual value from the device and
// false when HomeKit wrote an expected value.
func (s *Service) RecalculateValues(changed *Characteristic, fromDevice bool) {
	if changed == nil {
		return
	}

	switch s.kind {
	case ServiceKindTelevision:
		if fromDevice {
			return
		}
		switch changed.Name() {
		case CharRemoteKey:
			s.pressButton(changed, remoteKeyActions)
		case CharPowerModeSelection:
			s.pressButton(changed, powerModeActions)
		}

	case ServiceKindTelevisionSpeaker:
		if !fromDevice && changed.Name() == CharVolumeSelector {
			s.pressButton(changed, volumeSelectorActions)
		}

	case ServiceKindLightBulb:
		if fromDevice {
			s.recalculateHSB(changed)
		} else {
			s.recalculateRGB(changed)
		}
	}
}

// pressButton translates a momentary selector write into a click on the
// mapped characteristic. The selector itself keeps no state.
func (s *Service) pressButton(trigger *Characteristic, actions map[int]string) {
	if key, ok := selectorValue(pendingValue(trigger)); ok {
		if name, ok := actions[key]; ok {
			if target := s.FindCharacteristic(name); target != nil {
				target.SetValue(nil)
				target.SetExpectedValue(devices.ButtonClicked)
			}
		}
	}

	trigger.SetValue(nil)
	trigger.SetExpectedValue(nil)
}

func (s *Service) recalculateRGB(changed *Characteristic) {
	switch changed.Name() {
	case CharHue, CharSaturation, CharBrightness:
	default:
		return
	}

	red, green, blue := s.FindCharacteristic(CharColorRed), s.FindCharacteristic(CharColorGreen), s.FindCharacteristic(CharColorBlue)
	if red == nil || green == nil || blue == nil {
		return
	}

	hue := s.floatOf(CharHue, pendingValue, 0)
	saturation := s.floatOf(CharSaturation, pendingValue, 0)
	brightness := s.floatOf(CharBrightness, pendingValue, 100)

	r, g, b := HSBToRGB(hue, saturation, brightness)
	red.SetExpectedValue(r)
	green.SetExpectedValue(g)
	blue.SetExpectedValue(b)
}

func (s *Service) recalculateHSB(changed *Characteristic) {
	switch changed.Name() {
	case CharColorRed, CharColorGreen, CharColorBlue:
	default:
		return
	}

	actual := func(c *Characteristic) any { return c.Value() }
	r := s.floatOf(CharColorRed, actual, 0)
	g := s.floatOf(CharColorGreen, actual, 0)
	b := s.floatOf(CharColorBlue, actual, 0)

	hue, saturation, brightness := RGBToHSB(int(r), int(g), int(b))
	if c := s.FindCharacteristic(CharHue); c != nil {
		c.SetValue(hue)
	}
	if c := s.FindCharacteristic(CharSaturation); c != nil {
		c.SetValue(saturation)
	}
	if c := s.FindCharacteristic(CharBrightness); c != nil {
		c.SetValue(int(math.Round(brightness)))
	}
}

func (s *Service) floatOf(name string, read func(*Characteristic) any, fallback float64) float64 {
	c := s.FindCharacteristic(name)
	if c == nil {
		return fallback
	}
	v := transformer.FromClient(nil, wire.FormatFloat, transformer.Flatten(read(c)))
	if f, ok := v.(float64); ok {
		return f
	}
	return fallback
}

// pendingValue returns the expected value, falling back to the actual value
// when no write is pending.
func pendingValue(c *Characteristic) any {
	if v := c.ExpectedValue(); v != nil {
		return v
	}
	return c.Value()
}

func selectorValue(v any) (int, bool) {
	switch n := transformer.Flatten(v).(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err == nil {
			return i, true
		}
	}
	return 0, false
}

// HSBToRGB converts hue (0-360), saturation (0-100) and brightness (0-100)
// to 8-bit RGB components.
func HSBToRGB(hue, saturation, brightness float64) (int, int, int) {
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	sat := clampUnit(saturation / 100)
	val := clampUnit(brightness / 100)

	chroma := val * sat
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := val - chroma

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}

	return to8bit(r + m), to8bit(g + m), to8bit(b + m)
}

// RGBToHSB converts 8-bit RGB components to hue (0-360), saturation (0-100)
// and brightness (0-100).
func RGBToHSB(red, green, blue int) (float64, float64, float64) {
	r := clampUnit(float64(red) / 255)
	g := clampUnit(float64(green) / 255)
	b := clampUnit(float64(blue) / 255)

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	var hue float64
	switch {
	case delta == 0:
		hue = 0
	case maxC == r:
		hue = 60 * math.Mod((g-b)/delta, 6)
	case maxC == g:
		hue = 60 * ((b-r)/delta + 2)
	default:
		hue = 60 * ((r-g)/delta + 4)
	}
	if hue < 0 {
		hue += 360
	}

	var saturation float64
	if maxC > 0 {
		saturation = delta / maxC * 100
	}

	return math.Round(hue), math.Round(saturation), maxC * 100
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func to8bit(v float64) int {
	return int(math.Round(clampUnit(v) * 255))
}
