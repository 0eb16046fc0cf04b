package devices

// Payload is an enumerated domain value carried by switch, button and cover
// properties.
type Payload interface {
	// Value returns the canonical string of the payload.
	Value() string
}

// SwitchPayload is the value of a switch property.
type SwitchPayload string

const (
	SwitchOn     SwitchPayload = "switch_on"
	SwitchOff    SwitchPayload = "switch_off"
	SwitchToggle SwitchPayload = "switch_toggle"
)

// Value returns the payload string.
func (p SwitchPayload) Value() string { return string(p) }

// ButtonPayload is the value of a button property.
type ButtonPayload string

const (
	ButtonPressed          ButtonPayload = "btn_pressed"
	ButtonReleased         ButtonPayload = "btn_released"
	ButtonClicked          ButtonPayload = "btn_clicked"
	ButtonDoubleClicked    ButtonPayload = "btn_double_clicked"
	ButtonTripleClicked    ButtonPayload = "btn_triple_clicked"
	ButtonLongClicked      ButtonPayload = "btn_long_clicked"
	ButtonExtraLongClicked ButtonPayload = "btn_extra_long_clicked"
)

// Value returns the payload string.
func (p ButtonPayload) Value() string { return string(p) }

// CoverPayload is the value of a window cover property.
type CoverPayload string

const (
	CoverOpen        CoverPayload = "cover_open"
	CoverOpened      CoverPayload = "cover_opened"
	CoverOpening     CoverPayload = "cover_opening"
	CoverClose       CoverPayload = "cover_close"
	CoverClosed      CoverPayload = "cover_closed"
	CoverClosing     CoverPayload = "cover_closing"
	CoverStop        CoverPayload = "cover_stop"
	CoverStopped     CoverPayload = "cover_stopped"
	CoverCalibrate   CoverPayload = "cover_calibrate"
	CoverCalibrating CoverPayload = "cover_calibrating"
)

// Value returns the payload string.
func (p CoverPayload) Value() string { return string(p) }

var (
	switchPayloads = []SwitchPayload{SwitchOn, SwitchOff, SwitchToggle}
	buttonPayloads = []ButtonPayload{
		ButtonPressed, ButtonReleased, ButtonClicked, ButtonDoubleClicked,
		ButtonTripleClicked, ButtonLongClicked, ButtonExtraLongClicked,
	}
	coverPayloads = []CoverPayload{
		CoverOpen, CoverOpened, CoverOpening, CoverClose, CoverClosed,
		CoverClosing, CoverStop, CoverStopped, CoverCalibrate, CoverCalibrating,
	}
)

// ParseSwitchPayload returns the switch payload with the given value.
func ParseSwitchPayload(s string) (SwitchPayload, bool) {
	for _, p := range switchPayloads {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// ParseButtonPayload returns the button payload with the given value.
func ParseButtonPayload(s string) (ButtonPayload, bool) {
	for _, p := range buttonPayloads {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// ParseCoverPayload returns the cover payload with the given value.
func ParseCoverPayload(s string) (CoverPayload, bool) {
	for _, p := range coverPayloads {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// PayloadFor maps a canonical string to the payload type of the data type.
// Data types without a payload type (enum) yield the plain string. The second
// return value is false when the string is not a member of the payload type.
func PayloadFor(dataType DataType, s string) (any, bool) {
	switch dataType {
	case DataTypeSwitch:
		p, ok := ParseSwitchPayload(s)
		return p, ok
	case DataTypeButton:
		p, ok := ParseButtonPayload(s)
		return p, ok
	case DataTypeCover:
		p, ok := ParseCoverPayload(s)
		return p, ok
	default:
		return s, true
	}
}
