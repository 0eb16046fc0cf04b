package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/wire"
)

func ptr[T any](v T) *T { return &v }

func appleType(short string) string {
	return strings.Repeat("0", 8-len(short)) + short + wire.AppleBaseUUIDSuffix
}

func char(name, short string, format wire.Format, virtual bool, perms ...wire.Permission) *Characteristic {
	return NewCharacteristic(CharacteristicMetadata{
		TypeID:      appleType(short),
		Name:        name,
		Format:      format,
		Permissions: perms,
		Virtual:     virtual,
	}, nil)
}

func informationService() *Service {
	s := NewService(ServiceMetadata{
		TypeID:   appleType("3E"),
		Name:     ServiceNameAccessoryInformation,
		Required: []string{CharIdentify, CharName},
	}, nil)
	s.AddCharacteristic(char(CharIdentify, "14", wire.FormatBool, false, wire.PermPairedWrite))
	s.AddCharacteristic(char(CharName, "23", wire.FormatString, false, wire.PermPairedRead))
	return s
}

func televisionAccessory(t *testing.T) (*Accessory, *Service) {
	t.Helper()

	acc := NewAccessory(2, CategoryTelevision, KindTelevision, "TV", uuid.New())
	require.NoError(t, acc.AddService(informationService()))

	tv := NewService(ServiceMetadata{
		TypeID:   appleType("D8"),
		Name:     ServiceNameTelevision,
		Required: []string{CharRemoteKey},
		Virtual:  []string{CharRemoteKeyRewind, CharRemoteKeyPlayPause},
	}, nil)
	tv.AddCharacteristic(char(CharRemoteKey, "E1", wire.FormatUint8, false, wire.PermPairedWrite))
	tv.AddCharacteristic(char(CharPowerModeSelection, "DF", wire.FormatUint8, false, wire.PermPairedWrite))
	tv.AddCharacteristic(char(CharRemoteKeyRewind, "E1", wire.FormatString, true))
	tv.AddCharacteristic(char(CharRemoteKeyPlayPause, "E1", wire.FormatString, true))
	tv.AddCharacteristic(char(CharPowerModeSelectionShow, "DF", wire.FormatString, true))
	require.NoError(t, acc.AddService(tv))

	return acc, tv
}

func TestIIDManagerAssignIdempotent(t *testing.T) {
	m := NewIIDManager()

	first := m.Assign("a")
	assert.Equal(t, first, m.Assign("a"))
	assert.Equal(t, 1, first)

	iid, ok := m.IID("a")
	assert.True(t, ok)
	assert.Equal(t, first, iid)

	_, ok = m.IID("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len(), "lookup must not allocate")
}

func TestIIDManagerAssignUnique(t *testing.T) {
	m := NewIIDManager()
	seen := make(map[int]string)

	for _, key := range []string{"a", "b", "c", "d", "a", "b"} {
		iid := m.Assign(key)
		assert.Positive(t, iid)
		if other, ok := seen[iid]; ok {
			assert.Equal(t, other, key, "iid %d reused", iid)
		}
		seen[iid] = key
	}

	assert.Equal(t, 4, m.Len())
	key, ok := m.Key(3)
	assert.True(t, ok)
	assert.Equal(t, "c", key)
}

func TestIIDManagerRestore(t *testing.T) {
	m := NewIIDManager()
	m.Assign("a")
	m.Assign("b")
	snap := m.Snapshot()

	restored := NewIIDManager()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, 2, restored.Assign("b"))
	assert.Equal(t, 3, restored.Assign("c"))

	// counter behind the highest iid is raised
	low := NewIIDManager()
	require.NoError(t, low.Restore(IIDSnapshot{Next: 1, IIDs: map[string]int{"x": 7}}))
	assert.Equal(t, 8, low.Next())
}

func TestIIDManagerRestoreErrors(t *testing.T) {
	used := NewIIDManager()
	used.Assign("a")
	assert.ErrorIs(t, used.Restore(IIDSnapshot{}), ErrIIDManagerInUse)

	assert.ErrorIs(t, NewIIDManager().Restore(IIDSnapshot{IIDs: map[string]int{"a": 0}}), ErrInvalidIID)
	assert.ErrorIs(t, NewIIDManager().Restore(IIDSnapshot{IIDs: map[string]int{"a": 1, "b": 1}}), ErrDuplicateIID)
}

func TestAccessoryAssignsServiceThenCharacteristics(t *testing.T) {
	acc := NewAccessory(1, CategoryBridge, KindBridge, "Bridge", uuid.New())
	info := informationService()
	require.NoError(t, acc.AddService(info))

	assert.Equal(t, 1, info.IID())
	assert.Equal(t, 2, info.Characteristics()[0].IID())
	assert.Equal(t, 3, info.Characteristics()[1].IID())

	// characteristics added later still get fresh iids
	late := char(CharSerialNumber, "30", wire.FormatString, false, wire.PermPairedRead)
	info.AddCharacteristic(late)
	assert.Equal(t, 4, late.IID())
	assert.Equal(t, info, late.Service())

	assert.ErrorIs(t, acc.AddService(info), ErrServiceAlreadyAttached)
}

func TestAccessoryVirtualCharacteristicsHaveNoIID(t *testing.T) {
	acc, tv := televisionAccessory(t)

	rewind := tv.FindCharacteristic(CharRemoteKeyRewind)
	require.NotNil(t, rewind)
	assert.Zero(t, rewind.IID())

	hap := acc.ToHap()
	require.Len(t, hap.Services, 2)
	assert.Len(t, hap.Services[1].Characteristics, 2, "virtual characteristics are not serialized")
	assert.True(t, hap.Services[1].Primary)
}

func TestTelevisionRemoteKeyRewind(t *testing.T) {
	_, tv := televisionAccessory(t)

	remoteKey := tv.FindCharacteristic(CharRemoteKey)
	powerMode := tv.FindCharacteristic(CharPowerModeSelection)
	remoteKey.SetValue(3)
	remoteKey.SetExpectedValue("0")

	tv.RecalculateValues(remoteKey, false)

	rewind := tv.FindCharacteristic(CharRemoteKeyRewind)
	assert.Equal(t, devices.ButtonClicked, rewind.ExpectedValue())
	assert.Nil(t, rewind.Value())
	assert.Nil(t, remoteKey.Value())
	assert.Nil(t, remoteKey.ExpectedValue())
	assert.Nil(t, powerMode.Value())
	assert.Nil(t, powerMode.ExpectedValue())
	assert.Nil(t, tv.FindCharacteristic(CharRemoteKeyPlayPause).ExpectedValue())
}

func TestTelevisionRecalculation(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
		value   any
		target  string
	}{
		{"play pause", CharRemoteKey, 11, CharRemoteKeyPlayPause},
		{"power mode show", CharPowerModeSelection, 0, CharPowerModeSelectionShow},
		{"float key", CharRemoteKey, 0.0, CharRemoteKeyRewind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tv := televisionAccessory(t)
			trigger := tv.FindCharacteristic(tt.trigger)
			trigger.SetExpectedValue(tt.value)

			tv.RecalculateValues(trigger, false)

			assert.Equal(t, devices.ButtonClicked, tv.FindCharacteristic(tt.target).ExpectedValue())
			assert.Nil(t, trigger.ExpectedValue())
		})
	}
}

func TestTelevisionUnmappedKeyOnlyClears(t *testing.T) {
	_, tv := televisionAccessory(t)
	remoteKey := tv.FindCharacteristic(CharRemoteKey)
	remoteKey.SetExpectedValue(12)

	tv.RecalculateValues(remoteKey, false)

	assert.Nil(t, remoteKey.ExpectedValue())
	assert.Nil(t, tv.FindCharacteristic(CharRemoteKeyRewind).ExpectedValue())
	assert.Nil(t, tv.FindCharacteristic(CharRemoteKeyPlayPause).ExpectedValue())
}

func TestTelevisionIgnoresDeviceUpdates(t *testing.T) {
	_, tv := televisionAccessory(t)
	remoteKey := tv.FindCharacteristic(CharRemoteKey)
	remoteKey.SetValue(0)

	tv.RecalculateValues(remoteKey, true)

	assert.Equal(t, 0, remoteKey.Value())
	assert.Nil(t, tv.FindCharacteristic(CharRemoteKeyRewind).ExpectedValue())
}

func TestTelevisionSpeakerVolumeSelector(t *testing.T) {
	tests := []struct {
		value     any
		increment any
		decrement any
	}{
		{0, devices.ButtonClicked, nil},
		{1, nil, devices.ButtonClicked},
		{2, nil, nil},
	}

	for _, tt := range tests {
		speaker := NewService(ServiceMetadata{TypeID: appleType("113"), Name: ServiceNameTelevisionSpeaker}, nil)
		selector := char(CharVolumeSelector, "EA", wire.FormatUint8, false, wire.PermPairedWrite)
		speaker.AddCharacteristic(selector)
		speaker.AddCharacteristic(char(CharVolumeIncrement, "EA", wire.FormatString, true))
		speaker.AddCharacteristic(char(CharVolumeDecrement, "EA", wire.FormatString, true))

		selector.SetExpectedValue(tt.value)
		speaker.RecalculateValues(selector, false)

		assert.Equal(t, tt.increment, speaker.FindCharacteristic(CharVolumeIncrement).ExpectedValue(), "value %v", tt.value)
		assert.Equal(t, tt.decrement, speaker.FindCharacteristic(CharVolumeDecrement).ExpectedValue(), "value %v", tt.value)
		assert.Nil(t, selector.ExpectedValue())
	}
}

func lightbulb() *Service {
	s := NewService(ServiceMetadata{TypeID: appleType("43"), Name: ServiceNameLightbulb}, nil)
	s.AddCharacteristic(char(CharHue, "13", wire.FormatFloat, false, wire.PermPairedRead, wire.PermPairedWrite))
	s.AddCharacteristic(char(CharSaturation, "2F", wire.FormatFloat, false, wire.PermPairedRead, wire.PermPairedWrite))
	s.AddCharacteristic(char(CharBrightness, "8", wire.FormatInt, false, wire.PermPairedRead, wire.PermPairedWrite))
	s.AddCharacteristic(char(CharColorRed, "8", wire.FormatUint8, true))
	s.AddCharacteristic(char(CharColorGreen, "8", wire.FormatUint8, true))
	s.AddCharacteristic(char(CharColorBlue, "8", wire.FormatUint8, true))
	return s
}

func TestLightBulbHSBToRGB(t *testing.T) {
	s := lightbulb()
	hue := s.FindCharacteristic(CharHue)
	s.FindCharacteristic(CharSaturation).SetValue(100.0)
	s.FindCharacteristic(CharBrightness).SetValue(100)
	hue.SetExpectedValue(120.0)

	s.RecalculateValues(hue, false)

	assert.Equal(t, 0, s.FindCharacteristic(CharColorRed).ExpectedValue())
	assert.Equal(t, 255, s.FindCharacteristic(CharColorGreen).ExpectedValue())
	assert.Equal(t, 0, s.FindCharacteristic(CharColorBlue).ExpectedValue())
}

func TestLightBulbRGBToHSB(t *testing.T) {
	s := lightbulb()
	red := s.FindCharacteristic(CharColorRed)
	red.SetValue(255)
	s.FindCharacteristic(CharColorGreen).SetValue(0)
	s.FindCharacteristic(CharColorBlue).SetValue(255)

	s.RecalculateValues(red, true)

	assert.Equal(t, 300.0, s.FindCharacteristic(CharHue).Value())
	assert.Equal(t, 100.0, s.FindCharacteristic(CharSaturation).Value())
	assert.Equal(t, 100, s.FindCharacteristic(CharBrightness).Value())
}

func TestColorConversion(t *testing.T) {
	tests := []struct {
		h, s, b float64
		r, g, bl int
	}{
		{0, 100, 100, 255, 0, 0},
		{240, 100, 100, 0, 0, 255},
		{0, 0, 100, 255, 255, 255},
		{0, 0, 0, 0, 0, 0},
		{60, 100, 50, 128, 128, 0},
	}

	for _, tt := range tests {
		r, g, b := HSBToRGB(tt.h, tt.s, tt.b)
		assert.Equal(t, []int{tt.r, tt.g, tt.bl}, []int{r, g, b}, "hsb(%v,%v,%v)", tt.h, tt.s, tt.b)
	}
}

func TestFindCharacteristicFirstMatch(t *testing.T) {
	s := NewService(ServiceMetadata{TypeID: appleType("49"), Name: "Switch"}, nil)
	first := char("On", "25", wire.FormatBool, false, wire.PermPairedRead)
	second := char("On", "25", wire.FormatBool, false, wire.PermPairedRead)
	s.AddCharacteristic(first)
	s.AddCharacteristic(second)

	assert.Same(t, first, s.FindCharacteristic("On"))
	assert.Nil(t, s.FindCharacteristic("Off"))

	acc := NewAccessory(2, CategorySwitch, KindGeneric, "Switch", uuid.New())
	require.NoError(t, acc.AddService(s))
	assert.NotEqual(t, first.IID(), second.IID())
	assert.NotEqual(t, first.Key(), second.Key())
}

func inputSource(channel devices.Channel) *Service {
	s := NewService(ServiceMetadata{TypeID: appleType("D9"), Name: ServiceNameInputSource}, channel)
	s.AddCharacteristic(char("ConfiguredName", "E3", wire.FormatString, false, wire.PermPairedRead))
	s.AddCharacteristic(char("IsConfigured", "D6", wire.FormatUint8, false, wire.PermPairedRead))
	return s
}

func TestServicesSharingChannelGetDistinctIIDs(t *testing.T) {
	acc, _ := televisionAccessory(t)
	channel := &devices.StaticChannel{UUID: uuid.New(), Ident: "input_source"}

	first := inputSource(channel)
	second := inputSource(channel)
	require.NoError(t, acc.AddService(first))
	require.NoError(t, acc.AddService(second))

	assert.NotEqual(t, first.Key(), second.Key())
	assert.NotEqual(t, first.IID(), second.IID())
	for i, c := range first.Characteristics() {
		assert.NotEqual(t, c.IID(), second.Characteristics()[i].IID(), c.Name())
	}
	require.NoError(t, acc.Validate())

	// The first service of a channel keeps its key, so persisted iids of
	// existing trees stay valid.
	assert.Equal(t, ServiceNameInputSource+"@"+channel.UUID.String(), first.Key())
}

func TestAccessoryValidateDuplicateIIDs(t *testing.T) {
	acc, tv := televisionAccessory(t)
	input := inputSource(nil)
	require.NoError(t, acc.AddService(input))
	require.NoError(t, acc.Validate())

	input.iid = tv.iid
	assert.ErrorIs(t, acc.Validate(), ErrDuplicateIID)

	input.iid = acc.IIDs().Assign("restored")
	input.characteristics[1].iid = input.characteristics[0].iid
	assert.ErrorIs(t, acc.Validate(), ErrDuplicateIID)
}

func TestLinkedServicesDeduplicated(t *testing.T) {
	acc, tv := televisionAccessory(t)

	input := NewService(ServiceMetadata{TypeID: appleType("D9"), Name: ServiceNameInputSource}, nil)
	require.NoError(t, acc.AddService(input))

	require.NoError(t, tv.AddLinkedService(input))
	require.NoError(t, tv.AddLinkedService(input))

	hap := tv.ToHap()
	assert.Equal(t, []int{input.IID()}, hap.Linked)
}

func TestLinkedServicesAutoLinkSpeaker(t *testing.T) {
	acc, tv := televisionAccessory(t)

	speaker := NewService(ServiceMetadata{TypeID: appleType("113"), Name: ServiceNameTelevisionSpeaker}, nil)
	input := NewService(ServiceMetadata{TypeID: appleType("D9"), Name: ServiceNameInputSource}, nil)
	require.NoError(t, acc.AddService(speaker))
	require.NoError(t, acc.AddService(input))
	require.NoError(t, tv.AddLinkedService(input))

	assert.Equal(t, []int{input.IID(), speaker.IID()}, tv.ToHap().Linked)
}

func TestAddLinkedServiceRequiresAttachment(t *testing.T) {
	_, tv := televisionAccessory(t)
	detached := NewService(ServiceMetadata{Name: ServiceNameInputSource}, nil)
	assert.ErrorIs(t, tv.AddLinkedService(detached), ErrServiceNotAttached)

	other, _ := televisionAccessory(t)
	foreign := other.FindService(ServiceNameAccessoryInformation)
	assert.ErrorIs(t, tv.AddLinkedService(foreign), ErrForeignService)
}

func TestAccessoryValidate(t *testing.T) {
	acc, _ := televisionAccessory(t)
	require.NoError(t, acc.Validate())

	missing := NewService(ServiceMetadata{
		TypeID:   appleType("D9"),
		Name:     ServiceNameInputSource,
		Required: []string{"ConfiguredName"},
	}, nil)
	require.NoError(t, acc.AddService(missing))
	assert.ErrorIs(t, acc.Validate(), ErrMissingRequiredCharacteristic)

	bridge := NewAccessory(1, CategoryBridge, KindBridge, "Bridge", uuid.New())
	require.NoError(t, bridge.AddService(informationService()))
	assert.ErrorIs(t, bridge.Validate(), ErrMissingProtocolService)

	empty := NewAccessory(3, CategoryOther, KindGeneric, "Empty", uuid.New())
	assert.ErrorIs(t, empty.Validate(), ErrMissingInformationService)
}

func TestAccessoryRestoreIIDs(t *testing.T) {
	acc, tv := televisionAccessory(t)
	snap := acc.IIDs().Snapshot()
	tvIID := tv.IID()

	again, tv2 := televisionAccessory(t)
	require.NoError(t, again.RestoreIIDs(snap))
	assert.Equal(t, tvIID, tv2.IID())
	assert.Equal(t, tv.FindCharacteristic(CharRemoteKey).IID(), tv2.FindCharacteristic(CharRemoteKey).IID())

	s, c := again.FindByIID(tv2.FindCharacteristic(CharRemoteKey).IID())
	assert.Same(t, tv2, s)
	assert.Equal(t, CharRemoteKey, c.Name())
}

func TestCharacteristicToHap(t *testing.T) {
	c := NewCharacteristic(CharacteristicMetadata{
		TypeID:      appleType("8"),
		Name:        CharBrightness,
		Format:      wire.FormatInt,
		Permissions: wire.Permissions{wire.PermPairedRead, wire.PermPairedWrite, wire.PermEvents},
		Unit:        wire.UnitPercentage,
		MinValue:    ptr(0.0),
		MaxValue:    ptr(100.0),
		MinStep:     ptr(1.0),
		Default:     0,
	}, nil)
	c.SetValue(140)

	hap := c.ToHap()
	assert.Equal(t, "8", hap.Type)
	assert.Equal(t, 100, hap.Value)

	data, err := json.Marshal(hap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"iid":0,"type":"8","perms":["pr","pw","ev"],"format":"int","value":100,"unit":"percentage","minValue":0,"maxValue":100,"minStep":1}`, string(data))
}

func TestCharacteristicToHapWriteOnly(t *testing.T) {
	c := char(CharIdentify, "14", wire.FormatBool, false, wire.PermPairedWrite)

	data, err := json.Marshal(c.ToHap())
	require.NoError(t, err)
	assert.JSONEq(t, `{"iid":0,"type":"14","perms":["pw"],"format":"bool"}`, string(data))
}

func TestCharacteristicReadNullValue(t *testing.T) {
	c := char(CharName, "23", wire.FormatString, false, wire.PermPairedRead)

	data, err := json.Marshal(c.ToHap())
	require.NoError(t, err)
	assert.JSONEq(t, `{"iid":0,"type":"23","perms":["pr"],"format":"string","value":null}`, string(data))
}

func TestCharacteristicConvertWriteWithProperty(t *testing.T) {
	prop := devices.NewStaticProperty("switch", devices.DataTypeSwitch, devices.CombinedEnumFormat{
		Items: []devices.CombinedEnumRow{
			{
				{DataType: devices.DataTypeSwitch, Value: "switch_on"},
				{DataType: devices.DataTypeBool, Value: true},
				{DataType: devices.DataTypeBool, Value: true},
			},
		},
	}, nil)
	c := NewCharacteristic(CharacteristicMetadata{Name: "On", Format: wire.FormatBool}, prop)

	assert.Equal(t, devices.SwitchOn, c.ConvertWrite(1))
	assert.Nil(t, c.ConvertWrite(0))
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "television", CategoryTelevision.String())
	c, err := ParseCategory("Lightbulb")
	require.NoError(t, err)
	assert.Equal(t, CategoryLightbulb, c)
	_, err = ParseCategory("spaceship")
	assert.Error(t, err)

	assert.Equal(t, KindTelevision, DeviceKind(CategoryTVSetTopBox))
	assert.Equal(t, KindGeneric, DeviceKind(CategoryFan))
	assert.Equal(t, ServiceNameLightbulb, KindLightBulb.PrimaryService())
	assert.Equal(t, "", KindBridge.PrimaryService())
}
