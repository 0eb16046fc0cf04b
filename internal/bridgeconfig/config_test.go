package bridgeconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/model"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "bridge.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Living Room Bridge", cfg.Bridge.Name)
	assert.Equal(t, "homekit", cfg.Bridge.Identifier)
	require.Len(t, cfg.Devices, 3)
	assert.Equal(t, "television", cfg.Devices[1].Category)
	assert.Len(t, cfg.Devices[1].Channels, 3)

	brightness := cfg.Devices[0].Channels[0].Properties[1]
	assert.Equal(t, devices.DataTypeUchar, brightness.Type)
	require.NotNil(t, brightness.Max)
	assert.Equal(t, 100.0, *brightness.Max)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.File, "missing.yaml")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("devices: []\n"))
	require.NoError(t, err)

	assert.Equal(t, "HAP Bridge", cfg.Bridge.Name)
	assert.Equal(t, "homekit", cfg.Bridge.Identifier)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv(EnvBridgeName, "Override")
	t.Setenv(EnvManufacturer, "Example Inc")

	cfg, err := Parse([]byte("bridge:\n  name: Original\n"))
	require.NoError(t, err)

	assert.Equal(t, "Override", cfg.Bridge.Name)
	assert.Equal(t, "Example Inc", cfg.Bridge.Manufacturer)
}

func TestParseIntegrations(t *testing.T) {
	cfg, err := Parse([]byte("devices: []\n"))
	require.NoError(t, err)
	assert.False(t, cfg.MQTT.Enabled())
	assert.False(t, cfg.History.Enabled())
	assert.Empty(t, cfg.MQTT.TopicPrefix)

	t.Setenv(EnvMQTTPassword, "secret")
	t.Setenv(EnvInfluxToken, "token")

	cfg, err = Parse([]byte(`
mqtt:
  broker: tcp://broker.local:1883
  username: hap
history:
  url: http://influx.local:8086
  org: home
  bucket: hap
`))
	require.NoError(t, err)

	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, DefaultMQTTClientID, cfg.MQTT.ClientID)
	assert.Equal(t, DefaultMQTTTopicPrefix, cfg.MQTT.TopicPrefix)
	assert.Equal(t, "secret", cfg.MQTT.Password)

	assert.True(t, cfg.History.Enabled())
	assert.Equal(t, "token", cfg.History.Token)
	assert.Equal(t, DefaultHistoryBatchSize, cfg.History.BatchSize)
	assert.Equal(t, DefaultHistoryFlushPeriod, cfg.History.FlushInterval)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "bridge: [\n"},
		{"bridge id", "bridge:\n  id: not-a-uuid\n"},
		{"missing identifier", "devices:\n  - category: outlet\n    channels: [{identifier: outlet}]\n"},
		{"duplicate identifier", "devices:\n  - {identifier: a, category: outlet, channels: [{identifier: outlet}]}\n  - {identifier: a, category: outlet, channels: [{identifier: outlet}]}\n"},
		{"device id", "devices:\n  - {identifier: a, id: nope, category: outlet, channels: [{identifier: outlet}]}\n"},
		{"unknown category", "devices:\n  - {identifier: a, category: toaster, channels: [{identifier: outlet}]}\n"},
		{"bridge category", "devices:\n  - {identifier: a, category: bridge, channels: [{identifier: outlet}]}\n"},
		{"no channels", "devices:\n  - {identifier: a, category: outlet}\n"},
		{"duplicate channel", "devices:\n  - {identifier: tv, category: television, channels: [{identifier: input_source}, {identifier: input_source}]}\n"},
		{"duplicate property", "devices:\n  - {identifier: a, category: outlet, channels: [{identifier: outlet, properties: [{identifier: on, type: bool}, {identifier: on, type: bool}]}]}\n"},
		{"channel identifier", "devices:\n  - {identifier: a, category: outlet, channels: [{properties: []}]}\n"},
		{"property identifier", "devices:\n  - {identifier: a, category: outlet, channels: [{identifier: outlet, properties: [{type: bool}]}]}\n"},
		{"property type", "devices:\n  - {identifier: a, category: outlet, channels: [{identifier: outlet, properties: [{identifier: on}]}]}\n"},
		{"unknown type", "devices:\n  - {identifier: a, category: outlet, channels: [{identifier: outlet, properties: [{identifier: on, type: bogus}]}]}\n"},
		{"mqtt broker without scheme", "mqtt:\n  broker: localhost:1883\n"},
		{"mqtt qos", "mqtt:\n  broker: tcp://localhost:1883\n  qos: 3\n"},
		{"history url", "history:\n  url: not a url\n  org: home\n  bucket: hap\n"},
		{"history bucket", "history:\n  url: http://localhost:8086\n  org: home\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			var le *LoadError
			assert.ErrorAs(t, err, &le)
		})
	}
}

func TestConnectorID(t *testing.T) {
	cfg, err := Parse([]byte("bridge:\n  name: Bridge\n"))
	require.NoError(t, err)
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceOID, []byte("Bridge")), cfg.ConnectorID())

	fixed := "9b0c5a1e-7d43-4c1f-8f0e-2f4d8a6c3b21"
	cfg, err = Parse([]byte("bridge:\n  id: " + fixed + "\n"))
	require.NoError(t, err)

	connector := cfg.Connector()
	assert.Equal(t, uuid.MustParse(fixed), connector.ID())
	assert.Equal(t, "HAP Bridge", connector.Name())
}

func TestBuildDevices(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "bridge.yaml"))
	require.NoError(t, err)

	built, err := cfg.BuildDevices()
	require.NoError(t, err)
	require.Len(t, built, 3)

	lamp := built[0]
	assert.Equal(t, model.CategoryLightbulb, lamp.Category)
	assert.Equal(t, "Ceiling Light", lamp.Name())
	assert.Equal(t, "Acme", lamp.Manufacturer())
	assert.Equal(t, uuid.NewSHA1(cfg.ConnectorID(), []byte("ceiling")), lamp.ID())

	channel := lamp.Channels()[0]
	assert.Equal(t, uuid.NewSHA1(lamp.ID(), []byte("lightbulb")), channel.ID())
	assert.Equal(t, true, channel.FindProperty("on").Value())
	assert.Nil(t, channel.FindProperty("color_red").Value())

	brightness := channel.FindProperty("brightness")
	require.IsType(t, devices.NumberRangeFormat{}, brightness.Format())
	assert.Equal(t, 0.0, *brightness.Format().(devices.NumberRangeFormat).Min)

	tv := built[1]
	active := tv.Channels()[0].FindProperty("active")
	assert.Equal(t, devices.SwitchOff, active.Value())
	combined, ok := active.Format().(devices.CombinedEnumFormat)
	require.True(t, ok)
	require.Len(t, combined.Items, 2)
	assert.Equal(t, devices.SwitchOn, combined.Items[0][devices.CombinedDomain].Value)
	assert.Equal(t, devices.DataTypeInt, combined.Items[0][devices.CombinedFromClient].DataType)
	assert.Equal(t, 1, combined.Items[0][devices.CombinedToClient].Value)

	plug := built[2]
	assert.Equal(t, "plug", plug.Name())
	on := plug.Channels()[0].FindProperty("on")
	assert.Equal(t, devices.SwitchOn, on.Value())
	assert.Equal(t, devices.StringEnumFormat{Items: []string{"switch_on", "switch_off"}}, on.Format())
}

func TestBuildDevicesStableIDs(t *testing.T) {
	first, err := Load(filepath.Join("testdata", "bridge.yaml"))
	require.NoError(t, err)
	second, err := Load(filepath.Join("testdata", "bridge.yaml"))
	require.NoError(t, err)

	a, err := first.BuildDevices()
	require.NoError(t, err)
	b, err := second.BuildDevices()
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].ID(), b[i].ID())
		for j, ch := range a[i].Channels() {
			assert.Equal(t, ch.ID(), b[i].Channels()[j].ID())
			for k, p := range ch.Properties() {
				assert.Equal(t, p.ID(), b[i].Channels()[j].Properties()[k].ID())
			}
		}
	}
}

func TestBuildDevicesInvalidPayload(t *testing.T) {
	cfg, err := Parse([]byte("devices:\n  - {identifier: a, category: switch, channels: [{identifier: switch, properties: [{identifier: on, type: switch, value: maybe}]}]}\n"))
	require.NoError(t, err)

	_, err = cfg.BuildDevices()
	assert.ErrorContains(t, err, "invalid switch payload")
}

func TestDomainValue(t *testing.T) {
	tests := []struct {
		dataType devices.DataType
		in       any
		want     any
	}{
		{devices.DataTypeFloat, 3, 3.0},
		{devices.DataTypeFloat, 2.5, 2.5},
		{devices.DataTypeString, 42, "42"},
		{devices.DataTypeEnum, "a", "a"},
		{devices.DataTypeButton, "btn_clicked", devices.ButtonClicked},
		{devices.DataTypeCover, "cover_open", devices.CoverOpen},
		{devices.DataTypeInt, 7, 7},
		{devices.DataTypeBool, nil, nil},
	}

	for _, tt := range tests {
		got, err := domainValue(tt.dataType, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %v", tt.dataType, tt.in)
	}
}
