package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapbridge/hap-go/internal/bridgeconfig"
	"github.com/hapbridge/hap-go/pkg/catalog"
	"github.com/hapbridge/hap-go/pkg/factory"
	"github.com/hapbridge/hap-go/pkg/model"
	"github.com/hapbridge/hap-go/pkg/persistence"
	"github.com/hapbridge/hap-go/pkg/server"
	"github.com/hapbridge/hap-go/pkg/wire"
)

const testConfig = `
bridge:
  name: Test Bridge
devices:
  - identifier: lamp
    name: Lamp
    category: lightbulb
    channels:
      - identifier: lightbulb
        properties:
          - {identifier: on, type: bool, value: false}
          - {identifier: brightness, type: uchar, value: 40}
  - identifier: plug
    category: outlet
    channels:
      - identifier: outlet
        properties:
          - {identifier: on, type: bool, value: true}
`

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestDatabase(t *testing.T, store persistence.Store) *server.Database {
	t.Helper()

	cfg, err := bridgeconfig.Parse([]byte(testConfig))
	require.NoError(t, err)
	c, err := catalog.Load()
	require.NoError(t, err)
	accessories, err := factory.NewAccessoryFactory(c, factory.Config{})
	require.NoError(t, err)

	db, err := server.New(server.Config{Store: store})
	require.NoError(t, err)
	devs, err := buildBridge(cfg, factory.NewBuilder(c, accessories), db, discard)
	require.NoError(t, err)
	require.Len(t, devs, len(cfg.Devices))
	return db
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseLevel("trace")
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	store, closeFn, err := openStore("", "json")
	require.NoError(t, err)
	assert.Nil(t, store)
	closeFn()

	dir := t.TempDir()
	store, closeFn, err = openStore(dir, "json")
	require.NoError(t, err)
	fileStore, ok := store.(*persistence.FileStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, jsonStateFile), fileStore.Path())
	closeFn()

	store, closeFn, err = openStore(dir, "bolt")
	require.NoError(t, err)
	assert.IsType(t, &persistence.BoltStore{}, store)
	closeFn()

	store, closeFn, err = openStore(dir, "sqlite")
	require.NoError(t, err)
	assert.IsType(t, &persistence.SQLiteStore{}, store)
	closeFn()

	_, _, err = openStore(dir, "redis")
	assert.Error(t, err)
}

func TestBuildBridge(t *testing.T) {
	db := newTestDatabase(t, nil)

	assert.Equal(t, []int{1, 2, 3}, db.AIDs())

	bridge, err := db.Accessory(server.BridgeAID)
	require.NoError(t, err)
	assert.True(t, bridge.IsBridge())
	assert.Equal(t, "Test Bridge", bridge.Name())

	plug, err := db.Accessory(3)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOutlet, plug.Category())
	assert.NotNil(t, plug.FindService("Outlet"))
}

func TestBuildBridgeStableAIDs(t *testing.T) {
	dir := t.TempDir()

	store, closeFn, err := openStore(dir, "bolt")
	require.NoError(t, err)
	first := newTestDatabase(t, store)
	require.NoError(t, first.Save())
	lamp, err := first.Accessory(2)
	require.NoError(t, err)
	brightness := lamp.FindService(model.ServiceNameLightbulb).FindCharacteristic("Brightness").IID()
	closeFn()

	store, closeFn, err = openStore(dir, "bolt")
	require.NoError(t, err)
	defer closeFn()
	second := newTestDatabase(t, store)

	lamp, err = second.Accessory(2)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", lamp.Name())
	assert.Equal(t, brightness, lamp.FindService(model.ServiceNameLightbulb).FindCharacteristic("Brightness").IID())
}

func TestLoopback(t *testing.T) {
	db := newTestDatabase(t, nil)
	cancel := loopback(db, discard)
	defer cancel()

	lamp, err := db.Accessory(2)
	require.NoError(t, err)
	c := lamp.FindService(model.ServiceNameLightbulb).FindCharacteristic("Brightness")
	id := wire.CharacteristicID{AID: 2, IID: c.IID()}

	require.NoError(t, db.WriteCharacteristic("controller", id, 70))

	value, err := db.ReadCharacteristic(id)
	require.NoError(t, err)
	assert.EqualValues(t, 70, value)
	assert.EqualValues(t, 70, c.Property().Value())
}
