package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hapbridge/hap-go/internal/bridgeconfig"
	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/factory"
	hlog "github.com/hapbridge/hap-go/pkg/log"
	"github.com/hapbridge/hap-go/pkg/persistence"
	"github.com/hapbridge/hap-go/pkg/server"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// State file names inside the state directory.
const (
	jsonStateFile   = "state.json"
	boltStateFile   = "state.db"
	sqliteStateFile = "state.sqlite"
)

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", s)
	}
}

// openStore opens the state store of dir. An empty dir disables persistence.
func openStore(dir, backend string) (persistence.Store, func(), error) {
	noop := func() {}
	if dir == "" {
		return nil, noop, nil
	}

	switch backend {
	case "json", "":
		return persistence.NewFileStore(filepath.Join(dir, jsonStateFile)), noop, nil
	case "bolt":
		store, err := persistence.NewBoltStore(filepath.Join(dir, boltStateFile))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "sqlite":
		store, err := persistence.NewSQLiteStore(filepath.Join(dir, sqliteStateFile))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("invalid state backend: %s (must be json, bolt or sqlite)", backend)
	}
}

// buildBridge builds the bridge and every configured device, registers them
// with db and returns the devices.
func buildBridge(cfg *bridgeconfig.Config, builder *factory.Builder, db *server.Database, logger *slog.Logger) ([]devices.Device, error) {
	bridge, err := builder.Bridge(cfg.Connector())
	if err != nil {
		return nil, fmt.Errorf("building bridge: %w", err)
	}
	if err := db.AddBridge(bridge); err != nil {
		return nil, err
	}

	configured, err := cfg.BuildDevices()
	if err != nil {
		return nil, err
	}
	devs := make([]devices.Device, 0, len(configured))
	for _, d := range configured {
		acc, err := builder.Device(d, 0, d.Category)
		if err != nil {
			return nil, fmt.Errorf("building device %s: %w", d.Identifier(), err)
		}
		if err := db.AddDevice(acc); err != nil {
			return nil, fmt.Errorf("adding device %s: %w", d.Identifier(), err)
		}
		devs = append(devs, d)
	}

	logger.Info("bridge ready", "name", bridge.Name(), "accessories", len(db.AIDs()))
	return devs, nil
}

// loopback stands in for the devices of a configuration file: values written
// by HomeKit are stored in the bound property and reported back as the
// actual value. The returned function stops it.
func loopback(db *server.Database, logger *slog.Logger) func() {
	return db.Subscribe(func(c server.Change) {
		if c.Source != hlog.SourceHomeKit {
			return
		}
		if p, ok := c.Property.(*devices.StaticProperty); ok {
			p.SetValue(c.Value)
		}

		var err error
		if c.IID != 0 {
			err = db.UpdateFromDevice(wire.CharacteristicID{AID: c.AID, IID: c.IID}, c.Value)
		} else {
			err = db.UpdateByKey(c.AID, c.Key, c.Value)
		}
		if err != nil {
			logger.Warn("loopback update failed", "aid", c.AID, "characteristic", c.Characteristic, "error", err)
		}
	})
}
