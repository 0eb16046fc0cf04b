// Command hapctl builds a HAP bridge from a YAML device description and
// exposes its accessory database.
//
// Without -interactive it prints the /accessories document and exits. With
// -interactive it starts a shell to read, write and update characteristics
// the way HomeKit and the devices would.
//
// When the configuration has an mqtt section, HomeKit writes are published
// to the broker and device state is read from it instead of being looped
// back. A history section records every change in InfluxDB.
//
// Usage:
//
//	hapctl [flags]
//
// Flags:
//
//	-config string         Bridge configuration file (YAML, required)
//	-state-dir string      Directory for persisted accessory and instance ids
//	-state-backend string  State backend: json, bolt, sqlite (default "json")
//	-log-level string      Log level: debug, info, warn, error (default "info")
//	-protocol-log string   File path for protocol event logging (CBOR format)
//	-interactive           Start the interactive shell
//	-loopback              Apply HomeKit writes to the configured devices (default true, ignored with mqtt)
//
// Examples:
//
//	# Print the accessory database
//	hapctl -config bridge.yaml
//
//	# Keep ids stable across runs and explore the bridge
//	hapctl -config bridge.yaml -state-dir /var/lib/hapctl -interactive
//
//	# Record a protocol trace for hap-log
//	hapctl -config bridge.yaml -interactive -protocol-log bridge.hlog
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hapbridge/hap-go/cmd/hapctl/interactive"
	"github.com/hapbridge/hap-go/internal/bridgeconfig"
	"github.com/hapbridge/hap-go/pkg/catalog"
	"github.com/hapbridge/hap-go/pkg/factory"
	hlog "github.com/hapbridge/hap-go/pkg/log"
	"github.com/hapbridge/hap-go/pkg/server"
	"github.com/hapbridge/hap-go/pkg/subscription"
)

// notificationInterval is how often pending event notifications are sent.
const notificationInterval = 100 * time.Millisecond

// Config holds the command line configuration.
type Config struct {
	ConfigFile   string
	StateDir     string
	StateBackend string
	LogLevel     string
	ProtocolLog  string
	Interactive  bool
	Loopback     bool
}

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Bridge configuration file (YAML, required)")
	flag.StringVar(&config.StateDir, "state-dir", "", "Directory for persisted accessory and instance ids")
	flag.StringVar(&config.StateBackend, "state-backend", "json", "State backend: json, bolt, sqlite")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "File path for protocol event logging (CBOR format)")
	flag.BoolVar(&config.Interactive, "interactive", false, "Start the interactive shell")
	flag.BoolVar(&config.Loopback, "loopback", true, "Apply HomeKit writes to the configured devices")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if config.ConfigFile == "" {
		flag.Usage()
		return fmt.Errorf("-config is required")
	}

	level, err := parseLevel(config.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	bridgeConfig, err := bridgeconfig.Load(config.ConfigFile)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(config.StateDir, config.StateBackend)
	if err != nil {
		return err
	}
	defer closeStore()

	protocolLogger, closeProtocolLog, err := openProtocolLogger(config.ProtocolLog, logger, level)
	if err != nil {
		return err
	}
	defer closeProtocolLog()
	if config.ProtocolLog != "" {
		logger.Info("protocol logging enabled", "path", config.ProtocolLog)
	}

	c, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	accessories, err := factory.NewAccessoryFactory(c, factory.Config{
		Manufacturer: bridgeConfig.Bridge.Manufacturer,
		BridgeModel:  bridgeConfig.Bridge.Model,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	subs := subscription.NewManager()
	db, err := server.New(server.Config{
		Store:          store,
		Subscriptions:  subs,
		Logger:         logger,
		ProtocolLogger: protocolLogger,
	})
	if err != nil {
		return err
	}

	devs, err := buildBridge(bridgeConfig, factory.NewBuilder(c, accessories), db, logger)
	if err != nil {
		return err
	}
	if err := db.Save(); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}

	if bridgeConfig.History.Enabled() {
		stop, err := startHistory(bridgeConfig.History, db, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	// Devices behind a broker report their own state.
	switch {
	case bridgeConfig.MQTT.Enabled():
		stop, err := startMQTT(bridgeConfig.MQTT, db, devs, logger)
		if err != nil {
			return err
		}
		defer stop()
	case config.Loopback:
		cancel := loopback(db, logger)
		defer cancel()
	}

	if !config.Interactive {
		return dump(db)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go subs.Run(ctx, notificationInterval)

	shell := interactive.New(db, os.Stdout)
	defer shell.Close()
	if err := shell.Run(ctx, cancel); err != nil {
		return err
	}

	return db.Save()
}

func dump(db *server.Database) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(db.Accessories())
}

// openProtocolLogger returns the protocol logger for path. At debug level the
// events are also written to logger.
func openProtocolLogger(path string, logger *slog.Logger, level slog.Level) (hlog.Logger, func(), error) {
	var loggers []hlog.Logger
	closeFn := func() {}

	if path != "" {
		fileLogger, err := hlog.NewFileLogger(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create protocol logger: %w", err)
		}
		loggers = append(loggers, fileLogger)
		closeFn = func() {
			if n := fileLogger.Dropped(); n > 0 {
				logger.Warn("protocol events dropped", "path", path, "count", n)
			}
			_ = fileLogger.Close()
		}
	}
	if level <= slog.LevelDebug {
		loggers = append(loggers, hlog.NewSlogAdapter(logger))
	}

	if len(loggers) == 0 {
		return nil, closeFn, nil
	}
	return hlog.NewMultiLogger(loggers...), closeFn, nil
}
