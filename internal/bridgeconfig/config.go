// Package bridgeconfig loads the YAML description of a bridge and its devices
// and turns it into device-domain entities.
package bridgeconfig

import (
	"fmt"
	"net/url"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/model"
)

// Environment variables that override values of the file.
const (
	EnvBridgeName   = "HAPGO_BRIDGE_NAME"
	EnvManufacturer = "HAPGO_MANUFACTURER"
	EnvMQTTPassword = "HAPGO_MQTT_PASSWORD"
	EnvInfluxToken  = "HAPGO_INFLUX_TOKEN"
)

// Defaults applied to enabled integrations.
const (
	DefaultMQTTClientID       = "hap-go"
	DefaultMQTTTopicPrefix    = "hapgo"
	DefaultHistoryBatchSize   = 100
	DefaultHistoryFlushPeriod = 10
)

// Config is the root of a bridge configuration file.
type Config struct {
	Bridge  BridgeConfig   `yaml:"bridge"`
	Devices []DeviceConfig `yaml:"devices"`
	MQTT    MQTTConfig     `yaml:"mqtt"`
	History HistoryConfig  `yaml:"history"`
}

// MQTTConfig connects the configured devices through an MQTT broker. The
// link is disabled when Broker is empty.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// HistoryConfig records characteristic changes in InfluxDB. Recording is
// disabled when URL is empty.
type HistoryConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`

	// BatchSize is the number of points written per request.
	BatchSize int `yaml:"batch_size"`

	// FlushInterval is the longest time in seconds a point stays buffered.
	FlushInterval int `yaml:"flush_interval"`
}

// Enabled reports whether an InfluxDB server is configured.
func (h HistoryConfig) Enabled() bool { return h.URL != "" }

// BridgeConfig describes the connector the bridge accessory belongs to.
type BridgeConfig struct {
	// ID is the connector id. Derived from Name when empty.
	ID           string `yaml:"id"`
	Identifier   string `yaml:"identifier"`
	Name         string `yaml:"name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
}

// DeviceConfig describes one bridged device.
type DeviceConfig struct {
	// ID is the device id. Derived from the bridge id and Identifier when
	// empty.
	ID           string          `yaml:"id"`
	Identifier   string          `yaml:"identifier"`
	Name         string          `yaml:"name"`
	Manufacturer string          `yaml:"manufacturer"`
	Model        string          `yaml:"model"`
	Category     string          `yaml:"category"`
	Channels     []ChannelConfig `yaml:"channels"`
}

// ChannelConfig describes one channel of a device. The identifier selects
// the HAP service ("lightbulb", "television_speaker").
type ChannelConfig struct {
	Identifier string           `yaml:"identifier"`
	Properties []PropertyConfig `yaml:"properties"`
}

// PropertyConfig describes one property of a channel. The identifier selects
// the characteristic ("brightness", "remote_key_rewind").
type PropertyConfig struct {
	Identifier string              `yaml:"identifier"`
	Type       devices.DataType    `yaml:"type"`
	Enum       []string            `yaml:"enum,omitempty"`
	Combined   []CombinedRowConfig `yaml:"combined,omitempty"`
	Min        *float64            `yaml:"min,omitempty"`
	Max        *float64            `yaml:"max,omitempty"`
	Value      any                 `yaml:"value,omitempty"`
}

// CombinedRowConfig maps a domain value to the values exchanged with HomeKit.
type CombinedRowConfig struct {
	Domain     any `yaml:"domain"`
	FromClient any `yaml:"from_client"`
	ToClient   any `yaml:"to_client"`
}

// Parse parses a configuration from YAML bytes and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	applyEnvOverrides(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvBridgeName); v != "" {
		cfg.Bridge.Name = v
	}
	if v := os.Getenv(EnvManufacturer); v != "" {
		cfg.Bridge.Manufacturer = v
	}
	if v := os.Getenv(EnvMQTTPassword); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv(EnvInfluxToken); v != "" {
		cfg.History.Token = v
	}
}

func (c *Config) applyDefaults() {
	if c.Bridge.Name == "" {
		c.Bridge.Name = "HAP Bridge"
	}
	if c.Bridge.Identifier == "" {
		c.Bridge.Identifier = "homekit"
	}

	if c.MQTT.Enabled() {
		if c.MQTT.ClientID == "" {
			c.MQTT.ClientID = DefaultMQTTClientID
		}
		if c.MQTT.TopicPrefix == "" {
			c.MQTT.TopicPrefix = DefaultMQTTTopicPrefix
		}
	}
	if c.History.Enabled() {
		if c.History.BatchSize <= 0 {
			c.History.BatchSize = DefaultHistoryBatchSize
		}
		if c.History.FlushInterval <= 0 {
			c.History.FlushInterval = DefaultHistoryFlushPeriod
		}
	}
}

// Validate checks ids, identifiers, categories and the integration
// settings.
func (c *Config) Validate() error {
	if c.Bridge.ID != "" {
		if _, err := uuid.Parse(c.Bridge.ID); err != nil {
			return &LoadError{Message: "invalid bridge id", Cause: err}
		}
	}
	if err := c.validateIntegrations(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.Identifier == "" {
			return &LoadError{Message: fmt.Sprintf("device %d: identifier is required", i)}
		}
		if seen[d.Identifier] {
			return &LoadError{Message: fmt.Sprintf("device %s: duplicate identifier", d.Identifier)}
		}
		seen[d.Identifier] = true

		if d.ID != "" {
			if _, err := uuid.Parse(d.ID); err != nil {
				return &LoadError{Message: fmt.Sprintf("device %s: invalid id", d.Identifier), Cause: err}
			}
		}
		category, err := model.ParseCategory(d.Category)
		if err != nil {
			return &LoadError{Message: fmt.Sprintf("device %s", d.Identifier), Cause: err}
		}
		if category == model.CategoryBridge {
			return &LoadError{Message: fmt.Sprintf("device %s: category bridge is reserved", d.Identifier)}
		}
		if len(d.Channels) == 0 {
			return &LoadError{Message: fmt.Sprintf("device %s: at least one channel is required", d.Identifier)}
		}

		// Channel and property ids derive from identifiers, so they must be
		// unique within their parent.
		channels := make(map[string]bool, len(d.Channels))
		for _, ch := range d.Channels {
			if ch.Identifier == "" {
				return &LoadError{Message: fmt.Sprintf("device %s: channel identifier is required", d.Identifier)}
			}
			if channels[ch.Identifier] {
				return &LoadError{Message: fmt.Sprintf("device %s: duplicate channel %s", d.Identifier, ch.Identifier)}
			}
			channels[ch.Identifier] = true

			properties := make(map[string]bool, len(ch.Properties))
			for _, p := range ch.Properties {
				if p.Identifier == "" {
					return &LoadError{Message: fmt.Sprintf("device %s channel %s: property identifier is required", d.Identifier, ch.Identifier)}
				}
				if properties[p.Identifier] {
					return &LoadError{Message: fmt.Sprintf("device %s channel %s: duplicate property %s", d.Identifier, ch.Identifier, p.Identifier)}
				}
				properties[p.Identifier] = true
				if p.Type == devices.DataTypeUnknown {
					return &LoadError{Message: fmt.Sprintf("device %s property %s: type is required", d.Identifier, p.Identifier)}
				}
			}
		}
	}
	return nil
}

func (c *Config) validateIntegrations() error {
	if c.MQTT.Enabled() {
		u, err := url.Parse(c.MQTT.Broker)
		if err != nil {
			return &LoadError{Message: "mqtt: invalid broker url", Cause: err}
		}
		if u.Scheme == "" || u.Host == "" {
			return &LoadError{Message: fmt.Sprintf("mqtt: broker %q needs a scheme and host", c.MQTT.Broker)}
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			return &LoadError{Message: fmt.Sprintf("mqtt: qos %d out of range 0-2", c.MQTT.QoS)}
		}
	}

	if c.History.Enabled() {
		if _, err := url.ParseRequestURI(c.History.URL); err != nil {
			return &LoadError{Message: "history: invalid url", Cause: err}
		}
		if c.History.Org == "" || c.History.Bucket == "" {
			return &LoadError{Message: "history: org and bucket are required"}
		}
	}
	return nil
}
