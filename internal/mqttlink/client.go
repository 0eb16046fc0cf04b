package mqttlink

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection errors.
var (
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
	ErrSubscribeFailed  = errors.New("mqtt: subscribe failed")
)

const (
	connectTimeout    = 10 * time.Second
	operationTimeout  = 5 * time.Second
	retryInterval     = 5 * time.Second
	keepAlive         = 60 * time.Second
	disconnectQuiesce = 1000 // milliseconds
)

// Config configures the broker connection.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte

	// Logger is the optional logger for connection events.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Handler receives one message.
type Handler func(topic string, payload []byte)

// Client is the broker connection used by a Link.
type Client interface {
	Publish(topic string, payload []byte, retained bool) error
	Subscribe(filter string, handler Handler) error
	Close()
}

// pahoClient is a Client backed by paho.mqtt.golang.
type pahoClient struct {
	client pahomqtt.Client
	cfg    Config

	mu         sync.Mutex
	subscribed map[string]pahomqtt.MessageHandler
}

// Connect connects to the broker of cfg. Subscriptions are restored after a
// reconnect.
func Connect(cfg Config) (Client, error) {
	c := &pahoClient{cfg: cfg, subscribed: make(map[string]pahomqtt.MessageHandler)}

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if cfg.Logger != nil {
			cfg.Logger.Warn("mqtt connection lost", "broker", cfg.Broker, "error", err)
		}
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// Stop the background retries.
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return c, nil
}

func (c *pahoClient) onConnect(client pahomqtt.Client) {
	client.Publish(Topics{Prefix: c.cfg.TopicPrefix}.BridgeState(), c.cfg.QoS, true, stateOnline)

	c.mu.Lock()
	for filter, callback := range c.subscribed {
		client.Subscribe(filter, c.cfg.QoS, callback)
	}
	c.mu.Unlock()

	if c.cfg.Logger != nil {
		c.cfg.Logger.Info("mqtt connected", "broker", c.cfg.Broker)
	}
}

func (c *pahoClient) Subscribe(filter string, handler Handler) error {
	callback := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}
	if err := wait(c.client.Subscribe(filter, c.cfg.QoS, callback), ErrSubscribeFailed); err != nil {
		return err
	}

	c.mu.Lock()
	c.subscribed[filter] = callback
	c.mu.Unlock()
	return nil
}

func (c *pahoClient) Publish(topic string, payload []byte, retained bool) error {
	return wait(c.client.Publish(topic, c.cfg.QoS, retained, payload), ErrPublishFailed)
}

func (c *pahoClient) Close() {
	if c.client.IsConnected() {
		_ = c.Publish(Topics{Prefix: c.cfg.TopicPrefix}.BridgeState(), []byte(stateOffline), true)
	}
	c.client.Disconnect(disconnectQuiesce)
}

func wait(token pahomqtt.Token, sentinel error) error {
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: timeout after %v", sentinel, operationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}

// buildClientOptions creates the paho options of cfg: auto-reconnect, a clean
// session and an "offline" last will on the bridge state topic.
func buildClientOptions(cfg Config) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive).
		SetWill(Topics{Prefix: cfg.TopicPrefix}.BridgeState(), stateOffline, cfg.QoS, true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return opts
}
