package mqttlink

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hapbridge/hap-go/pkg/devices"
	"github.com/hapbridge/hap-go/pkg/log"
	"github.com/hapbridge/hap-go/pkg/model"
	"github.com/hapbridge/hap-go/pkg/server"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// binding ties a device property to the characteristic it feeds. Virtual
// characteristics have no iid and are addressed by key.
type binding struct {
	path     PropertyPath
	property devices.Property
	aid      int
	iid      int
	key      string
}

// Link relays values between the accessory database and the broker.
type Link struct {
	client Client
	db     *server.Database
	topics Topics
	logger *slog.Logger

	byPath     map[PropertyPath]*binding
	byProperty map[uuid.UUID]*binding

	cancel func()
}

// New creates a Link for the registered accessories of db. Only properties
// of devices that are bound to a characteristic get topics.
func New(client Client, db *server.Database, devs []devices.Device, prefix string, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Link{
		client:     client,
		db:         db,
		topics:     Topics{Prefix: prefix},
		logger:     logger.With("component", "mqtt"),
		byPath:     make(map[PropertyPath]*binding),
		byProperty: make(map[uuid.UUID]*binding),
	}

	for _, aid := range db.AIDs() {
		_ = db.View(aid, func(acc *model.Accessory) {
			for _, c := range acc.Characteristics() {
				p := c.Property()
				if p == nil {
					continue
				}
				l.byProperty[p.ID()] = &binding{property: p, aid: aid, iid: c.IID(), key: c.Key()}
			}
		})
	}

	for _, d := range devs {
		for _, ch := range d.Channels() {
			for _, p := range ch.Properties() {
				b, ok := l.byProperty[p.ID()]
				if !ok {
					continue
				}
				b.path = PropertyPath{Device: d.Identifier(), Channel: ch.Identifier(), Property: p.Identifier()}
				l.byPath[b.path] = b
			}
		}
	}

	return l
}

// Topics returns the state topics the link listens on, one per bound
// property.
func (l *Link) Topics() []string {
	topics := make([]string, 0, len(l.byPath))
	for path := range l.byPath {
		topics = append(topics, l.topics.State(path))
	}
	return topics
}

// Start subscribes to device state and begins publishing HomeKit writes.
func (l *Link) Start() error {
	if err := l.client.Subscribe(l.topics.StateFilter(), l.handleState); err != nil {
		return fmt.Errorf("subscribing to device state: %w", err)
	}
	l.cancel = l.db.Subscribe(l.handleChange)
	l.logger.Info("mqtt link started", "prefix", l.topics.Prefix, "properties", len(l.byPath))
	return nil
}

// Close stops publishing and closes the client.
func (l *Link) Close() {
	if l.cancel != nil {
		l.cancel()
	}
	l.client.Close()
}

func (l *Link) handleChange(c server.Change) {
	if c.Source != log.SourceHomeKit || c.Property == nil {
		return
	}
	b, ok := l.byProperty[c.Property.ID()]
	if !ok || b.path == (PropertyPath{}) {
		return
	}

	payload, err := encodeValue(c.Value)
	if err != nil {
		l.logger.Warn("encoding value failed", "property", b.path.String(), "error", err)
		return
	}
	if err := l.client.Publish(l.topics.Set(b.path), payload, false); err != nil {
		l.logger.Warn("publishing value failed", "property", b.path.String(), "error", err)
	}
}

func (l *Link) handleState(topic string, payload []byte) {
	path, ok := l.topics.ParseState(topic)
	if !ok {
		return
	}
	b, ok := l.byPath[path]
	if !ok {
		l.logger.Debug("state for unknown property", "topic", topic)
		return
	}

	value, err := decodeValue(b.property.DataType(), payload)
	if err != nil {
		l.logger.Warn("invalid state payload", "topic", topic, "error", err)
		return
	}
	if p, ok := b.property.(*devices.StaticProperty); ok {
		p.SetValue(value)
	}

	if b.iid != 0 {
		err = l.db.UpdateFromDevice(wire.CharacteristicID{AID: b.aid, IID: b.iid}, value)
	} else {
		err = l.db.UpdateByKey(b.aid, b.key, value)
	}
	if err != nil {
		l.logger.Warn("applying device state failed", "topic", topic, "error", err)
	}
}
