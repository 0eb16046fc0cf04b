package server

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hapbridge/hap-go/pkg/log"
	"github.com/hapbridge/hap-go/pkg/model"
	"github.com/hapbridge/hap-go/pkg/persistence"
	"github.com/hapbridge/hap-go/pkg/subscription"
	"github.com/hapbridge/hap-go/pkg/wire"
)

// Database errors.
var (
	ErrUnknownAccessory      = errors.New("unknown accessory")
	ErrUnknownCharacteristic = errors.New("unknown characteristic")
	ErrNotWritable           = errors.New("characteristic not writable")
	ErrNotReadable           = errors.New("characteristic not readable")
	ErrInvalidValue          = errors.New("invalid characteristic value")
	ErrDuplicateAccessory    = errors.New("accessory already registered")
	ErrInvalidAccessory      = errors.New("invalid accessory")
)

// BridgeAID is the accessory id of the bridge.
const BridgeAID = 1

// firstDeviceAID is the first accessory id handed to a device.
const firstDeviceAID = 2

// Config configures a Database.
type Config struct {
	// Store persists accessory and instance ids. If nil, ids are only stable
	// for the lifetime of the Database.
	Store persistence.Store

	// Subscriptions receives event subscriptions and value changes.
	// If nil, a manager with the default configuration is created.
	Subscriptions *subscription.Manager

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives characteristic and lifecycle events.
	// If nil, protocol logging is disabled.
	ProtocolLogger log.Logger
}

// entry is one registered accessory with its lock.
type entry struct {
	mu  sync.Mutex
	acc *model.Accessory
}

// Database is the accessory database of one bridge.
type Database struct {
	config Config
	subs   *subscription.Manager

	mu          sync.RWMutex
	accessories map[int]*entry
	state       *persistence.BridgeState

	listenersMu  sync.RWMutex
	listeners    map[int]func(Change)
	nextListener int
}

// New creates a Database and loads persisted ids from config.Store.
func New(config Config) (*Database, error) {
	state := persistence.NewBridgeState()
	if config.Store != nil {
		loaded, err := config.Store.Load()
		if err != nil {
			return nil, fmt.Errorf("loading bridge state: %w", err)
		}
		if loaded != nil {
			state = loaded
		}
	}
	if state.NextAID < firstDeviceAID {
		state.NextAID = firstDeviceAID
	}

	subs := config.Subscriptions
	if subs == nil {
		subs = subscription.NewManager()
	}

	return &Database{
		config:      config,
		subs:        subs,
		accessories: make(map[int]*entry),
		state:       state,
		listeners:   make(map[int]func(Change)),
	}, nil
}

// Subscriptions returns the event subscription manager.
func (d *Database) Subscriptions() *subscription.Manager {
	return d.subs
}

// AddBridge registers the bridge accessory under BridgeAID.
func (d *Database) AddBridge(acc *model.Accessory) error {
	if !acc.IsBridge() {
		return fmt.Errorf("%w: %s is not a bridge", ErrInvalidAccessory, acc.Name())
	}
	return d.register(acc)
}

// AddDevice registers a device accessory. Its aid is the one previously
// assigned to the same owner, or the next free one.
func (d *Database) AddDevice(acc *model.Accessory) error {
	if acc.IsBridge() {
		return fmt.Errorf("%w: bridge %s added as device", ErrInvalidAccessory, acc.Name())
	}
	return d.register(acc)
}

func (d *Database) register(acc *model.Accessory) error {
	if err := acc.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	owner := acc.Owner().String()
	aid := d.allocateAID(owner, acc.IsBridge())
	if _, taken := d.accessories[aid]; taken {
		return fmt.Errorf("%w: aid %d (owner %s)", ErrDuplicateAccessory, aid, owner)
	}

	acc.SetAID(aid)
	if snapshot, ok := d.state.IIDs[aid]; ok {
		if err := acc.RestoreIIDs(snapshot); err != nil {
			return fmt.Errorf("restoring iids of aid %d: %w", aid, err)
		}
	}
	d.state.AIDs[owner] = aid
	d.state.IIDs[aid] = acc.IIDs().Snapshot()
	d.accessories[aid] = &entry{acc: acc}

	if d.config.Logger != nil {
		d.config.Logger.Info("accessory registered",
			"aid", aid, "name", acc.Name(), "kind", acc.Kind().String(), "services", len(acc.Services()))
	}
	d.logState(acc, "", "ADDED", "")

	return nil
}

// allocateAID returns the aid of owner, assigning a new one if needed.
// Caller holds d.mu.
func (d *Database) allocateAID(owner string, bridge bool) int {
	if bridge {
		return BridgeAID
	}
	if aid, ok := d.state.AIDs[owner]; ok && aid >= firstDeviceAID {
		return aid
	}

	used := make(map[int]bool, len(d.state.AIDs))
	for _, aid := range d.state.AIDs {
		used[aid] = true
	}
	aid := d.state.NextAID
	for used[aid] {
		aid++
	}
	d.state.NextAID = aid + 1
	return aid
}

// Remove unregisters the accessory aid and drops its event subscriptions.
// The aid stays reserved for the same owner.
func (d *Database) Remove(aid int) error {
	d.mu.Lock()
	e, ok := d.accessories[aid]
	if ok {
		delete(d.accessories, aid)
	}
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: aid %d", ErrUnknownAccessory, aid)
	}

	d.subs.RemoveAccessory(aid)

	if d.config.Logger != nil {
		d.config.Logger.Info("accessory removed", "aid", aid, "name", e.acc.Name())
	}
	d.logState(e.acc, "ADDED", "REMOVED", "")
	return nil
}

// Accessory returns the registered accessory aid.
//
// The accessory is not locked; use the Database operations to change values.
func (d *Database) Accessory(aid int) (*model.Accessory, error) {
	e, err := d.entry(aid)
	if err != nil {
		return nil, err
	}
	return e.acc, nil
}

// View runs fn with the accessory aid while holding its lock. fn must not
// call back into the Database for the same accessory.
func (d *Database) View(aid int, fn func(*model.Accessory)) error {
	e, err := d.entry(aid)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.acc)
	return nil
}

// AIDs returns the registered accessory ids in ascending order.
func (d *Database) AIDs() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	aids := make([]int, 0, len(d.accessories))
	for aid := range d.accessories {
		aids = append(aids, aid)
	}
	slices.Sort(aids)
	return aids
}

// Accessories returns the /accessories document, ordered by aid.
func (d *Database) Accessories() *wire.AccessoryDatabase {
	db := &wire.AccessoryDatabase{Accessories: []*wire.Accessory{}}
	for _, aid := range d.AIDs() {
		e, err := d.entry(aid)
		if err != nil {
			continue
		}
		e.mu.Lock()
		db.Accessories = append(db.Accessories, e.acc.ToHap())
		e.mu.Unlock()
	}
	return db
}

// Save persists the current id assignments. It is a no-op without a Store.
func (d *Database) Save() error {
	if d.config.Store == nil {
		return nil
	}

	d.mu.Lock()
	for aid, e := range d.accessories {
		e.mu.Lock()
		d.state.IIDs[aid] = e.acc.IIDs().Snapshot()
		e.mu.Unlock()
	}
	err := d.config.Store.Save(d.state)
	d.mu.Unlock()

	if err != nil {
		return fmt.Errorf("saving bridge state: %w", err)
	}
	return nil
}

func (d *Database) entry(aid int) (*entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.accessories[aid]
	if !ok {
		return nil, fmt.Errorf("%w: aid %d", ErrUnknownAccessory, aid)
	}
	return e, nil
}

func (d *Database) logState(acc *model.Accessory, oldState, newState, reason string) {
	if d.config.ProtocolLogger == nil {
		return
	}
	d.config.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Source:    log.SourceBridge,
		Category:  log.CategoryState,
		AID:       acc.AID(),
		Owner:     acc.Owner().String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityAccessory,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
