package subscription

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hapbridge/hap-go/pkg/wire"
)

// Notification is one event message for a session.
type Notification struct {
	// Session is the receiving controller session.
	Session string

	// Characteristics holds the changed values ordered by aid and iid.
	Characteristics []wire.CharacteristicResult

	// Timestamp is when the notification was generated.
	Timestamp time.Time
}

// Body returns the HAP EVENT body.
func (n Notification) Body() wire.CharacteristicResponse {
	return wire.CharacteristicResponse{Characteristics: n.Characteristics}
}

// Manager manages the event subscriptions of all sessions.
type Manager struct {
	mu sync.RWMutex

	config Config

	sessions map[string]*Subscription

	// index maps a characteristic to the sessions subscribed to it.
	index map[wire.CharacteristicID]map[string]*Subscription

	onNotification func(Notification)
}

// NewManager creates a manager with the default configuration.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultConfig())
}

// NewManagerWithConfig creates a manager with config. Non-positive limits
// fall back to the defaults.
func NewManagerWithConfig(config Config) *Manager {
	if config.MaxSessions <= 0 {
		config.MaxSessions = DefaultMaxSessions
	}
	if config.MaxCharacteristicsPerSession <= 0 {
		config.MaxCharacteristicsPerSession = DefaultMaxCharacteristicsPerSession
	}
	if config.CoalesceInterval < 0 {
		config.CoalesceInterval = 0
	}

	return &Manager{
		config:   config,
		sessions: make(map[string]*Subscription),
		index:    make(map[wire.CharacteristicID]map[string]*Subscription),
	}
}

// Subscribe enables events for id on session. current is the value the
// controller already knows; it seeds bounce-back suppression. Subscribing
// twice is a no-op.
func (m *Manager) Subscribe(session string, id wire.CharacteristicID, current any) error {
	if session == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.sessions[session]
	if !ok {
		if len(m.sessions) >= m.config.MaxSessions {
			return fmt.Errorf("%w: %d sessions", ErrResourceExhausted, len(m.sessions))
		}
		sub = NewSubscription(session, m.config.CoalesceInterval)
		m.sessions[session] = sub
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()

	if _, exists := sub.characteristics[id]; exists {
		return nil
	}
	if len(sub.characteristics) >= m.config.MaxCharacteristicsPerSession {
		return fmt.Errorf("%w: session %s has %d characteristics", ErrResourceExhausted, session, len(sub.characteristics))
	}
	sub.add(id, current)

	subs := m.index[id]
	if subs == nil {
		subs = make(map[string]*Subscription)
		m.index[id] = subs
	}
	subs[session] = sub

	return nil
}

// Unsubscribe disables events for id on session. The session is dropped once
// it has no subscriptions left.
func (m *Manager) Unsubscribe(session string, id wire.CharacteristicID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.sessions[session]
	if !ok || !sub.Has(id) {
		return fmt.Errorf("%w: session %s aid %d iid %d", ErrSubscriptionNotFound, session, id.AID, id.IID)
	}

	sub.mu.Lock()
	sub.remove(id)
	empty := len(sub.characteristics) == 0
	sub.mu.Unlock()

	m.unindex(id, session)
	if empty {
		sub.Deactivate()
		delete(m.sessions, session)
	}
	return nil
}

// RemoveSession drops every subscription of session.
func (m *Manager) RemoveSession(session string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.sessions[session]
	if !ok {
		return
	}
	for _, id := range sub.IDs() {
		m.unindex(id, session)
	}
	sub.Deactivate()
	delete(m.sessions, session)
}

// RemoveAccessory drops every subscription to characteristics of aid.
func (m *Manager) RemoveAccessory(aid int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, subs := range m.index {
		if id.AID != aid {
			continue
		}
		for session, sub := range subs {
			sub.mu.Lock()
			sub.remove(id)
			empty := len(sub.characteristics) == 0
			sub.mu.Unlock()
			if empty {
				sub.Deactivate()
				delete(m.sessions, session)
			}
		}
		delete(m.index, id)
	}
}

func (m *Manager) unindex(id wire.CharacteristicID, session string) {
	subs := m.index[id]
	delete(subs, session)
	if len(subs) == 0 {
		delete(m.index, id)
	}
}

// IsSubscribed reports whether session receives events for id.
func (m *Manager) IsSubscribed(session string, id wire.CharacteristicID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.index[id][session]
	return ok
}

// Subscribers returns the sessions subscribed to id, sorted.
func (m *Manager) Subscribers(id wire.CharacteristicID) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]string, 0, len(m.index[id]))
	for session := range m.index[id] {
		sessions = append(sessions, session)
	}
	slices.Sort(sessions)
	return sessions
}

// NotifyChange records a value change of id. origin is the session that
// caused the change and is skipped; pass "" for device-originated changes.
func (m *Manager) NotifyChange(id wire.CharacteristicID, value any, origin string) {
	m.mu.RLock()
	subs := make([]*Subscription, 0, len(m.index[id]))
	for session, sub := range m.index[id] {
		if session != origin {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	for _, sub := range subs {
		sub.RecordChange(id, value)
	}
}

// ProcessNotifications sends the pending notifications whose coalescing
// window has elapsed.
func (m *Manager) ProcessNotifications() {
	m.mu.RLock()
	subs := make([]*Subscription, 0, len(m.sessions))
	for _, sub := range m.sessions {
		subs = append(subs, sub)
	}
	onNotify := m.onNotification
	suppress := m.config.SuppressBounceBack
	m.mu.RUnlock()

	if onNotify == nil {
		return
	}

	for _, sub := range subs {
		values := sub.GetPendingNotification(suppress)
		if values == nil {
			continue
		}

		results := make([]wire.CharacteristicResult, 0, len(values))
		for id, value := range values {
			results = append(results, wire.CharacteristicResult{AID: id.AID, IID: id.IID, Value: value, HasValue: true})
		}
		slices.SortFunc(results, func(a, b wire.CharacteristicResult) int {
			return compareIDs(wire.CharacteristicID{AID: a.AID, IID: a.IID}, wire.CharacteristicID{AID: b.AID, IID: b.IID})
		})

		onNotify(Notification{
			Session:         sub.Session,
			Characteristics: results,
			Timestamp:       time.Now(),
		})
	}
}

// Run calls ProcessNotifications every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ProcessNotifications()
		}
	}
}

// ClearAll removes all subscriptions.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.sessions {
		sub.Deactivate()
	}
	m.sessions = make(map[string]*Subscription)
	m.index = make(map[wire.CharacteristicID]map[string]*Subscription)
}

// Count returns the number of sessions with subscriptions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Get returns the subscription of session.
func (m *Manager) Get(session string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.sessions[session]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrSubscriptionNotFound, session)
	}
	return sub, nil
}

// OnNotification sets the callback for notifications.
func (m *Manager) OnNotification(fn func(Notification)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onNotification = fn
}
