package subscription

import (
	"cmp"
	"errors"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/hapbridge/hap-go/pkg/wire"
)

// Subscription errors.
var (
	ErrResourceExhausted    = errors.New("maximum subscriptions reached")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidSession       = errors.New("invalid session")
)

// Default subscription limits.
const (
	DefaultCoalesceInterval             = 250 * time.Millisecond
	DefaultMaxSessions                  = 16
	DefaultMaxCharacteristicsPerSession = 1000
)

// Config holds subscription manager configuration.
type Config struct {
	// MaxSessions is the maximum number of sessions with subscriptions.
	MaxSessions int

	// MaxCharacteristicsPerSession limits the subscribed characteristics of
	// one session.
	MaxCharacteristicsPerSession int

	// CoalesceInterval is how long changes are merged before they are sent.
	// Zero sends on the next ProcessNotifications call.
	CoalesceInterval time.Duration

	// SuppressBounceBack drops values equal to the last one sent.
	SuppressBounceBack bool
}

// DefaultConfig returns the default subscription configuration.
func DefaultConfig() Config {
	return Config{
		MaxSessions:                  DefaultMaxSessions,
		MaxCharacteristicsPerSession: DefaultMaxCharacteristicsPerSession,
		CoalesceInterval:             DefaultCoalesceInterval,
		SuppressBounceBack:           true,
	}
}

// Subscription holds the event subscriptions of one controller session.
type Subscription struct {
	mu sync.RWMutex

	// Session identifies the controller session.
	Session string

	coalesce time.Duration

	characteristics map[wire.CharacteristicID]struct{}

	// lastValues holds the last sent values for bounce-back detection.
	lastValues map[wire.CharacteristicID]any

	pendingChanges    map[wire.CharacteristicID]any
	changeWindowStart time.Time
	hasChanges        bool

	active bool
}

// NewSubscription creates an empty subscription for session.
func NewSubscription(session string, coalesce time.Duration) *Subscription {
	return &Subscription{
		Session:         session,
		coalesce:        coalesce,
		characteristics: make(map[wire.CharacteristicID]struct{}),
		lastValues:      make(map[wire.CharacteristicID]any),
		pendingChanges:  make(map[wire.CharacteristicID]any),
		active:          true,
	}
}

// IsActive returns whether the subscription is active.
func (s *Subscription) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Deactivate marks the subscription as inactive.
func (s *Subscription) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// Has reports whether id is subscribed.
func (s *Subscription) Has(id wire.CharacteristicID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.characteristics[id]
	return ok
}

// Len returns the number of subscribed characteristics.
func (s *Subscription) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.characteristics)
}

// IDs returns the subscribed characteristics ordered by aid and iid.
func (s *Subscription) IDs() []wire.CharacteristicID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]wire.CharacteristicID, 0, len(s.characteristics))
	for id := range s.characteristics {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareIDs)
	return ids
}

func (s *Subscription) add(id wire.CharacteristicID, current any) {
	s.characteristics[id] = struct{}{}
	s.lastValues[id] = current
}

func (s *Subscription) remove(id wire.CharacteristicID) {
	delete(s.characteristics, id)
	delete(s.lastValues, id)
	delete(s.pendingChanges, id)
	if len(s.pendingChanges) == 0 {
		s.hasChanges = false
	}
}

// RecordChange records a value change. It returns true if the change opened
// a new coalescing window. Changes to unsubscribed characteristics are
// ignored.
func (s *Subscription) RecordChange(id wire.CharacteristicID, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	if _, ok := s.characteristics[id]; !ok {
		return false
	}

	isNewWindow := !s.hasChanges
	if isNewWindow {
		s.changeWindowStart = time.Now()
	}
	s.pendingChanges[id] = value
	s.hasChanges = true

	return isNewWindow
}

// GetPendingNotification returns the values to send once the coalescing
// window has elapsed, and clears them. It returns nil when there is nothing
// to send.
func (s *Subscription) GetPendingNotification(suppressBounceBack bool) map[wire.CharacteristicID]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || !s.hasChanges {
		return nil
	}
	if time.Since(s.changeWindowStart) < s.coalesce {
		return nil
	}

	notification := make(map[wire.CharacteristicID]any)
	for id, value := range s.pendingChanges {
		if suppressBounceBack {
			if last, ok := s.lastValues[id]; ok && valuesEqual(last, value) {
				continue
			}
		}
		notification[id] = value
		s.lastValues[id] = value
	}

	s.pendingChanges = make(map[wire.CharacteristicID]any)
	s.hasChanges = false

	if len(notification) == 0 {
		return nil
	}
	return notification
}

// TimeUntilCoalesceExpiry returns the time until pending changes may be sent,
// or 0 when none are pending.
func (s *Subscription) TimeUntilCoalesceExpiry() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasChanges {
		return 0
	}
	elapsed := time.Since(s.changeWindowStart)
	if elapsed >= s.coalesce {
		return 0
	}
	return s.coalesce - elapsed
}

func compareIDs(a, b wire.CharacteristicID) int {
	if c := cmp.Compare(a.AID, b.AID); c != 0 {
		return c
	}
	return cmp.Compare(a.IID, b.IID)
}

// valuesEqual compares two event values. Values of different dynamic types
// are never equal.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
