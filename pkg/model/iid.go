package model

import (
	"errors"
	"fmt"
)

// IIDManager errors.
var (
	ErrIIDManagerInUse = errors.New("iid manager already has assignments")
	ErrInvalidIID      = errors.New("invalid iid")
	ErrDuplicateIID    = errors.New("duplicate iid")
)

// IIDSnapshot is the persisted state of an IIDManager.
type IIDSnapshot struct {
	Next int            `json:"next" yaml:"next"`
	IIDs map[string]int `json:"iids" yaml:"iids"`
}

// IIDManager assigns instance ids to the services and characteristics of one
// accessory.
//
// Objects are identified by a stable key. The counter starts at 1, only ever
// increases, and an id is never handed out twice, even when its object is no
// longer part of the tree.
type IIDManager struct {
	next int
	iids map[string]int
	keys map[int]string
}

// NewIIDManager creates an empty manager.
func NewIIDManager() *IIDManager {
	return &IIDManager{
		next: 1,
		iids: make(map[string]int),
		keys: make(map[int]string),
	}
}

// Assign returns the iid of key, allocating the next free one on first use.
func (m *IIDManager) Assign(key string) int {
	if iid, ok := m.iids[key]; ok {
		return iid
	}

	iid := m.next
	m.next++
	m.iids[key] = iid
	m.keys[iid] = key
	return iid
}

// IID returns the iid of key without allocating.
func (m *IIDManager) IID(key string) (int, bool) {
	iid, ok := m.iids[key]
	return iid, ok
}

// Key returns the key an iid was assigned to.
func (m *IIDManager) Key(iid int) (string, bool) {
	key, ok := m.keys[iid]
	return key, ok
}

// Len returns the number of assigned iids.
func (m *IIDManager) Len() int {
	return len(m.iids)
}

// Next returns the iid the next assignment will receive.
func (m *IIDManager) Next() int {
	return m.next
}

// Snapshot returns a copy of the current assignments.
func (m *IIDManager) Snapshot() IIDSnapshot {
	iids := make(map[string]int, len(m.iids))
	for k, v := range m.iids {
		iids[k] = v
	}
	return IIDSnapshot{Next: m.next, IIDs: iids}
}

// Restore loads a snapshot into an empty manager. The counter is raised past
// the highest restored iid if the snapshot's own counter is behind.
func (m *IIDManager) Restore(s IIDSnapshot) error {
	if len(m.iids) > 0 {
		return ErrIIDManagerInUse
	}

	next := s.Next
	if next < 1 {
		next = 1
	}

	iids := make(map[string]int, len(s.IIDs))
	keys := make(map[int]string, len(s.IIDs))
	for key, iid := range s.IIDs {
		if iid < 1 {
			return fmt.Errorf("%w: %d for %q", ErrInvalidIID, iid, key)
		}
		if other, exists := keys[iid]; exists {
			return fmt.Errorf("%w: %d for %q and %q", ErrDuplicateIID, iid, other, key)
		}
		iids[key] = iid
		keys[iid] = key
		if iid >= next {
			next = iid + 1
		}
	}

	m.iids = iids
	m.keys = keys
	m.next = next
	return nil
}
