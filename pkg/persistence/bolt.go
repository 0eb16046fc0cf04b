package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketBridge = []byte("bridge")
	keyState     = []byte("state")
)

// BoltStore keeps bridge state in a bbolt database.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates a bbolt database.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBridge)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save implements Store.
func (s *BoltStore) Save(state *BridgeState) error {
	stamp(state)

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBridge)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketBridge)
		}
		return b.Put(keyState, data)
	})
}

// Load implements Store.
func (s *BoltStore) Load() (*BridgeState, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBridge)
		if b == nil {
			return nil
		}
		// bbolt values are only valid inside the transaction
		if v := b.Get(keyState); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}
	return decode(data)
}

// Clear implements Store.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBridge)
		if b == nil {
			return nil
		}
		return b.Delete(keyState)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*BoltStore)(nil)
)
