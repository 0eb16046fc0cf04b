package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hapbridge/hap-go/pkg/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bridge (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	version  INTEGER NOT NULL,
	saved_at DATETIME NOT NULL,
	next_aid INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accessories (
	owner TEXT PRIMARY KEY,
	aid   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS iid_counters (
	aid  INTEGER PRIMARY KEY,
	next INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS iids (
	aid INTEGER NOT NULL,
	key TEXT NOT NULL,
	iid INTEGER NOT NULL,
	PRIMARY KEY (aid, key)
);
`

// SQLiteStore keeps bridge state in an SQLite database, one row per owner
// and per IID assignment.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path. Use ":memory:" for
// an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store. The previous state is replaced in one transaction.
func (s *SQLiteStore) Save(state *BridgeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(state)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := clearTables(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO bridge (id, version, saved_at, next_aid) VALUES (1, ?, ?, ?)`,
		state.Version, state.SavedAt, state.NextAID); err != nil {
		return fmt.Errorf("save bridge row: %w", err)
	}

	for owner, aid := range state.AIDs {
		if _, err := tx.Exec(`INSERT INTO accessories (owner, aid) VALUES (?, ?)`, owner, aid); err != nil {
			return fmt.Errorf("save aid of %s: %w", owner, err)
		}
	}

	for aid, snapshot := range state.IIDs {
		if _, err := tx.Exec(`INSERT INTO iid_counters (aid, next) VALUES (?, ?)`, aid, snapshot.Next); err != nil {
			return fmt.Errorf("save iid counter of aid %d: %w", aid, err)
		}
		for key, iid := range snapshot.IIDs {
			if _, err := tx.Exec(`INSERT INTO iids (aid, key, iid) VALUES (?, ?, ?)`, aid, key, iid); err != nil {
				return fmt.Errorf("save iid %s of aid %d: %w", key, aid, err)
			}
		}
	}

	return tx.Commit()
}

// Load implements Store.
func (s *SQLiteStore) Load() (*BridgeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := NewBridgeState()
	err := s.db.QueryRow(`SELECT version, saved_at, next_aid FROM bridge WHERE id = 1`).
		Scan(&state.Version, &state.SavedAt, &state.NextAID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bridge row: %w", err)
	}

	rows, err := s.db.Query(`SELECT owner, aid FROM accessories`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			owner string
			aid   int
		)
		if err := rows.Scan(&owner, &aid); err != nil {
			rows.Close()
			return nil, err
		}
		state.AIDs[owner] = aid
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT aid, next FROM iid_counters`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var aid, next int
		if err := rows.Scan(&aid, &next); err != nil {
			rows.Close()
			return nil, err
		}
		state.IIDs[aid] = model.IIDSnapshot{Next: next, IIDs: make(map[string]int)}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`SELECT aid, key, iid FROM iids`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			aid, iid int
			key      string
		)
		if err := rows.Scan(&aid, &key, &iid); err != nil {
			return nil, err
		}
		snapshot, ok := state.IIDs[aid]
		if !ok {
			snapshot = model.IIDSnapshot{IIDs: make(map[string]int)}
			state.IIDs[aid] = snapshot
		}
		snapshot.IIDs[key] = iid
	}
	return state, rows.Err()
}

// Clear implements Store.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := clearTables(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func clearTables(tx *sql.Tx) error {
	for _, table := range []string{"bridge", "accessories", "iid_counters", "iids"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
