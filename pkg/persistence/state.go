package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hapbridge/hap-go/pkg/model"
)

// StateVersion is the current version of the state format.
const StateVersion = 1

// BridgeState contains the id assignments of a bridge.
type BridgeState struct {
	// Version is the state format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// NextAID is the aid the next new accessory receives.
	NextAID int `json:"next_aid"`

	// AIDs maps owner ids (connector or device UUID) to accessory ids.
	AIDs map[string]int `json:"aids,omitempty"`

	// IIDs contains the IID assignments by aid.
	IIDs map[int]model.IIDSnapshot `json:"iids,omitempty"`
}

// NewBridgeState returns an empty state.
func NewBridgeState() *BridgeState {
	return &BridgeState{
		Version: StateVersion,
		AIDs:    make(map[string]int),
		IIDs:    make(map[int]model.IIDSnapshot),
	}
}

// Store loads and saves bridge state.
type Store interface {
	// Load returns the saved state, or nil, nil if nothing was saved yet.
	Load() (*BridgeState, error)

	// Save persists state.
	Save(state *BridgeState) error

	// Clear removes the saved state.
	Clear() error
}

// FileStore manages persistence of bridge state to a JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a new file store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the state file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the state to a temporary file and renames it over the state
// file, so a crash never leaves a truncated file behind.
func (s *FileStore) Save(state *BridgeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	stamp(state)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *FileStore) Load() (*BridgeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return decode(data)
}

// Clear removes the state file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func stamp(state *BridgeState) {
	state.Version = StateVersion
	state.SavedAt = time.Now()
}

func decode(data []byte) (*BridgeState, error) {
	state := &BridgeState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.AIDs == nil {
		state.AIDs = make(map[string]int)
	}
	if state.IIDs == nil {
		state.IIDs = make(map[int]model.IIDSnapshot)
	}
	return state, nil
}
