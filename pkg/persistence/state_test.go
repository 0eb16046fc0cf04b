package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hapbridge/hap-go/pkg/model"
)

func sampleState() *BridgeState {
	state := NewBridgeState()
	state.NextAID = 4
	state.AIDs["9b0c5a1e-7d43-4c1f-8f0e-2f4d8a6c3b21"] = 1
	state.AIDs["2a4f7c9e-1b3d-4e5f-a6b7-c8d9e0f1a2b3"] = 2
	state.IIDs[2] = model.IIDSnapshot{
		Next: 4,
		IIDs: map[string]int{
			"AccessoryInformation#0":            1,
			"AccessoryInformation#0/Identify#0": 2,
			"AccessoryInformation#0/Name#0":     3,
		},
	}
	return state
}

// storeContract runs the behavior every Store implementation shares.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("LoadEmpty", func(t *testing.T) {
		store := newStore(t)

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for empty store", got)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store := newStore(t)

		if err := store.Save(sampleState()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.SavedAt.IsZero() {
			t.Error("SavedAt not set")
		}
		if got.NextAID != 4 {
			t.Errorf("NextAID = %d, want 4", got.NextAID)
		}
		if got.AIDs["2a4f7c9e-1b3d-4e5f-a6b7-c8d9e0f1a2b3"] != 2 {
			t.Errorf("AIDs = %v", got.AIDs)
		}
		snap, ok := got.IIDs[2]
		if !ok {
			t.Fatalf("IIDs[2] missing: %v", got.IIDs)
		}
		if snap.Next != 4 || snap.IIDs["AccessoryInformation#0/Name#0"] != 3 {
			t.Errorf("IIDs[2] = %+v", snap)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := newStore(t)

		first := sampleState()
		if err := store.Save(first); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		second := NewBridgeState()
		second.NextAID = 9
		if err := store.Save(second); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.NextAID != 9 || len(got.AIDs) != 0 {
			t.Errorf("Load() = %+v, want second state", got)
		}
		if got.AIDs == nil || got.IIDs == nil {
			t.Error("maps should be initialized after Load")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := newStore(t)

		if err := store.Save(sampleState()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() after Clear = %v, want nil", got)
		}

		// clearing twice is fine
		if err := store.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})

	t.Run("RestoresIIDManager", func(t *testing.T) {
		store := newStore(t)

		m := model.NewIIDManager()
		m.Assign("a")
		m.Assign("b")

		state := NewBridgeState()
		state.IIDs[7] = m.Snapshot()
		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		restored := model.NewIIDManager()
		if err := restored.Restore(got.IIDs[7]); err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if iid := restored.Assign("b"); iid != 2 {
			t.Errorf("Assign(b) = %d, want 2", iid)
		}
		if iid := restored.Assign("c"); iid != 3 {
			t.Errorf("Assign(c) = %d, want 3", iid)
		}
	})
}

func TestFileStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		return NewFileStore(filepath.Join(t.TempDir(), "state", "bridge.json"))
	})

	t.Run("NoTempFilesLeft", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileStore(filepath.Join(dir, "bridge.json"))
		if err := store.Save(sampleState()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Name() != "bridge.json" {
			t.Errorf("directory contains %v, want only bridge.json", entries)
		}
	})

	t.Run("CorruptFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bridge.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileStore(path).Load(); err == nil {
			t.Error("Load() should fail on a corrupt file")
		}
	})
}

func TestBoltStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := NewBoltStore(filepath.Join(t.TempDir(), "bridge.db"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})

	t.Run("Reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bridge.db")

		s, err := NewBoltStore(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Save(sampleState()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}

		s, err = NewBoltStore(path)
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()

		got, err := s.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got == nil || got.NextAID != 4 {
			t.Errorf("Load() = %+v, want saved state", got)
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})

	t.Run("ReopenKeepsRows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bridge.sqlite")

		s, err := NewSQLiteStore(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Save(sampleState()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		// A second save replaces rather than accumulates.
		next := sampleState()
		delete(next.AIDs, "2a4f7c9e-1b3d-4e5f-a6b7-c8d9e0f1a2b3")
		if err := s.Save(next); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}

		s, err = NewSQLiteStore(path)
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()

		got, err := s.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got == nil || got.NextAID != 4 {
			t.Fatalf("Load() = %+v, want saved state", got)
		}
		if len(got.AIDs) != 1 {
			t.Errorf("AIDs = %v, want one owner", got.AIDs)
		}
		snapshot := got.IIDs[2]
		if snapshot.Next != 4 || snapshot.IIDs["AccessoryInformation#0/Name#0"] != 3 {
			t.Errorf("IIDs[2] = %+v", snapshot)
		}
	})
}
