// Package backup keeps a bounded ring of full-dataset snapshots in local
// storage. Backups never leave the local store; the remote sheet set has no
// place for them.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"inventrack-backend/internal/localstore"
	"inventrack-backend/internal/model"
)

// Key is the local storage key holding the snapshot ring.
const Key = "backups"

// MaxBackups bounds the ring; the oldest snapshots fall off.
const MaxBackups = 5

// ErrNotFound is returned when no snapshot has the requested id.
var ErrNotFound = errors.New("backup not found")

// Snapshot is one full copy of the four collections.
type Snapshot struct {
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Reason    string       `json:"reason"`
	Data      model.Bundle `json:"data"`
}

// Manager creates, restores, and prunes snapshots.
type Manager struct {
	store *localstore.Store
}

// New creates a Manager over the given store.
func New(store *localstore.Store) *Manager {
	return &Manager{store: store}
}

// List returns the snapshots, newest first.
func (m *Manager) List() []Snapshot {
	out := []Snapshot{}
	m.store.GetInto(Key, &out)
	return out
}

// Create snapshots the current collections under a reason tag and returns
// the new snapshot.
func (m *Manager) Create(reason string) (*Snapshot, error) {
	snap := Snapshot{
		ID:        "backup_" + uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Reason:    reason,
		Data:      *m.store.Bundle(),
	}

	backups := append([]Snapshot{snap}, m.List()...)
	if len(backups) > MaxBackups {
		backups = backups[:MaxBackups]
	}

	if err := m.store.Set(Key, backups, true); err != nil {
		return nil, fmt.Errorf("failed to persist backup: %w", err)
	}
	log.Printf("backup: created %s (%s)", snap.ID, reason)
	return &snap, nil
}

func (m *Manager) find(id string) (*Snapshot, error) {
	for _, snap := range m.List() {
		if snap.ID == id {
			return &snap, nil
		}
	}
	return nil, ErrNotFound
}

// Restore replaces the current collections with a snapshot's data. The
// pre-restore state is snapshotted first, and the restored collections are
// written with sync enabled so they flow back to the remote store.
func (m *Manager) Restore(id string) error {
	snap, err := m.find(id)
	if err != nil {
		return err
	}

	if _, err := m.Create("before_restore"); err != nil {
		return err
	}

	if err := m.store.SaveBundle(&snap.Data, false); err != nil {
		return fmt.Errorf("failed to restore backup %s: %w", id, err)
	}
	log.Printf("backup: restored %s", id)
	return nil
}

// Delete removes one snapshot from the ring.
func (m *Manager) Delete(id string) error {
	backups := m.List()
	kept := backups[:0]
	for _, snap := range backups {
		if snap.ID != id {
			kept = append(kept, snap)
		}
	}
	if len(kept) == len(backups) {
		return ErrNotFound
	}
	return m.store.Set(Key, kept, true)
}

// Export renders one snapshot as indented JSON for download.
func (m *Manager) Export(id string) ([]byte, error) {
	snap, err := m.find(id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import adds an externally supplied snapshot to the ring under a fresh id.
func (m *Manager) Import(raw []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("invalid backup file: %w", err)
	}
	if snap.Timestamp == "" {
		return nil, errors.New("invalid backup file: missing timestamp")
	}

	snap.ID = "backup_uploaded_" + uuid.NewString()
	snap.Reason = "uploaded"

	backups := append([]Snapshot{snap}, m.List()...)
	if len(backups) > MaxBackups {
		backups = backups[:MaxBackups]
	}
	if err := m.store.Set(Key, backups, true); err != nil {
		return nil, err
	}
	return &snap, nil
}
