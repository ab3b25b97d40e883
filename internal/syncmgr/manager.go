// Package syncmgr keeps the local store and the remote spreadsheet
// eventually consistent: a one-shot full pull replacing local state, and a
// debounced, per-collection-coalesced push of local mutations. There are no
// transactions; the last local snapshot for a collection wins.
package syncmgr

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"inventrack-backend/internal/localstore"
	"inventrack-backend/internal/model"
	"inventrack-backend/internal/normalize"
	"inventrack-backend/internal/remote"
	"inventrack-backend/internal/validate"
)

// State is the connection status exposed to the UI.
type State string

const (
	StateOffline   State = "offline"
	StateConnected State = "connected"
	StateLoading   State = "loading"
	StateSyncing   State = "syncing"
	StateError     State = "error"
)

// errorDisplay is how long a transient error state is shown before the
// manager settles back to offline.
const errorDisplay = 3 * time.Second

// gatherDelay is how long a freshly started drain waits before grabbing the
// queue, so that a burst of writes coalesces into one push per collection.
const gatherDelay = 100 * time.Millisecond

// Remote is the subset of the remote adapter the manager needs.
type Remote interface {
	FetchAll(ctx context.Context) (*remote.AllDataResponse, error)
	ReplaceCollection(ctx context.Context, sheet string, rows json.RawMessage) error
}

type pushItem struct {
	Key  string
	Rows json.RawMessage
}

// Status is a read-only snapshot of the manager's state machine.
type Status struct {
	Configured  bool       `json:"configured"`
	State       State      `json:"state"`
	Pulling     bool       `json:"pulling"`
	Pushing     bool       `json:"pushing"`
	QueueLength int        `json:"queueLength"`
	LastPull    *time.Time `json:"lastPull,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

// Manager orchestrates pulls and the coalescing push queue. All flags and
// the queue live behind one mutex; remote I/O for pulls and drain cycles is
// serialized by a second one so a corrective pull write and an in-flight
// drain cannot interleave.
type Manager struct {
	remote      Remote // nil when no URL is configured
	store       *localstore.Store
	settle      time.Duration
	pushTimeout time.Duration

	mu       sync.Mutex
	state    State
	pulling  bool
	pushing  bool
	draining bool
	queue    []pushItem
	lastPull time.Time
	lastErr  string

	ioMu sync.Mutex
}

// New creates a Manager. A nil remote puts the manager in permanent offline
// mode where every operation is a no-op; that is a normal operating mode,
// not a failure.
func New(r Remote, store *localstore.Store, settle, pushTimeout time.Duration) *Manager {
	state := StateOffline
	if r != nil {
		state = StateConnected
	}
	return &Manager{
		remote:      r,
		store:       store,
		settle:      settle,
		pushTimeout: pushTimeout,
		state:       state,
	}
}

// Configured reports whether a remote endpoint is set.
func (m *Manager) Configured() bool { return m.remote != nil }

// Status returns a snapshot of the manager's flags.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Configured:  m.remote != nil,
		State:       m.state,
		Pulling:     m.pulling,
		Pushing:     m.pushing,
		QueueLength: len(m.queue),
		LastError:   m.lastErr,
	}
	if !m.lastPull.IsZero() {
		t := m.lastPull
		s.LastPull = &t
	}
	return s
}

// PullAll replaces local state with the remote bundle: fetch, normalize,
// validate (pruning orphans), save with sync suppressed. When validation
// corrected anything, the fixed bundle is pushed back. No-op when
// unconfigured or already pulling; a failed pull leaves local data
// untouched and does not retry.
func (m *Manager) PullAll(ctx context.Context) error {
	m.mu.Lock()
	if m.remote == nil {
		m.mu.Unlock()
		log.Println("syncmgr: pull skipped, remote not configured")
		return nil
	}
	if m.pulling {
		m.mu.Unlock()
		log.Println("syncmgr: pull already in progress, skipping")
		return nil
	}
	m.pulling = true
	m.state = StateLoading
	m.mu.Unlock()

	modified, err := m.doPull(ctx)

	m.mu.Lock()
	m.pulling = false
	if err != nil {
		m.lastErr = err.Error()
		m.state = StateError
		time.AfterFunc(errorDisplay, m.settleError)
	} else {
		m.lastErr = ""
		m.lastPull = time.Now()
		m.state = StateConnected
	}
	m.mu.Unlock()

	if err != nil {
		log.Printf("syncmgr: pull failed: %v", err)
		return err
	}

	if modified {
		log.Println("syncmgr: pulled data was corrected, syncing fixes back")
		m.enqueueCorrections()
	}
	return nil
}

func (m *Manager) doPull(ctx context.Context) (bool, error) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	resp, err := m.remote.FetchAll(ctx)
	if err != nil {
		return false, err
	}

	bundle := normalize.All(resp.Data)
	log.Printf("syncmgr: pulled %d inventaris, %d peminjaman, %d kerusakan, %d riwayat",
		len(bundle.Inventaris), len(bundle.Peminjaman), len(bundle.Kerusakan), len(bundle.Riwayat))

	modified := validate.Run(bundle, true)

	// skipSync: the pull's own writes must never feed the push queue.
	if err := m.store.SaveBundle(bundle, true); err != nil {
		return false, err
	}
	return modified, nil
}

func (m *Manager) settleError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateError {
		m.state = StateOffline
	}
}

// enqueueCorrections pushes the locally corrected collections back to the
// remote store.
func (m *Manager) enqueueCorrections() {
	for _, key := range model.CollectionKeys {
		m.Enqueue(key, m.store.GetRaw(key))
	}
}

// Enqueue appends a collection snapshot to the push queue and starts a
// drain if none is running. Snapshots enqueued while a pull is in flight
// are dropped; the pull is about to overwrite local state anyway.
func (m *Manager) Enqueue(key string, rows json.RawMessage) {
	if m.remote == nil {
		return
	}
	if _, ok := remote.SheetForKey(key); !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pulling {
		return
	}

	m.queue = append(m.queue, pushItem{Key: key, Rows: rows})
	if !m.draining {
		m.draining = true
		m.state = StateSyncing
		go func() {
			time.Sleep(gatherDelay)
			m.drain()
		}()
	}
}

// drain repeatedly swaps out the queued entries, coalesces them
// last-write-wins per collection, and pushes the survivors sequentially.
// Entries that arrive during a cycle are handled by the next one.
func (m *Manager) drain() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.draining = false
			if m.state == StateSyncing {
				m.state = StateConnected
			}
			m.mu.Unlock()
			return
		}
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()

		for _, item := range coalesce(batch) {
			m.pushOne(item)
		}
	}
}

// coalesce keeps only the most recently enqueued snapshot per collection,
// preserving the order in which collections first appeared.
func coalesce(batch []pushItem) []pushItem {
	latest := make(map[string]json.RawMessage, len(batch))
	order := make([]string, 0, len(batch))
	for _, item := range batch {
		if _, seen := latest[item.Key]; !seen {
			order = append(order, item.Key)
		}
		latest[item.Key] = item.Rows
	}

	out := make([]pushItem, 0, len(order))
	for _, key := range order {
		out = append(out, pushItem{Key: key, Rows: latest[key]})
	}
	return out
}

// pushOne replaces one remote collection, then waits the settle delay. The
// transport is fire-and-forget: a non-error return means submitted, not
// confirmed, so failures are logged and never retried here.
func (m *Manager) pushOne(item pushItem) {
	sheet, _ := remote.SheetForKey(item.Key)

	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.pushTimeout)
	defer cancel()

	log.Printf("syncmgr: pushing %s", sheet)
	if err := m.remote.ReplaceCollection(ctx, sheet, item.Rows); err != nil {
		log.Printf("syncmgr: push of %s failed: %v", sheet, err)
		m.mu.Lock()
		m.lastErr = err.Error()
		m.mu.Unlock()
	}

	time.Sleep(m.settle)
}

// PushAll pushes every collection from the current local snapshot, used by
// the manual "sync now" action. No-op error when unconfigured or a manual
// push is already in flight.
func (m *Manager) PushAll(ctx context.Context) error {
	m.mu.Lock()
	if m.remote == nil {
		m.mu.Unlock()
		return ErrNotConfigured
	}
	if m.pushing {
		m.mu.Unlock()
		return ErrPushInProgress
	}
	m.pushing = true
	m.state = StateSyncing
	m.mu.Unlock()

	err := m.doPushAll(ctx)

	m.mu.Lock()
	m.pushing = false
	switch {
	case err == nil, errors.Is(err, ErrNothingToSync):
		// An empty dataset is a warning for the caller, not a sync failure.
		if m.state == StateSyncing {
			m.state = StateConnected
		}
	default:
		m.lastErr = err.Error()
		m.state = StateError
		time.AfterFunc(errorDisplay, m.settleError)
	}
	m.mu.Unlock()
	return err
}

func (m *Manager) doPushAll(ctx context.Context) error {
	bundle := m.store.Bundle()
	if bundle.Total() == 0 {
		return ErrNothingToSync
	}

	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	for _, key := range model.CollectionKeys {
		sheet, _ := remote.SheetForKey(key)
		if err := m.remote.ReplaceCollection(ctx, sheet, m.store.GetRaw(key)); err != nil {
			return err
		}
		time.Sleep(m.settle)
	}
	return nil
}
