// Package localstore owns the persisted representation of the canonical
// collections. Each collection lives in one key/value row, passed through
// the configured codec on the way in and out. Reads never fail outward: a
// missing, malformed, or undecodable row reads as an empty collection.
package localstore

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inventrack-backend/internal/codec"
	"inventrack-backend/internal/model"
)

// SyncFunc receives the key and the plain JSON snapshot of a collection
// whose debounce interval has elapsed after a write.
type SyncFunc func(key string, rows json.RawMessage)

const emptyArray = "[]"

// Store is the key/value persistence layer for named record collections.
type Store struct {
	db       *gorm.DB
	codec    codec.Codec // nil means plain JSON rows
	cache    *gocache.Cache
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	syncFn SyncFunc
}

// New creates a Store. A nil codec stores plain JSON.
func New(db *gorm.DB, c codec.Codec, debounce time.Duration) *Store {
	return &Store{
		db:       db,
		codec:    c,
		cache:    gocache.New(5*time.Minute, 10*time.Minute),
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
	}
}

// DB exposes the underlying gorm handle for collaborators that keep their
// own tables (push subscriptions).
func (s *Store) DB() *gorm.DB { return s.db }

// OnSync registers the callback invoked after a write's debounce interval.
// Registered once at wiring time, before any writes occur.
func (s *Store) OnSync(fn SyncFunc) { s.syncFn = fn }

// GetRaw returns the decoded JSON array for a key. Absent keys, decode
// failures, and storage errors all read as an empty array.
func (s *Store) GetRaw(key string) json.RawMessage {
	if cached, found := s.cache.Get(key); found {
		return cached.(json.RawMessage)
	}

	var entry model.Entry
	if err := s.db.First(&entry, "key = ?", key).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("localstore: error reading key %s: %v", key, err)
		}
		return json.RawMessage(emptyArray)
	}

	var raw json.RawMessage
	if err := codec.DecodeCompat(s.codec, entry.Value, entry.Encoded, &raw); err != nil {
		log.Printf("localstore: undecodable value for key %s, treating as empty: %v", key, err)
		return json.RawMessage(emptyArray)
	}

	s.cache.Set(key, raw, gocache.DefaultExpiration)
	return raw
}

// GetInto decodes the collection stored under key into out. Failures leave
// out untouched and are logged, never returned.
func (s *Store) GetInto(key string, out any) {
	raw := s.GetRaw(key)
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("localstore: error unmarshalling key %s: %v", key, err)
	}
}

// Set encodes and persists records under key. Unless skipSync is set, a
// remote push of the same snapshot is scheduled after the debounce interval,
// replacing any push already pending for this key.
func (s *Store) Set(key string, v any, skipSync bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("localstore: error marshalling key %s: %v", key, err)
		return err
	}

	value, encoded := string(raw), false
	if s.codec != nil {
		if value, err = s.codec.Encode(json.RawMessage(raw)); err != nil {
			log.Printf("localstore: error encoding key %s: %v", key, err)
			return err
		}
		encoded = true
	}

	entry := model.Entry{Key: key, Value: value, Encoded: encoded}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "encoded", "updated_at"}),
	}).Create(&entry).Error; err != nil {
		log.Printf("localstore: error persisting key %s: %v", key, err)
		return err
	}

	s.cache.Set(key, json.RawMessage(raw), gocache.DefaultExpiration)

	if !skipSync && s.syncFn != nil {
		s.scheduleSync(key, json.RawMessage(raw))
	}
	return nil
}

// scheduleSync arms (or re-arms) the per-key debounce timer. Two writes to
// the same key inside the interval result in exactly one callback carrying
// the later snapshot.
func (s *Store) scheduleSync(key string, raw json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		s.syncFn(key, raw)
	})
}

// Inventaris reads the canonical inventory collection.
func (s *Store) Inventaris() []model.InventoryItem {
	out := []model.InventoryItem{}
	s.GetInto(model.KeyInventaris, &out)
	return out
}

// Peminjaman reads the active loan collection.
func (s *Store) Peminjaman() []model.Loan {
	out := []model.Loan{}
	s.GetInto(model.KeyPeminjaman, &out)
	return out
}

// Kerusakan reads the damage report collection.
func (s *Store) Kerusakan() []model.DamageReport {
	out := []model.DamageReport{}
	s.GetInto(model.KeyKerusakan, &out)
	return out
}

// Riwayat reads the loan history archive.
func (s *Store) Riwayat() []model.HistoryRecord {
	out := []model.HistoryRecord{}
	s.GetInto(model.KeyRiwayat, &out)
	return out
}

// Bundle loads all four collections.
func (s *Store) Bundle() *model.Bundle {
	return &model.Bundle{
		Inventaris: s.Inventaris(),
		Peminjaman: s.Peminjaman(),
		Kerusakan:  s.Kerusakan(),
		Riwayat:    s.Riwayat(),
	}
}

// SaveBundle writes all four collections. A pull passes skipSync=true so
// that its own writes never feed back into the push queue.
func (s *Store) SaveBundle(b *model.Bundle, skipSync bool) error {
	writes := []struct {
		key string
		v   any
	}{
		{model.KeyInventaris, b.Inventaris},
		{model.KeyPeminjaman, b.Peminjaman},
		{model.KeyKerusakan, b.Kerusakan},
		{model.KeyRiwayat, b.Riwayat},
	}
	for _, w := range writes {
		if err := s.Set(w.key, w.v, skipSync); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes the four canonical collections from local storage.
func (s *Store) Clear() error {
	if err := s.db.Where("key IN ?", model.CollectionKeys).Delete(&model.Entry{}).Error; err != nil {
		return err
	}
	for _, key := range model.CollectionKeys {
		s.cache.Delete(key)
	}
	return nil
}

// MigrateToEncoded re-encodes plain rows through the configured codec.
// Returns the number of rows migrated; a store without a codec migrates
// nothing.
func (s *Store) MigrateToEncoded() int {
	if s.codec == nil {
		return 0
	}

	var plain []model.Entry
	if err := s.db.Find(&plain, "encoded = ?", false).Error; err != nil {
		log.Printf("localstore: migration scan failed: %v", err)
		return 0
	}

	migrated := 0
	for _, entry := range plain {
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(entry.Value), &raw); err != nil {
			log.Printf("localstore: skipping migration of key %s: %v", entry.Key, err)
			continue
		}
		value, err := s.codec.Encode(raw)
		if err != nil {
			log.Printf("localstore: skipping migration of key %s: %v", entry.Key, err)
			continue
		}
		if err := s.db.Model(&model.Entry{}).Where("key = ?", entry.Key).
			Updates(map[string]any{"value": value, "encoded": true}).Error; err != nil {
			log.Printf("localstore: migration write failed for key %s: %v", entry.Key, err)
			continue
		}
		s.cache.Delete(entry.Key)
		migrated++
	}

	if migrated > 0 {
		log.Printf("localstore: migrated %d rows to encoded format", migrated)
	}
	return migrated
}
