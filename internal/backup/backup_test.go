package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inventrack-backend/internal/localstore"
	"inventrack-backend/internal/model"
)

func newTestStore(t *testing.T) *localstore.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Entry{}))
	return localstore.New(db, nil, time.Hour)
}

func TestCreateAndList(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(model.KeyInventaris, []model.InventoryItem{{ID: "INV1"}}, true))

	m := New(store)
	snap, err := m.Create("manual")
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "manual", snap.Reason)
	require.Len(t, snap.Data.Inventaris, 1)

	backups := m.List()
	require.Len(t, backups, 1)
	assert.Equal(t, snap.ID, backups[0].ID)
}

func TestRingIsCapped(t *testing.T) {
	m := New(newTestStore(t))

	var lastID string
	for i := 0; i < MaxBackups+3; i++ {
		snap, err := m.Create("auto")
		require.NoError(t, err)
		lastID = snap.ID
	}

	backups := m.List()
	require.Len(t, backups, MaxBackups)
	assert.Equal(t, lastID, backups[0].ID, "newest snapshot stays at the front")
}

func TestRestore(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(model.KeyInventaris, []model.InventoryItem{{ID: "OLD"}}, true))

	m := New(store)
	snap, err := m.Create("before_change")
	require.NoError(t, err)

	require.NoError(t, store.Set(model.KeyInventaris, []model.InventoryItem{{ID: "NEW"}}, true))

	require.NoError(t, m.Restore(snap.ID))

	items := store.Inventaris()
	require.Len(t, items, 1)
	assert.Equal(t, "OLD", items[0].ID)

	reasons := make([]string, 0)
	for _, b := range m.List() {
		reasons = append(reasons, b.Reason)
	}
	assert.Contains(t, reasons, "before_restore", "restoring snapshots the pre-restore state first")
}

func TestRestoreUnknownID(t *testing.T) {
	m := New(newTestStore(t))
	assert.ErrorIs(t, m.Restore("backup_nope"), ErrNotFound)
}

func TestDelete(t *testing.T) {
	m := New(newTestStore(t))
	snap, err := m.Create("manual")
	require.NoError(t, err)

	require.NoError(t, m.Delete(snap.ID))
	assert.Empty(t, m.List())

	assert.ErrorIs(t, m.Delete(snap.ID), ErrNotFound)
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(model.KeyRiwayat, []model.HistoryRecord{{ID: "RIW1"}}, true))

	m := New(store)
	snap, err := m.Create("manual")
	require.NoError(t, err)

	raw, err := m.Export(snap.ID)
	require.NoError(t, err)

	imported, err := m.Import(raw)
	require.NoError(t, err)
	assert.NotEqual(t, snap.ID, imported.ID, "imports get a fresh id")
	assert.Equal(t, "uploaded", imported.Reason)
	require.Len(t, imported.Data.Riwayat, 1)
}

func TestImportRejectsGarbage(t *testing.T) {
	m := New(newTestStore(t))

	_, err := m.Import([]byte("not json"))
	assert.Error(t, err)

	_, err = m.Import([]byte(`{"data":{}}`))
	assert.Error(t, err, "missing timestamp means not a backup file")
}
