package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inventrack-backend/internal/backup"
	"inventrack-backend/internal/localstore"
	"inventrack-backend/internal/model"
	"inventrack-backend/internal/service"
	"inventrack-backend/internal/syncmgr"
)

func setupRouter(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Entry{}, &model.PushSubscription{}))

	store := localstore.New(db, nil, time.Hour)
	backups := backup.New(store)
	svc := service.New(store, backups)
	mgr := syncmgr.New(nil, store, 0, time.Second)

	r := NewRouter(svc, backups, mgr, nil, RouterConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
	})
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBorrowReturnFlow(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, "POST", "/api/inventaris", gin.H{"kode": "LPT001", "nama": "ThinkPad"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data model.InventoryItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	itemID := created.Data.ID
	require.NotEmpty(t, itemID)

	w = doJSON(t, r, "POST", "/api/peminjaman", gin.H{
		"nama": "Budi", "nip": "123", "bagian": "Umum", "noHp": "0812",
		"laptopId": itemID, "tanggalPinjam": "2026-08-01", "tanggalKembali": "2026-08-10",
		"keperluan": "Dinas",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var loanResp struct {
		Data model.Loan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loanResp))
	assert.Equal(t, "ThinkPad", loanResp.Data.LaptopNama)

	// The item is out; a second borrow conflicts.
	w = doJSON(t, r, "POST", "/api/peminjaman", gin.H{
		"nama": "Siti", "nip": "456", "bagian": "TU", "noHp": "0813",
		"laptopId": itemID, "tanggalPinjam": "2026-08-02", "tanggalKembali": "2026-08-11",
		"keperluan": "Rapat",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, "POST", "/api/peminjaman/"+loanResp.Data.ID+"/return", gin.H{
		"kondisiKembali": "Baik",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "GET", "/api/riwayat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var riwayat struct {
		Data []model.HistoryRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &riwayat))
	require.Len(t, riwayat.Data, 1)
	assert.Equal(t, model.LoanSelesai, riwayat.Data[0].Status)
}

func TestInventarisStatusFilter(t *testing.T) {
	r, svc := setupRouter(t)

	require.NoError(t, svc.Store().Set(model.KeyInventaris, []model.InventoryItem{
		{ID: "INV1", Nama: "A", Status: model.StatusTersedia},
		{ID: "INV2", Nama: "B", Status: model.StatusDipinjam},
	}, true))

	w := doJSON(t, r, "GET", "/api/inventaris?status=tersedia", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []model.InventoryItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "INV1", resp.Data[0].ID)
}

func TestCacheFlushOnMutation(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, "GET", "/api/inventaris", nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := w.Body.String()

	w = doJSON(t, r, "POST", "/api/inventaris", gin.H{"kode": "LPT001", "nama": "ThinkPad"})
	require.Equal(t, http.StatusCreated, w.Code)

	// The earlier GET was cached, but the write flushed the cache.
	w = doJSON(t, r, "GET", "/api/inventaris", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, empty, w.Body.String())
}

func TestSyncEndpointsUnconfigured(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, "GET", "/api/sync/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Data syncmgr.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Data.Configured)
	assert.Equal(t, syncmgr.StateOffline, status.Data.State)

	w = doJSON(t, r, "POST", "/api/sync/pull", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, r, "POST", "/api/sync/push", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBackupRoundTrip(t *testing.T) {
	r, svc := setupRouter(t)

	require.NoError(t, svc.Store().Set(model.KeyInventaris, []model.InventoryItem{
		{ID: "INV1", Nama: "A", Status: model.StatusTersedia},
	}, true))

	w := doJSON(t, r, "POST", "/api/backups", gin.H{"reason": "test"})
	require.Equal(t, http.StatusCreated, w.Code)
	var snap struct {
		Data backup.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "test", snap.Data.Reason)

	// Wipe the collection, then restore from the snapshot.
	require.NoError(t, svc.Store().Set(model.KeyInventaris, []model.InventoryItem{}, true))

	w = doJSON(t, r, "POST", "/api/backups/"+snap.Data.ID+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, svc.Store().Inventaris(), 1)

	w = doJSON(t, r, "POST", "/api/backups/missing/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutSubscriptionValidation(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, "PUT", "/api/subscriptions", gin.H{"endpoint": "https://example.com/push"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "PUT", "/api/subscriptions", gin.H{
		"endpoint": "https://example.com/push",
		"p256dh":   "key",
		"auth":     "auth",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "GET", "/api/subscriptions?endpoint=https://example.com/push", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
