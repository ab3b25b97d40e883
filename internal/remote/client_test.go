package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getAllData", r.URL.Query().Get("action"))
		assert.NotEmpty(t, r.URL.Query().Get("t"), "cache-busting parameter present")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"timestamp": "2024-06-01T00:00:00Z",
			"data": {
				"inventaris": [{"id":"INV1","nama":"Laptop A"}],
				"peminjaman": [],
				"kerusakan": [],
				"riwayat": []
			}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	resp, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Data["inventaris"], 1)
	assert.Equal(t, "Laptop A", resp.Data["inventaris"][0]["nama"])
}

func TestFetchAllFailures(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "invalid JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not json</html>"))
			},
		},
		{
			name: "success flag false",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"error":"backend unavailable"}`))
			},
		},
		{
			name: "success without data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":true}`))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := New(srv.URL, time.Second).FetchAll(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFetchSheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getSheet", r.URL.Query().Get("action"))
		assert.Equal(t, "Kerusakan", r.URL.Query().Get("sheet"))
		w.Write([]byte(`{"success":true,"data":[{"id":"KER1"}],"count":1}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, time.Second).FetchSheet(context.Background(), SheetKerusakan)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Data, 1)
}

func TestFetchSheetRejectsUnknownName(t *testing.T) {
	_, err := New("http://unused", time.Second).FetchSheet(context.Background(), "Laporan")
	assert.Error(t, err)
}

func TestReplaceCollection(t *testing.T) {
	var gotAction, gotSheet, gotRows string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotAction = r.PostFormValue("action")
		gotSheet = r.PostFormValue("sheet")
		gotRows = r.PostFormValue("rows")
		w.Write([]byte(`{"success":true,"count":2}`))
	}))
	defer srv.Close()

	rows := json.RawMessage(`[{"id":"INV1"},{"id":"INV2"}]`)
	err := New(srv.URL, time.Second).ReplaceCollection(context.Background(), SheetInventaris, rows)
	require.NoError(t, err)

	assert.Equal(t, "clearAndInsert", gotAction)
	assert.Equal(t, "Inventaris", gotSheet)
	assert.JSONEq(t, string(rows), gotRows)
}

func TestReplaceCollectionRejectsUnknownSheet(t *testing.T) {
	err := New("http://unused", time.Second).
		ReplaceCollection(context.Background(), "Backups", json.RawMessage(`[]`))
	assert.Error(t, err)
}

func TestSheetForKey(t *testing.T) {
	sheet, ok := SheetForKey("inventaris")
	require.True(t, ok)
	assert.Equal(t, SheetInventaris, sheet)

	_, ok = SheetForKey("backups")
	assert.False(t, ok, "only the four canonical collections map to sheets")
}
