// Package remote talks to the spreadsheet-backed store over HTTP. The
// service exposes three actions: getAllData, getSheet, and clearAndInsert.
// Writes are whole-collection replaces; the service reports no per-row
// failures, so any non-exceptional return means "submitted", not
// "confirmed".
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inventrack-backend/internal/model"
	"inventrack-backend/internal/normalize"
)

// Sheet names accepted by the remote service. Any other name is rejected
// before a request is made.
const (
	SheetInventaris = "Inventaris"
	SheetPeminjaman = "Peminjaman"
	SheetKerusakan  = "Kerusakan"
	SheetRiwayat    = "Riwayat"
	SheetUsers      = "Users"
)

var sheetByKey = map[string]string{
	model.KeyInventaris: SheetInventaris,
	model.KeyPeminjaman: SheetPeminjaman,
	model.KeyKerusakan:  SheetKerusakan,
	model.KeyRiwayat:    SheetRiwayat,
}

var allowedSheets = map[string]bool{
	SheetInventaris: true,
	SheetPeminjaman: true,
	SheetKerusakan:  true,
	SheetRiwayat:    true,
	SheetUsers:      true,
}

// SheetForKey maps a local collection key to its remote sheet name.
func SheetForKey(key string) (string, bool) {
	sheet, ok := sheetByKey[key]
	return sheet, ok
}

// AllDataResponse models the getAllData response envelope.
type AllDataResponse struct {
	Success   bool                          `json:"success"`
	Timestamp string                        `json:"timestamp"`
	Error     string                        `json:"error"`
	Data      map[string][]normalize.Record `json:"data"`
}

// SheetResponse models the getSheet response envelope.
type SheetResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Data    []normalize.Record `json:"data"`
	Count   int                `json:"count"`
}

// Client is the HTTP adapter for the remote store.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client for the given endpoint URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchAll requests the full raw bundle. The cache-busting t parameter
// matches what the service expects from its existing callers.
func (c *Client) FetchAll(ctx context.Context) (*AllDataResponse, error) {
	u := fmt.Sprintf("%s?action=getAllData&t=%d", c.baseURL, time.Now().UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result AllDataResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("remote returned failure: %s", result.Error)
	}
	if result.Data == nil {
		return nil, fmt.Errorf("invalid response format: missing data")
	}
	return &result, nil
}

// FetchSheet requests the raw rows of a single named sheet.
func (c *Client) FetchSheet(ctx context.Context, sheet string) (*SheetResponse, error) {
	if !allowedSheets[sheet] {
		return nil, fmt.Errorf("invalid sheet name: %q", sheet)
	}

	u := fmt.Sprintf("%s?action=getSheet&sheet=%s", c.baseURL, url.QueryEscape(sheet))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result SheetResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("remote returned failure: %s", result.Error)
	}
	return &result, nil
}

// ReplaceCollection replaces the entire named sheet with rows, a JSON array
// of flat objects. The service derives columns from the keys of the first
// row. There is no partial update.
func (c *Client) ReplaceCollection(ctx context.Context, sheet string, rows json.RawMessage) error {
	if !allowedSheets[sheet] {
		return fmt.Errorf("invalid sheet name: %q", sheet)
	}

	form := url.Values{}
	form.Set("action", "clearAndInsert")
	form.Set("sheet", sheet)
	form.Set("rows", string(rows))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Count   int    `json:"count"`
	}
	if err := c.do(req, &result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("remote returned failure: %s", result.Error)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response (%s...): %w", firstN(string(body), 64), err)
	}
	return nil
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
