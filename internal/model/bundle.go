package model

import "strings"

// Local storage keys for the four canonical collections.
const (
	KeyInventaris = "inventaris"
	KeyPeminjaman = "peminjaman"
	KeyKerusakan  = "kerusakan"
	KeyRiwayat    = "riwayat"
)

// CollectionKeys lists the canonical collections in their fixed push order.
var CollectionKeys = []string{KeyInventaris, KeyPeminjaman, KeyKerusakan, KeyRiwayat}

// Bundle groups the four canonical collections as loaded from local storage
// or assembled from a remote pull.
type Bundle struct {
	Inventaris []InventoryItem `json:"inventaris"`
	Peminjaman []Loan          `json:"peminjaman"`
	Kerusakan  []DamageReport  `json:"kerusakan"`
	Riwayat    []HistoryRecord `json:"riwayat"`
}

// Total returns the number of records across all collections.
func (b *Bundle) Total() int {
	return len(b.Inventaris) + len(b.Peminjaman) + len(b.Kerusakan) + len(b.Riwayat)
}

// StatusEquals compares two status or condition values case-insensitively.
// Missing values never match anything.
func StatusEquals(actual, expected string) bool {
	if actual == "" || expected == "" {
		return false
	}
	return strings.EqualFold(actual, expected)
}
