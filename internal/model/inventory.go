package model

// Inventory item condition values.
const (
	KondisiBaik        = "Baik"
	KondisiRusakRingan = "Rusak Ringan"
	KondisiRusakBerat  = "Rusak Berat"
)

// Inventory item availability values.
const (
	StatusTersedia = "Tersedia"
	StatusDipinjam = "Dipinjam"
)

// InventoryItem represents a single tracked device.
type InventoryItem struct {
	ID          string `json:"id"`
	Kode        string `json:"kode"`
	Nama        string `json:"nama"`
	Merk        string `json:"merk"`
	Spesifikasi string `json:"spesifikasi"`
	Tahun       string `json:"tahun"`
	Kondisi     string `json:"kondisi"`
	Status      string `json:"status"`
	Tanggal     string `json:"tanggal"`
}
