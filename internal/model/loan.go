package model

// Loan status values.
const (
	LoanAktif   = "Aktif"
	LoanSelesai = "Selesai"
)

// Loan represents an active borrow record. Completed loans are moved into
// the riwayat collection and removed from peminjaman; the two never overlap.
type Loan struct {
	ID             string `json:"id"`
	Nama           string `json:"nama"`
	NIP            string `json:"nip"`
	Bagian         string `json:"bagian"`
	NoHP           string `json:"noHp"`
	LaptopID       string `json:"laptopId"`
	LaptopNama     string `json:"laptopNama"`
	LaptopKode     string `json:"laptopKode"`
	TanggalPinjam  string `json:"tanggalPinjam"`
	TanggalKembali string `json:"tanggalKembali"`
	Keperluan      string `json:"keperluan"`
	Keterangan     string `json:"keterangan"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}
