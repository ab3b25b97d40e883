package model

// HistoryRecord is the archived snapshot of a completed loan. The riwayat
// collection is append-only and is never referenced by other collections.
type HistoryRecord struct {
	ID                    string `json:"id"`
	Nama                  string `json:"nama"`
	NIP                   string `json:"nip"`
	Bagian                string `json:"bagian"`
	NoHP                  string `json:"noHp"`
	LaptopID              string `json:"laptopId"`
	LaptopNama            string `json:"laptopNama"`
	LaptopKode            string `json:"laptopKode"`
	TglPinjam             string `json:"tglPinjam"`
	TglKembali            string `json:"tglKembali"`
	TglPengembalianAktual string `json:"tglPengembalianAktual"`
	Keperluan             string `json:"keperluan"`
	KondisiKembali        string `json:"kondisiKembali"`
	Kerusakan             string `json:"kerusakan,omitempty"`
	Catatan               string `json:"catatan"`
	Status                string `json:"status"`
}
