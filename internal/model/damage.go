package model

// Damage report status values. The surrounding workflow treats transitions
// as Pending -> Proses -> Selesai; regressions are not rejected here.
const (
	DamagePending = "Pending"
	DamageProses  = "Proses"
	DamageSelesai = "Selesai"
)

// DamageReport represents a reported hardware problem for an inventory item.
type DamageReport struct {
	ID             string `json:"id"`
	LaptopID       string `json:"laptopId"`
	LaptopNama     string `json:"laptopNama"`
	LaptopKode     string `json:"laptopKode"`
	DilaporkanOleh string `json:"dilaporkanOleh"`
	JenisKerusakan string `json:"jenisKerusakan"`
	Deskripsi      string `json:"deskripsi"`
	Foto           string `json:"foto"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}
