// Package service implements the domain operations over the local store:
// inventory administration, the borrow/return lifecycle, the damage report
// lifecycle, and maintenance actions. Every mutation goes through the local
// store, which schedules the debounced remote push.
package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"inventrack-backend/internal/backup"
	"inventrack-backend/internal/localstore"
	"inventrack-backend/internal/model"
	"inventrack-backend/internal/normalize"
	"inventrack-backend/internal/validate"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotAvailable is returned when borrowing an item that is not
	// currently Tersedia.
	ErrNotAvailable = errors.New("item is not available for loan")

	// ErrInvalidStatus is returned for unknown status values.
	ErrInvalidStatus = errors.New("invalid status value")
)

// Service exposes the domain operations.
type Service struct {
	store   *localstore.Store
	backups *backup.Manager
}

// New creates a Service. backups may be nil; pre-delete snapshots are then
// skipped.
func New(store *localstore.Store, backups *backup.Manager) *Service {
	return &Service{store: store, backups: backups}
}

// Store exposes the underlying local store.
func (s *Service) Store() *localstore.Store { return s.store }

// --- Inventory ---

// InventarisInput carries the admin-editable inventory fields.
type InventarisInput struct {
	Kode        string `json:"kode" binding:"required"`
	Nama        string `json:"nama" binding:"required"`
	Merk        string `json:"merk"`
	Spesifikasi string `json:"spesifikasi"`
	Tahun       string `json:"tahun"`
	Kondisi     string `json:"kondisi"`
}

// AddInventaris creates a new inventory item, Tersedia by default.
func (s *Service) AddInventaris(in InventarisInput) (*model.InventoryItem, error) {
	item := model.InventoryItem{
		ID:          normalize.GenerateID(normalize.PrefixInventaris),
		Kode:        in.Kode,
		Nama:        in.Nama,
		Merk:        in.Merk,
		Spesifikasi: in.Spesifikasi,
		Tahun:       in.Tahun,
		Kondisi:     normalize.Title(in.Kondisi),
		Status:      model.StatusTersedia,
		Tanggal:     time.Now().UTC().Format(time.RFC3339),
	}
	if item.Kondisi == "" {
		item.Kondisi = model.KondisiBaik
	}

	items := append(s.store.Inventaris(), item)
	if err := s.store.Set(model.KeyInventaris, items, false); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateInventaris edits an existing item's admin fields. Status is owned
// by the loan lifecycle and is not editable here.
func (s *Service) UpdateInventaris(id string, in InventarisInput) (*model.InventoryItem, error) {
	items := s.store.Inventaris()
	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i].Kode = in.Kode
		items[i].Nama = in.Nama
		items[i].Merk = in.Merk
		items[i].Spesifikasi = in.Spesifikasi
		items[i].Tahun = in.Tahun
		if in.Kondisi != "" {
			items[i].Kondisi = normalize.Title(in.Kondisi)
		}
		if err := s.store.Set(model.KeyInventaris, items, false); err != nil {
			return nil, err
		}
		return &items[i], nil
	}
	return nil, ErrNotFound
}

// DeleteInventaris removes an item after taking a safety snapshot. Loans
// and damage reports referencing the item become orphans; cleanup of those
// is a separate, explicit action.
func (s *Service) DeleteInventaris(id string) error {
	if s.backups != nil {
		if _, err := s.backups.Create("before_delete_inventaris"); err != nil {
			log.Printf("service: pre-delete backup failed: %v", err)
		}
	}

	items := s.store.Inventaris()
	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return ErrNotFound
	}
	return s.store.Set(model.KeyInventaris, kept, false)
}

// AvailableInventaris lists items that can be borrowed right now.
func (s *Service) AvailableInventaris() []model.InventoryItem {
	out := []model.InventoryItem{}
	for _, item := range s.store.Inventaris() {
		if model.StatusEquals(item.Status, model.StatusTersedia) {
			out = append(out, item)
		}
	}
	return out
}

// --- Loans ---

// LoanInput carries the borrow form fields.
type LoanInput struct {
	Nama           string `json:"nama" binding:"required"`
	NIP            string `json:"nip" binding:"required"`
	Bagian         string `json:"bagian" binding:"required"`
	NoHP           string `json:"noHp" binding:"required"`
	LaptopID       string `json:"laptopId" binding:"required"`
	TanggalPinjam  string `json:"tanggalPinjam" binding:"required"`
	TanggalKembali string `json:"tanggalKembali" binding:"required"`
	Keperluan      string `json:"keperluan" binding:"required"`
	Keterangan     string `json:"keterangan"`
}

// CreateLoan records a borrow: the item must exist and be Tersedia. The
// item's name and code are snapshotted onto the loan, and the item flips to
// Dipinjam.
func (s *Service) CreateLoan(in LoanInput) (*model.Loan, error) {
	items := s.store.Inventaris()
	var target *model.InventoryItem
	for i := range items {
		if items[i].ID == in.LaptopID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrNotFound
	}
	if !model.StatusEquals(target.Status, model.StatusTersedia) {
		return nil, ErrNotAvailable
	}

	loan := model.Loan{
		ID:             normalize.GenerateID(normalize.PrefixPeminjaman),
		Nama:           in.Nama,
		NIP:            in.NIP,
		Bagian:         in.Bagian,
		NoHP:           in.NoHP,
		LaptopID:       target.ID,
		LaptopNama:     target.Nama,
		LaptopKode:     target.Kode,
		TanggalPinjam:  in.TanggalPinjam,
		TanggalKembali: in.TanggalKembali,
		Keperluan:      in.Keperluan,
		Keterangan:     in.Keterangan,
		Status:         model.LoanAktif,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	loans := append(s.store.Peminjaman(), loan)
	if err := s.store.Set(model.KeyPeminjaman, loans, false); err != nil {
		return nil, err
	}

	target.Status = model.StatusDipinjam
	if err := s.store.Set(model.KeyInventaris, items, false); err != nil {
		return nil, err
	}
	return &loan, nil
}

// ReturnInput carries the return form fields.
type ReturnInput struct {
	KondisiKembali string   `json:"kondisiKembali" binding:"required"`
	Kerusakan      []string `json:"kerusakan"`
	Catatan        string   `json:"catatan"`
}

// ReturnLoan completes a loan: the record moves into riwayat (the two
// collections stay disjoint), the item becomes Tersedia again with the
// returned condition, and a damage report is filed when the item came back
// in bad shape.
func (s *Service) ReturnLoan(loanID string, in ReturnInput) (*model.HistoryRecord, error) {
	loans := s.store.Peminjaman()
	var loan *model.Loan
	kept := make([]model.Loan, 0, len(loans))
	for i := range loans {
		if loans[i].ID == loanID {
			loan = &loans[i]
		} else {
			kept = append(kept, loans[i])
		}
	}
	if loan == nil {
		return nil, ErrNotFound
	}

	kondisi := normalize.Title(in.KondisiKembali)
	record := model.HistoryRecord{
		ID:                    loan.ID,
		Nama:                  loan.Nama,
		NIP:                   loan.NIP,
		Bagian:                loan.Bagian,
		NoHP:                  loan.NoHP,
		LaptopID:              loan.LaptopID,
		LaptopNama:            loan.LaptopNama,
		LaptopKode:            loan.LaptopKode,
		TglPinjam:             loan.TanggalPinjam,
		TglKembali:            loan.TanggalKembali,
		TglPengembalianAktual: time.Now().UTC().Format(time.RFC3339),
		Keperluan:             loan.Keperluan,
		KondisiKembali:        kondisi,
		Kerusakan:             strings.Join(in.Kerusakan, ", "),
		Catatan:               in.Catatan,
		Status:                model.LoanSelesai,
	}

	riwayat := append(s.store.Riwayat(), record)
	if err := s.store.Set(model.KeyRiwayat, riwayat, false); err != nil {
		return nil, err
	}
	if err := s.store.Set(model.KeyPeminjaman, kept, false); err != nil {
		return nil, err
	}

	if !model.StatusEquals(kondisi, model.KondisiBaik) && len(in.Kerusakan) > 0 {
		if _, err := s.ReportDamage(DamageInput{
			LaptopID:       loan.LaptopID,
			DilaporkanOleh: loan.Nama,
			JenisKerusakan: strings.Join(in.Kerusakan, ", "),
		}); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	items := s.store.Inventaris()
	for i := range items {
		if items[i].ID == loan.LaptopID {
			items[i].Status = model.StatusTersedia
			items[i].Kondisi = kondisi
			if err := s.store.Set(model.KeyInventaris, items, false); err != nil {
				return nil, err
			}
			break
		}
	}

	return &record, nil
}

// ActiveLoans lists loans with status Aktif.
func (s *Service) ActiveLoans() []model.Loan {
	out := []model.Loan{}
	for _, loan := range s.store.Peminjaman() {
		if model.StatusEquals(loan.Status, model.LoanAktif) {
			out = append(out, loan)
		}
	}
	return out
}

// OverdueLoans lists active loans whose due date has passed as of now.
// Unparsable due dates are skipped.
func (s *Service) OverdueLoans(now time.Time) []model.Loan {
	today := now.Truncate(24 * time.Hour)
	out := []model.Loan{}
	for _, loan := range s.ActiveLoans() {
		due, err := time.Parse("2006-01-02", loan.TanggalKembali)
		if err != nil {
			continue
		}
		if due.Before(today) {
			out = append(out, loan)
		}
	}
	return out
}

// --- Damage reports ---

// DamageInput carries the damage report form fields.
type DamageInput struct {
	LaptopID       string `json:"laptopId" binding:"required"`
	DilaporkanOleh string `json:"dilaporkanOleh" binding:"required"`
	JenisKerusakan string `json:"jenisKerusakan" binding:"required"`
	Deskripsi      string `json:"deskripsi"`
	Foto           string `json:"foto"`
}

// ReportDamage files a new Pending report against an existing item.
func (s *Service) ReportDamage(in DamageInput) (*model.DamageReport, error) {
	var target *model.InventoryItem
	items := s.store.Inventaris()
	for i := range items {
		if items[i].ID == in.LaptopID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return nil, ErrNotFound
	}

	rep := model.DamageReport{
		ID:             normalize.GenerateID(normalize.PrefixKerusakan),
		LaptopID:       target.ID,
		LaptopNama:     target.Nama,
		LaptopKode:     target.Kode,
		DilaporkanOleh: in.DilaporkanOleh,
		JenisKerusakan: in.JenisKerusakan,
		Deskripsi:      in.Deskripsi,
		Foto:           in.Foto,
		Status:         model.DamagePending,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	reports := append(s.store.Kerusakan(), rep)
	if err := s.store.Set(model.KeyKerusakan, reports, false); err != nil {
		return nil, err
	}
	return &rep, nil
}

// UpdateDamageStatus moves a report to a new status. Resolving a report
// resets the item's condition to Baik.
func (s *Service) UpdateDamageStatus(id, status string) (*model.DamageReport, error) {
	status = normalize.Title(status)
	switch status {
	case model.DamagePending, model.DamageProses, model.DamageSelesai:
	default:
		return nil, ErrInvalidStatus
	}

	reports := s.store.Kerusakan()
	for i := range reports {
		if reports[i].ID != id {
			continue
		}
		reports[i].Status = status
		if err := s.store.Set(model.KeyKerusakan, reports, false); err != nil {
			return nil, err
		}

		if status == model.DamageSelesai {
			items := s.store.Inventaris()
			for j := range items {
				if items[j].ID == reports[i].LaptopID {
					items[j].Kondisi = model.KondisiBaik
					if err := s.store.Set(model.KeyInventaris, items, false); err != nil {
						return nil, err
					}
					break
				}
			}
		}
		return &reports[i], nil
	}
	return nil, ErrNotFound
}

// --- Maintenance ---

// CleanOrphans runs a validation pass with orphan pruning over the current
// local data, persisting and syncing only when something changed.
func (s *Service) CleanOrphans() (bool, error) {
	bundle := s.store.Bundle()
	if !validate.Run(bundle, true) {
		log.Println("service: no orphaned data found")
		return false, nil
	}
	if err := s.store.SaveBundle(bundle, false); err != nil {
		return false, err
	}
	log.Println("service: orphaned data cleaned and queued for sync")
	return true, nil
}
