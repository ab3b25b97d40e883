// Package validate enforces the cross-collection invariants: item status
// must reflect the existence of an active loan, item condition must reflect
// unresolved damage reports, and orphaned references are reported and, on
// request, pruned.
package validate

import (
	"log"

	"inventrack-backend/internal/model"
)

// Run checks and repairs the bundle in place, returning whether anything
// changed. Callers must treat the input as consumed.
//
// Orphaned damage reports are removed when pruneOrphans is set; orphaned
// loans are detected and logged but never removed. Running twice with the
// same pruneOrphans value produces no further changes on the second run.
func Run(b *model.Bundle, pruneOrphans bool) bool {
	modified := false

	ids := make(map[string]bool, len(b.Inventaris))
	for _, item := range b.Inventaris {
		ids[item.ID] = true
	}

	for _, loan := range b.Peminjaman {
		if loan.LaptopID != "" && !ids[loan.LaptopID] {
			log.Printf("validate: peminjaman %q references missing laptop id %s", loan.Nama, loan.LaptopID)
		}
	}

	orphanedKerusakan := make(map[string]bool)
	for _, rep := range b.Kerusakan {
		if rep.LaptopID != "" && !ids[rep.LaptopID] {
			log.Printf("validate: kerusakan %s references missing laptop id %s", rep.ID, rep.LaptopID)
			orphanedKerusakan[rep.ID] = true
		}
	}

	if pruneOrphans && len(orphanedKerusakan) > 0 {
		kept := b.Kerusakan[:0]
		for _, rep := range b.Kerusakan {
			if !orphanedKerusakan[rep.ID] {
				kept = append(kept, rep)
			}
		}
		log.Printf("validate: pruned %d orphaned kerusakan records", len(b.Kerusakan)-len(kept))
		b.Kerusakan = kept
		modified = true
	}

	activeLoanIDs := make(map[string]bool)
	for _, loan := range b.Peminjaman {
		if model.StatusEquals(loan.Status, model.LoanAktif) {
			activeLoanIDs[loan.LaptopID] = true
		}
	}

	for i := range b.Inventaris {
		item := &b.Inventaris[i]
		if activeLoanIDs[item.ID] {
			if !model.StatusEquals(item.Status, model.StatusDipinjam) {
				log.Printf("validate: fixing status %s -> Dipinjam (has active loan)", item.Nama)
				item.Status = model.StatusDipinjam
				modified = true
			}
		} else if model.StatusEquals(item.Status, model.StatusDipinjam) {
			log.Printf("validate: fixing status %s -> Tersedia (no active loan)", item.Nama)
			item.Status = model.StatusTersedia
			modified = true
		}
	}

	unresolvedIDs := make(map[string]bool)
	for _, rep := range b.Kerusakan {
		if !model.StatusEquals(rep.Status, model.DamageSelesai) {
			unresolvedIDs[rep.LaptopID] = true
		}
	}

	for i := range b.Inventaris {
		item := &b.Inventaris[i]
		if unresolvedIDs[item.ID] && model.StatusEquals(item.Kondisi, model.KondisiBaik) {
			log.Printf("validate: fixing kondisi %s -> Rusak Ringan (has unresolved damage)", item.Nama)
			item.Kondisi = model.KondisiRusakRingan
			modified = true
		}
	}

	return modified
}
