// Package normalize maps arbitrarily-shaped rows arriving from the
// spreadsheet into the canonical record shapes. The sheet is schema-less:
// field names drift between deployments (legacy aliases), cells may be
// numeric where strings are expected, and whole fields go missing.
package normalize

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"inventrack-backend/internal/model"
)

// Record is one raw row as decoded from the remote response.
type Record map[string]any

// ID prefixes per collection.
const (
	PrefixInventaris = "INV"
	PrefixPeminjaman = "PEM"
	PrefixKerusakan  = "KER"
	PrefixRiwayat    = "RIW"
)

const idSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateID synthesizes a collision-resistant identifier: prefix, unix
// millisecond timestamp, then a 9-character random base36 suffix. The format
// matches identifiers already present in the spreadsheet.
func GenerateID(prefix string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
	for i := 0; i < 9; i++ {
		sb.WriteByte(idSuffixAlphabet[rand.Intn(len(idSuffixAlphabet))])
	}
	return sb.String()
}

// Title upper-cases the first rune and lower-cases the remainder. Empty and
// non-string-derived input yields "".
func Title(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// stringify renders a raw cell value as a string. Sheet cells decode as
// float64 for anything numeric, so integral floats must not grow a ".0".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// first resolves a field from an ordered list of accepted aliases, taking
// the first present, non-empty value.
func first(r Record, keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Inventaris normalizes one raw inventory row. Nil input is dropped.
func Inventaris(r Record) *model.InventoryItem {
	if r == nil {
		return nil
	}
	return &model.InventoryItem{
		ID:          orDefault(first(r, "id"), GenerateID(PrefixInventaris)),
		Kode:        orDefault(first(r, "kode", "id"), "N/A"),
		Nama:        orDefault(first(r, "nama", "name"), "Unknown"),
		Merk:        first(r, "merk", "brand"),
		Spesifikasi: first(r, "spesifikasi", "specs"),
		Tahun:       orDefault(first(r, "tahun", "year"), strconv.Itoa(time.Now().Year())),
		Kondisi:     orDefault(Title(first(r, "kondisi", "condition")), model.KondisiBaik),
		Status:      orDefault(Title(first(r, "status")), model.StatusTersedia),
		Tanggal:     orDefault(first(r, "tanggal", "createdAt"), nowISO()),
	}
}

// Peminjaman normalizes one raw loan row. Nil input is dropped.
func Peminjaman(r Record) *model.Loan {
	if r == nil {
		return nil
	}
	return &model.Loan{
		ID:             orDefault(first(r, "id"), GenerateID(PrefixPeminjaman)),
		Nama:           first(r, "nama", "peminjam"),
		NIP:            first(r, "nip"),
		Bagian:         first(r, "bagian", "divisi"),
		NoHP:           first(r, "noHp", "telepon", "hp"),
		LaptopID:       first(r, "laptopId"),
		LaptopNama:     first(r, "laptopNama"),
		LaptopKode:     first(r, "laptopKode"),
		TanggalPinjam:  first(r, "tanggalPinjam", "tglPinjam"),
		TanggalKembali: first(r, "tanggalKembali", "tglKembali"),
		Keperluan:      first(r, "keperluan"),
		Keterangan:     first(r, "keterangan"),
		Status:         orDefault(Title(first(r, "status")), model.LoanAktif),
		CreatedAt:      orDefault(first(r, "createdAt"), nowISO()),
	}
}

// Kerusakan normalizes one raw damage report row. Nil input is dropped.
func Kerusakan(r Record) *model.DamageReport {
	if r == nil {
		return nil
	}
	return &model.DamageReport{
		ID:             orDefault(first(r, "id"), GenerateID(PrefixKerusakan)),
		LaptopID:       first(r, "laptopId"),
		LaptopNama:     first(r, "laptopNama"),
		LaptopKode:     first(r, "laptopKode"),
		DilaporkanOleh: first(r, "dilaporkanOleh", "pelapor"),
		JenisKerusakan: first(r, "jenisKerusakan", "kerusakan"),
		Deskripsi:      first(r, "deskripsi", "keterangan"),
		Foto:           first(r, "foto"),
		Status:         orDefault(Title(first(r, "status")), model.DamagePending),
		CreatedAt:      orDefault(first(r, "createdAt"), nowISO()),
	}
}

// Riwayat normalizes one raw history row. Nil input is dropped. Archived
// records are always Selesai; the legacy short date aliases take precedence
// here, unlike the loan collection.
func Riwayat(r Record) *model.HistoryRecord {
	if r == nil {
		return nil
	}
	return &model.HistoryRecord{
		ID:                    orDefault(first(r, "id"), GenerateID(PrefixRiwayat)),
		Nama:                  first(r, "nama"),
		NIP:                   first(r, "nip"),
		Bagian:                first(r, "bagian"),
		NoHP:                  first(r, "noHp"),
		LaptopID:              first(r, "laptopId"),
		LaptopNama:            first(r, "laptopNama"),
		LaptopKode:            first(r, "laptopKode"),
		TglPinjam:             first(r, "tglPinjam", "tanggalPinjam"),
		TglKembali:            first(r, "tglKembali", "tanggalKembali"),
		TglPengembalianAktual: first(r, "tglPengembalianAktual"),
		Keperluan:             first(r, "keperluan"),
		KondisiKembali:        orDefault(first(r, "kondisiKembali"), model.KondisiBaik),
		Kerusakan:             first(r, "kerusakan"),
		Catatan:               first(r, "catatan"),
		Status:                model.LoanSelesai,
	}
}

// All normalizes a full raw bundle. A collection key absent from the input
// yields an empty canonical slice, never an error; nil rows are filtered out.
func All(raw map[string][]Record) *model.Bundle {
	b := &model.Bundle{
		Inventaris: []model.InventoryItem{},
		Peminjaman: []model.Loan{},
		Kerusakan:  []model.DamageReport{},
		Riwayat:    []model.HistoryRecord{},
	}
	for _, r := range raw[model.KeyInventaris] {
		if item := Inventaris(r); item != nil {
			b.Inventaris = append(b.Inventaris, *item)
		}
	}
	for _, r := range raw[model.KeyPeminjaman] {
		if loan := Peminjaman(r); loan != nil {
			b.Peminjaman = append(b.Peminjaman, *loan)
		}
	}
	for _, r := range raw[model.KeyKerusakan] {
		if rep := Kerusakan(r); rep != nil {
			b.Kerusakan = append(b.Kerusakan, *rep)
		}
	}
	for _, r := range raw[model.KeyRiwayat] {
		if h := Riwayat(r); h != nil {
			b.Riwayat = append(b.Riwayat, *h)
		}
	}
	return b
}
