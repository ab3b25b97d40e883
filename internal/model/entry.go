package model

import "time"

// Entry is a persisted key/value row holding one encoded collection. The
// Encoded flag records whether Value passed through the configured codec so
// that a store with the codec disabled can still read old rows.
type Entry struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	Encoded   bool   `gorm:"not null"`
	UpdatedAt time.Time
}
