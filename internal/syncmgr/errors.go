package syncmgr

import "errors"

var (
	// ErrNotConfigured is returned by explicit sync actions when no remote
	// endpoint is configured.
	ErrNotConfigured = errors.New("remote store is not configured")

	// ErrPushInProgress is returned when a manual push overlaps another.
	ErrPushInProgress = errors.New("a push is already in progress")

	// ErrNothingToSync is returned when all local collections are empty.
	ErrNothingToSync = errors.New("no local data to sync")
)
