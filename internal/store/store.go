// Package store keeps the versioned history of device configurations.
// Each device owns one append-only sequence of snapshots; revisions are
// per-device monotonically increasing integers assigned at commit.
package store

import (
	"errors"
	"time"

	"github.com/ilee165/network-device-backup/internal/model"
)

// ErrNotInitialized is returned when the store is used before Init.
var ErrNotInitialized = errors.New("version store not initialized")

// Store is the snapshot repository consumed by the backup engine.
type Store interface {
	// Init idempotently creates the backing store. Safe to call
	// repeatedly and concurrently; only the first call has effect.
	Init() error

	// Latest returns the device's most recent snapshot, or nil when
	// the device has never been backed up.
	Latest(device string) (*model.Snapshot, error)

	// Commit appends a new snapshot and makes it the device's latest
	// in one atomic unit. The snapshot is durable before it becomes
	// visible to readers.
	Commit(device, content string, takenAt time.Time) (*model.Snapshot, error)

	// Diff renders a unified diff between two revisions of a device.
	// Returns "" when either revision is absent (e.g. a first backup
	// has nothing to diff against).
	Diff(device string, revA, revB int64) (string, error)

	// History lists up to limit entries for a device, most recent
	// first.
	History(device string, limit int) ([]model.HistoryEntry, error)

	// LastBackupTime returns the commit time of the device's latest
	// snapshot, or nil when none exists.
	LastBackupTime(device string) (*time.Time, error)

	Close() error
}
