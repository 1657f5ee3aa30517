package backup

import (
	"strings"

	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/store"
)

// Detector decides whether a freshly fetched configuration differs
// from the device's latest stored snapshot.
type Detector struct {
	store store.Store
}

// NewDetector creates a detector backed by the given store.
func NewDetector(st store.Store) *Detector {
	return &Detector{store: st}
}

// HasChanged reports whether newConfig differs from the latest
// snapshot. Comparison trims leading/trailing whitespace only; any
// internal whitespace or line-ending difference is a real change, and
// downstream diff/history behavior depends on exactly that.
//
// A missing prior snapshot and a store read failure both count as
// changed: the first backup must always commit, and a read error must
// never silently skip one.
func (d *Detector) HasChanged(device, newConfig string) bool {
	prev, err := d.store.Latest(device)
	if err != nil {
		log.Warn("Could not read latest snapshot, assuming changed", "device", device, "error", err)
		return true
	}
	if prev == nil {
		return true
	}
	return strings.TrimSpace(prev.Content) != strings.TrimSpace(newConfig)
}
