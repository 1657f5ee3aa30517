package backup

import (
	"errors"
	"testing"
	"time"
)

func TestHasChangedFirstBackup(t *testing.T) {
	d := NewDetector(newFakeStore())
	if !d.HasChanged("sw-01", "hostname sw-01\n") {
		t.Error("a device with no prior snapshot must always count as changed")
	}
}

func TestHasChangedTrimOnlyComparison(t *testing.T) {
	st := newFakeStore()
	st.Init()
	st.Commit("sw-01", "hostname sw-01\ninterface eth0\n", time.Now())
	d := NewDetector(st)

	tests := []struct {
		name    string
		config  string
		changed bool
	}{
		{"identical", "hostname sw-01\ninterface eth0\n", false},
		{"leading whitespace", "\n\n  hostname sw-01\ninterface eth0\n", false},
		{"trailing whitespace", "hostname sw-01\ninterface eth0\n\n\t ", false},
		{"internal whitespace differs", "hostname sw-01\n\ninterface eth0\n", true},
		{"content differs", "hostname sw-02\ninterface eth0\n", true},
		{"line endings differ", "hostname sw-01\r\ninterface eth0\r\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.HasChanged("sw-01", tt.config); got != tt.changed {
				t.Errorf("HasChanged = %t, want %t", got, tt.changed)
			}
		})
	}
}

func TestHasChangedStoreErrorFailsSafe(t *testing.T) {
	st := newFakeStore()
	st.Init()
	st.latestErr = errors.New("disk read failed")
	d := NewDetector(st)

	if !d.HasChanged("sw-01", "hostname sw-01\n") {
		t.Error("a store read failure must count as changed, never silently skip a backup")
	}
}
