package store

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return st
}

func TestInitIdempotent(t *testing.T) {
	st := newTestStore(t)
	for i := 0; i < 3; i++ {
		if err := st.Init(); err != nil {
			t.Fatalf("Init call %d failed: %v", i+2, err)
		}
	}

	if _, err := st.Commit("sw-01", "hostname sw-01\n", time.Now()); err != nil {
		t.Fatalf("Commit after repeated Init failed: %v", err)
	}
}

func TestUseBeforeInit(t *testing.T) {
	st, err := NewSQLiteStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer st.Close()

	if _, err := st.Latest("sw-01"); err != ErrNotInitialized {
		t.Errorf("Latest before Init: got %v, want ErrNotInitialized", err)
	}
	if _, err := st.Commit("sw-01", "x", time.Now()); err != ErrNotInitialized {
		t.Errorf("Commit before Init: got %v, want ErrNotInitialized", err)
	}
}

func TestCommitAssignsMonotonicRevisions(t *testing.T) {
	st := newTestStore(t)

	for i := 1; i <= 5; i++ {
		snap, err := st.Commit("sw-01", fmt.Sprintf("config v%d\n", i), time.Now())
		if err != nil {
			t.Fatalf("Commit %d failed: %v", i, err)
		}
		if snap.Revision != int64(i) {
			t.Errorf("revision = %d, want %d", snap.Revision, i)
		}
	}
}

func TestRevisionsPerDevice(t *testing.T) {
	st := newTestStore(t)

	st.Commit("sw-01", "a\n", time.Now())
	st.Commit("sw-01", "b\n", time.Now())
	snap, err := st.Commit("sw-02", "c\n", time.Now())
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if snap.Revision != 1 {
		t.Errorf("devices must have independent revision sequences: got %d, want 1", snap.Revision)
	}
}

func TestLatest(t *testing.T) {
	st := newTestStore(t)

	snap, err := st.Latest("sw-01")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if snap != nil {
		t.Fatal("Latest for an unknown device must be nil, nil")
	}

	taken := time.Date(2026, 8, 23, 2, 0, 0, 0, time.UTC)
	st.Commit("sw-01", "old\n", taken.Add(-time.Hour))
	st.Commit("sw-01", "new\n", taken)

	snap, err = st.Latest("sw-01")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if snap == nil || snap.Content != "new\n" {
		t.Fatalf("Latest returned wrong snapshot: %+v", snap)
	}
	if snap.Revision != 2 {
		t.Errorf("revision = %d, want 2", snap.Revision)
	}
	if !snap.TakenAt.Equal(taken) {
		t.Errorf("taken_at = %v, want %v", snap.TakenAt, taken)
	}
	if !strings.Contains(snap.Message, "sw-01") {
		t.Errorf("commit message should name the device: %q", snap.Message)
	}
}

func TestDiff(t *testing.T) {
	st := newTestStore(t)

	st.Commit("sw-01", "hostname sw-01\ninterface eth0\n", time.Now())
	st.Commit("sw-01", "hostname sw-01-renamed\ninterface eth0\n", time.Now())

	diff, err := st.Diff("sw-01", 1, 2)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if !strings.Contains(diff, "-hostname sw-01") || !strings.Contains(diff, "+hostname sw-01-renamed") {
		t.Errorf("diff missing expected hunks:\n%s", diff)
	}

	// Absent revisions yield an empty diff, not an error.
	for _, revs := range [][2]int64{{0, 1}, {1, 99}, {98, 99}} {
		diff, err := st.Diff("sw-01", revs[0], revs[1])
		if err != nil {
			t.Fatalf("Diff(%d, %d) failed: %v", revs[0], revs[1], err)
		}
		if diff != "" {
			t.Errorf("Diff(%d, %d) = %q, want empty", revs[0], revs[1], diff)
		}
	}
}

func TestHistory(t *testing.T) {
	st := newTestStore(t)

	for i := 1; i <= 5; i++ {
		st.Commit("sw-01", fmt.Sprintf("v%d\n", i), time.Now())
	}

	entries, err := st.History("sw-01", 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		want := int64(5 - i)
		if e.Revision != want {
			t.Errorf("entry %d revision = %d, want %d (most recent first)", i, e.Revision, want)
		}
	}

	entries, err = st.History("no-such-device", 10)
	if err != nil {
		t.Fatalf("History for unknown device failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("unknown device should have empty history, got %d entries", len(entries))
	}
}

func TestLastBackupTime(t *testing.T) {
	st := newTestStore(t)

	last, err := st.LastBackupTime("sw-01")
	if err != nil {
		t.Fatalf("LastBackupTime failed: %v", err)
	}
	if last != nil {
		t.Fatal("expected nil for a device with no history")
	}

	taken := time.Date(2026, 8, 23, 2, 0, 0, 0, time.UTC)
	st.Commit("sw-01", "x\n", taken)

	last, err = st.LastBackupTime("sw-01")
	if err != nil {
		t.Fatalf("LastBackupTime failed: %v", err)
	}
	if last == nil || !last.Equal(taken) {
		t.Errorf("last backup = %v, want %v", last, taken)
	}
}

func TestConcurrentCommitsAcrossDevices(t *testing.T) {
	st := newTestStore(t)

	const devices = 8
	const commitsPer = 5

	var wg sync.WaitGroup
	errCh := make(chan error, devices*commitsPer)

	for d := 0; d < devices; d++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			name := fmt.Sprintf("sw-%02d", d)
			for i := 0; i < commitsPer; i++ {
				if _, err := st.Commit(name, fmt.Sprintf("config v%d\n", i), time.Now()); err != nil {
					errCh <- err
				}
			}
		}(d)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent commit failed: %v", err)
	}

	for d := 0; d < devices; d++ {
		name := fmt.Sprintf("sw-%02d", d)
		snap, err := st.Latest(name)
		if err != nil {
			t.Fatalf("Latest(%s) failed: %v", name, err)
		}
		if snap == nil || snap.Revision != commitsPer {
			t.Errorf("%s: expected revision %d, got %+v", name, commitsPer, snap)
		}
	}
}
