package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	_ "modernc.org/sqlite"

	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	device TEXT NOT NULL,
	revision INTEGER NOT NULL,
	content TEXT NOT NULL,
	taken_at TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	UNIQUE (device, revision)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_device_rev ON snapshots(device, revision);

CREATE TABLE IF NOT EXISTS store_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore implements Store on a single SQLite database file.
// Writers for different devices touch disjoint rows; a mutex plus one
// transaction per commit serializes any writers that do collide on the
// same device.
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string

	initOnce sync.Once
	initErr  error
	ready    bool
}

// NewSQLiteStore opens (without initializing) a store rooted at dir.
// The database file is created on Init.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating repository directory: %w", err)
	}

	dbPath := filepath.Join(dir, "snapshots.db")

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Init creates the schema and the initial marker revision. Idempotent
// and safe to call concurrently; only the first call does work.
func (ss *SQLiteStore) Init() error {
	ss.initOnce.Do(func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()

		if _, err := ss.db.Exec(schema); err != nil {
			ss.initErr = fmt.Errorf("creating schema: %w", err)
			return
		}

		created := time.Now().UTC().Format(time.RFC3339)
		if _, err := ss.db.Exec(
			`INSERT OR IGNORE INTO store_meta (key, value) VALUES ('schema_version', '1'), ('created_at', ?)`,
			created,
		); err != nil {
			ss.initErr = fmt.Errorf("writing store marker: %w", err)
			return
		}

		ss.ready = true
		log.Debug("Version store ready", "path", ss.path)
	})
	return ss.initErr
}

// Close closes the database.
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}

// Latest returns the most recent snapshot for a device, or nil when
// the device has no history.
func (ss *SQLiteStore) Latest(device string) (*model.Snapshot, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	if !ss.ready {
		return nil, ErrNotInitialized
	}

	row := ss.db.QueryRow(`
		SELECT id, device, revision, content, taken_at, message
		FROM snapshots
		WHERE device = ?
		ORDER BY revision DESC
		LIMIT 1
	`, device)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading latest snapshot for %s: %w", device, err)
	}
	return snap, nil
}

// Commit appends a snapshot inside one transaction: the revision is
// assigned and the row inserted as a single atomic unit, so the new
// "latest" is never visible before it is durable.
func (ss *SQLiteStore) Commit(device, content string, takenAt time.Time) (*model.Snapshot, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.ready {
		return nil, ErrNotInitialized
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var revision int64
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(revision), 0) + 1 FROM snapshots WHERE device = ?`,
		device,
	).Scan(&revision)
	if err != nil {
		return nil, fmt.Errorf("assigning revision for %s: %w", device, err)
	}

	snap := &model.Snapshot{
		ID:       uuid.New().String(),
		Device:   device,
		Revision: revision,
		Content:  content,
		TakenAt:  takenAt,
		Message:  fmt.Sprintf("Backup: %s - %s", device, takenAt.Format("2006-01-02 15:04:05")),
	}

	_, err = tx.Exec(`
		INSERT INTO snapshots (id, device, revision, content, taken_at, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Device, snap.Revision, snap.Content, snap.TakenAt.UTC().Format(time.RFC3339Nano), snap.Message)
	if err != nil {
		return nil, fmt.Errorf("inserting snapshot for %s: %w", device, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing snapshot for %s: %w", device, err)
	}

	log.Debug("Snapshot committed", "device", device, "revision", revision, "bytes", len(content))
	return snap, nil
}

// Diff renders a unified diff between two revisions of a device.
// Returns "" when either revision does not exist.
func (ss *SQLiteStore) Diff(device string, revA, revB int64) (string, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	if !ss.ready {
		return "", ErrNotInitialized
	}

	a, err := ss.snapshotAt(device, revA)
	if err != nil {
		return "", err
	}
	b, err := ss.snapshotAt(device, revB)
	if err != nil {
		return "", err
	}
	if a == nil || b == nil {
		return "", nil
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a.Content),
		B:        difflib.SplitLines(b.Content),
		FromFile: fmt.Sprintf("%s@%d", device, revA),
		ToFile:   fmt.Sprintf("%s@%d", device, revB),
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("rendering diff for %s: %w", device, err)
	}
	return text, nil
}

// History lists up to limit entries for a device, most recent first.
func (ss *SQLiteStore) History(device string, limit int) ([]model.HistoryEntry, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	if !ss.ready {
		return nil, ErrNotInitialized
	}
	if limit < 1 {
		limit = 10
	}

	rows, err := ss.db.Query(`
		SELECT revision, taken_at, message
		FROM snapshots
		WHERE device = ?
		ORDER BY revision DESC
		LIMIT ?
	`, device, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history for %s: %w", device, err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var (
			entry model.HistoryEntry
			taken string
		)
		if err := rows.Scan(&entry.Revision, &taken, &entry.Message); err != nil {
			return nil, fmt.Errorf("scanning history for %s: %w", device, err)
		}
		entry.TakenAt, err = time.Parse(time.RFC3339Nano, taken)
		if err != nil {
			return nil, fmt.Errorf("parsing history timestamp for %s: %w", device, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LastBackupTime returns the commit time of the device's latest
// snapshot, or nil when the device has no history.
func (ss *SQLiteStore) LastBackupTime(device string) (*time.Time, error) {
	snap, err := ss.Latest(device)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}
	t := snap.TakenAt
	return &t, nil
}

// snapshotAt fetches one revision, or nil when absent. Callers hold
// the read lock.
func (ss *SQLiteStore) snapshotAt(device string, revision int64) (*model.Snapshot, error) {
	if revision < 1 {
		return nil, nil
	}

	row := ss.db.QueryRow(`
		SELECT id, device, revision, content, taken_at, message
		FROM snapshots
		WHERE device = ? AND revision = ?
	`, device, revision)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s@%d: %w", device, revision, err)
	}
	return snap, nil
}

func scanSnapshot(row *sql.Row) (*model.Snapshot, error) {
	var (
		snap  model.Snapshot
		taken string
	)
	if err := row.Scan(&snap.ID, &snap.Device, &snap.Revision, &snap.Content, &taken, &snap.Message); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, taken)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot timestamp: %w", err)
	}
	snap.TakenAt = t
	return &snap, nil
}
