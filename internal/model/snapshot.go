package model

import "time"

// Snapshot is one immutable capture of a device's configuration text.
// Snapshots for a device form a strictly ordered, append-only sequence;
// Revision starts at 1 and increases by one per commit.
type Snapshot struct {
	ID       string    `json:"id"`
	Device   string    `json:"device"`
	Revision int64     `json:"revision"`
	Content  string    `json:"content"`
	TakenAt  time.Time `json:"taken_at"`
	Message  string    `json:"message"`
}

// HistoryEntry is one line of a device's backup history.
type HistoryEntry struct {
	Revision int64     `json:"revision"`
	TakenAt  time.Time `json:"taken_at"`
	Message  string    `json:"message"`
}
