package model

import (
	"time"

	"github.com/google/uuid"
)

// DeviceResult is the outcome of one device's backup attempt. It is
// created once per device per run and owned by the RunResult.
type DeviceResult struct {
	Device      string        `json:"device"`
	Host        string        `json:"hostname"`
	Success     bool          `json:"success"`
	Changed     bool          `json:"changed"`
	Size        int           `json:"size"` // bytes of retrieved config
	Diff        string        `json:"diff,omitempty"`
	Error       string        `json:"error,omitempty"`
	Attempts    int           `json:"attempts"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completed_at"`
}

// RunResult aggregates one backup run. Counters always satisfy
// Succeeded == Changed+Unchanged and Total == Succeeded+Failed.
// Device results appear in completion order, not submission order.
type RunResult struct {
	ID        string         `json:"id"`
	Selection string         `json:"selection"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Changed   int            `json:"changed"`
	Unchanged int            `json:"unchanged"`
	Devices   []DeviceResult `json:"devices"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Duration  time.Duration  `json:"duration"`
}

// NewRunResult starts a run result for the given selection and device
// count.
func NewRunResult(selection string, total int) *RunResult {
	return &RunResult{
		ID:        uuid.New().String(),
		Selection: selection,
		Total:     total,
		StartedAt: time.Now(),
	}
}

// Add records a device result and updates the counters.
func (r *RunResult) Add(res DeviceResult) {
	r.Devices = append(r.Devices, res)

	if res.Success {
		r.Succeeded++
		if res.Changed {
			r.Changed++
		} else {
			r.Unchanged++
		}
	} else {
		r.Failed++
	}
}

// Finalize sets the end timestamp and total duration. The result must
// not be mutated afterwards.
func (r *RunResult) Finalize() {
	r.EndedAt = time.Now()
	r.Duration = r.EndedAt.Sub(r.StartedAt)
}

// Empty reports whether the selection resolved to zero devices.
// Callers treat an empty run as a failure condition, distinct from a
// run that executed and succeeded.
func (r *RunResult) Empty() bool {
	return r.Total == 0
}

// OK reports whether the run executed at least one device and none
// failed.
func (r *RunResult) OK() bool {
	return r.Total > 0 && r.Failed == 0
}
