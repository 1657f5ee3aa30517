// Package backup contains the orchestration engine: it fans one task
// per selected device out over a bounded worker pool, detects changes
// against the version store, commits changed snapshots, and aggregates
// per-device outcomes into a single run result.
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/ilee165/network-device-backup/internal/config"
	"github.com/ilee165/network-device-backup/internal/connector"
	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/model"
	"github.com/ilee165/network-device-backup/internal/store"
	"github.com/ilee165/network-device-backup/internal/worker"
)

// Selection chooses which devices a run targets: a single device by
// name, a group by name, or (when both are empty) all enabled devices.
type Selection struct {
	Device string
	Group  string
}

func (s Selection) String() string {
	switch {
	case s.Device != "":
		return "device " + s.Device
	case s.Group != "":
		return "group " + s.Group
	default:
		return "all enabled devices"
	}
}

// Engine is the backup orchestrator.
type Engine struct {
	cfg      *config.Config
	store    store.Store
	retrier  *connector.Retrier
	detector *Detector
	conn     connector.Connector
}

// New wires an engine from injected collaborators. The connector and
// store are interfaces so tests can substitute fakes.
func New(cfg *config.Config, st store.Store, conn connector.Connector) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    st,
		retrier:  connector.NewRetrier(conn, cfg.Backup.RetryAttempts, cfg.Backup.RetryDelay()),
		detector: NewDetector(st),
		conn:     conn,
	}
}

// Resolve maps a selection onto the concrete device list. An unknown
// device name, an unknown group, or an inventory with nothing enabled
// all resolve to an empty list, never an error.
func (e *Engine) Resolve(sel Selection) []model.Device {
	switch {
	case sel.Device != "":
		dev := e.cfg.DeviceByName(sel.Device)
		if dev == nil {
			log.Error("Device not found", "device", sel.Device)
			return nil
		}
		return []model.Device{*dev}
	case sel.Group != "":
		devices := e.cfg.DevicesByGroup(sel.Group)
		if len(devices) == 0 {
			log.Warn("No devices found in group", "group", sel.Group)
		}
		return devices
	default:
		return e.cfg.EnabledDevices()
	}
}

// Run executes one backup operation. Per-device failures are contained
// in that device's result; the only global failure is a store that
// cannot be initialized, which aborts before any task starts.
func (e *Engine) Run(ctx context.Context, sel Selection) (*model.RunResult, error) {
	if err := e.store.Init(); err != nil {
		return nil, fmt.Errorf("initializing version store: %w", err)
	}

	devices := e.Resolve(sel)
	result := model.NewRunResult(sel.String(), len(devices))

	if len(devices) == 0 {
		log.Error("No devices to back up", "selection", sel.String())
		result.Finalize()
		return result, nil
	}

	log.Info("Starting backup run", "run_id", result.ID, "selection", sel.String(), "devices", len(devices))

	workers := e.cfg.Backup.ConcurrentBackups
	if workers > len(devices) {
		workers = len(devices)
	}

	pool := worker.NewPool(workers, len(devices))
	pool.Start()

	results := make(chan model.DeviceResult, len(devices))
	for i := range devices {
		dev := devices[i]
		err := pool.Submit(worker.Job{
			Name: dev.Name,
			Run: func(jobCtx context.Context) {
				results <- e.backupDevice(jobCtx, &dev)
			},
		})
		if err != nil {
			results <- model.DeviceResult{
				Device:      dev.Name,
				Host:        dev.Host,
				Error:       fmt.Sprintf("run aborted before start: %v", err),
				CompletedAt: time.Now(),
			}
		}
	}

	// Single aggregator: results arrive in completion order and the
	// counters are only ever touched here.
	for i := 0; i < len(devices); i++ {
		res := <-results
		result.Add(res)

		if res.Success {
			status := "UNCHANGED"
			if res.Changed {
				status = "CHANGED"
			}
			log.Info("Device backup complete", "device", res.Device, "status", status, "duration", res.Duration)
		} else {
			log.Error("Device backup failed", "device", res.Device, "error", res.Error)
		}
	}

	pool.Drain()
	result.Finalize()

	log.Info("Backup run finished",
		"run_id", result.ID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"changed", result.Changed,
		"unchanged", result.Unchanged,
		"duration", result.Duration)

	return result, nil
}

// backupDevice runs the strictly sequential fetch → detect → commit →
// diff pipeline for one device. Every failure, including a panic, is
// converted into a failed result; nothing escapes the task boundary.
func (e *Engine) backupDevice(ctx context.Context, dev *model.Device) (res model.DeviceResult) {
	start := time.Now()
	res = model.DeviceResult{Device: dev.Name, Host: dev.Host}

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("unexpected panic: %v", r)
		}
		res.Duration = time.Since(start)
		res.CompletedAt = time.Now()
	}()

	text, attempts, err := e.retrier.Fetch(ctx, dev)
	res.Attempts = attempts
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Size = len(text)

	res.Changed = e.detector.HasChanged(dev.Name, text)
	if !res.Changed {
		log.Debug("No changes detected", "device", dev.Name)
		res.Success = true
		return res
	}

	snap, err := e.store.Commit(dev.Name, text, time.Now())
	if err != nil {
		res.Error = fmt.Sprintf("committing snapshot: %v", err)
		return res
	}

	if snap.Revision > 1 {
		diff, err := e.store.Diff(dev.Name, snap.Revision-1, snap.Revision)
		if err != nil {
			// The snapshot is committed; a failed diff render is
			// not a failed backup.
			log.Warn("Could not render diff", "device", dev.Name, "revision", snap.Revision, "error", err)
		} else {
			res.Diff = diff
		}
	}

	log.Debug("Configuration changed", "device", dev.Name, "revision", snap.Revision)
	res.Success = true
	return res
}

// TestDevice opens and immediately closes a session to verify
// connectivity. A single attempt, no retries.
func (e *Engine) TestDevice(ctx context.Context, dev *model.Device) error {
	sess, err := e.conn.Open(ctx, dev)
	if err != nil {
		return err
	}
	return sess.Close()
}

// DeviceStatus summarizes one device's backup state for status and
// history output.
type DeviceStatus struct {
	Device     model.Device
	LastBackup *time.Time
	History    []model.HistoryEntry
}

// Status returns the backup status for a configured device.
func (e *Engine) Status(device string, historyLimit int) (*DeviceStatus, error) {
	dev := e.cfg.DeviceByName(device)
	if dev == nil {
		return nil, fmt.Errorf("device not found: %s", device)
	}
	if err := e.store.Init(); err != nil {
		return nil, fmt.Errorf("initializing version store: %w", err)
	}

	last, err := e.store.LastBackupTime(device)
	if err != nil {
		return nil, err
	}
	history, err := e.store.History(device, historyLimit)
	if err != nil {
		return nil, err
	}

	return &DeviceStatus{Device: *dev, LastBackup: last, History: history}, nil
}

// LatestDiff renders the diff between a device's two most recent
// snapshots, or "" when fewer than two exist.
func (e *Engine) LatestDiff(device string) (string, error) {
	if err := e.store.Init(); err != nil {
		return "", fmt.Errorf("initializing version store: %w", err)
	}
	snap, err := e.store.Latest(device)
	if err != nil {
		return "", err
	}
	if snap == nil || snap.Revision < 2 {
		return "", nil
	}
	return e.store.Diff(device, snap.Revision-1, snap.Revision)
}
