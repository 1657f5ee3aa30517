package backup

import (
	"strings"
	"testing"
	"time"

	"github.com/ilee165/network-device-backup/internal/model"
)

func TestRenderReportSections(t *testing.T) {
	result := model.NewRunResult("all enabled devices", 3)
	result.Add(model.DeviceResult{
		Device:  "sw-01",
		Host:    "10.0.0.1",
		Success: true,
		Changed: true,
		Size:    2048,
		Diff:    "--- sw-01@1\n+++ sw-01@2\n-hostname old\n+hostname new\n",
	})
	result.Add(model.DeviceResult{
		Device:  "sw-02",
		Host:    "10.0.0.2",
		Success: true,
	})
	result.Add(model.DeviceResult{
		Device: "rtr-01",
		Host:   "10.0.0.3",
		Error:  "authentication failed after 1 attempt(s)",
	})
	result.Finalize()

	report := RenderReport(result)

	for _, want := range []string{
		"NETWORK DEVICE BACKUP REPORT",
		"Total Devices:    3",
		"Successful:       2",
		"Failed:           1",
		"CHANGED CONFIGURATIONS",
		"UNCHANGED CONFIGURATIONS",
		"FAILED BACKUPS",
		"sw-01",
		"sw-02",
		"rtr-01",
		"authentication failed",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestRenderReportTruncatesDiffPreview(t *testing.T) {
	longDiff := strings.Repeat("-removed line\n+added line\n", 100)

	result := model.NewRunResult("device sw-01", 1)
	result.Add(model.DeviceResult{
		Device:  "sw-01",
		Host:    "10.0.0.1",
		Success: true,
		Changed: true,
		Diff:    longDiff,
	})
	result.Finalize()

	report := RenderReport(result)
	if !strings.Contains(report, "first 500 chars") {
		t.Error("long diffs must be previewed, not inlined whole")
	}
	if strings.Count(report, "added line") >= 100 {
		t.Error("diff preview was not truncated")
	}
}

func TestRenderReportOmitsEmptySections(t *testing.T) {
	result := model.NewRunResult("device sw-01", 1)
	result.Add(model.DeviceResult{Device: "sw-01", Host: "10.0.0.1", Success: true})
	result.Finalize()

	report := RenderReport(result)
	if strings.Contains(report, "CHANGED CONFIGURATIONS") {
		t.Error("changed section should be omitted when nothing changed")
	}
	if strings.Contains(report, "FAILED BACKUPS") {
		t.Error("failed section should be omitted when nothing failed")
	}

	report = RenderReport(result)
	d := time.Now().Format("2006-01-02")
	if !strings.Contains(report, d) {
		t.Errorf("report should carry today's date, got:\n%s", report)
	}
}
