package backup

import (
	"fmt"
	"strings"

	"github.com/ilee165/network-device-backup/internal/model"
)

const (
	reportWidth     = 70
	diffPreviewSize = 500
)

// RenderReport formats a finalized run result as a plain-text report
// suitable for the terminal and for notification bodies.
func RenderReport(result *model.RunResult) string {
	var b strings.Builder
	rule := strings.Repeat("=", reportWidth)
	thin := strings.Repeat("-", reportWidth)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "NETWORK DEVICE BACKUP REPORT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Run ID:     %s\n", result.ID)
	fmt.Fprintf(&b, "Selection:  %s\n", result.Selection)
	fmt.Fprintf(&b, "Start Time: %s\n", result.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "End Time:   %s\n", result.EndedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration:   %.1f seconds\n", result.Duration.Seconds())
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "SUMMARY")
	fmt.Fprintln(&b, thin)
	fmt.Fprintf(&b, "Total Devices:    %d\n", result.Total)
	fmt.Fprintf(&b, "Successful:       %d\n", result.Succeeded)
	fmt.Fprintf(&b, "Failed:           %d\n", result.Failed)
	fmt.Fprintf(&b, "Changed:          %d\n", result.Changed)
	fmt.Fprintf(&b, "Unchanged:        %d\n", result.Unchanged)
	fmt.Fprintln(&b)

	if result.Changed > 0 {
		fmt.Fprintln(&b, "CHANGED CONFIGURATIONS")
		fmt.Fprintln(&b, thin)
		for _, res := range result.Devices {
			if !res.Success || !res.Changed {
				continue
			}
			fmt.Fprintf(&b, "  * %s (%s)\n", res.Device, res.Host)
			fmt.Fprintf(&b, "    Size: %d bytes\n", res.Size)
			fmt.Fprintf(&b, "    Duration: %.1fs\n", res.Duration.Seconds())
			if res.Diff != "" {
				fmt.Fprintf(&b, "    Changes (first %d chars):\n", diffPreviewSize)
				preview := res.Diff
				if len(preview) > diffPreviewSize {
					preview = preview[:diffPreviewSize]
				}
				for _, line := range strings.Split(preview, "\n") {
					fmt.Fprintf(&b, "      %s\n", line)
				}
			}
			fmt.Fprintln(&b)
		}
	}

	if result.Unchanged > 0 {
		fmt.Fprintln(&b, "UNCHANGED CONFIGURATIONS")
		fmt.Fprintln(&b, thin)
		for _, res := range result.Devices {
			if res.Success && !res.Changed {
				fmt.Fprintf(&b, "  * %s (%s)\n", res.Device, res.Host)
			}
		}
		fmt.Fprintln(&b)
	}

	if result.Failed > 0 {
		fmt.Fprintln(&b, "FAILED BACKUPS")
		fmt.Fprintln(&b, thin)
		for _, res := range result.Devices {
			if res.Success {
				continue
			}
			fmt.Fprintf(&b, "  * %s (%s)\n", res.Device, res.Host)
			fmt.Fprintf(&b, "    Error: %s\n", res.Error)
			fmt.Fprintln(&b)
		}
	}

	fmt.Fprintln(&b, rule)
	return b.String()
}
