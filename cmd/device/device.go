package device

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/paularlott/cli"
	"golang.org/x/term"

	"github.com/ilee165/network-device-backup/internal/app"
	"github.com/ilee165/network-device-backup/internal/model"
	"github.com/ilee165/network-device-backup/internal/probe"
)

// Commands returns the device management subcommands.
func Commands() []*cli.Command {
	return []*cli.Command{
		testCommand(),
		statusCommand(),
		historyCommand(),
		diffCommand(),
		listCommand(),
	}
}

func testCommand() *cli.Command {
	return &cli.Command{
		Name:        "test",
		Usage:       "Test connectivity to devices",
		Description: "Open and close an SSH session to verify devices are reachable with the configured credentials. Tests all enabled devices unless one is named.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "device",
				Usage: "Test a single device by name",
			},
			&cli.BoolFlag{
				Name:         "ask-password",
				Usage:        "Prompt for the password instead of using the environment",
				DefaultValue: false,
			},
			&cli.BoolFlag{
				Name:         "probe",
				Usage:        "Also query the device identity over SNMP",
				DefaultValue: false,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			var devices []model.Device
			if name := cmd.GetString("device"); name != "" {
				dev := cfg.DeviceByName(name)
				if dev == nil {
					return fmt.Errorf("device not found: %s", name)
				}
				if cmd.GetBool("ask-password") {
					fmt.Printf("Password for %s@%s: ", dev.Username, dev.Name)
					pw, err := term.ReadPassword(int(os.Stdin.Fd()))
					fmt.Println()
					if err != nil {
						return fmt.Errorf("reading password: %w", err)
					}
					dev.Password = string(pw)
				}
				devices = []model.Device{*dev}
			} else {
				if cmd.GetBool("ask-password") {
					return fmt.Errorf("--ask-password requires --device")
				}
				devices = cfg.EnabledDevices()
				if len(devices) == 0 {
					return fmt.Errorf("no enabled devices to test")
				}
			}

			engine, st, err := app.OpenEngine(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			failed := 0
			for i := range devices {
				dev := devices[i]
				fmt.Printf("Testing %s (%s)... ", dev.Name, dev.Addr())
				start := time.Now()
				if err := engine.TestDevice(ctx, &dev); err != nil {
					failed++
					fmt.Printf("FAILED: %v\n", err)
					continue
				}
				fmt.Printf("OK (%.2fs)\n", time.Since(start).Seconds())
			}

			if cmd.GetBool("probe") {
				fmt.Println("\nSNMP identities:")
				prober := probe.NewProber(0)
				for _, id := range prober.IdentifyAll(devices, cfg.Backup.ConcurrentBackups) {
					if id.Error != "" {
						fmt.Printf("  %s: probe failed: %s\n", id.Device, id.Error)
						continue
					}
					fmt.Printf("  %s: %s (%s)\n", id.Device, id.SysName, id.SysDescr)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d devices unreachable", failed, len(devices))
			}
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:        "status",
		Usage:       "Show the backup status of a device",
		Description: "Show the last backup time and recent snapshot history of a device",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "device",
				Usage:    "Device name",
				Required: true,
			},
			&cli.IntFlag{
				Name:         "limit",
				Usage:        "Maximum history entries to show",
				DefaultValue: 10,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			engine, st, err := app.OpenEngine(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			status, err := engine.Status(cmd.GetString("device"), cmd.GetInt("limit"))
			if err != nil {
				return err
			}

			fmt.Printf("Device:  %s (%s)\n", status.Device.Name, status.Device.Addr())
			fmt.Printf("Type:    %s\n", status.Device.Type)
			fmt.Printf("Enabled: %t\n", status.Device.Enabled)
			if len(status.Device.Groups) > 0 {
				fmt.Printf("Groups:  %s\n", strings.Join(status.Device.Groups, ", "))
			}
			if status.LastBackup == nil {
				fmt.Println("Last backup: never")
			} else {
				fmt.Printf("Last backup: %s\n", status.LastBackup.Format("2006-01-02 15:04:05"))
			}

			if len(status.History) > 0 {
				fmt.Println("\nRecent snapshots:")
				for _, h := range status.History {
					fmt.Printf("  r%-4d %s  %s\n", h.Revision, h.TakenAt.Format("2006-01-02 15:04:05"), h.Message)
				}
			}
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:        "history",
		Usage:       "Show the snapshot history of a device",
		Description: "List a device's stored configuration snapshots, most recent first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "device",
				Usage:    "Device name",
				Required: true,
			},
			&cli.IntFlag{
				Name:         "limit",
				Usage:        "Maximum entries to show",
				DefaultValue: 10,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			engine, st, err := app.OpenEngine(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			name := cmd.GetString("device")
			status, err := engine.Status(name, cmd.GetInt("limit"))
			if err != nil {
				return err
			}

			if len(status.History) == 0 {
				fmt.Printf("No snapshots for device: %s\n", name)
				return nil
			}

			for _, h := range status.History {
				fmt.Printf("r%-4d %s  %s\n", h.Revision, h.TakenAt.Format("2006-01-02 15:04:05"), h.Message)
			}
			return nil
		},
	}
}

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:        "diff",
		Usage:       "Show the latest configuration change of a device",
		Description: "Render the unified diff between a device's two most recent snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "device",
				Usage:    "Device name",
				Required: true,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			engine, st, err := app.OpenEngine(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			name := cmd.GetString("device")
			diff, err := engine.LatestDiff(name)
			if err != nil {
				return err
			}

			if diff == "" {
				fmt.Printf("No diff available for %s (fewer than two snapshots)\n", name)
				return nil
			}
			fmt.Print(diff)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List configured devices",
		Description: "List the device inventory, optionally filtered by group",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "group",
				Usage: "Only show devices in this group",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			devices := cfg.Devices
			if group := cmd.GetString("group"); group != "" {
				devices = cfg.DevicesByGroup(group)
			}

			if len(devices) == 0 {
				fmt.Println("No devices found")
				return nil
			}

			fmt.Printf("%-20s %-24s %-16s %-8s %s\n", "NAME", "ADDRESS", "TYPE", "ENABLED", "GROUPS")
			for _, dev := range devices {
				fmt.Printf("%-20s %-24s %-16s %-8t %s\n",
					dev.Name, dev.Addr(), dev.Type, dev.Enabled, strings.Join(dev.Groups, ", "))
			}
			return nil
		},
	}
}
