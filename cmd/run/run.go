package run

import (
	"context"
	"fmt"

	"github.com/paularlott/cli"

	"github.com/ilee165/network-device-backup/internal/app"
	"github.com/ilee165/network-device-backup/internal/backup"
	"github.com/ilee165/network-device-backup/internal/notify"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "run",
		Usage:       "Run a backup",
		Description: "Back up one device, a group, or all enabled devices, and store changed configurations as new snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "device",
				Usage: "Back up a single device by name",
			},
			&cli.StringFlag{
				Name:  "group",
				Usage: "Back up all enabled devices in a group",
			},
			&cli.BoolFlag{
				Name:         "notify",
				Usage:        "Send the run report over the configured notification channels",
				DefaultValue: false,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			device := cmd.GetString("device")
			group := cmd.GetString("group")
			if device != "" && group != "" {
				return fmt.Errorf("--device and --group are mutually exclusive")
			}

			engine, st, err := app.OpenEngine(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := engine.Run(ctx, backup.Selection{Device: device, Group: group})
			if err != nil {
				return err
			}

			report := backup.RenderReport(result)
			fmt.Print(report)

			if cmd.GetBool("notify") {
				notify.New(cfg.Notifications).Send(result, report)
			}

			if result.Empty() {
				return fmt.Errorf("no devices matched the selection")
			}
			if !result.OK() {
				return fmt.Errorf("%d of %d backups failed", result.Failed, result.Total)
			}
			return nil
		},
	}
}
