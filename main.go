package main

import (
	"context"
	"os"

	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"

	"github.com/ilee165/network-device-backup/cmd/device"
	"github.com/ilee165/network-device-backup/cmd/initialize"
	"github.com/ilee165/network-device-backup/cmd/run"
	"github.com/ilee165/network-device-backup/cmd/schedule"
	"github.com/ilee165/network-device-backup/cmd/server"
	"github.com/ilee165/network-device-backup/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	log.Configure("info", "console")

	rootCmd := &cli.Command{
		Name:        "netbackup",
		Version:     version,
		Usage:       "Network device configuration backup with change versioning",
		Description: "Back up network device configurations over SSH, detect changes, and keep a versioned snapshot history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "config-dir",
				Usage:        "Directory containing devices.yaml and settings.yaml",
				DefaultValue: "./config",
				EnvVars:      []string{"NETBACKUP_CONFIG_DIR"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (trace, debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"NETBACKUP_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json)",
				DefaultValue: "console",
				EnvVars:      []string{"NETBACKUP_LOG_FORMAT"},
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.Configure(cmd.GetString("log-level"), cmd.GetString("log-format"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			run.Command(),
			{
				Name:        "device",
				Usage:       "Device commands",
				Description: "Inspect and test devices in the inventory",
				Commands:    device.Commands(),
			},
			schedule.Command(),
			server.Command(),
			initialize.Command(),
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
