package initialize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paularlott/cli"

	"github.com/ilee165/network-device-backup/internal/store"
)

const exampleDevices = `# Device inventory. Copy to devices.yaml and edit.
#
# Credentials are referenced by environment variable name; the values
# themselves never live in this file. The "default" entry applies to
# every device without its own entry.
credentials:
  default:
    username_env: NETBACKUP_USERNAME
    password_env: NETBACKUP_PASSWORD
  core-sw-01:
    username_env: CORE_SW_USERNAME
    password_env: CORE_SW_PASSWORD

devices:
  - name: core-sw-01
    hostname: 192.168.1.10
    device_type: cisco_ios
    port: 22
    timeout: 30
    groups: [core, switches]
    snmp_community: public

  - name: edge-rtr-01
    hostname: 192.168.1.1
    device_type: juniper_junos
    groups: [edge, routers]

  - name: lab-sw-01
    hostname: 10.0.0.5
    device_type: arista_eos
    groups: [lab]
    enabled: false
`

const exampleSettings = `# Application settings. Copy to settings.yaml and edit.
backup:
  repository_path: ./backups/repo
  concurrent_backups: 3
  timeout_seconds: 30
  retry_attempts: 3
  retry_delay_seconds: 5

schedule:
  enabled: false
  cron_expression: "0 2 * * *"

notifications:
  email:
    enabled: false
    smtp_server: smtp.example.com
    smtp_port: 587
    from_address: netbackup@example.com
    to_addresses: [netops@example.com]
    username_env: NETBACKUP_SMTP_USERNAME
    password_env: NETBACKUP_SMTP_PASSWORD
  webhook:
    enabled: false
    url_env: NETBACKUP_WEBHOOK_URL

server:
  listen_addr: ":8080"
  token_env: NETBACKUP_MCP_TOKEN

logging:
  level: info
  format: console
`

func Command() *cli.Command {
	return &cli.Command{
		Name:        "init",
		Usage:       "Initialize the configuration directory and version store",
		Description: "Write example configuration files and create the snapshot repository",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "repository",
				Usage:        "Snapshot repository path",
				DefaultValue: "./backups/repo",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.GetString("config-dir")
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}

			files := map[string]string{
				"devices.yaml.example":  exampleDevices,
				"settings.yaml.example": exampleSettings,
			}
			for name, content := range files {
				path := filepath.Join(dir, name)
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				fmt.Printf("Wrote %s\n", path)
			}

			st, err := store.NewSQLiteStore(cmd.GetString("repository"))
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Init(); err != nil {
				return err
			}
			fmt.Printf("Initialized version store at %s\n", cmd.GetString("repository"))

			fmt.Println("\nNext steps:")
			fmt.Printf("  1. cp %s %s\n", filepath.Join(dir, "devices.yaml.example"), filepath.Join(dir, "devices.yaml"))
			fmt.Println("  2. Edit the inventory and export the credential environment variables")
			fmt.Println("  3. netbackup device test --device <name>")
			return nil
		},
	}
}
