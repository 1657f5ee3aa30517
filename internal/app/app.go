// Package app wires the configuration, store, and engine together for
// the CLI commands.
package app

import (
	"github.com/paularlott/cli"

	"github.com/ilee165/network-device-backup/internal/backup"
	"github.com/ilee165/network-device-backup/internal/config"
	"github.com/ilee165/network-device-backup/internal/connector"
	"github.com/ilee165/network-device-backup/internal/store"
)

// LoadConfig loads the configuration from the directory given by the
// global config-dir flag.
func LoadConfig(cmd *cli.Command) (*config.Config, error) {
	return config.Load(cmd.GetString("config-dir"))
}

// OpenEngine builds the backup engine and its SQLite-backed version
// store. The caller owns the store and must Close it.
func OpenEngine(cfg *config.Config) (*backup.Engine, *store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.Backup.RepositoryPath)
	if err != nil {
		return nil, nil, err
	}

	engine := backup.New(cfg, st, connector.NewSSH())
	return engine, st, nil
}
