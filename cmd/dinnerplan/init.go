package main

import (
	"fmt"
	"os"

	"github.com/ALT-F4-LLC/dinnerplan/internal/config"
	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/spf13/cobra"
)

type initResult struct {
	Path          string `json:"path"`
	DBPath        string `json:"db_path"`
	SettingsPath  string `json:"settings_path"`
	SchemaVersion int    `json:"schema_version"`
	Created       bool   `json:"created"`
}

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Initialize a new dinnerplan database",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		exists, err := cfg.Exists()
		if err != nil {
			return cmdErr(fmt.Errorf("checking database: %w", err), output.ErrGeneral)
		}

		if exists {
			w.Warn("Database already exists at %s", cfg.DBPath)

			conn, err := db.Open(cfg.DBPath, db.WithBusyTimeout(cfg.Settings.TxTimeout))
			if err != nil {
				return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrGeneral)
			}
			defer conn.Close()

			schemaVersion, err := db.SchemaVersion(conn)
			if err != nil {
				return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrGeneral)
			}

			w.Success(initResult{
				Path:          cfg.Dir,
				DBPath:        cfg.DBPath,
				SettingsPath:  cfg.SettingsPath,
				SchemaVersion: schemaVersion,
			}, "Database already initialized")
			return nil
		}

		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return cmdErr(fmt.Errorf("creating directory: %w", err), output.ErrGeneral)
		}

		conn, err := db.Open(cfg.DBPath, db.WithBusyTimeout(cfg.Settings.TxTimeout))
		if err != nil {
			return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrGeneral)
		}
		defer conn.Close()

		if err := db.Initialize(conn); err != nil {
			return cmdErr(fmt.Errorf("initializing schema: %w", err), output.ErrGeneral)
		}

		if err := db.Migrate(conn); err != nil {
			return cmdErr(fmt.Errorf("migrating schema: %w", err), output.ErrGeneral)
		}

		schemaVersion, err := db.SchemaVersion(conn)
		if err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrGeneral)
		}

		// Keep a hand-edited settings file.
		if _, err := os.Stat(cfg.SettingsPath); os.IsNotExist(err) {
			if err := config.WriteSettings(cfg.SettingsPath, config.DefaultSettings()); err != nil {
				return cmdErr(fmt.Errorf("writing settings: %w", err), output.ErrGeneral)
			}
		}

		w.Success(initResult{
			Path:          cfg.Dir,
			DBPath:        cfg.DBPath,
			SettingsPath:  cfg.SettingsPath,
			SchemaVersion: schemaVersion,
			Created:       true,
		}, "Initialized dinnerplan database")

		w.Info("Initialized dinnerplan database at %s", cfg.DBPath)
		w.Info("Consider adding .dinnerplan/ to your .gitignore")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
