package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ALT-F4-LLC/dinnerplan/internal/config"
	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type configInfo struct {
	DBPath        string `json:"db_path"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	SchemaVersion int    `json:"schema_version"`
	SettingsPath  string `json:"settings_path"`
	ListenAddr    string `json:"listen_addr"`
	TxTimeout     string `json:"tx_timeout"`
	AdminTokenSet bool   `json:"admin_token_set"`
	PathEnv       string `json:"dinnerplan_path_env"`
	PathEnvSet    bool   `json:"dinnerplan_path_set"`
	DefaultUser   string `json:"default_user"`
}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Display dinnerplan configuration",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		info := configInfo{
			DBPath:        cfg.DBPath,
			SettingsPath:  cfg.SettingsPath,
			ListenAddr:    cfg.Settings.ListenAddr,
			TxTimeout:     cfg.Settings.TxTimeout.String(),
			AdminTokenSet: cfg.Settings.AdminToken != "",
			PathEnv:       os.Getenv(config.EnvPath),
			PathEnvSet:    cfg.EnvVarSet,
			DefaultUser:   config.DefaultUser(),
		}

		exists, err := cfg.Exists()
		if err != nil {
			return cmdErr(fmt.Errorf("checking database: %w", err), output.ErrGeneral)
		}

		if !exists {
			w.Warn("No dinnerplan database found. Run 'dinnerplan init' to create one.")
			w.Success(info, formatConfigHuman(info, true))
			return nil
		}

		conn, err := db.Open(cfg.DBPath, db.WithBusyTimeout(cfg.Settings.TxTimeout))
		if err != nil {
			return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrGeneral)
		}
		defer conn.Close()

		info.SchemaVersion, err = db.SchemaVersion(conn)
		if err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrGeneral)
		}

		stat, err := os.Stat(cfg.DBPath)
		if err != nil {
			return cmdErr(fmt.Errorf("reading database file: %w", err), output.ErrGeneral)
		}
		info.DBSizeBytes = stat.Size()

		w.Success(info, formatConfigHuman(info, false))
		return nil
	},
}

func formatEnvValue(val string) string {
	if val == "" {
		return "(not set)"
	}
	return val
}

func formatConfigHuman(info configInfo, notFound bool) string {
	var b strings.Builder

	dbPath := info.DBPath
	if notFound {
		dbPath += " (not found)"
	}
	fmt.Fprintf(&b, "Database path:    %s\n", dbPath)
	if !notFound {
		fmt.Fprintf(&b, "Database size:    %s\n", humanize.Bytes(uint64(info.DBSizeBytes)))
		fmt.Fprintf(&b, "Schema version:   %d\n", info.SchemaVersion)
	}
	fmt.Fprintf(&b, "Settings file:    %s\n", info.SettingsPath)
	fmt.Fprintf(&b, "Listen address:   %s\n", info.ListenAddr)
	fmt.Fprintf(&b, "Tx timeout:       %s\n", info.TxTimeout)

	token := "(not set)"
	if info.AdminTokenSet {
		token = "********"
	}
	fmt.Fprintf(&b, "Admin token:      %s\n", token)
	fmt.Fprintf(&b, "Default user:     %s\n", info.DefaultUser)
	fmt.Fprintf(&b, "%s:  %s", config.EnvPath, formatEnvValue(info.PathEnv))

	return b.String()
}

func init() {
	rootCmd.AddCommand(configCmd)
}
