package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ALT-F4-LLC/dinnerplan/internal/config"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/ALT-F4-LLC/dinnerplan/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP server for snapshot download and upload",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Settings.ListenAddr
		}
		if cfg.Settings.AdminToken == "" {
			return cmdErr(
				fmt.Errorf("no admin token configured: set admin_token in %s or %s", cfg.SettingsPath, config.EnvAdminToken),
				output.ErrValidation,
			)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := w.Logger()
		srv := server.New(getEngine(cmd), getDB(cmd), cfg.Settings.AdminToken, logger)

		w.Info("Serving admin API on http://%s", addr)
		if err := srv.Run(ctx, addr); err != nil {
			return cmdErr(fmt.Errorf("serving: %w", err), output.ErrGeneral)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from settings)")
	rootCmd.AddCommand(serveCmd)
}
