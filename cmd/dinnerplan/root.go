package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ALT-F4-LLC/dinnerplan/internal/config"
	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
	"github.com/ALT-F4-LLC/dinnerplan/internal/output"
	"github.com/ALT-F4-LLC/dinnerplan/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type contextKey string

const (
	dbKey  contextKey = "db"
	cfgKey contextKey = "cfg"
)

// CmdError wraps an error with a machine-readable error code for structured output.
type CmdError struct {
	Err  error
	Code output.ErrorCode
}

func (e *CmdError) Error() string { return e.Err.Error() }

func (e *CmdError) Unwrap() error { return e.Err }

func cmdErr(err error, code output.ErrorCode) *CmdError {
	return &CmdError{Err: err, Code: code}
}

// storeErr wraps a failed store or snapshot call with the code matching its cause.
func storeErr(err error, doing string) *CmdError {
	return cmdErr(fmt.Errorf("%s: %w", doing, err), output.Classify(err))
}

var rootCmd = &cobra.Command{
	Use:     "dinnerplan",
	Short:   "Local-first group dinner planner",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve()
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		ctx := context.WithValue(cmd.Context(), cfgKey, cfg)

		if _, ok := cmd.Annotations["skipDB"]; ok {
			cmd.SetContext(ctx)
			return nil
		}

		if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
			return cmdErr(
				fmt.Errorf("no dinnerplan database found, run 'dinnerplan init' to create one"),
				output.ErrNotFound,
			)
		}

		conn, err := db.Open(cfg.DBPath, db.WithBusyTimeout(cfg.Settings.TxTimeout))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Migrate(conn); err != nil {
			conn.Close()
			return fmt.Errorf("migrating database: %w", err)
		}

		cmd.SetContext(context.WithValue(ctx, dbKey, conn))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		conn, ok := cmd.Context().Value(dbKey).(*sql.DB)
		if ok && conn != nil {
			return conn.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func getWriter(cmd *cobra.Command) *output.Writer {
	jsonMode, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return output.New(jsonMode, quietMode)
}

func getCfg(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(cfgKey).(*config.Config)
	return cfg
}

func getDB(cmd *cobra.Command) *sql.DB {
	conn, _ := cmd.Context().Value(dbKey).(*sql.DB)
	return conn
}

// getEngine returns a snapshot engine over the command's database, logging
// through the command's writer.
func getEngine(cmd *cobra.Command) *snapshot.Engine {
	return snapshot.NewEngine(getDB(cmd),
		snapshot.WithTimeout(getCfg(cmd).Settings.TxTimeout),
		snapshot.WithLogger(getWriter(cmd).Logger()),
	)
}

// actingUser resolves the --user flag, defaulting to the git or OS user name.
func actingUser(cmd *cobra.Command) (*model.User, error) {
	name, _ := cmd.Flags().GetString("user")
	if name == "" {
		name = config.DefaultUser()
	}

	u, err := db.GetUserByUsername(getDB(cmd), name)
	if errors.Is(err, db.ErrNotFound) {
		return nil, cmdErr(
			fmt.Errorf("user %q not found, create it with 'dinnerplan user add %s'", name, name),
			output.ErrNotFound,
		)
	}
	if err != nil {
		return nil, storeErr(err, "looking up user")
	}
	return u, nil
}

// addUserFlag registers --user on commands that act on behalf of someone.
func addUserFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "Act as this username (default: git user.name or OS user)")
}

// parseIDArg parses a positional ID argument, naming the kind in errors.
func parseIDArg(arg, kind string) (int, error) {
	id, err := model.ParseID(arg)
	if err != nil {
		return 0, cmdErr(fmt.Errorf("invalid %s ID: %w", kind, err), output.ErrValidation)
	}
	return id, nil
}

// timeLayouts are the accepted forms for --deadline and --date, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTime parses a user-supplied time. Forms without a zone are local time.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339, YYYY-MM-DD HH:MM or YYYY-MM-DD", s)
}

// Execute runs the root command and returns an exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		jsonMode, _ := rootCmd.PersistentFlags().GetBool("json")
		quietMode, _ := rootCmd.PersistentFlags().GetBool("quiet")
		w := output.New(jsonMode, quietMode)

		var ce *CmdError
		if errors.As(err, &ce) {
			return w.Error(ce.Err, ce.Code)
		}
		return w.Error(err, output.ErrGeneral)
	}
	return 0
}
