package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultBusyTimeout is how long a statement waits on a locked database file
// before failing with SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

type openOptions struct {
	busyTimeout time.Duration
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithBusyTimeout sets the SQLite busy timeout. Non-positive values keep the
// default. The CLI passes its transaction timeout so a second dinnerplan
// process waits as long as a snapshot import may run.
func WithBusyTimeout(d time.Duration) OpenOption {
	return func(o *openOptions) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// Open opens or creates the dinner store at dbPath with WAL journaling,
// foreign key enforcement and a busy timeout, on a single connection.
func Open(dbPath string, opts ...OpenOption) (*sql.DB, error) {
	o := openOptions{busyTimeout: DefaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: pragmas are per connection, and snapshot reads rely on
	// every statement seeing the same transaction.
	conn.SetMaxOpenConns(1)

	for _, p := range pragmas(o) {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return conn, nil
}

func pragmas(o openOptions) []string {
	return []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", o.busyTimeout.Milliseconds()),
	}
}
