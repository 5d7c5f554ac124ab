package snapshot

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single export or import transaction.
const DefaultTimeout = 30 * time.Second

// Engine runs exports and imports against one database. Imports are exclusive
// with each other and with exports; exports may overlap each other.
type Engine struct {
	db      *sql.DB
	mu      sync.RWMutex
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-operation transaction timeout. Non-positive values
// keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an Engine for db.
func NewEngine(db *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		db:      db,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
