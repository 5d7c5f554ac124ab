package db

import (
	"database/sql"
	"fmt"
	"strconv"
)

const currentSchemaVersion = 2

// schemaDDL contains the CREATE TABLE statements for the initial schema.
// AUTOINCREMENT keeps surrogate keys from being reused after a full wipe.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dinner_events (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
	title                     TEXT NOT NULL,
	description               TEXT,
	organizer_id              INTEGER NOT NULL REFERENCES users(id),
	deadline                  TEXT NOT NULL,
	status                    TEXT NOT NULL DEFAULT 'OPEN',
	selected_proposal_date_id INTEGER REFERENCES proposal_dates(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS event_participants (
	event_id INTEGER NOT NULL REFERENCES dinner_events(id) ON DELETE CASCADE,
	user_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	PRIMARY KEY (event_id, user_id)
);

CREATE TABLE IF NOT EXISTS proposals (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	location    TEXT NOT NULL,
	address     TEXT,
	description TEXT
);

CREATE TABLE IF NOT EXISTS event_proposals (
	event_id    INTEGER NOT NULL REFERENCES dinner_events(id) ON DELETE CASCADE,
	proposal_id INTEGER NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
	PRIMARY KEY (event_id, proposal_id)
);

CREATE TABLE IF NOT EXISTS proposal_dates (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	date            TEXT NOT NULL,
	proposal_id     INTEGER NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
	dinner_event_id INTEGER NOT NULL REFERENCES dinner_events(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS votes (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id          INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	proposal_date_id INTEGER NOT NULL REFERENCES proposal_dates(id) ON DELETE CASCADE,
	UNIQUE(user_id, proposal_date_id)
);

CREATE TABLE IF NOT EXISTS proposal_ratings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	proposal_id INTEGER NOT NULL REFERENCES proposals(id) ON DELETE CASCADE,
	liked       INTEGER NOT NULL,
	UNIQUE(user_id, proposal_id)
);

CREATE TABLE IF NOT EXISTS dinner_event_messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id  INTEGER NOT NULL REFERENCES dinner_events(id) ON DELETE CASCADE,
	sender_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	content   TEXT NOT NULL,
	timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dinner_events_organizer_id ON dinner_events(organizer_id);
CREATE INDEX IF NOT EXISTS idx_dinner_events_status ON dinner_events(status);
CREATE INDEX IF NOT EXISTS idx_proposal_dates_proposal_id ON proposal_dates(proposal_id);
CREATE INDEX IF NOT EXISTS idx_proposal_dates_dinner_event_id ON proposal_dates(dinner_event_id);
CREATE INDEX IF NOT EXISTS idx_votes_proposal_date_id ON votes(proposal_date_id);
CREATE INDEX IF NOT EXISTS idx_proposal_ratings_proposal_id ON proposal_ratings(proposal_id);
` + selectedDateDDL

// selectedDateDDL was introduced in schema version 2. A decided event may
// only point at a date proposed for that event through a linked proposal.
const selectedDateDDL = `
CREATE INDEX IF NOT EXISTS idx_dinner_event_messages_event_id ON dinner_event_messages(event_id, timestamp);

CREATE TRIGGER IF NOT EXISTS trg_selected_date_belongs_to_event
BEFORE UPDATE OF selected_proposal_date_id ON dinner_events
WHEN NEW.selected_proposal_date_id IS NOT NULL AND NOT EXISTS (
	SELECT 1 FROM proposal_dates pd
	JOIN event_proposals ep ON ep.proposal_id = pd.proposal_id AND ep.event_id = NEW.id
	WHERE pd.id = NEW.selected_proposal_date_id
	  AND pd.dinner_event_id = NEW.id
)
BEGIN
	SELECT RAISE(ABORT, 'selected proposal date does not belong to event');
END;
`

// Initialize creates all tables if they don't exist and sets the schema version.
func Initialize(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaDDL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	// Set schema version only if not already set.
	_, err = tx.Exec(
		`INSERT OR IGNORE INTO meta (key, value) VALUES ('schema_version', ?)`,
		strconv.Itoa(currentSchemaVersion),
	)
	if err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}

	return tx.Commit()
}

// SchemaVersion returns the current schema version from the meta table.
func SchemaVersion(db *sql.DB) (int, error) {
	var val string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&val)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing schema version %q: %w", val, err)
	}

	return v, nil
}

// migrations is a list of migration functions keyed by the version they migrate TO.
// For example, migrations[2] migrates from version 1 to version 2.
var migrations = map[int]func(tx *sql.Tx) error{
	2: func(tx *sql.Tx) error {
		_, err := tx.Exec(selectedDateDDL)
		return err
	},
}

// Migrate checks the current schema version and applies any pending migrations
// sequentially. It is a no-op when already at the latest version.
func Migrate(db *sql.DB) error {
	version, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}

	for v := version + 1; v <= currentSchemaVersion; v++ {
		migrateFn, ok := migrations[v]
		if !ok {
			return fmt.Errorf("missing migration for version %d", v)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d transaction: %w", v, err)
		}

		if err := migrateFn(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", v, err)
		}

		if _, err := tx.Exec(
			`UPDATE meta SET value = ? WHERE key = 'schema_version'`,
			strconv.Itoa(v),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", v, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", v, err)
		}
	}

	return nil
}
