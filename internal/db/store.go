package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would violate a uniqueness rule.
var ErrConflict = errors.New("conflict")

// scanner abstracts *sql.Row and *sql.Rows for scanning a single row.
type scanner interface {
	Scan(dest ...any) error
}

// execer abstracts *sql.DB and *sql.Tx for executing statements.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// querier abstracts *sql.DB and *sql.Tx for both reads and writes, so the same
// repository functions serve one-off CLI calls and the snapshot transactions.
type querier interface {
	execer
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// storedTimeLayout is RFC 3339 in UTC with a fixed nine-digit fraction, so
// stored timestamps keep full precision and sort correctly as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime renders t in the canonical storage form.
func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// parseTime parses a stored timestamp, naming the column in errors. Rows
// written without a fraction still parse.
func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", column, err)
	}
	return t, nil
}

// nilIfZeroPtr returns nil if p is nil, otherwise returns *p (for sql parameter binding).
func nilIfZeroPtr(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// makePlaceholders returns "?, ?, ..." with n placeholders.
func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// lastInsertID returns the generated key of an INSERT.
func lastInsertID(res sql.Result) (int, error) {
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return int(id64), nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// InsertAll saves every item with insert and returns the generated IDs in
// input order. It stops at the first failure.
func InsertAll[T any](ex execer, items []T, insert func(execer, T) (int, error)) ([]int, error) {
	ids := make([]int, 0, len(items))
	for i, item := range items {
		id, err := insert(ex, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// maxBatchVars bounds the bind variables of one IN (...) list, well below
// SQLite's SQLITE_MAX_VARIABLE_NUMBER.
const maxBatchVars = 500

// collectIntsIn runs collectInts once per batch of ids. queryFmt holds a single
// %s where the placeholder list goes. Every owner's values come from one
// batch, so per-owner ordering in the query is kept.
func collectIntsIn(q querier, queryFmt string, ids []int) (map[int][]int, error) {
	result := make(map[int][]int)
	for start := 0; start < len(ids); start += maxBatchVars {
		end := min(start+maxBatchVars, len(ids))
		args := make([]any, 0, end-start)
		for _, id := range ids[start:end] {
			args = append(args, id)
		}

		batch, err := collectInts(q, fmt.Sprintf(queryFmt, makePlaceholders(len(args))), args...)
		if err != nil {
			return nil, err
		}
		for owner, values := range batch {
			result[owner] = values
		}
	}
	return result, nil
}

// collectInts runs a two-column (owner, value) query and groups the values by owner.
func collectInts(q querier, query string, args ...any) (map[int][]int, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int][]int)
	for rows.Next() {
		var owner, value int
		if err := rows.Scan(&owner, &value); err != nil {
			return nil, err
		}
		result[owner] = append(result[owner], value)
	}
	return result, rows.Err()
}

// Counts holds the number of rows per entity collection.
type Counts struct {
	Users         int `json:"users"`
	Events        int `json:"events"`
	Proposals     int `json:"proposals"`
	ProposalDates int `json:"proposal_dates"`
	Ratings       int `json:"ratings"`
	Votes         int `json:"votes"`
	Messages      int `json:"messages"`
}

// Total returns the sum of all collections.
func (c Counts) Total() int {
	return c.Users + c.Events + c.Proposals + c.ProposalDates + c.Ratings + c.Votes + c.Messages
}

// CountAll returns row counts for every entity table.
func CountAll(q querier) (Counts, error) {
	var c Counts
	targets := []struct {
		table string
		dest  *int
	}{
		{"users", &c.Users},
		{"dinner_events", &c.Events},
		{"proposals", &c.Proposals},
		{"proposal_dates", &c.ProposalDates},
		{"proposal_ratings", &c.Ratings},
		{"votes", &c.Votes},
		{"dinner_event_messages", &c.Messages},
	}
	for _, t := range targets {
		if err := q.QueryRow("SELECT COUNT(*) FROM " + t.table).Scan(t.dest); err != nil {
			return Counts{}, fmt.Errorf("counting %s: %w", t.table, err)
		}
	}
	return c, nil
}

// deleteAll removes every row from table.
func deleteAll(ex execer, table string) error {
	if _, err := ex.Exec("DELETE FROM " + table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	return nil
}
