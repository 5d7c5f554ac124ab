package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

const messageColumns = `id, event_id, sender_id, content, timestamp`

// PostMessage appends a message to an event's chat. The timestamp defaults to
// now when unset.
func PostMessage(db *sql.DB, msg *model.DinnerEventMessage) (int, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if _, err := GetEvent(db, msg.EventID); err != nil {
		return 0, fmt.Errorf("event %d: %w", msg.EventID, err)
	}
	return InsertMessage(db, msg)
}

// InsertMessage saves a message with a store-assigned ID.
func InsertMessage(ex execer, msg *model.DinnerEventMessage) (int, error) {
	res, err := ex.Exec(
		`INSERT INTO dinner_event_messages (event_id, sender_id, content, timestamp) VALUES (?, ?, ?, ?)`,
		msg.EventID, msg.SenderID, msg.Content, formatTime(msg.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting message for event %d: %w", msg.EventID, err)
	}
	return lastInsertID(res)
}

// ListAllMessages returns every message ordered by ID.
func ListAllMessages(q querier) ([]*model.DinnerEventMessage, error) {
	return listMessages(q, `SELECT `+messageColumns+` FROM dinner_event_messages ORDER BY id ASC`)
}

// ListMessages returns an event's messages, oldest first.
func ListMessages(q querier, eventID int) ([]*model.DinnerEventMessage, error) {
	return listMessages(q,
		`SELECT `+messageColumns+` FROM dinner_event_messages WHERE event_id = ? ORDER BY timestamp ASC, id ASC`,
		eventID)
}

func listMessages(q querier, query string, args ...any) ([]*model.DinnerEventMessage, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []*model.DinnerEventMessage
	for rows.Next() {
		var m model.DinnerEventMessage
		var ts string
		if err := rows.Scan(&m.ID, &m.EventID, &m.SenderID, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		t, err := parseTime("timestamp", ts)
		if err != nil {
			return nil, err
		}
		m.Timestamp = t
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return msgs, nil
}

// DeleteAllMessages removes every event message.
func DeleteAllMessages(ex execer) error {
	return deleteAll(ex, "dinner_event_messages")
}
