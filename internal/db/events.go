package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

const eventColumns = `id, title, description, organizer_id, deadline, status, selected_proposal_date_id`

// ErrDateNotInEvent is returned when a proposal date is selected for an event
// it was not proposed for.
var ErrDateNotInEvent = errors.New("proposal date does not belong to event")

// CreateEvent inserts a new event and enrolls its organizer as the first
// participant, in one transaction.
func CreateEvent(db *sql.DB, event *model.DinnerEvent) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := GetUser(tx, event.OrganizerID); err != nil {
		return 0, fmt.Errorf("organizer %d: %w", event.OrganizerID, err)
	}

	id, err := InsertEvent(tx, event)
	if err != nil {
		return 0, err
	}

	if err := AddParticipant(tx, id, event.OrganizerID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	return id, nil
}

// InsertEvent saves the scalar columns and organizer of an event with a
// store-assigned ID. Participants, proposal links and the selected date are
// written separately. Safe to call inside a transaction.
func InsertEvent(ex execer, event *model.DinnerEvent) (int, error) {
	status := event.Status
	if status == "" {
		status = model.EventOpen
	}
	res, err := ex.Exec(
		`INSERT INTO dinner_events (title, description, organizer_id, deadline, status)
		 VALUES (?, ?, ?, ?, ?)`,
		event.Title,
		event.Description,
		event.OrganizerID,
		formatTime(event.Deadline),
		string(status),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting event %q: %w", event.Title, err)
	}
	return lastInsertID(res)
}

// AddParticipant enrolls a user in an event. Joining twice is a no-op.
func AddParticipant(ex execer, eventID, userID int) error {
	if _, err := ex.Exec(
		`INSERT OR IGNORE INTO event_participants (event_id, user_id) VALUES (?, ?)`,
		eventID, userID,
	); err != nil {
		return fmt.Errorf("adding participant %d to event %d: %w", userID, eventID, err)
	}
	return nil
}

// LinkProposal records the event/proposal association. Linking twice is a no-op.
func LinkProposal(ex execer, eventID, proposalID int) error {
	if _, err := ex.Exec(
		`INSERT OR IGNORE INTO event_proposals (event_id, proposal_id) VALUES (?, ?)`,
		eventID, proposalID,
	); err != nil {
		return fmt.Errorf("linking proposal %d to event %d: %w", proposalID, eventID, err)
	}
	return nil
}

// SetSelectedProposalDate points the event at one of its proposal dates.
// The schema trigger rejects dates that belong to another event.
func SetSelectedProposalDate(ex execer, eventID, dateID int) error {
	res, err := ex.Exec(
		`UPDATE dinner_events SET selected_proposal_date_id = ? WHERE id = ?`,
		dateID, eventID,
	)
	if err != nil {
		return fmt.Errorf("selecting date %d for event %d: %w", dateID, eventID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEventStatus changes the lifecycle status of an event.
func SetEventStatus(ex execer, eventID int, status model.EventStatus) error {
	if err := model.ValidateEventStatus(status); err != nil {
		return err
	}
	res, err := ex.Exec(`UPDATE dinner_events SET status = ? WHERE id = ?`, string(status), eventID)
	if err != nil {
		return fmt.Errorf("updating status of event %d: %w", eventID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DecideEvent selects the winning date and marks the event DECIDED.
func DecideEvent(db *sql.DB, eventID, dateID int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	date, err := GetProposalDate(tx, dateID)
	if err != nil {
		return fmt.Errorf("proposal date %d: %w", dateID, err)
	}
	if date.DinnerEventID != eventID {
		return ErrDateNotInEvent
	}

	if err := SetSelectedProposalDate(tx, eventID, dateID); err != nil {
		return err
	}
	if err := SetEventStatus(tx, eventID, model.EventDecided); err != nil {
		return err
	}

	return tx.Commit()
}

// GetEvent retrieves an event by ID with participants and proposal links hydrated.
func GetEvent(q querier, id int) (*model.DinnerEvent, error) {
	row := q.QueryRow(`SELECT `+eventColumns+` FROM dinner_events WHERE id = ?`, id)
	e, err := scanEventFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}

	if err := hydrateEventLinks(q, []*model.DinnerEvent{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListAllEvents returns every event ordered by ID, with participants and
// proposal links hydrated.
func ListAllEvents(q querier) ([]*model.DinnerEvent, error) {
	rows, err := q.Query(`SELECT ` + eventColumns + ` FROM dinner_events ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying all events: %w", err)
	}
	defer rows.Close()

	var events []*model.DinnerEvent
	for rows.Next() {
		e, err := scanEventFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}
	rows.Close()

	if err := hydrateEventLinks(q, events); err != nil {
		return nil, err
	}
	return events, nil
}

// ClearEventLinks breaks every event's N:M edges and its selected-date
// reference so the joined entities can be deleted.
func ClearEventLinks(ex execer) error {
	if _, err := ex.Exec(`UPDATE dinner_events SET selected_proposal_date_id = NULL`); err != nil {
		return fmt.Errorf("clearing selected proposal dates: %w", err)
	}
	if err := deleteAll(ex, "event_participants"); err != nil {
		return err
	}
	return deleteAll(ex, "event_proposals")
}

// DeleteAllEvents removes every event.
func DeleteAllEvents(ex execer) error {
	return deleteAll(ex, "dinner_events")
}

// hydrateEventLinks bulk-loads participant and proposal IDs for a set of
// events. Both slices are non-nil afterwards.
func hydrateEventLinks(q querier, events []*model.DinnerEvent) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]int, len(events))
	for i, e := range events {
		ids[i] = e.ID
		e.ParticipantIDs = []int{}
		e.ProposalIDs = []int{}
	}

	participants, err := collectIntsIn(q,
		`SELECT event_id, user_id FROM event_participants
		 WHERE event_id IN (%s) ORDER BY user_id`, ids)
	if err != nil {
		return fmt.Errorf("querying participants: %w", err)
	}

	proposals, err := collectIntsIn(q,
		`SELECT event_id, proposal_id FROM event_proposals
		 WHERE event_id IN (%s) ORDER BY proposal_id`, ids)
	if err != nil {
		return fmt.Errorf("querying proposal links: %w", err)
	}

	for _, e := range events {
		if p, ok := participants[e.ID]; ok {
			e.ParticipantIDs = p
		}
		if p, ok := proposals[e.ID]; ok {
			e.ProposalIDs = p
		}
	}
	return nil
}

func scanEventFrom(s scanner) (*model.DinnerEvent, error) {
	var e model.DinnerEvent
	var description sql.NullString
	var deadline string
	var selected sql.NullInt64

	err := s.Scan(&e.ID, &e.Title, &description, &e.OrganizerID, &deadline, &e.Status, &selected)
	if err != nil {
		return nil, err
	}

	e.Description = description.String
	if selected.Valid {
		id := int(selected.Int64)
		e.SelectedProposalDateID = &id
	}

	t, err := parseTime("deadline", deadline)
	if err != nil {
		return nil, err
	}
	e.Deadline = t

	return &e, nil
}
