package model

import (
	"fmt"
	"time"
)

// EventStatus represents the lifecycle state of a dinner event.
type EventStatus string

const (
	EventOpen    EventStatus = "OPEN"
	EventClosed  EventStatus = "CLOSED"
	EventDecided EventStatus = "DECIDED"
)

var validEventStatuses = []EventStatus{
	EventOpen,
	EventClosed,
	EventDecided,
}

// ValidateEventStatus returns an error if s is not a recognized event status.
func ValidateEventStatus(s EventStatus) error {
	for _, v := range validEventStatuses {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("invalid event status %q: must be one of %v", s, validEventStatuses)
}

// Color returns a color name string suitable for terminal rendering.
func (s EventStatus) Color() string {
	switch s {
	case EventOpen:
		return "green"
	case EventClosed:
		return "gray"
	case EventDecided:
		return "blue"
	default:
		return "white"
	}
}

// Icon returns a single-glyph marker for the status.
func (s EventStatus) Icon() string {
	switch s {
	case EventOpen:
		return "○"
	case EventClosed:
		return "✗"
	case EventDecided:
		return "✔"
	default:
		return "?"
	}
}

// DinnerEvent is a planned dinner. Relationships are held as surrogate IDs:
// ParticipantIDs and ProposalIDs are hydrated from the join tables, and
// SelectedProposalDateID is only set once the event has been decided.
type DinnerEvent struct {
	ID                     int         `json:"id"`
	Title                  string      `json:"title"`
	Description            string      `json:"description"`
	OrganizerID            int         `json:"organizer_id"`
	Deadline               time.Time   `json:"deadline"`
	Status                 EventStatus `json:"status"`
	SelectedProposalDateID *int        `json:"selected_proposal_date_id,omitempty"`
	ParticipantIDs         []int       `json:"participant_ids"`
	ProposalIDs            []int       `json:"proposal_ids"`
}

// HasProposal reports whether the proposal is linked to the event.
func (e *DinnerEvent) HasProposal(proposalID int) bool {
	for _, id := range e.ProposalIDs {
		if id == proposalID {
			return true
		}
	}
	return false
}

// HasParticipant reports whether the user takes part in the event.
func (e *DinnerEvent) HasParticipant(userID int) bool {
	for _, id := range e.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DinnerEventMessage is a chat message posted to an event.
type DinnerEventMessage struct {
	ID        int       `json:"id"`
	EventID   int       `json:"event_id"`
	SenderID  int       `json:"sender_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
