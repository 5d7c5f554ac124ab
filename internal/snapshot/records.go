// Package snapshot exports the whole store to a portable archive and restores
// it again, remapping every surrogate identifier on the way back in.
package snapshot

import "time"

// Records are flat: scalar fields plus raw foreign-key IDs from the store the
// archive was taken from. They never nest other entities, so the archive stays
// acyclic even though events and proposals reference each other.

// UserRecord is the archived form of a user.
type UserRecord struct {
	ID       int    `json:"id" validate:"gt=0"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"oneof=ADMIN ORGANIZER PARTICIPANT"`
}

// EventRecord is the archived form of a dinner event.
type EventRecord struct {
	ID                     int       `json:"id" validate:"gt=0"`
	Title                  string    `json:"title" validate:"required"`
	Description            string    `json:"description"`
	OrganizerID            int       `json:"organizerId" validate:"gt=0"`
	Deadline               time.Time `json:"deadline" validate:"required"`
	SelectedProposalDateID *int      `json:"selectedProposalDateId" validate:"omitempty,gt=0"`
	Status                 string    `json:"status" validate:"oneof=OPEN CLOSED DECIDED"`
	ParticipantIDs         []int     `json:"participantIds"`
}

// ProposalRecord is the archived form of a proposal.
type ProposalRecord struct {
	ID             int    `json:"id" validate:"gt=0"`
	DinnerEventIDs []int  `json:"dinnerEventIds"`
	Location       string `json:"location" validate:"required"`
	Address        string `json:"address"`
	Description    string `json:"description"`
}

// ProposalDateRecord is the archived form of a proposal date. Both parents
// are required.
type ProposalDateRecord struct {
	ID            int       `json:"id" validate:"gt=0"`
	Date          time.Time `json:"date" validate:"required"`
	ProposalID    int       `json:"proposalId" validate:"gt=0"`
	DinnerEventID int       `json:"dinnerEventId" validate:"gt=0"`
}

// RatingRecord is the archived form of a proposal rating.
type RatingRecord struct {
	ID         int  `json:"id" validate:"gt=0"`
	UserID     int  `json:"userId" validate:"gt=0"`
	ProposalID int  `json:"proposalId" validate:"gt=0"`
	IsLiked    bool `json:"isLiked"`
}

// VoteRecord is the archived form of a vote.
type VoteRecord struct {
	ID             int `json:"id" validate:"gt=0"`
	UserID         int `json:"userId" validate:"gt=0"`
	ProposalDateID int `json:"proposalDateId" validate:"gt=0"`
}

// MessageRecord is the archived form of an event message.
type MessageRecord struct {
	ID        int       `json:"id" validate:"gt=0"`
	EventID   int       `json:"eventId" validate:"gt=0"`
	SenderID  int       `json:"senderId" validate:"gt=0"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// Snapshot is the decoded content of an archive: one ordered record list per
// entity type.
type Snapshot struct {
	Users         []*UserRecord
	Events        []*EventRecord
	Proposals     []*ProposalRecord
	ProposalDates []*ProposalDateRecord
	Ratings       []*RatingRecord
	Votes         []*VoteRecord
	Messages      []*MessageRecord
}
