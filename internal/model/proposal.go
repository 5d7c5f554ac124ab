package model

import "time"

// Proposal is a place suggested for one or more dinner events.
// DinnerEventIDs is the inverse side of the event/proposal link.
type Proposal struct {
	ID             int    `json:"id"`
	Location       string `json:"location"`
	Address        string `json:"address"`
	Description    string `json:"description"`
	DinnerEventIDs []int  `json:"dinner_event_ids"`
}

// ProposalDate is a candidate date for a proposal, scoped to the event it was
// proposed for.
type ProposalDate struct {
	ID            int       `json:"id"`
	Date          time.Time `json:"date"`
	ProposalID    int       `json:"proposal_id"`
	DinnerEventID int       `json:"dinner_event_id"`
}

// Vote is a user's vote for a proposal date. At most one per (user, date).
type Vote struct {
	ID             int `json:"id"`
	UserID         int `json:"user_id"`
	ProposalDateID int `json:"proposal_date_id"`
}

// ProposalRating is a like/dislike of a proposal. At most one per (user, proposal).
type ProposalRating struct {
	ID         int  `json:"id"`
	UserID     int  `json:"user_id"`
	ProposalID int  `json:"proposal_id"`
	Liked      bool `json:"liked"`
}
