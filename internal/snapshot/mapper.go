package snapshot

import (
	"slices"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

// There is deliberately no record -> entity direction here: rebuilding an
// entity needs the remap tables that only exist inside one import.

// UserRecordFrom flattens a user. Returns nil for a nil user.
func UserRecordFrom(u *model.User) *UserRecord {
	if u == nil {
		return nil
	}
	return &UserRecord{
		ID:       u.ID,
		Username: u.Username,
		Password: u.PasswordHash,
		Role:     string(u.Role),
	}
}

// EventRecordFrom flattens an event, keeping participants as IDs. Proposal
// links are carried by the proposal side only.
func EventRecordFrom(e *model.DinnerEvent) *EventRecord {
	if e == nil {
		return nil
	}
	rec := &EventRecord{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		OrganizerID:    e.OrganizerID,
		Deadline:       e.Deadline.UTC(),
		Status:         string(e.Status),
		ParticipantIDs: cloneIDs(e.ParticipantIDs),
	}
	if e.SelectedProposalDateID != nil {
		id := *e.SelectedProposalDateID
		rec.SelectedProposalDateID = &id
	}
	return rec
}

// ProposalRecordFrom flattens a proposal with the IDs of the events it is linked to.
func ProposalRecordFrom(p *model.Proposal) *ProposalRecord {
	if p == nil {
		return nil
	}
	return &ProposalRecord{
		ID:             p.ID,
		DinnerEventIDs: cloneIDs(p.DinnerEventIDs),
		Location:       p.Location,
		Address:        p.Address,
		Description:    p.Description,
	}
}

// ProposalDateRecordFrom flattens a proposal date.
func ProposalDateRecordFrom(d *model.ProposalDate) *ProposalDateRecord {
	if d == nil {
		return nil
	}
	return &ProposalDateRecord{
		ID:            d.ID,
		Date:          d.Date.UTC(),
		ProposalID:    d.ProposalID,
		DinnerEventID: d.DinnerEventID,
	}
}

// RatingRecordFrom flattens a proposal rating.
func RatingRecordFrom(r *model.ProposalRating) *RatingRecord {
	if r == nil {
		return nil
	}
	return &RatingRecord{
		ID:         r.ID,
		UserID:     r.UserID,
		ProposalID: r.ProposalID,
		IsLiked:    r.Liked,
	}
}

// VoteRecordFrom flattens a vote.
func VoteRecordFrom(v *model.Vote) *VoteRecord {
	if v == nil {
		return nil
	}
	return &VoteRecord{
		ID:             v.ID,
		UserID:         v.UserID,
		ProposalDateID: v.ProposalDateID,
	}
}

// MessageRecordFrom flattens an event message.
func MessageRecordFrom(m *model.DinnerEventMessage) *MessageRecord {
	if m == nil {
		return nil
	}
	return &MessageRecord{
		ID:        m.ID,
		EventID:   m.EventID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Timestamp: m.Timestamp.UTC(),
	}
}

// mapAll applies a mapper to every entity, always returning a non-nil slice
// so empty collections encode as [] rather than null.
func mapAll[E any, R any](entities []E, toRecord func(E) *R) []*R {
	out := make([]*R, 0, len(entities))
	for _, e := range entities {
		if r := toRecord(e); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// cloneIDs copies an ID slice so records never alias live entity state.
func cloneIDs(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return slices.Clone(ids)
}
