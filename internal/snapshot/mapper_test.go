package snapshot

import (
	"testing"
	"time"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

func TestMappersReturnNilForNil(t *testing.T) {
	if UserRecordFrom(nil) != nil ||
		EventRecordFrom(nil) != nil ||
		ProposalRecordFrom(nil) != nil ||
		ProposalDateRecordFrom(nil) != nil ||
		RatingRecordFrom(nil) != nil ||
		VoteRecordFrom(nil) != nil ||
		MessageRecordFrom(nil) != nil {
		t.Error("a mapper returned a record for nil input")
	}
}

func TestEventRecordFromCopiesLinks(t *testing.T) {
	selected := 9
	ev := &model.DinnerEvent{
		ID:                     3,
		Title:                  "Dinner A",
		OrganizerID:            1,
		Deadline:               time.Date(2025, 3, 1, 19, 0, 0, 0, time.FixedZone("CET", 3600)),
		Status:                 model.EventDecided,
		SelectedProposalDateID: &selected,
		ParticipantIDs:         []int{1, 2},
		ProposalIDs:            []int{4},
	}

	rec := EventRecordFrom(ev)
	if rec.OrganizerID != 1 || rec.Status != "DECIDED" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Deadline.Location() != time.UTC || !rec.Deadline.Equal(ev.Deadline) {
		t.Errorf("deadline = %v, want %v in UTC", rec.Deadline, ev.Deadline)
	}

	ev.ParticipantIDs[0] = 100
	selected = 10
	if rec.ParticipantIDs[0] != 1 {
		t.Error("participant IDs alias the entity")
	}
	if *rec.SelectedProposalDateID != 9 {
		t.Error("selected date aliases the entity")
	}
}

func TestEventRecordFromUndecided(t *testing.T) {
	rec := EventRecordFrom(&model.DinnerEvent{ID: 1, Title: "t", OrganizerID: 1, Status: model.EventOpen})
	if rec.SelectedProposalDateID != nil {
		t.Errorf("selected date = %v, want nil", *rec.SelectedProposalDateID)
	}
	if rec.ParticipantIDs == nil {
		t.Error("nil participants should map to an empty list")
	}
}

func TestProposalRecordFromCopiesEvents(t *testing.T) {
	p := &model.Proposal{ID: 2, Location: "Trattoria", Address: "1 Via Roma", DinnerEventIDs: []int{3, 4}}
	rec := ProposalRecordFrom(p)
	p.DinnerEventIDs[1] = 99
	if rec.DinnerEventIDs[1] != 4 {
		t.Error("event IDs alias the entity")
	}
	if rec.Location != "Trattoria" || rec.Address != "1 Via Roma" {
		t.Errorf("record = %+v", rec)
	}
}

func TestScalarMappers(t *testing.T) {
	u := UserRecordFrom(&model.User{ID: 1, Username: "alice", PasswordHash: "h", Role: model.RoleAdmin})
	if u.Password != "h" || u.Role != "ADMIN" {
		t.Errorf("user record = %+v", u)
	}
	r := RatingRecordFrom(&model.ProposalRating{ID: 5, UserID: 1, ProposalID: 2, Liked: true})
	if !r.IsLiked || r.ProposalID != 2 {
		t.Errorf("rating record = %+v", r)
	}
	v := VoteRecordFrom(&model.Vote{ID: 6, UserID: 1, ProposalDateID: 7})
	if v.ProposalDateID != 7 {
		t.Errorf("vote record = %+v", v)
	}
	d := ProposalDateRecordFrom(&model.ProposalDate{ID: 7, ProposalID: 2, DinnerEventID: 3, Date: testDate1})
	if d.ProposalID != 2 || d.DinnerEventID != 3 {
		t.Errorf("date record = %+v", d)
	}
	m := MessageRecordFrom(&model.DinnerEventMessage{ID: 8, EventID: 3, SenderID: 1, Content: "hi", Timestamp: testSent})
	if m.EventID != 3 || m.SenderID != 1 || m.Content != "hi" {
		t.Errorf("message record = %+v", m)
	}
}

func TestMapAllSkipsNil(t *testing.T) {
	out := mapAll([]*model.Vote{nil, {ID: 1, UserID: 1, ProposalDateID: 1}}, VoteRecordFrom)
	if len(out) != 1 {
		t.Errorf("len = %d, want 1", len(out))
	}
	if empty := mapAll([]*model.Vote(nil), VoteRecordFrom); empty == nil {
		t.Error("mapAll(nil) should return an empty slice")
	}
}
