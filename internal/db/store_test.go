package db

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

var testDeadline = time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)

func mustCreateUser(t *testing.T, d *sql.DB, name string) int {
	t.Helper()
	id, err := CreateUser(d, &model.User{Username: name, PasswordHash: "hash-" + name, Role: model.RoleParticipant})
	if err != nil {
		t.Fatalf("creating user %q: %v", name, err)
	}
	return id
}

func mustCreateEvent(t *testing.T, d *sql.DB, title string, organizer int) int {
	t.Helper()
	id, err := CreateEvent(d, &model.DinnerEvent{Title: title, OrganizerID: organizer, Deadline: testDeadline})
	if err != nil {
		t.Fatalf("creating event %q: %v", title, err)
	}
	return id
}

func TestCreateUserConflict(t *testing.T) {
	d := mustInit(t)
	mustCreateUser(t, d, "alice")

	_, err := CreateUser(d, &model.User{Username: "alice", PasswordHash: "x", Role: model.RoleAdmin})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	d := mustInit(t)
	if _, err := GetUser(d, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetUserByUsername(d, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateEventEnrollsOrganizer(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventID := mustCreateEvent(t, d, "Dinner A", alice)

	e, err := GetEvent(d, eventID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if e.Status != model.EventOpen {
		t.Errorf("status = %q, want OPEN", e.Status)
	}
	if !e.Deadline.Equal(testDeadline) {
		t.Errorf("deadline = %v, want %v", e.Deadline, testDeadline)
	}
	if len(e.ParticipantIDs) != 1 || e.ParticipantIDs[0] != alice {
		t.Errorf("participants = %v, want [%d]", e.ParticipantIDs, alice)
	}
	if e.SelectedProposalDateID != nil {
		t.Errorf("selected date = %v, want nil", *e.SelectedProposalDateID)
	}
}

func TestCreateEventUnknownOrganizer(t *testing.T) {
	d := mustInit(t)
	_, err := CreateEvent(d, &model.DinnerEvent{Title: "x", OrganizerID: 42, Deadline: testDeadline})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateProposalLinksBothSides(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventID := mustCreateEvent(t, d, "Dinner A", alice)

	when := time.Date(2025, 1, 1, 20, 30, 0, 0, time.UTC)
	pid, dateIDs, err := CreateProposal(d, eventID, &model.Proposal{Location: "Trattoria"}, []time.Time{when})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	if len(dateIDs) != 1 {
		t.Fatalf("dateIDs = %v, want 1 entry", dateIDs)
	}

	p, err := GetProposal(d, pid)
	if err != nil {
		t.Fatalf("GetProposal: %v", err)
	}
	if len(p.DinnerEventIDs) != 1 || p.DinnerEventIDs[0] != eventID {
		t.Errorf("proposal events = %v, want [%d]", p.DinnerEventIDs, eventID)
	}

	e, err := GetEvent(d, eventID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if !e.HasProposal(pid) {
		t.Errorf("event proposals = %v, missing %d", e.ProposalIDs, pid)
	}

	date, err := GetProposalDate(d, dateIDs[0])
	if err != nil {
		t.Fatalf("GetProposalDate: %v", err)
	}
	if !date.Date.Equal(when) || date.ProposalID != pid || date.DinnerEventID != eventID {
		t.Errorf("date = %+v, want %v/%d/%d", date, when, pid, eventID)
	}
}

func TestDecideEvent(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventA := mustCreateEvent(t, d, "Dinner A", alice)
	eventB := mustCreateEvent(t, d, "Dinner B", alice)

	_, datesA, err := CreateProposal(d, eventA, &model.Proposal{Location: "Trattoria"}, []time.Time{testDeadline})
	if err != nil {
		t.Fatalf("CreateProposal A: %v", err)
	}
	_, datesB, err := CreateProposal(d, eventB, &model.Proposal{Location: "Bistro"}, []time.Time{testDeadline})
	if err != nil {
		t.Fatalf("CreateProposal B: %v", err)
	}

	if err := DecideEvent(d, eventA, datesB[0]); !errors.Is(err, ErrDateNotInEvent) {
		t.Fatalf("expected ErrDateNotInEvent, got %v", err)
	}

	if err := DecideEvent(d, eventA, datesA[0]); err != nil {
		t.Fatalf("DecideEvent: %v", err)
	}
	e, err := GetEvent(d, eventA)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if e.Status != model.EventDecided {
		t.Errorf("status = %q, want DECIDED", e.Status)
	}
	if e.SelectedProposalDateID == nil || *e.SelectedProposalDateID != datesA[0] {
		t.Errorf("selected = %v, want %d", e.SelectedProposalDateID, datesA[0])
	}
}

func TestSelectedDateTriggerRejectsForeignDate(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventA := mustCreateEvent(t, d, "Dinner A", alice)
	eventB := mustCreateEvent(t, d, "Dinner B", alice)
	_, datesB, err := CreateProposal(d, eventB, &model.Proposal{Location: "Bistro"}, []time.Time{testDeadline})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}

	if err := SetSelectedProposalDate(d, eventA, datesB[0]); err == nil {
		t.Fatal("expected trigger to reject a date from another event")
	}
}

func TestCastVoteUniqueness(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventID := mustCreateEvent(t, d, "Dinner A", alice)
	_, dates, err := CreateProposal(d, eventID, &model.Proposal{Location: "Trattoria"}, []time.Time{testDeadline})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}

	if _, err := CastVote(d, &model.Vote{UserID: alice, ProposalDateID: dates[0]}); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	_, err = CastVote(d, &model.Vote{UserID: alice, ProposalDateID: dates[0]})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second vote, got %v", err)
	}

	counts, err := CountVotesByDate(d, eventID)
	if err != nil {
		t.Fatalf("CountVotesByDate: %v", err)
	}
	if counts[dates[0]] != 1 {
		t.Errorf("votes for date = %d, want 1", counts[dates[0]])
	}
}

func TestRateProposalReplacesRating(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventID := mustCreateEvent(t, d, "Dinner A", alice)
	pid, _, err := CreateProposal(d, eventID, &model.Proposal{Location: "Trattoria"}, nil)
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}

	for _, liked := range []bool{true, false} {
		if err := RateProposal(d, &model.ProposalRating{UserID: alice, ProposalID: pid, Liked: liked}); err != nil {
			t.Fatalf("RateProposal(%v): %v", liked, err)
		}
	}

	ratings, err := ListAllRatings(d)
	if err != nil {
		t.Fatalf("ListAllRatings: %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("got %d ratings, want 1", len(ratings))
	}
	if ratings[0].Liked {
		t.Error("rating not replaced: liked = true, want false")
	}
}

func TestPostAndListMessages(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventID := mustCreateEvent(t, d, "Dinner A", alice)

	first := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"second", "first"} {
		ts := first.Add(time.Duration(1-i) * time.Hour)
		if _, err := PostMessage(d, &model.DinnerEventMessage{
			EventID: eventID, SenderID: alice, Content: content, Timestamp: ts,
		}); err != nil {
			t.Fatalf("PostMessage: %v", err)
		}
	}

	msgs, err := ListMessages(d, eventID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Errorf("messages not ordered by timestamp: %+v", msgs)
	}
}

func TestWipeOrderLeavesStoreEmpty(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventID := mustCreateEvent(t, d, "Dinner A", alice)
	_, dates, err := CreateProposal(d, eventID, &model.Proposal{Location: "Trattoria"}, []time.Time{testDeadline})
	if err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	if _, err := CastVote(d, &model.Vote{UserID: alice, ProposalDateID: dates[0]}); err != nil {
		t.Fatalf("CastVote: %v", err)
	}
	if err := DecideEvent(d, eventID, dates[0]); err != nil {
		t.Fatalf("DecideEvent: %v", err)
	}

	steps := []func(execer) error{
		DeleteAllVotes, DeleteAllRatings, DeleteAllMessages, ClearEventLinks,
		DeleteAllProposalDates, DeleteAllProposals, DeleteAllEvents, DeleteAllUsers,
	}
	for i, step := range steps {
		if err := step(d); err != nil {
			t.Fatalf("wipe step %d: %v", i, err)
		}
	}

	c, err := CountAll(d)
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if c.Total() != 0 {
		t.Errorf("store not empty after wipe: %+v", c)
	}

	// AUTOINCREMENT: a fresh user never reuses a wiped ID.
	if id := mustCreateUser(t, d, "alice"); id == alice {
		t.Errorf("user ID %d reused after wipe", id)
	}
}

func TestInsertAllStopsOnError(t *testing.T) {
	d := mustInit(t)
	users := []*model.User{
		{Username: "a", PasswordHash: "x", Role: model.RoleAdmin},
		{Username: "a", PasswordHash: "y", Role: model.RoleAdmin},
	}
	if _, err := InsertAll(d, users, InsertUser); err == nil {
		t.Fatal("expected unique violation from InsertAll")
	}
}

// seedEventsAndProposals bulk-inserts n events and n proposals organized by
// userID, linking event i to proposal i and enrolling the organizer.
func seedEventsAndProposals(t *testing.T, d *sql.DB, userID, n int) {
	t.Helper()
	if _, err := d.Exec(
		`WITH RECURSIVE seq(i) AS (SELECT 1 UNION ALL SELECT i + 1 FROM seq WHERE i < ?)
		 INSERT INTO dinner_events (title, organizer_id, deadline)
		 SELECT 'Dinner ' || i, ?, '2025-01-01T20:00:00Z' FROM seq`, n, userID,
	); err != nil {
		t.Fatalf("seeding events: %v", err)
	}
	if _, err := d.Exec(
		`WITH RECURSIVE seq(i) AS (SELECT 1 UNION ALL SELECT i + 1 FROM seq WHERE i < ?)
		 INSERT INTO proposals (location) SELECT 'Place ' || i FROM seq`, n,
	); err != nil {
		t.Fatalf("seeding proposals: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO event_proposals (event_id, proposal_id) SELECT id, id FROM dinner_events`); err != nil {
		t.Fatalf("linking: %v", err)
	}
	if _, err := d.Exec(`INSERT INTO event_participants (event_id, user_id) SELECT id, ? FROM dinner_events`, userID); err != nil {
		t.Fatalf("enrolling: %v", err)
	}
}

func TestListAllBeyondVariableLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("seeds tens of thousands of rows")
	}

	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	const n = 33000 // above SQLite's 32766 bind variables
	seedEventsAndProposals(t, d, alice, n)

	events, err := ListAllEvents(d)
	if err != nil {
		t.Fatalf("ListAllEvents: %v", err)
	}
	if len(events) != n {
		t.Fatalf("got %d events, want %d", len(events), n)
	}
	for _, e := range []*model.DinnerEvent{events[0], events[maxBatchVars], events[n-1]} {
		if len(e.ParticipantIDs) != 1 || e.ParticipantIDs[0] != alice {
			t.Errorf("event %d participants = %v, want [%d]", e.ID, e.ParticipantIDs, alice)
		}
		if len(e.ProposalIDs) != 1 || e.ProposalIDs[0] != e.ID {
			t.Errorf("event %d proposals = %v, want [%d]", e.ID, e.ProposalIDs, e.ID)
		}
	}

	proposals, err := ListAllProposals(d)
	if err != nil {
		t.Fatalf("ListAllProposals: %v", err)
	}
	if len(proposals) != n {
		t.Fatalf("got %d proposals, want %d", len(proposals), n)
	}
	last := proposals[n-1]
	if len(last.DinnerEventIDs) != 1 || last.DinnerEventIDs[0] != last.ID {
		t.Errorf("proposal %d events = %v, want [%d]", last.ID, last.DinnerEventIDs, last.ID)
	}
}

func TestCollectIntsInBatches(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	seedEventsAndProposals(t, d, alice, 2*maxBatchVars+3)

	ids := make([]int, 0, 2*maxBatchVars+3)
	for i := 1; i <= 2*maxBatchVars+3; i++ {
		ids = append(ids, i)
	}

	links, err := collectIntsIn(d,
		`SELECT event_id, proposal_id FROM event_proposals WHERE event_id IN (%s)`, ids)
	if err != nil {
		t.Fatalf("collectIntsIn: %v", err)
	}
	if len(links) != len(ids) {
		t.Fatalf("got %d owners, want %d", len(links), len(ids))
	}
	for _, id := range ids {
		if got := links[id]; len(got) != 1 || got[0] != id {
			t.Errorf("links[%d] = %v, want [%d]", id, got, id)
		}
	}

	empty, err := collectIntsIn(d, `SELECT event_id, proposal_id FROM event_proposals WHERE event_id IN (%s)`, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("collectIntsIn(nil) = %v, %v; want empty", empty, err)
	}
}

func TestMessageTimestampsKeepSubSecondPrecision(t *testing.T) {
	d := mustInit(t)
	alice := mustCreateUser(t, d, "alice")
	eventID := mustCreateEvent(t, d, "Dinner A", alice)

	base := time.Date(2024, 12, 1, 10, 0, 5, 0, time.UTC)
	late := base.Add(700 * time.Millisecond)
	early := base.Add(123456789 * time.Nanosecond)
	for _, m := range []struct {
		content string
		ts      time.Time
	}{{"late", late}, {"whole", base}, {"early", early}} {
		if _, err := PostMessage(d, &model.DinnerEventMessage{
			EventID: eventID, SenderID: alice, Content: m.content, Timestamp: m.ts,
		}); err != nil {
			t.Fatalf("PostMessage: %v", err)
		}
	}

	msgs, err := ListMessages(d, eventID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	want := []struct {
		content string
		ts      time.Time
	}{{"whole", base}, {"early", early}, {"late", late}}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, w := range want {
		if msgs[i].Content != w.content || !msgs[i].Timestamp.Equal(w.ts) {
			t.Errorf("message %d = %q at %v, want %q at %v", i, msgs[i].Content, msgs[i].Timestamp, w.content, w.ts)
		}
	}
}

func TestParseTimeAcceptsWholeSeconds(t *testing.T) {
	got, err := parseTime("deadline", "2025-01-01T20:00:00Z")
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !got.Equal(testDeadline) {
		t.Errorf("parseTime = %v, want %v", got, testDeadline)
	}
	if s := formatTime(testDeadline); s != "2025-01-01T20:00:00.000000000Z" {
		t.Errorf("formatTime = %q", s)
	}
}
