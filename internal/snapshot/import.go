package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

// ImportResult summarizes a committed import.
type ImportResult struct {
	Wiped    db.Counts `json:"wiped"`
	Restored db.Counts `json:"restored"`
	// DroppedLinks counts participant and event/proposal memberships whose
	// target was not in the archive.
	DroppedLinks int `json:"dropped_links"`
	// SkippedDuplicates counts votes and ratings that repeated an earlier
	// (user, target) pair.
	SkippedDuplicates int `json:"skipped_duplicates"`
	// DryRun is set when nothing was committed.
	DryRun bool  `json:"dry_run,omitempty"`
	Plan   *Plan `json:"plan,omitempty"`
}

// Import atomically replaces the whole store with the content of archive.
// The archive is decoded and validated before anything is written; the wipe
// and every restore phase share one transaction, so on any error the store is
// left exactly as it was.
func (e *Engine) Import(ctx context.Context, archive []byte) (*ImportResult, error) {
	snap, err := Decode(archive)
	if err != nil {
		return nil, err
	}
	return e.Restore(ctx, snap)
}

// Restore replaces the store with a snapshot built in memory. The snapshot is
// held to the same checks as a decoded archive: a null record, an invalid
// record or a repeated ID yields ErrMalformedArchive before anything is
// written.
func (e *Engine) Restore(ctx context.Context, snap *Snapshot) (*ImportResult, error) {
	return e.apply(ctx, snap, true)
}

// DryRun decodes archive and runs the complete import inside a transaction
// that is always rolled back. It reports what Import would do, including any
// dangling reference, without changing the store.
func (e *Engine) DryRun(ctx context.Context, archive []byte) (*ImportResult, error) {
	snap, err := Decode(archive)
	if err != nil {
		return nil, err
	}
	return e.apply(ctx, snap, false)
}

func (e *Engine) apply(ctx context.Context, snap *Snapshot, commit bool) (*ImportResult, error) {
	if err := snap.validate(); err != nil {
		return nil, err
	}
	plan, err := PlanFor(snap)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	log := e.logger.With("op", "import", "op_id", uuid.NewString(), "dry_run", !commit)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r := newRestorer(tx, log)
	r.result.Plan = plan
	r.result.DryRun = !commit
	if err := r.run(plan, snap); err != nil {
		log.Warn("snapshot import rolled back", "error", err)
		return nil, err
	}

	if !commit {
		log.Info("snapshot dry run complete", "duration", time.Since(start))
		return &r.result, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	log.Info("snapshot imported",
		"users", r.result.Restored.Users,
		"events", r.result.Restored.Events,
		"proposals", r.result.Restored.Proposals,
		"dropped_links", r.result.DroppedLinks,
		"skipped_duplicates", r.result.SkippedDuplicates,
		"duration", time.Since(start),
	)
	return &r.result, nil
}

// dateOwner records which proposal and event a restored date belongs to.
type dateOwner struct {
	proposal int
	event    int
}

// restorer carries the remap tables of a single import. Every table maps an
// archive (old) ID to the ID the store assigned to its replacement. None of
// this state outlives the import call that created it.
type restorer struct {
	tx  *sql.Tx
	log *slog.Logger

	users     map[int]int
	events    map[int]int
	proposals map[int]int
	dates     map[int]int

	// eventProposals holds the restored event -> proposal links, and
	// dateOwners the parents of each restored date, for the final
	// selected-date check.
	eventProposals map[int]map[int]struct{}
	dateOwners     map[int]dateOwner

	result ImportResult
}

func newRestorer(tx *sql.Tx, log *slog.Logger) *restorer {
	return &restorer{
		tx:             tx,
		log:            log,
		users:          make(map[int]int),
		events:         make(map[int]int),
		proposals:      make(map[int]int),
		dates:          make(map[int]int),
		eventProposals: make(map[int]map[int]struct{}),
		dateOwners:     make(map[int]dateOwner),
	}
}

// run executes the wipe and the restore phases in order. Each phase only
// reads remap tables filled by earlier ones.
func (r *restorer) run(plan *Plan, snap *Snapshot) error {
	phases := []struct {
		name string
		fn   func() error
	}{
		{"wipe", func() error { return r.wipe(plan.Wipe) }},
		{EntryUsers, func() error { return r.restoreUsers(snap.Users) }},
		{EntryEvents, func() error { return r.restoreEvents(snap.Events) }},
		{EntryProposals, func() error { return r.restoreProposals(snap.Proposals) }},
		{EntryProposalDates, func() error { return r.restoreProposalDates(snap.ProposalDates) }},
		{"associations", func() error { return r.restoreAssociations(snap) }},
		{"selected_dates", func() error { return r.linkSelectedDates(snap.Events) }},
	}

	for i, p := range phases {
		if err := p.fn(); err != nil {
			return fmt.Errorf("phase %d (%s): %w", i, p.name, err)
		}
		r.log.Debug("phase complete", "phase", i, "name", p.name)
	}
	return nil
}

// wipe deletes everything leaf-to-root in the given entry order. N:M links
// and the selected-date back-reference are broken first, before the rows they
// join are deleted. SQLite applies each statement immediately, so no explicit
// flush is needed before the inserts that follow.
func (r *restorer) wipe(order []string) error {
	before, err := db.CountAll(r.tx)
	if err != nil {
		return err
	}
	r.result.Wiped = before

	tx := r.tx
	deletes := map[string]func() error{
		EntryVotes:         func() error { return db.DeleteAllVotes(tx) },
		EntryRatings:       func() error { return db.DeleteAllRatings(tx) },
		EntryMessages:      func() error { return db.DeleteAllMessages(tx) },
		EntryProposalDates: func() error { return db.DeleteAllProposalDates(tx) },
		EntryProposals:     func() error { return db.DeleteAllProposals(tx) },
		EntryEvents:        func() error { return db.DeleteAllEvents(tx) },
		EntryUsers:         func() error { return db.DeleteAllUsers(tx) },
	}

	if err := db.ClearEventLinks(r.tx); err != nil {
		return err
	}
	for _, entry := range order {
		del, ok := deletes[entry]
		if !ok {
			return fmt.Errorf("no delete step for %s", entry)
		}
		if err := del(); err != nil {
			return err
		}
	}
	return nil
}

func (r *restorer) restoreUsers(records []*UserRecord) error {
	for _, rec := range records {
		id, err := db.InsertUser(r.tx, &model.User{
			Username:     rec.Username,
			PasswordHash: rec.Password,
			Role:         model.Role(rec.Role),
		})
		if err != nil {
			return err
		}
		r.users[rec.ID] = id
		r.result.Restored.Users++
	}
	return nil
}

// restoreEvents creates events with their organizer and participants. The
// selected date is left empty until linkSelectedDates; proposal links are
// added from the proposal side.
func (r *restorer) restoreEvents(records []*EventRecord) error {
	for _, rec := range records {
		organizer, ok := r.users[rec.OrganizerID]
		if !ok {
			return &DanglingRefError{Entry: EntryEvents, ID: rec.ID, Field: "organizerId", TargetID: rec.OrganizerID}
		}

		id, err := db.InsertEvent(r.tx, &model.DinnerEvent{
			Title:       rec.Title,
			Description: rec.Description,
			OrganizerID: organizer,
			Deadline:    rec.Deadline,
			Status:      model.EventStatus(rec.Status),
		})
		if err != nil {
			return err
		}
		r.events[rec.ID] = id
		r.eventProposals[id] = make(map[int]struct{})
		r.result.Restored.Events++

		for _, oldUser := range rec.ParticipantIDs {
			user, ok := r.users[oldUser]
			if !ok {
				r.dropLink(EntryEvents, rec.ID, "participantIds", oldUser)
				continue
			}
			if err := db.AddParticipant(r.tx, id, user); err != nil {
				return err
			}
		}
	}
	return nil
}

// restoreProposals creates proposals and rebuilds the event/proposal join.
// One join row serves both sides of the link.
func (r *restorer) restoreProposals(records []*ProposalRecord) error {
	for _, rec := range records {
		id, err := db.InsertProposal(r.tx, &model.Proposal{
			Location:    rec.Location,
			Address:     rec.Address,
			Description: rec.Description,
		})
		if err != nil {
			return err
		}
		r.proposals[rec.ID] = id
		r.result.Restored.Proposals++

		for _, oldEvent := range rec.DinnerEventIDs {
			event, ok := r.events[oldEvent]
			if !ok {
				r.dropLink(EntryProposals, rec.ID, "dinnerEventIds", oldEvent)
				continue
			}
			if err := db.LinkProposal(r.tx, event, id); err != nil {
				return err
			}
			r.eventProposals[event][id] = struct{}{}
		}
	}
	return nil
}

// restoreProposalDates requires both parents; a date whose proposal or event
// is not in the archive means the archive is corrupt.
func (r *restorer) restoreProposalDates(records []*ProposalDateRecord) error {
	for _, rec := range records {
		proposal, ok := r.proposals[rec.ProposalID]
		if !ok {
			return &DanglingRefError{Entry: EntryProposalDates, ID: rec.ID, Field: "proposalId", TargetID: rec.ProposalID}
		}
		event, ok := r.events[rec.DinnerEventID]
		if !ok {
			return &DanglingRefError{Entry: EntryProposalDates, ID: rec.ID, Field: "dinnerEventId", TargetID: rec.DinnerEventID}
		}

		id, err := db.InsertProposalDate(r.tx, &model.ProposalDate{
			Date:          rec.Date,
			ProposalID:    proposal,
			DinnerEventID: event,
		})
		if err != nil {
			return err
		}
		r.dates[rec.ID] = id
		r.dateOwners[id] = dateOwner{proposal: proposal, event: event}
		r.result.Restored.ProposalDates++
	}
	return nil
}

// restoreAssociations restores ratings, votes and messages. They do not
// reference each other, only entities restored in earlier phases.
func (r *restorer) restoreAssociations(snap *Snapshot) error {
	ratings, err := r.resolveRatings(snap.Ratings)
	if err != nil {
		return err
	}
	if _, err := db.InsertAll(r.tx, ratings, db.InsertRating); err != nil {
		return fmt.Errorf("restoring ratings: %w", err)
	}
	r.result.Restored.Ratings = len(ratings)

	votes, err := r.resolveVotes(snap.Votes)
	if err != nil {
		return err
	}
	if _, err := db.InsertAll(r.tx, votes, db.InsertVote); err != nil {
		return fmt.Errorf("restoring votes: %w", err)
	}
	r.result.Restored.Votes = len(votes)

	messages, err := r.resolveMessages(snap.Messages)
	if err != nil {
		return err
	}
	if _, err := db.InsertAll(r.tx, messages, db.InsertMessage); err != nil {
		return fmt.Errorf("restoring messages: %w", err)
	}
	r.result.Restored.Messages = len(messages)

	return nil
}

func (r *restorer) resolveRatings(records []*RatingRecord) ([]*model.ProposalRating, error) {
	out := make([]*model.ProposalRating, 0, len(records))
	seen := make(map[[2]int]struct{}, len(records))
	for _, rec := range records {
		user, ok := r.users[rec.UserID]
		if !ok {
			return nil, &DanglingRefError{Entry: EntryRatings, ID: rec.ID, Field: "userId", TargetID: rec.UserID}
		}
		proposal, ok := r.proposals[rec.ProposalID]
		if !ok {
			return nil, &DanglingRefError{Entry: EntryRatings, ID: rec.ID, Field: "proposalId", TargetID: rec.ProposalID}
		}
		key := [2]int{user, proposal}
		if _, dup := seen[key]; dup {
			r.result.SkippedDuplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, &model.ProposalRating{UserID: user, ProposalID: proposal, Liked: rec.IsLiked})
	}
	return out, nil
}

func (r *restorer) resolveVotes(records []*VoteRecord) ([]*model.Vote, error) {
	out := make([]*model.Vote, 0, len(records))
	seen := make(map[[2]int]struct{}, len(records))
	for _, rec := range records {
		user, ok := r.users[rec.UserID]
		if !ok {
			return nil, &DanglingRefError{Entry: EntryVotes, ID: rec.ID, Field: "userId", TargetID: rec.UserID}
		}
		date, ok := r.dates[rec.ProposalDateID]
		if !ok {
			return nil, &DanglingRefError{Entry: EntryVotes, ID: rec.ID, Field: "proposalDateId", TargetID: rec.ProposalDateID}
		}
		key := [2]int{user, date}
		if _, dup := seen[key]; dup {
			r.result.SkippedDuplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, &model.Vote{UserID: user, ProposalDateID: date})
	}
	return out, nil
}

func (r *restorer) resolveMessages(records []*MessageRecord) ([]*model.DinnerEventMessage, error) {
	out := make([]*model.DinnerEventMessage, 0, len(records))
	for _, rec := range records {
		event, ok := r.events[rec.EventID]
		if !ok {
			return nil, &DanglingRefError{Entry: EntryMessages, ID: rec.ID, Field: "eventId", TargetID: rec.EventID}
		}
		sender, ok := r.users[rec.SenderID]
		if !ok {
			return nil, &DanglingRefError{Entry: EntryMessages, ID: rec.ID, Field: "senderId", TargetID: rec.SenderID}
		}
		out = append(out, &model.DinnerEventMessage{
			EventID:   event,
			SenderID:  sender,
			Content:   rec.Content,
			Timestamp: rec.Timestamp,
		})
	}
	return out, nil
}

// linkSelectedDates wires the one back-reference that cannot be resolved
// before every proposal date exists.
func (r *restorer) linkSelectedDates(records []*EventRecord) error {
	for _, rec := range records {
		if rec.SelectedProposalDateID == nil {
			continue
		}
		oldDate := *rec.SelectedProposalDateID
		date, ok := r.dates[oldDate]
		if !ok {
			return &DanglingRefError{Entry: EntryEvents, ID: rec.ID, Field: "selectedProposalDateId", TargetID: oldDate}
		}

		event := r.events[rec.ID]
		owner := r.dateOwners[date]
		if _, linked := r.eventProposals[event][owner.proposal]; owner.event != event || !linked {
			return fmt.Errorf("events %d: selectedProposalDateId %d: %w", rec.ID, oldDate, ErrSelectionMismatch)
		}

		if err := db.SetSelectedProposalDate(r.tx, event, date); err != nil {
			return err
		}
	}
	return nil
}

func (r *restorer) dropLink(entry string, id int, field string, target int) {
	r.result.DroppedLinks++
	r.log.Debug("dropping unresolved link", "entry", entry, "id", id, "field", field, "target", target)
}
