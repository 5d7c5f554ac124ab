package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

const (
	proposalColumns = `id, location, address, description`
	dateColumns     = `id, date, proposal_id, dinner_event_id`
)

// CreateProposal inserts a proposal for an event, links the two, and adds one
// proposal date per candidate time. Returns the proposal ID and the date IDs.
func CreateProposal(db *sql.DB, eventID int, p *model.Proposal, dates []time.Time) (int, []int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := GetEvent(tx, eventID); err != nil {
		return 0, nil, fmt.Errorf("event %d: %w", eventID, err)
	}

	id, err := InsertProposal(tx, p)
	if err != nil {
		return 0, nil, err
	}
	if err := LinkProposal(tx, eventID, id); err != nil {
		return 0, nil, err
	}

	dateIDs := make([]int, 0, len(dates))
	for _, d := range dates {
		dateID, err := InsertProposalDate(tx, &model.ProposalDate{
			Date:          d,
			ProposalID:    id,
			DinnerEventID: eventID,
		})
		if err != nil {
			return 0, nil, err
		}
		dateIDs = append(dateIDs, dateID)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("committing transaction: %w", err)
	}

	return id, dateIDs, nil
}

// InsertProposal saves the scalar columns of a proposal with a store-assigned
// ID. Event links are written with LinkProposal.
func InsertProposal(ex execer, p *model.Proposal) (int, error) {
	res, err := ex.Exec(
		`INSERT INTO proposals (location, address, description) VALUES (?, ?, ?)`,
		p.Location,
		p.Address,
		p.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting proposal %q: %w", p.Location, err)
	}
	return lastInsertID(res)
}

// GetProposal retrieves a proposal by ID with its event links hydrated.
func GetProposal(q querier, id int) (*model.Proposal, error) {
	row := q.QueryRow(`SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id)
	p, err := scanProposalFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning proposal: %w", err)
	}
	if err := hydrateProposalEvents(q, []*model.Proposal{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// ListAllProposals returns every proposal ordered by ID with event links hydrated.
func ListAllProposals(q querier) ([]*model.Proposal, error) {
	return listProposals(q, `SELECT `+proposalColumns+` FROM proposals ORDER BY id ASC`)
}

// ListProposalsForEvent returns the proposals linked to an event.
func ListProposalsForEvent(q querier, eventID int) ([]*model.Proposal, error) {
	return listProposals(q,
		`SELECT p.id, p.location, p.address, p.description FROM proposals p
		 JOIN event_proposals ep ON ep.proposal_id = p.id
		 WHERE ep.event_id = ? ORDER BY p.id ASC`, eventID)
}

func listProposals(q querier, query string, args ...any) ([]*model.Proposal, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*model.Proposal
	for rows.Next() {
		p, err := scanProposalFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning proposal row: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating proposal rows: %w", err)
	}
	rows.Close()

	if err := hydrateProposalEvents(q, proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

// DeleteAllProposals removes every proposal.
func DeleteAllProposals(ex execer) error {
	return deleteAll(ex, "proposals")
}

// InsertProposalDate saves a proposal date with a store-assigned ID.
func InsertProposalDate(ex execer, d *model.ProposalDate) (int, error) {
	res, err := ex.Exec(
		`INSERT INTO proposal_dates (date, proposal_id, dinner_event_id) VALUES (?, ?, ?)`,
		formatTime(d.Date),
		d.ProposalID,
		d.DinnerEventID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting proposal date for proposal %d: %w", d.ProposalID, err)
	}
	return lastInsertID(res)
}

// GetProposalDate retrieves a proposal date by ID.
func GetProposalDate(q querier, id int) (*model.ProposalDate, error) {
	row := q.QueryRow(`SELECT `+dateColumns+` FROM proposal_dates WHERE id = ?`, id)
	d, err := scanDateFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning proposal date: %w", err)
	}
	return d, nil
}

// ListAllProposalDates returns every proposal date ordered by ID.
func ListAllProposalDates(q querier) ([]*model.ProposalDate, error) {
	return listDates(q, `SELECT `+dateColumns+` FROM proposal_dates ORDER BY id ASC`)
}

// ListProposalDatesForEvent returns the dates proposed for an event, earliest first.
func ListProposalDatesForEvent(q querier, eventID int) ([]*model.ProposalDate, error) {
	return listDates(q,
		`SELECT `+dateColumns+` FROM proposal_dates WHERE dinner_event_id = ? ORDER BY date ASC, id ASC`,
		eventID)
}

func listDates(q querier, query string, args ...any) ([]*model.ProposalDate, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying proposal dates: %w", err)
	}
	defer rows.Close()

	var dates []*model.ProposalDate
	for rows.Next() {
		d, err := scanDateFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning proposal date row: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating proposal date rows: %w", err)
	}
	return dates, nil
}

// DeleteAllProposalDates removes every proposal date.
func DeleteAllProposalDates(ex execer) error {
	return deleteAll(ex, "proposal_dates")
}

// hydrateProposalEvents bulk-loads the event IDs each proposal is linked to.
func hydrateProposalEvents(q querier, proposals []*model.Proposal) error {
	if len(proposals) == 0 {
		return nil
	}

	ids := make([]int, len(proposals))
	for i, p := range proposals {
		ids[i] = p.ID
		p.DinnerEventIDs = []int{}
	}

	links, err := collectIntsIn(q,
		`SELECT proposal_id, event_id FROM event_proposals
		 WHERE proposal_id IN (%s) ORDER BY event_id`, ids)
	if err != nil {
		return fmt.Errorf("querying proposal events: %w", err)
	}

	for _, p := range proposals {
		if l, ok := links[p.ID]; ok {
			p.DinnerEventIDs = l
		}
	}
	return nil
}

func scanProposalFrom(s scanner) (*model.Proposal, error) {
	var p model.Proposal
	var address, description sql.NullString
	if err := s.Scan(&p.ID, &p.Location, &address, &description); err != nil {
		return nil, err
	}
	p.Address = address.String
	p.Description = description.String
	return &p, nil
}

func scanDateFrom(s scanner) (*model.ProposalDate, error) {
	var d model.ProposalDate
	var date string
	if err := s.Scan(&d.ID, &date, &d.ProposalID, &d.DinnerEventID); err != nil {
		return nil, err
	}
	t, err := parseTime("date", date)
	if err != nil {
		return nil, err
	}
	d.Date = t
	return &d, nil
}
