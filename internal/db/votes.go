package db

import (
	"database/sql"
	"fmt"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

// CastVote records a user's vote for a proposal date. A repeated vote for the
// same date yields ErrConflict.
func CastVote(db *sql.DB, vote *model.Vote) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := GetUser(tx, vote.UserID); err != nil {
		return 0, fmt.Errorf("user %d: %w", vote.UserID, err)
	}
	if _, err := GetProposalDate(tx, vote.ProposalDateID); err != nil {
		return 0, fmt.Errorf("proposal date %d: %w", vote.ProposalDateID, err)
	}

	id, err := InsertVote(tx, vote)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("user %d already voted for date %d: %w", vote.UserID, vote.ProposalDateID, ErrConflict)
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

// InsertVote saves a vote with a store-assigned ID.
func InsertVote(ex execer, vote *model.Vote) (int, error) {
	res, err := ex.Exec(
		`INSERT INTO votes (user_id, proposal_date_id) VALUES (?, ?)`,
		vote.UserID, vote.ProposalDateID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting vote of user %d: %w", vote.UserID, err)
	}
	return lastInsertID(res)
}

// ListAllVotes returns every vote ordered by ID.
func ListAllVotes(q querier) ([]*model.Vote, error) {
	rows, err := q.Query(`SELECT id, user_id, proposal_date_id FROM votes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying all votes: %w", err)
	}
	defer rows.Close()

	var votes []*model.Vote
	for rows.Next() {
		var v model.Vote
		if err := rows.Scan(&v.ID, &v.UserID, &v.ProposalDateID); err != nil {
			return nil, fmt.Errorf("scanning vote row: %w", err)
		}
		votes = append(votes, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vote rows: %w", err)
	}
	return votes, nil
}

// CountVotesByDate returns proposal date ID -> number of votes for an event.
func CountVotesByDate(q querier, eventID int) (map[int]int, error) {
	rows, err := q.Query(
		`SELECT pd.id, COUNT(v.id) FROM proposal_dates pd
		 LEFT JOIN votes v ON v.proposal_date_id = pd.id
		 WHERE pd.dinner_event_id = ?
		 GROUP BY pd.id`, eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting votes: %w", err)
	}
	defer rows.Close()

	result := make(map[int]int)
	for rows.Next() {
		var dateID, count int
		if err := rows.Scan(&dateID, &count); err != nil {
			return nil, fmt.Errorf("scanning vote count: %w", err)
		}
		result[dateID] = count
	}
	return result, rows.Err()
}

// DeleteAllVotes removes every vote.
func DeleteAllVotes(ex execer) error {
	return deleteAll(ex, "votes")
}

// RateProposal records or replaces a user's rating of a proposal.
func RateProposal(db *sql.DB, rating *model.ProposalRating) error {
	if _, err := GetProposal(db, rating.ProposalID); err != nil {
		return fmt.Errorf("proposal %d: %w", rating.ProposalID, err)
	}
	_, err := db.Exec(
		`INSERT INTO proposal_ratings (user_id, proposal_id, liked) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, proposal_id) DO UPDATE SET liked = excluded.liked`,
		rating.UserID, rating.ProposalID, rating.Liked,
	)
	if err != nil {
		return fmt.Errorf("rating proposal %d: %w", rating.ProposalID, err)
	}
	return nil
}

// InsertRating saves a rating with a store-assigned ID.
func InsertRating(ex execer, rating *model.ProposalRating) (int, error) {
	res, err := ex.Exec(
		`INSERT INTO proposal_ratings (user_id, proposal_id, liked) VALUES (?, ?, ?)`,
		rating.UserID, rating.ProposalID, rating.Liked,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting rating of user %d: %w", rating.UserID, err)
	}
	return lastInsertID(res)
}

// ListAllRatings returns every proposal rating ordered by ID.
func ListAllRatings(q querier) ([]*model.ProposalRating, error) {
	rows, err := q.Query(`SELECT id, user_id, proposal_id, liked FROM proposal_ratings ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying all ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*model.ProposalRating
	for rows.Next() {
		var r model.ProposalRating
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProposalID, &r.Liked); err != nil {
			return nil, fmt.Errorf("scanning rating row: %w", err)
		}
		ratings = append(ratings, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rating rows: %w", err)
	}
	return ratings, nil
}

// DeleteAllRatings removes every proposal rating.
func DeleteAllRatings(ex execer) error {
	return deleteAll(ex, "proposal_ratings")
}
