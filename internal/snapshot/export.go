package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
)

// ExportResult describes a finished export.
type ExportResult struct {
	Archive  []byte
	Manifest *Manifest
}

// Export reads every entity collection inside one read-only transaction and
// returns the archive. Nothing is returned unless the whole archive was built.
func (e *Engine) Export(ctx context.Context) (*ExportResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	log := e.logger.With("op", "export", "op_id", uuid.NewString())

	// SQLite transactions are serializable and the pool has a single
	// connection, so the seven reads share one point-in-time view.
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	snap, err := ReadSnapshot(tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	data, manifest, err := Encode(snap, e.now())
	if err != nil {
		return nil, fmt.Errorf("encoding archive: %w", err)
	}

	log.Info("snapshot exported",
		"archive_id", manifest.ArchiveID,
		"bytes", len(data),
		"users", len(snap.Users),
		"events", len(snap.Events),
		"proposals", len(snap.Proposals),
		"duration", time.Since(start),
	)

	return &ExportResult{Archive: data, Manifest: manifest}, nil
}

// ReadSnapshot loads every collection through tx and maps it to records.
func ReadSnapshot(tx *sql.Tx) (*Snapshot, error) {
	users, err := db.ListAllUsers(tx)
	if err != nil {
		return nil, fmt.Errorf("reading users: %w", err)
	}
	events, err := db.ListAllEvents(tx)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	proposals, err := db.ListAllProposals(tx)
	if err != nil {
		return nil, fmt.Errorf("reading proposals: %w", err)
	}
	dates, err := db.ListAllProposalDates(tx)
	if err != nil {
		return nil, fmt.Errorf("reading proposal dates: %w", err)
	}
	ratings, err := db.ListAllRatings(tx)
	if err != nil {
		return nil, fmt.Errorf("reading ratings: %w", err)
	}
	votes, err := db.ListAllVotes(tx)
	if err != nil {
		return nil, fmt.Errorf("reading votes: %w", err)
	}
	messages, err := db.ListAllMessages(tx)
	if err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}

	return &Snapshot{
		Users:         mapAll(users, UserRecordFrom),
		Events:        mapAll(events, EventRecordFrom),
		Proposals:     mapAll(proposals, ProposalRecordFrom),
		ProposalDates: mapAll(dates, ProposalDateRecordFrom),
		Ratings:       mapAll(ratings, RatingRecordFrom),
		Votes:         mapAll(votes, VoteRecordFrom),
		Messages:      mapAll(messages, MessageRecordFrom),
	}, nil
}
