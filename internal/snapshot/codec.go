package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// Manifest describes an archive. It is written after the data entries and
// never needed to restore one.
type Manifest struct {
	ArchiveID  string         `json:"archiveId"`
	ExportedAt time.Time      `json:"exportedAt"`
	Counts     map[string]int `json:"counts"`
}

// Encode serializes a snapshot into an archive: the seven entries in their
// fixed order followed by a manifest.
func Encode(snap *Snapshot, exportedAt time.Time) ([]byte, *Manifest, error) {
	lists := []struct {
		name    string
		records any
		count   int
	}{
		{EntryUsers, nonNil(snap.Users), len(snap.Users)},
		{EntryEvents, nonNil(snap.Events), len(snap.Events)},
		{EntryProposals, nonNil(snap.Proposals), len(snap.Proposals)},
		{EntryProposalDates, nonNil(snap.ProposalDates), len(snap.ProposalDates)},
		{EntryRatings, nonNil(snap.Ratings), len(snap.Ratings)},
		{EntryVotes, nonNil(snap.Votes), len(snap.Votes)},
		{EntryMessages, nonNil(snap.Messages), len(snap.Messages)},
	}

	manifest := &Manifest{
		ArchiveID:  uuid.NewString(),
		ExportedAt: exportedAt.UTC(),
		Counts:     make(map[string]int, len(lists)),
	}

	entries := make([]archiveEntry, 0, len(lists)+1)
	for _, l := range lists {
		payload, err := encodeJSON(l.records)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding %s: %w", l.name, err)
		}
		entries = append(entries, archiveEntry{name: l.name, payload: payload})
		manifest.Counts[l.name] = l.count
	}

	payload, err := encodeJSON(manifest)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding manifest: %w", err)
	}
	entries = append(entries, archiveEntry{name: EntryManifest, payload: payload})

	data, err := writeArchive(entries, exportedAt)
	if err != nil {
		return nil, nil, err
	}
	return data, manifest, nil
}

// Decode parses and validates every required entry of an archive. Unknown
// entries are ignored; a missing required entry, bad JSON, an invalid record
// or a repeated ID within an entry yields ErrMalformedArchive.
func Decode(data []byte) (*Snapshot, error) {
	entries, err := readArchive(data)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	targets := []struct {
		name   string
		decode func([]byte) error
	}{
		{EntryUsers, func(b []byte) error { return decodeEntry(EntryUsers, b, &snap.Users) }},
		{EntryEvents, func(b []byte) error { return decodeEntry(EntryEvents, b, &snap.Events) }},
		{EntryProposals, func(b []byte) error { return decodeEntry(EntryProposals, b, &snap.Proposals) }},
		{EntryProposalDates, func(b []byte) error { return decodeEntry(EntryProposalDates, b, &snap.ProposalDates) }},
		{EntryRatings, func(b []byte) error { return decodeEntry(EntryRatings, b, &snap.Ratings) }},
		{EntryVotes, func(b []byte) error { return decodeEntry(EntryVotes, b, &snap.Votes) }},
		{EntryMessages, func(b []byte) error { return decodeEntry(EntryMessages, b, &snap.Messages) }},
	}

	for _, t := range targets {
		payload, ok := entries[t.name]
		if !ok {
			return nil, malformed("missing required entry %q", t.name)
		}
		if err := t.decode(payload); err != nil {
			return nil, err
		}
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// ReadManifest returns the manifest of an archive, or nil if it has none.
func ReadManifest(data []byte) (*Manifest, error) {
	entries, err := readArchive(data)
	if err != nil {
		return nil, err
	}
	payload, ok := entries[EntryManifest]
	if !ok {
		return nil, nil
	}
	var m Manifest
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, malformed("parsing manifest: %v", err)
	}
	return &m, nil
}

// decodeEntry unmarshals one entry into dst. A null entry decodes as empty.
func decodeEntry[R any](name string, payload []byte, dst *[]*R) error {
	var records []*R
	if err := json.Unmarshal(payload, &records); err != nil {
		return malformed("parsing %s: %v", name, err)
	}
	if records == nil {
		records = []*R{}
	}
	*dst = records
	return nil
}

// validate checks every record of every entry and rejects repeated IDs within
// an entry. It runs before any restore, whether or not the snapshot came from
// Decode.
func (s *Snapshot) validate() error {
	if s == nil {
		return malformed("no snapshot")
	}
	checks := []func() error{
		func() error { return checkRecords(EntryUsers, s.Users, userID) },
		func() error { return checkRecords(EntryEvents, s.Events, eventID) },
		func() error { return checkRecords(EntryProposals, s.Proposals, proposalID) },
		func() error { return checkRecords(EntryProposalDates, s.ProposalDates, dateID) },
		func() error { return checkRecords(EntryRatings, s.Ratings, ratingID) },
		func() error { return checkRecords(EntryVotes, s.Votes, voteID) },
		func() error { return checkRecords(EntryMessages, s.Messages, messageID) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func checkRecords[R any](name string, records []*R, idOf func(*R) int) error {
	seen := make(map[int]struct{}, len(records))
	for i, r := range records {
		if r == nil {
			return malformed("%s[%d]: null record", name, i)
		}
		if err := validate.Struct(r); err != nil {
			return malformed("%s[%d]: %v", name, i, err)
		}
		id := idOf(r)
		if _, dup := seen[id]; dup {
			return malformed("%s[%d]: duplicate id %d", name, i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func userID(r *UserRecord) int         { return r.ID }
func eventID(r *EventRecord) int       { return r.ID }
func proposalID(r *ProposalRecord) int { return r.ID }
func dateID(r *ProposalDateRecord) int { return r.ID }
func ratingID(r *RatingRecord) int     { return r.ID }
func voteID(r *VoteRecord) int         { return r.ID }
func messageID(r *MessageRecord) int   { return r.ID }

// encodeJSON marshals v without HTML escaping so payloads stay readable.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// nonNil turns a nil record slice into an empty one so it encodes as [].
func nonNil[R any](records []*R) []*R {
	if records == nil {
		return []*R{}
	}
	return records
}
