package snapshot

import (
	"fmt"

	"github.com/ALT-F4-LLC/dinnerplan/internal/planner"
)

// dependencies lists the required references between entries. The selected
// proposal date of an event is a back-reference and is deliberately absent:
// it is wired after every date exists.
var dependencies = []planner.Dependency{
	{Child: EntryEvents, Parent: EntryUsers},
	{Child: EntryProposals, Parent: EntryEvents},
	{Child: EntryProposalDates, Parent: EntryProposals},
	{Child: EntryProposalDates, Parent: EntryEvents},
	{Child: EntryRatings, Parent: EntryUsers},
	{Child: EntryRatings, Parent: EntryProposals},
	{Child: EntryVotes, Parent: EntryUsers},
	{Child: EntryVotes, Parent: EntryProposalDates},
	{Child: EntryMessages, Parent: EntryUsers},
	{Child: EntryMessages, Parent: EntryEvents},
}

// Graph returns the dependency graph between archive entries.
func Graph() *planner.DAG {
	return planner.BuildDAG(Entries, dependencies)
}

// Plan describes how an archive would be applied.
type Plan struct {
	// Levels groups entries whose parents are all in earlier levels.
	Levels [][]string `json:"levels"`
	// Restore is the order entries are inserted in; Wipe the order they are
	// deleted in.
	Restore []string       `json:"restore"`
	Wipe    []string       `json:"wipe"`
	Records map[string]int `json:"records"`
}

// PlanFor checks the fixed restore order against the dependency graph and
// returns the plan for snap.
func PlanFor(snap *Snapshot) (*Plan, error) {
	dag := Graph()
	levels, err := planner.TopoSort(dag)
	if err != nil {
		return nil, err
	}
	if err := planner.CheckOrder(dag, Entries); err != nil {
		return nil, fmt.Errorf("restore order: %w", err)
	}

	return &Plan{
		Levels:  levels,
		Restore: append([]string(nil), Entries...),
		Wipe:    planner.Reverse(Entries),
		Records: snap.Counts(),
	}, nil
}

// Counts returns the number of records per entry.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		EntryUsers:         len(s.Users),
		EntryEvents:        len(s.Events),
		EntryProposals:     len(s.Proposals),
		EntryProposalDates: len(s.ProposalDates),
		EntryRatings:       len(s.Ratings),
		EntryVotes:         len(s.Votes),
		EntryMessages:      len(s.Messages),
	}
}
