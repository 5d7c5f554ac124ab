package filter

import (
	"strings"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

// ToStringSet converts a slice of strings to a set for O(1) membership checks.
func ToStringSet(ss []string) map[string]struct{} {
	if len(ss) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return set
}

// EventCriteria narrows an event listing. Zero fields match everything.
type EventCriteria struct {
	Statuses    map[string]struct{} // upper-case status names
	Participant int                 // user that must take part
	Organizer   int                 // user that must organize
	Search      string              // case-insensitive substring of the title
}

// Events returns the events matching every set criterion, keeping order.
func Events(events []*model.DinnerEvent, c EventCriteria) []*model.DinnerEvent {
	search := strings.ToLower(c.Search)
	out := make([]*model.DinnerEvent, 0, len(events))
	for _, e := range events {
		if c.Statuses != nil {
			if _, ok := c.Statuses[string(e.Status)]; !ok {
				continue
			}
		}
		if c.Participant != 0 && !e.HasParticipant(c.Participant) {
			continue
		}
		if c.Organizer != 0 && e.OrganizerID != c.Organizer {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Title), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}
