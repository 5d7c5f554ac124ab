package filter

import (
	"testing"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

func TestToStringSetEmpty(t *testing.T) {
	if ToStringSet(nil) != nil {
		t.Error("ToStringSet(nil) should be nil so it matches everything")
	}
}

func TestEvents(t *testing.T) {
	events := []*model.DinnerEvent{
		{ID: 1, Title: "Dinner A", OrganizerID: 1, Status: model.EventOpen, ParticipantIDs: []int{1, 2}},
		{ID: 2, Title: "Sushi night", OrganizerID: 2, Status: model.EventDecided, ParticipantIDs: []int{2}},
		{ID: 3, Title: "Dinner C", OrganizerID: 2, Status: model.EventClosed, ParticipantIDs: []int{2, 3}},
	}

	tests := []struct {
		name string
		c    EventCriteria
		want []int
	}{
		{"everything", EventCriteria{}, []int{1, 2, 3}},
		{"status", EventCriteria{Statuses: ToStringSet([]string{"OPEN", "CLOSED"})}, []int{1, 3}},
		{"participant", EventCriteria{Participant: 1}, []int{1}},
		{"organizer", EventCriteria{Organizer: 2}, []int{2, 3}},
		{"search", EventCriteria{Search: "dinner"}, []int{1, 3}},
		{"combined", EventCriteria{Organizer: 2, Participant: 3, Search: "DIN"}, []int{3}},
	}
	for _, tt := range tests {
		got := Events(events, tt.c)
		var ids []int
		for _, e := range got {
			ids = append(ids, e.ID)
		}
		if len(ids) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, ids, tt.want)
			continue
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, ids, tt.want)
				break
			}
		}
	}
}
