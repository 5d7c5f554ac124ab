package model

import "testing"

func TestParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{"#5", 5, false},
		{" 42 ", 42, false},
		{"", 0, true},
		{"#", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-1", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, id := range []int{1, 5, 42, 999} {
		parsed, err := ParseID(FormatID(id))
		if err != nil {
			t.Errorf("ParseID(FormatID(%d)) error: %v", id, err)
			continue
		}
		if parsed != id {
			t.Errorf("ParseID(FormatID(%d)) = %d", id, parsed)
		}
	}
}

func TestValidateRole(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleOrganizer, RoleParticipant} {
		if err := ValidateRole(r); err != nil {
			t.Errorf("ValidateRole(%q) unexpected error: %v", r, err)
		}
	}
	if err := ValidateRole("organizer"); err == nil {
		t.Error("ValidateRole('organizer') expected error, got nil")
	}
}

func TestValidateEventStatus(t *testing.T) {
	for _, s := range []EventStatus{EventOpen, EventClosed, EventDecided} {
		if err := ValidateEventStatus(s); err != nil {
			t.Errorf("ValidateEventStatus(%q) unexpected error: %v", s, err)
		}
	}
	if err := ValidateEventStatus("PENDING"); err == nil {
		t.Error("ValidateEventStatus('PENDING') expected error, got nil")
	}
}

func TestEventStatusColorAndIcon(t *testing.T) {
	tests := []struct {
		status EventStatus
		color  string
		icon   string
	}{
		{EventOpen, "green", "○"},
		{EventClosed, "gray", "✗"},
		{EventDecided, "blue", "✔"},
		{"bogus", "white", "?"},
	}
	for _, tt := range tests {
		if got := tt.status.Color(); got != tt.color {
			t.Errorf("%q.Color() = %q, want %q", tt.status, got, tt.color)
		}
		if got := tt.status.Icon(); got != tt.icon {
			t.Errorf("%q.Icon() = %q, want %q", tt.status, got, tt.icon)
		}
	}
}

func TestDinnerEventMembership(t *testing.T) {
	e := &DinnerEvent{ParticipantIDs: []int{1, 3}, ProposalIDs: []int{7}}
	if !e.HasParticipant(3) || e.HasParticipant(2) {
		t.Errorf("HasParticipant mismatch for %v", e.ParticipantIDs)
	}
	if !e.HasProposal(7) || e.HasProposal(8) {
		t.Errorf("HasProposal mismatch for %v", e.ProposalIDs)
	}
}
