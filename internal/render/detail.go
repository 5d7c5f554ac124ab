package render

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

// EventDetail is everything `event show` displays about one event.
type EventDetail struct {
	Event        *model.DinnerEvent
	Usernames    map[int]string
	Proposals    []ProposalDetail
	Messages     []*model.DinnerEventMessage
	Participants []string
}

// ProposalDetail is a proposal of the event with its dates and ratings.
type ProposalDetail struct {
	Proposal *model.Proposal
	Dates    []DateDetail
	Likes    int
	Dislikes int
}

// DateDetail is a candidate date with its vote tally.
type DateDetail struct {
	Date     *model.ProposalDate
	Votes    int
	Selected bool
}

// RenderEventDetail renders the full view of an event: metadata, description,
// proposals with their dates and votes, and the latest messages.
func RenderEventDetail(d EventDetail) string {
	if !ColorsEnabled() {
		return renderPlainDetail(d)
	}

	sections := []string{renderHeader(d.Event), renderMetadata(d)}

	if d.Event.Description != "" {
		sections = append(sections, renderDescription(d.Event.Description))
	}
	if len(d.Proposals) > 0 {
		sections = append(sections, renderProposalTree(d.Proposals))
	}
	if len(d.Messages) > 0 {
		sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
		sections = append(sections, sectionStyle.Render(fmt.Sprintf("Messages (%d)", len(d.Messages)))+"\n"+
			RenderMessages(d.Messages, d.Usernames))
	}

	return strings.Join(sections, "\n\n")
}

func renderHeader(e *model.DinnerEvent) string {
	idStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	titleStyle := lipgloss.NewStyle().Bold(true)
	statusStyle := lipgloss.NewStyle().
		Foreground(ColorFromName(e.Status.Color())).
		Bold(true)

	return fmt.Sprintf("%s  %s\n%s",
		idStyle.Render(model.FormatID(e.ID)),
		titleStyle.Render(e.Title),
		statusStyle.Render(statusLabel(e.Status)),
	)
}

func renderMetadata(d EventDetail) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	lines := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Organizer:"), usernameOr(d.Usernames, d.Event.OrganizerID)),
		fmt.Sprintf("%s %s (%s)", labelStyle.Render("Deadline:"),
			d.Event.Deadline.Local().Format("Mon Jan 2 15:04"), humanize.Time(d.Event.Deadline)),
	}
	if len(d.Participants) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Guests:"), strings.Join(d.Participants, ", ")))
	}
	return strings.Join(lines, "\n")
}

func renderDescription(description string) string {
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	header := sectionStyle.Render("Description")

	rendered, err := RenderMarkdown(description)
	if err != nil {
		rendered = description
	}

	return header + "\n" + rendered
}

func renderProposalTree(proposals []ProposalDetail) string {
	locStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selStyle := lipgloss.NewStyle().Foreground(ColorFromName(model.EventDecided.Color())).Bold(true)

	t := tree.New().Root(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Proposals"))
	for _, p := range proposals {
		label := fmt.Sprintf("%s %s %s",
			dimStyle.Render(model.FormatID(p.Proposal.ID)),
			locStyle.Render(p.Proposal.Location),
			dimStyle.Render(ratingSummary(p)),
		)
		node := tree.Root(label)
		for _, d := range p.Dates {
			line := dateLine(d)
			if d.Selected {
				line = selStyle.Render(line + " ✔")
			}
			node.Child(line)
		}
		t.Child(node)
	}
	return t.String()
}

func ratingSummary(p ProposalDetail) string {
	s := fmt.Sprintf("+%d/-%d", p.Likes, p.Dislikes)
	if p.Proposal.Address != "" {
		s = p.Proposal.Address + "  " + s
	}
	return s
}

func dateLine(d DateDetail) string {
	return fmt.Sprintf("%s %s  %d %s",
		model.FormatID(d.Date.ID),
		d.Date.Date.Local().Format("Mon Jan 2 15:04"),
		d.Votes,
		pluralize("vote", d.Votes),
	)
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func renderPlainDetail(d EventDetail) string {
	e := d.Event
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", model.FormatID(e.ID), e.Title)
	fmt.Fprintf(&b, "Status: %s\n", e.Status)
	fmt.Fprintf(&b, "Organizer: %s\n", usernameOr(d.Usernames, e.OrganizerID))
	fmt.Fprintf(&b, "Deadline: %s\n", e.Deadline.UTC().Format("2006-01-02 15:04 MST"))
	if len(d.Participants) > 0 {
		fmt.Fprintf(&b, "Guests: %s\n", strings.Join(d.Participants, ", "))
	}

	if e.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", e.Description)
	}

	if len(d.Proposals) > 0 {
		b.WriteString("\nProposals:\n")
		for _, p := range d.Proposals {
			fmt.Fprintf(&b, "  %s %s %s\n", model.FormatID(p.Proposal.ID), p.Proposal.Location, ratingSummary(p))
			for _, date := range p.Dates {
				marker := ""
				if date.Selected {
					marker = " (selected)"
				}
				fmt.Fprintf(&b, "    %s %s  %d %s%s\n",
					model.FormatID(date.Date.ID),
					date.Date.Date.UTC().Format("2006-01-02 15:04 MST"),
					date.Votes, pluralize("vote", date.Votes), marker)
			}
		}
	}

	if len(d.Messages) > 0 {
		fmt.Fprintf(&b, "\nMessages (%d):\n", len(d.Messages))
		for _, m := range d.Messages {
			fmt.Fprintf(&b, "  %s: %s\n", usernameOr(d.Usernames, m.SenderID), m.Content)
		}
	}

	return b.String()
}
