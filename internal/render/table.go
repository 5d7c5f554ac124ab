package render

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ALT-F4-LLC/dinnerplan/internal/db"
	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

const maxTitleWidth = 40

// StyledText applies a lipgloss style to text when colors are enabled.
// When colors are disabled, it returns the plain text unchanged.
func StyledText(text string, style lipgloss.Style) string {
	if ColorsEnabled() {
		return style.Render(text)
	}
	return text
}

// ColorFromName maps model color name strings to lipgloss colors.
func ColorFromName(name string) lipgloss.Color {
	switch name {
	case "red":
		return lipgloss.Color("9")
	case "yellow":
		return lipgloss.Color("11")
	case "blue":
		return lipgloss.Color("12")
	case "green":
		return lipgloss.Color("10")
	case "gray":
		return lipgloss.Color("8")
	default:
		return lipgloss.Color("15")
	}
}

// truncate shortens a string to maxLen runes, appending an ellipsis if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// statusLabel returns a status string with icon, e.g. "✔ DECIDED".
func statusLabel(s model.EventStatus) string {
	return s.Icon() + " " + string(s)
}

// EmptyState renders a styled empty-state message with an optional contextual hint.
// When colors are enabled the message is rendered in dim gray and the hint is italic.
// When quiet is true the hint is suppressed.
func EmptyState(message, hint string, quiet bool) string {
	if !ColorsEnabled() {
		if quiet || hint == "" {
			return message
		}
		return message + "\n" + hint
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	result := dimStyle.Render(message)
	if !quiet && hint != "" {
		result += "\n" + hintStyle.Render(hint)
	}
	return result
}

// grid renders headers and rows as a bordered lipgloss table, or as
// tab-separated lines when colors are disabled. colorOf optionally colors the
// cell at (row, col).
func grid(headers []string, rows [][]string, colorOf func(row, col int) string) string {
	if !ColorsEnabled() {
		var b strings.Builder
		b.WriteString(strings.Join(headers, "\t"))
		b.WriteString("\n")
		for _, r := range rows {
			b.WriteString(strings.Join(r, "\t"))
			b.WriteString("\n")
		}
		return b.String()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(lipgloss.Color("15"))
			}
			if colorOf != nil {
				if c := colorOf(row, col); c != "" {
					return s.Foreground(ColorFromName(c))
				}
			}
			return s
		})

	return t.Render()
}

// RenderEventTable renders events as a table. usernames resolves organizer IDs.
func RenderEventTable(events []*model.DinnerEvent, usernames map[int]string) string {
	if len(events) == 0 {
		return EmptyState("No dinner events found.", "Create one with: dinnerplan event create", false)
	}

	headers := []string{"ID", "Status", "Title", "Organizer", "Deadline", "Guests", "Proposals"}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			model.FormatID(e.ID),
			statusLabel(e.Status),
			truncate(e.Title, maxTitleWidth),
			usernameOr(usernames, e.OrganizerID),
			humanize.Time(e.Deadline),
			strconv.Itoa(len(e.ParticipantIDs)),
			strconv.Itoa(len(e.ProposalIDs)),
		})
	}

	return grid(headers, rows, func(row, col int) string {
		if col == 1 && row >= 0 && row < len(events) {
			return events[row].Status.Color()
		}
		return ""
	})
}

// RenderUserTable renders users as a table. Password hashes are never shown.
func RenderUserTable(users []*model.User) string {
	if len(users) == 0 {
		return EmptyState("No users found.", "Create one with: dinnerplan user add", false)
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{model.FormatID(u.ID), u.Username, string(u.Role)})
	}
	return grid([]string{"ID", "Username", "Role"}, rows, nil)
}

// RenderCounts renders per-collection row counts, as shown by `stats` and
// after an import.
func RenderCounts(title string, c db.Counts) string {
	rows := [][]string{
		{"users", humanize.Comma(int64(c.Users))},
		{"events", humanize.Comma(int64(c.Events))},
		{"proposals", humanize.Comma(int64(c.Proposals))},
		{"proposal dates", humanize.Comma(int64(c.ProposalDates))},
		{"ratings", humanize.Comma(int64(c.Ratings))},
		{"votes", humanize.Comma(int64(c.Votes))},
		{"messages", humanize.Comma(int64(c.Messages))},
	}
	header := StyledText(title, lipgloss.NewStyle().Bold(true))
	return header + "\n" + strings.TrimRight(grid([]string{"Collection", "Rows"}, rows, nil), "\n")
}

// RenderMessages renders an event's chat in posting order.
func RenderMessages(msgs []*model.DinnerEventMessage, usernames map[int]string) string {
	if len(msgs) == 0 {
		return EmptyState("No messages yet.", "Post one with: dinnerplan message <event-id> <text>", false)
	}

	senderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var lines []string
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			StyledText(usernameOr(usernames, m.SenderID), senderStyle),
			StyledText(humanize.Time(m.Timestamp), dimStyle),
			m.Content,
		))
	}
	return strings.Join(lines, "\n")
}

func usernameOr(usernames map[int]string, id int) string {
	if name, ok := usernames[id]; ok {
		return name
	}
	return model.FormatID(id)
}
