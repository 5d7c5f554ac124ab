package render

import (
	"fmt"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

const (
	maxCardsPerColumn = 10
	minColumnWidth    = 24
	defaultTermWidth  = 100
	cardPadding       = 2 // left+right padding inside cards
)

// StatusOrder defines the left-to-right column order for the board.
var StatusOrder = []model.EventStatus{
	model.EventOpen,
	model.EventDecided,
	model.EventClosed,
}

// RenderBoard renders events as a board with one column per status.
func RenderBoard(events []*model.DinnerEvent) string {
	if len(events) == 0 {
		return ""
	}

	if !ColorsEnabled() {
		return renderPlainBoard(events)
	}

	return renderColorBoard(events)
}

// terminalWidth returns the current terminal width, falling back to a default.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

// groupByStatus groups events by status and returns the statuses that have
// at least one event, in board order.
func groupByStatus(events []*model.DinnerEvent) (map[model.EventStatus][]*model.DinnerEvent, []model.EventStatus) {
	groups := make(map[model.EventStatus][]*model.DinnerEvent)
	for _, e := range events {
		groups[e.Status] = append(groups[e.Status], e)
	}

	var active []model.EventStatus
	for _, s := range StatusOrder {
		if len(groups[s]) > 0 {
			active = append(active, s)
		}
	}
	return groups, active
}

func renderColorBoard(events []*model.DinnerEvent) string {
	groups, active := groupByStatus(events)
	if len(active) == 0 {
		return ""
	}

	tw := terminalWidth()
	gaps := len(active) - 1
	colWidth := max((tw-gaps)/len(active), minColumnWidth)
	contentWidth := max(colWidth-cardPadding-2, 5)

	columns := make([]string, 0, len(active))
	for _, status := range active {
		columns = append(columns, renderColorColumn(status, groups[status], colWidth, contentWidth))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func renderColorColumn(status model.EventStatus, events []*model.DinnerEvent, colWidth, contentWidth int) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorFromName(status.Color())).
		Width(colWidth).
		Align(lipgloss.Center)

	header := headerStyle.Render(fmt.Sprintf("%s %s (%d)", status.Icon(), status, len(events)))

	visible, overflow := clip(events)

	cards := make([]string, 0, len(visible)+2)
	cards = append(cards, header)
	for _, e := range visible {
		cards = append(cards, renderColorCard(e, colWidth, contentWidth))
	}

	if overflow > 0 {
		moreStyle := lipgloss.NewStyle().
			Width(colWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("8"))
		cards = append(cards, moreStyle.Render(fmt.Sprintf("+%d more", overflow)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderColorCard(e *model.DinnerEvent, colWidth, contentWidth int) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	lines := []string{
		model.FormatID(e.ID),
		lipgloss.NewStyle().Bold(true).Render(truncate(e.Title, contentWidth)),
		dim.Render(truncate(cardSummary(e), contentWidth)),
	}

	cardStyle := lipgloss.NewStyle().
		Width(colWidth-2).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorFromName(e.Status.Color()))

	return cardStyle.Render(strings.Join(lines, "\n"))
}

// cardSummary is the one-line digest shown under an event title.
func cardSummary(e *model.DinnerEvent) string {
	return fmt.Sprintf("%d guests, %d proposals, %s",
		len(e.ParticipantIDs), len(e.ProposalIDs), humanize.Time(e.Deadline))
}

func clip(events []*model.DinnerEvent) ([]*model.DinnerEvent, int) {
	if len(events) > maxCardsPerColumn {
		return events[:maxCardsPerColumn], len(events) - maxCardsPerColumn
	}
	return events, 0
}

// --- Plain text fallback ---

func renderPlainBoard(events []*model.DinnerEvent) string {
	groups, active := groupByStatus(events)

	var b strings.Builder
	for i, status := range active {
		if i > 0 {
			b.WriteString("\n")
		}

		inCol := groups[status]
		fmt.Fprintf(&b, "=== %s (%d) ===\n", status, len(inCol))

		visible, overflow := clip(inCol)
		for _, e := range visible {
			fmt.Fprintf(&b, "  %s %s\n", model.FormatID(e.ID), truncate(e.Title, maxTitleWidth))
			fmt.Fprintf(&b, "  %s\n\n", cardSummary(e))
		}
		if overflow > 0 {
			fmt.Fprintf(&b, "  +%d more\n", overflow)
		}
	}

	return b.String()
}
