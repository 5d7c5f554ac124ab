package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/dinnerplan/internal/render"
)

var (
	successIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// errorHints is the follow-up line printed under an error of that code.
var errorHints = map[ErrorCode]string{
	ErrArchive:      "Nothing was imported; the store is unchanged.",
	ErrUnauthorized: "Send the admin token as: Authorization: Bearer <token>",
}

// writeHumanSuccess writes a success message to w. One-line confirmations get
// a checkmark; tables, boards and event views are printed as-is.
func writeHumanSuccess(w io.Writer, message string) {
	if message == "" {
		return
	}
	if strings.Contains(message, "\n") || !render.ColorsEnabled() {
		fmt.Fprintln(w, message)
		return
	}
	fmt.Fprintf(w, "%s %s\n", successIcon.Render("✔"), message)
}

// writeHumanError writes err to w, followed by the hint for code if it has one.
func writeHumanError(w io.Writer, err error, code ErrorCode) {
	hint := errorHints[code]

	if !render.ColorsEnabled() {
		fmt.Fprintf(w, "Error: %s\n", err)
		if hint != "" {
			fmt.Fprintln(w, hint)
		}
		return
	}

	fmt.Fprintf(w, "%s %s %s\n", errorStyle.Render("✘"), errorStyle.Render("Error:"), err)
	if hint != "" {
		fmt.Fprintln(w, hintStyle.Render(hint))
	}
}
