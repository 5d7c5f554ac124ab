package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID parses a positive numeric surrogate ID as typed on the command line.
// An optional leading "#" is accepted so IDs can be pasted from list output.
func ParseID(input string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(input), "#")
	if s == "" {
		return 0, fmt.Errorf("empty ID")
	}

	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q: %w", input, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid ID %q: must be positive", input)
	}

	return id, nil
}

// FormatID returns the display form of an ID, e.g. "#5".
func FormatID(id int) string {
	return "#" + strconv.Itoa(id)
}
