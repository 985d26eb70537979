package core

import (
	"fmt"
	"strings"
)

// Display limits for column summaries and file names.
const (
	MaxColumnNameLen   = 16
	MaxSummaryColumns  = 4
	MaxFileNameDisplay = 25
)

const ellipsis = "..."

// Truncate shortens s to at most n runes, ending in "..." when cut.
// Values of n too small to hold the ellipsis cut without one.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= len(ellipsis) {
		return string(runes[:n])
	}
	return string(runes[:n-len(ellipsis)]) + ellipsis
}

// SummarizeColumns renders a short, human-readable list of header columns,
// e.g. "Id, Name, Email, Phone and 3 more".
func SummarizeColumns(header []string) string {
	if len(header) == 0 {
		return ""
	}

	shown := header
	if len(shown) > MaxSummaryColumns {
		shown = shown[:MaxSummaryColumns]
	}

	names := make([]string, len(shown))
	for i, col := range shown {
		names[i] = Truncate(strings.TrimSpace(col), MaxColumnNameLen)
	}

	summary := strings.Join(names, ", ")
	if extra := len(header) - len(shown); extra > 0 {
		summary += fmt.Sprintf(" and %d more", extra)
	}
	return summary
}

// DisplayFileName shortens a file name for display.
func DisplayFileName(name string) string {
	return Truncate(name, MaxFileNameDisplay)
}
