// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tasklist/internal/service"
)

const (
	checkboxOpen = "[ ]"
	checkboxDone = "[x]"
)

// FormatTask formats one task line.
// Format: "{N:>4}  {[ ]|[x]} {TITLE}\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, Checkbox(task), normalizeTitle(task.Title))
}

// FormatTaskWithID is FormatTask followed by the task ID.
// Format: "{N:>4}  {[ ]|[x]} {TITLE}  @{ID}\n"
func FormatTaskWithID(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s  @%s\n", num, Checkbox(task), normalizeTitle(task.Title), task.ID)
}

// Checkbox renders the completion state.
func Checkbox(task service.Task) string {
	if task.Completed {
		return checkboxDone
	}
	return checkboxOpen
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
