package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vinayprograms/kaal/internal/config"
	"github.com/vinayprograms/kaal/internal/task"
)

// Styles are the terminal styles tasks are drawn with.
type Styles struct {
	Open      lipgloss.Style
	Done      lipgloss.Style
	Cancelled lipgloss.Style
	Date      lipgloss.Style
	Overdue   lipgloss.Style
	Today     lipgloss.Style
	Heading   lipgloss.Style
	Dim       lipgloss.Style
}

// NewStyles builds styles from a color scheme.
func NewStyles(cs config.ColorScheme) Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Open:      fg(cs.OpenColor),
		Done:      fg(cs.DoneColor),
		Cancelled: fg(cs.CancelledColor).Strikethrough(true),
		Date:      fg(cs.DateColor),
		Overdue:   fg(cs.OverdueColor).Bold(true),
		Today:     fg(cs.TodayColor).Bold(true),
		Heading:   fg(cs.HeadingColor).Bold(true),
		Dim:       fg(cs.DoneColor),
	}
}

// Status returns the style of a task's status.
func (s Styles) Status(t *task.Task) lipgloss.Style {
	switch {
	case t.IsDone():
		return s.Done
	case t.IsCancelled():
		return s.Cancelled
	}
	return s.Open
}
