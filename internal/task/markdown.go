package task

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

var (
	boldRe     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.+?)\*`)
	strikeRe   = regexp.MustCompile(`~~(.+?)~~`)
	codeRe     = regexp.MustCompile("`([^`]+)`")
	wikilinkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)
	tagRe      = regexp.MustCompile(`(^|\s)(#[A-Za-z][\w/-]*)`)
)

// RenderDescription styles a task description for the terminal. The
// markdown markers are hidden; base carries the status color.
func RenderDescription(description string, base lipgloss.Style) string {
	description = codeRe.ReplaceAllStringFunc(description, func(match string) string {
		content := codeRe.FindStringSubmatch(match)[1]
		return lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Render(content)
	})

	// [[Note|alias]] shows the alias, [[Note]] the note name
	description = wikilinkRe.ReplaceAllStringFunc(description, func(match string) string {
		m := wikilinkRe.FindStringSubmatch(match)
		label := m[1]
		if m[2] != "" {
			label = m[2]
		}
		return base.Underline(true).Render(label)
	})

	description = boldRe.ReplaceAllStringFunc(description, func(match string) string {
		content := boldRe.FindStringSubmatch(match)[1]
		return lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true).Render(content)
	})

	description = italicRe.ReplaceAllStringFunc(description, func(match string) string {
		content := italicRe.FindStringSubmatch(match)[1]
		return base.Italic(true).Render(content)
	})

	description = strikeRe.ReplaceAllStringFunc(description, func(match string) string {
		content := strikeRe.FindStringSubmatch(match)[1]
		return base.Strikethrough(true).Render(content)
	})

	description = tagRe.ReplaceAllStringFunc(description, func(match string) string {
		m := tagRe.FindStringSubmatch(match)
		return m[1] + lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Render(m[2])
	})

	return description
}
