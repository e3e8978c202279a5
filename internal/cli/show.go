package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/vinayprograms/kaal/internal/calendar"
)

func (a *app) showCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:       "show day|week|month [NAME]",
		Short:     "Render a periodic note",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"day", "week", "month"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			period, name, err := a.periodNote(args[0], name)
			if err != nil {
				return err
			}
			text, err := a.service.Note(cmd.Context(), period, name)
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprint(a.out, text)
				return nil
			}
			return a.render(text)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown unrendered")
	return cmd
}

// periodNote resolves the period word and an optional name, defaulting to
// the current day, week or month.
func (a *app) periodNote(word, name string) (calendar.Period, string, error) {
	switch word {
	case "day":
		if name == "" || name == "today" {
			name = a.service.Today()
		}
		return calendar.Daily, name, nil
	case "week":
		if name == "" {
			name = a.service.ThisWeek()
		}
		return calendar.Weekly, name, nil
	case "month":
		if name == "" {
			name = a.service.ThisMonth()
		}
		return calendar.Monthly, name, nil
	}
	return "", "", fmt.Errorf("unknown period %q: use day, week or month", word)
}

func (a *app) render(text string) error {
	style := "dark"
	if a.cfg.ColorMode == "light" {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(text)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, out)
	return nil
}
