package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/classify"
	"github.com/vinayprograms/kaal/internal/dashboard"
	"github.com/vinayprograms/kaal/internal/metadata"
	"github.com/vinayprograms/kaal/internal/task"
)

func (a *app) viewCmd(period, short string) *cobra.Command {
	var asJSON, all bool
	cmd := &cobra.Command{
		Use:   period + " [NAME]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			v, err := a.view(cmd.Context(), period, name)
			if err != nil {
				return err
			}
			if asJSON {
				return a.writeJSON(dashboard.ViewToResult(v))
			}
			a.printView(v, all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list empty days too")
	return cmd
}

func (a *app) view(ctx context.Context, period, name string) (*dashboard.View, error) {
	switch period {
	case "week":
		return a.service.Week(ctx, name)
	case "month":
		return a.service.Month(ctx, name)
	}
	return a.service.Day(ctx, name)
}

func (a *app) agendaCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "agenda [DAY]",
		Short: "Open tasks due or scheduled by a day, and tasks completed that day",
		Long: `The agenda of a day (default today): open tasks due or scheduled on or
before it, overdue included, and tasks completed on it. Subtasks are
listed under their parent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := ""
			if len(args) == 1 {
				day = args[0]
			}
			return a.printAgenda(cmd.Context(), day, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the agenda as JSON")
	return cmd
}

func (a *app) printAgenda(ctx context.Context, day string, asJSON bool) error {
	at := calendar.ParseInput(day, a.cfg.Location())
	if day != "" && !at.Present() {
		return fmt.Errorf("invalid day %q: use YYYY-MM-DD", day)
	}
	ag, err := a.service.Agenda(ctx, at)
	if err != nil {
		return err
	}
	if asJSON {
		return a.writeJSON(dashboard.AgendaToResult(ag))
	}

	fmt.Fprintln(a.out, a.styles.Heading.Render(fmt.Sprintf("Agenda %s %s",
		calendar.FormatDay(ag.Day.Start), ag.Day.Start.Weekday())))
	if len(ag.Tasks) == 0 {
		fmt.Fprintln(a.out, "Nothing on the agenda")
		return nil
	}
	var walk func(ts []*task.Task, depth int)
	walk = func(ts []*task.Task, depth int) {
		for _, t := range ts {
			fmt.Fprintln(a.out, strings.Repeat("  ", depth)+a.taskLine(t, ag.Day))
			walk(t.Children, depth+1)
		}
	}
	walk(ag.Forest, 0)
	return nil
}

// taskLine renders one task: checkbox, description, the date that placed
// it and where it lives.
func (a *app) taskLine(t *task.Task, day calendar.Window) string {
	style := a.styles.Status(t)
	parts := []string{
		style.Render(fmt.Sprintf("[%c]", t.Status)),
		task.RenderDescription(t.Description, style),
	}
	if d := a.dateCell(t, day); d != "" {
		parts = append(parts, d)
	}
	parts = append(parts, a.styles.Dim.Render(ref(t)))
	return strings.Join(parts, " ")
}

func (a *app) dateCell(t *task.Task, day calendar.Window) string {
	switch {
	case t.IsDone() && !t.Dates.Completion.IsZero():
		return a.styles.Dim.Render("✅ " + t.Dates.Completion.Format(metadata.DateLayout))
	case !t.Dates.Due.IsZero():
		return a.dateStyle(t, t.Dates.Due, day).Render("📅 " + t.Dates.Due.Format(metadata.DateLayout))
	case !t.Dates.Scheduled.IsZero():
		return a.dateStyle(t, t.Dates.Scheduled, day).Render("⏳ " + t.Dates.Scheduled.Format(metadata.DateLayout))
	}
	return ""
}

// dateStyle marks open tasks overdue before day and due on it.
func (a *app) dateStyle(t *task.Task, d time.Time, day calendar.Window) lipgloss.Style {
	switch {
	case !t.IsOpen():
		return a.styles.Dim
	case d.Before(day.Start):
		return a.styles.Overdue
	case calendar.WithinTime(d, day):
		return a.styles.Today
	}
	return a.styles.Date
}

func (a *app) printView(v *dashboard.View, all bool) {
	fmt.Fprintln(a.out, a.styles.Heading.Render(fmt.Sprintf("%s  %s .. %s  (%d tasks)",
		v.Name, calendar.FormatDay(v.Window.Start), calendar.FormatDay(v.Window.End), v.Count)))

	today := a.service.Calendar().Today()
	var rows [][]string
	for _, b := range v.Buckets {
		label := bucketLabel(v, b)
		if len(b.Tasks) == 0 {
			if all {
				rows = append(rows, []string{label, "", "", "", ""})
			}
			continue
		}
		for _, t := range b.Tasks {
			rows = append(rows, []string{
				label,
				fmt.Sprintf("[%c]", t.Status),
				task.RenderDescription(t.Description, a.styles.Status(t)),
				a.dateCell(t, today),
				ref(t),
			})
			label = ""
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No tasks")
		return
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(a.styles.Dim).
		Headers("Day", "", "Task", "Date", "Where").
		Rows(rows...)
	fmt.Fprintln(a.out, tbl)
}

func bucketLabel(v *dashboard.View, b classify.Bucket) string {
	if v.Period == calendar.Monthly {
		return b.Date.Format("Mon") + " " + b.Key
	}
	return b.Key + " " + b.Date.Format("01-02")
}

func ref(t *task.Task) string {
	return t.Path + ":" + strconv.Itoa(t.Line+1)
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
