package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vinayprograms/kaal/internal/dashboard"
	"github.com/vinayprograms/kaal/internal/rewrite"
	"github.com/vinayprograms/kaal/internal/task"
)

// parseRef parses PATH:LINE with a 1-based line into a task reference.
func parseRef(s string) (dashboard.Ref, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return dashboard.Ref{}, fmt.Errorf("invalid task %q: use PATH:LINE", s)
	}
	line, err := strconv.Atoi(s[i+1:])
	if err != nil || line < 1 {
		return dashboard.Ref{}, fmt.Errorf("invalid line in %q", s)
	}
	return dashboard.Ref{Path: s[:i], Line: line - 1}, nil
}

func (a *app) report(verb string, t *task.Task) {
	fmt.Fprintf(a.out, "%s %s\n", verb, a.taskLine(t, a.service.Calendar().Today()))
}

// each runs fn on every PATH:LINE argument. Aborted rewrites are reported
// and the next task is tried.
func (a *app) each(args []string, fn func(ref dashboard.Ref) error) error {
	var failed []error
	for _, arg := range args {
		ref, err := parseRef(arg)
		if err == nil {
			err = fn(ref)
		}
		if err != nil {
			if errors.Is(err, rewrite.ErrAborted) {
				err = fmt.Errorf("%w (the line changed since it was indexed, nothing was written)", err)
			}
			fmt.Fprintf(a.out, "skipped %s: %v\n", arg, err)
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d tasks not updated", len(failed), len(args))
	}
	return nil
}

func (a *app) statusCmd(name, short string, status rune) *cobra.Command {
	return &cobra.Command{
		Use:   name + " PATH:LINE...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.each(args, func(ref dashboard.Ref) error {
				t, err := a.service.SetStatus(cmd.Context(), ref, status)
				if err != nil {
					return err
				}
				a.report(name, t)
				return nil
			})
		},
	}
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle PATH:LINE...",
		Short: "Complete open tasks and reopen the others",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.each(args, func(ref dashboard.Ref) error {
				t, err := a.service.Toggle(cmd.Context(), ref)
				if err != nil {
					return err
				}
				a.report("toggled", t)
				return nil
			})
		},
	}
}

func (a *app) rescheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule DATE PATH:LINE...",
		Short: "Move tasks to a date",
		Long: `Move tasks to DATE: YYYY-MM-DD, today, tomorrow, or an offset such as
+7d, "+2 weeks" or -1m measured from the task's completion, due or
scheduled date. Put -- before negative offsets: kaal reschedule -- -1w a.md:3`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			return a.each(args[1:], func(ref dashboard.Ref) error {
				t, err := a.service.Reschedule(cmd.Context(), ref, date)
				if err != nil {
					return err
				}
				a.report("rescheduled", t)
				return nil
			})
		},
	}
}

func (a *app) idCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id PATH:LINE...",
		Short: "Give tasks a stable id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.each(args, func(ref dashboard.Ref) error {
				id, err := a.service.AssignID(cmd.Context(), ref)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s:%d %s\n", ref.Path, ref.Line+1, id)
				return nil
			})
		},
	}
}
