// Package classify decides whether and where a task belongs in a calendar
// window.
package classify

import (
	"time"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/task"
)

// Reason names the date that placed a task in a window.
type Reason int

const (
	None Reason = iota
	Completion
	Due
	Scheduled
)

func (r Reason) String() string {
	switch r {
	case Completion:
		return "completion"
	case Due:
		return "due"
	case Scheduled:
		return "scheduled"
	}
	return "none"
}

// Match reports the first branch of the window rule that holds, in the
// order completion (for completed tasks), due, scheduled, along with the
// justifying date. Any single branch is enough; they are not exclusive.
func Match(t *task.Task, w calendar.Window) (Reason, time.Time) {
	if t == nil || !w.Valid() {
		return None, time.Time{}
	}
	if t.IsDone() && calendar.WithinTime(t.Dates.Completion, w) {
		return Completion, t.Dates.Completion
	}
	if calendar.WithinTime(t.Dates.Due, w) {
		return Due, t.Dates.Due
	}
	if calendar.WithinTime(t.Dates.Scheduled, w) {
		return Scheduled, t.Dates.Scheduled
	}
	return None, time.Time{}
}

// Includes reports whether t belongs in w: completed with completion in
// the window, or due in the window, or scheduled in the window.
func Includes(t *task.Task, w calendar.Window) bool {
	r, _ := Match(t, w)
	return r != None
}

// Filter keeps the tasks included in w, in input order.
func Filter(tasks []*task.Task, w calendar.Window) []*task.Task {
	var out []*task.Task
	for _, t := range tasks {
		if Includes(t, w) {
			out = append(out, t)
		}
	}
	return out
}

// InAgenda reports whether t belongs in the agenda of the day window.
// Cancelled tasks never do. Completed tasks need a completion date inside
// the day; open tasks need a due or scheduled date at or before its end.
func InAgenda(t *task.Task, day calendar.Window) bool {
	if t == nil || !day.Valid() || t.IsCancelled() {
		return false
	}
	if t.IsDone() {
		return calendar.WithinTime(t.Dates.Completion, day)
	}
	end := day.End
	return calendar.AtOrBefore(calendar.At(t.Dates.Due), end) ||
		calendar.AtOrBefore(calendar.At(t.Dates.Scheduled), end)
}

// Agenda keeps the tasks in the agenda of day, in input order.
func Agenda(tasks []*task.Task, day calendar.Window) []*task.Task {
	var out []*task.Task
	for _, t := range tasks {
		if InAgenda(t, day) {
			out = append(out, t)
		}
	}
	return out
}
