package classify

import (
	"time"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/task"
)

// Bucket is the tasks classified into one cell of a window.
type Bucket struct {
	Key   string
	Date  time.Time // the day of the cell
	Tasks []*task.Task
}

// ByWeekday groups the tasks included in w by the weekday of the date that
// justified inclusion. Within a bucket tasks keep their input order.
func ByWeekday(tasks []*task.Task, w calendar.Window) map[time.Weekday][]*task.Task {
	out := make(map[time.Weekday][]*task.Task)
	for _, t := range tasks {
		if r, d := Match(t, w); r != None {
			wd := d.In(w.Start.Location()).Weekday()
			out[wd] = append(out[wd], t)
		}
	}
	return out
}

// ByDay groups the tasks included in w by the day of month of the date
// that justified inclusion.
func ByDay(tasks []*task.Task, w calendar.Window) map[int][]*task.Task {
	out := make(map[int][]*task.Task)
	for _, t := range tasks {
		if r, d := Match(t, w); r != None {
			day := d.In(w.Start.Location()).Day()
			out[day] = append(out[day], t)
		}
	}
	return out
}

// Days lays the tasks of w out as one bucket per day of the window, in
// calendar order, keyed by weekday name for windows of a week or less and
// by day of month otherwise. Empty days are kept.
func Days(tasks []*task.Task, w calendar.Window) []Bucket {
	if !w.Valid() {
		return nil
	}
	n := w.Days()
	loc := w.Start.Location()
	byDate := make(map[string][]*task.Task)
	for _, t := range tasks {
		if r, d := Match(t, w); r != None {
			k := d.In(loc).Format("2006-01-02")
			byDate[k] = append(byDate[k], t)
		}
	}
	out := make([]Bucket, 0, n)
	for i := 0; i < n; i++ {
		day := w.Start.AddDate(0, 0, i)
		b := Bucket{Date: day, Tasks: byDate[day.Format("2006-01-02")]}
		if n <= 7 {
			b.Key = day.Weekday().String()
		} else {
			b.Key = day.Format("2")
		}
		out = append(out, b)
	}
	return out
}
