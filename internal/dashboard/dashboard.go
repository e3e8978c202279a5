// Package dashboard composes the vault, the classifier, the forest and the
// rewrite coordinator into the day, week and month views and the task
// actions the outer surfaces expose.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/classify"
	"github.com/vinayprograms/kaal/internal/forest"
	"github.com/vinayprograms/kaal/internal/metadata"
	"github.com/vinayprograms/kaal/internal/rewrite"
	"github.com/vinayprograms/kaal/internal/store"
	"github.com/vinayprograms/kaal/internal/task"
)

var (
	// ErrBadName is returned for a period name that does not parse.
	ErrBadName = errors.New("invalid period name")
	// ErrTaskNotFound is returned when no task sits on the referenced line.
	ErrTaskNotFound = errors.New("task not found")
	// ErrBadDate is returned for a reschedule date that does not parse.
	ErrBadDate = errors.New("invalid date")
)

// Folders name the vault directories holding periodic notes.
type Folders struct {
	Daily   string
	Weekly  string
	Monthly string
}

// Ref identifies a task by vault path and 0-based line.
type Ref struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// View is the classified content of one day, week or month.
type View struct {
	Name    string
	Period  calendar.Period
	Window  calendar.Window
	Note    string // vault path of the periodic note
	Buckets []classify.Bucket
	Forest  []*task.Task
	Count   int
}

// Agenda is the daily agenda of one day.
type Agenda struct {
	Day    calendar.Window
	Tasks  []*task.Task
	Forest []*task.Task
}

// Service answers view queries and applies task actions.
type Service struct {
	vault   *store.Vault
	rw      *rewrite.Coordinator
	cal     calendar.Calendar
	folders Folders
	logger  *log.Logger
	now     func() time.Time
}

// New returns a service. It panics if vault or rw is nil.
func New(vault *store.Vault, rw *rewrite.Coordinator, folders Folders, logger *log.Logger) *Service {
	if vault == nil || rw == nil {
		panic("dashboard: nil vault or coordinator")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		vault:   vault,
		rw:      rw,
		cal:     vault.Calendar(),
		folders: folders,
		logger:  logger,
		now:     time.Now,
	}
}

// Calendar returns the calendar windows are built in.
func (s *Service) Calendar() calendar.Calendar {
	return s.cal
}

// Abs returns the file system path of a vault path.
func (s *Service) Abs(p string) (string, error) {
	return s.vault.Abs(p)
}

// Today returns the note name of the current day.
func (s *Service) Today() string {
	return calendar.FormatDay(s.now().In(s.cal.Location()))
}

// ThisWeek returns the note name of the current week.
func (s *Service) ThisWeek() string {
	return calendar.FormatWeek(s.cal.WeekOf(s.now()))
}

// ThisMonth returns the note name of the current month.
func (s *Service) ThisMonth() string {
	n := s.now().In(s.cal.Location())
	return calendar.FormatMonth(n.Year(), int(n.Month())-1)
}

// Day returns the view of the day named YYYY-MM-DD; "" means today.
func (s *Service) Day(ctx context.Context, name string) (*View, error) {
	if name == "" || strings.EqualFold(name, "today") {
		name = s.Today()
	}
	return s.view(ctx, calendar.Daily, name)
}

// Week returns the view of the week named YYYY-Www; "" means this week.
func (s *Service) Week(ctx context.Context, name string) (*View, error) {
	if name == "" {
		name = s.ThisWeek()
	}
	return s.view(ctx, calendar.Weekly, name)
}

// Month returns the view of the month named YYYY-<Month>; "" means this month.
func (s *Service) Month(ctx context.Context, name string) (*View, error) {
	if name == "" {
		name = s.ThisMonth()
	}
	return s.view(ctx, calendar.Monthly, name)
}

func (s *Service) view(ctx context.Context, period calendar.Period, name string) (*View, error) {
	w, p, ok := s.cal.WindowForName(name)
	if !ok || p != period || !w.Valid() {
		return nil, fmt.Errorf("%w: %q is not a %s", ErrBadName, name, period)
	}
	tasks, err := s.tasks(ctx)
	if err != nil {
		return nil, err
	}
	included := classify.Filter(tasks, w)
	return &View{
		Name:    name,
		Period:  period,
		Window:  w,
		Note:    s.NotePath(period, name),
		Buckets: classify.Days(included, w),
		Forest:  forest.Build(included),
		Count:   len(included),
	}, nil
}

// Agenda returns the agenda of the day holding at. An absent input means
// today.
func (s *Service) Agenda(ctx context.Context, at calendar.Input) (*Agenda, error) {
	day := s.cal.Containing(s.now())
	if t, ok := at.Instant(); ok {
		day = s.cal.Containing(t)
	}
	tasks, err := s.tasks(ctx)
	if err != nil {
		return nil, err
	}
	in := classify.Agenda(tasks, day)
	return &Agenda{Day: day, Tasks: in, Forest: forest.Build(in)}, nil
}

// NotePath returns the vault path of the periodic note name.
func (s *Service) NotePath(period calendar.Period, name string) string {
	dir := s.folders.Daily
	switch period {
	case calendar.Weekly:
		dir = s.folders.Weekly
	case calendar.Monthly:
		dir = s.folders.Monthly
	}
	return path.Join(dir, name+store.Extension)
}

// Note returns the text of a periodic note.
func (s *Service) Note(ctx context.Context, period calendar.Period, name string) (string, error) {
	return s.vault.Read(ctx, s.NotePath(period, name))
}

func (s *Service) tasks(ctx context.Context) ([]*task.Task, error) {
	docs, err := s.vault.Query(ctx, "")
	if err != nil {
		return nil, err
	}
	return store.Tasks(docs), nil
}

// Task returns the task on the referenced line as it is now on disk.
func (s *Service) Task(ctx context.Context, ref Ref) (*task.Task, error) {
	doc, err := s.vault.Load(ctx, ref.Path)
	if err != nil {
		return nil, err
	}
	for _, t := range doc.Tasks {
		if t.Line == ref.Line {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s:%d", ErrTaskNotFound, ref.Path, ref.Line+1)
}

// SetStatus changes the status of a task. Completing stamps today's
// completion date, reopening a completed task clears it.
func (s *Service) SetStatus(ctx context.Context, ref Ref, status rune) (*task.Task, error) {
	t, err := s.Task(ctx, ref)
	if err != nil {
		return nil, err
	}
	first := t.FirstLine()
	line := first
	done := status == 'x' || status == 'X'
	switch {
	case done && !t.IsDone():
		line = metadata.Set(line, t.Notation, metadata.Done, s.Today())
	case !done && t.IsDone():
		line = metadata.Remove(line, t.Notation, metadata.Done)
	}
	ch := rewrite.Change{Status: status}
	if line != first {
		ch.Text = &line
	}
	if _, err := s.rw.Rewrite(ctx, t, ch); err != nil {
		return nil, err
	}
	return s.Task(ctx, ref)
}

// Toggle completes an open task and reopens a completed or cancelled one.
func (s *Service) Toggle(ctx context.Context, ref Ref) (*task.Task, error) {
	t, err := s.Task(ctx, ref)
	if err != nil {
		return nil, err
	}
	if t.IsOpen() {
		return s.SetStatus(ctx, ref, task.Done)
	}
	return s.SetStatus(ctx, ref, task.Open)
}

// Reschedule moves a task to the date given by when: YYYY-MM-DD, "today",
// "tomorrow" or an offset such as "+7 days" from the task's reference date.
func (s *Service) Reschedule(ctx context.Context, ref Ref, when string) (*task.Task, error) {
	t, err := s.Task(ctx, ref)
	if err != nil {
		return nil, err
	}
	date, ok := metadata.ResolveDate(when, t.Meta(), s.now(), s.cal.Location())
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadDate, when)
	}
	line := metadata.Reschedule(t.FirstLine(), date, t.IsDone())
	if _, err := s.rw.Rewrite(ctx, t, rewrite.Change{Status: t.Status, Text: &line}); err != nil {
		return nil, err
	}
	return s.Task(ctx, ref)
}

// AssignID gives a task an id annotation unless it has one and returns it.
func (s *Service) AssignID(ctx context.Context, ref Ref) (string, error) {
	t, err := s.Task(ctx, ref)
	if err != nil {
		return "", err
	}
	line, id := metadata.EnsureID(t.FirstLine())
	if line == t.FirstLine() {
		return id, nil
	}
	if _, err := s.rw.Rewrite(ctx, t, rewrite.Change{Status: t.Status, Text: &line}); err != nil {
		return "", err
	}
	return id, nil
}
