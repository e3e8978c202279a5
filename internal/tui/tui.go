// Package tui is the interactive agenda: the tasks of one day, their
// subtasks, and key bindings to complete, cancel and reschedule them.
package tui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/dashboard"
	"github.com/vinayprograms/kaal/internal/metadata"
	"github.com/vinayprograms/kaal/internal/store"
	"github.com/vinayprograms/kaal/internal/task"
)

type keyMap struct {
	Toggle   key.Binding
	Cancel   key.Binding
	Postpone key.Binding
	Next     key.Binding
	Prev     key.Binding
	Today    key.Binding
	Reload   key.Binding
	Edit     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "toggle")),
		Cancel:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "cancel")),
		Postpone: key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "tomorrow")),
		Next:     key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→", "next day")),
		Prev:     key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←", "prev day")),
		Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Edit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type taskItem struct {
	task   *task.Task
	depth  int
	day    calendar.Window
	styles *Styles
}

func (i taskItem) FilterValue() string {
	return i.task.Description + " " + i.task.Path
}

func (i taskItem) Title() string {
	t := i.task
	status := i.styles.Status(t)
	var parts []string
	parts = append(parts, strings.Repeat("  ", i.depth)+status.Render(fmt.Sprintf("[%c]", t.Status)))
	parts = append(parts, task.RenderDescription(t.Description, status))
	if badge := i.dateBadge(); badge != "" {
		parts = append(parts, badge)
	}
	parts = append(parts, i.styles.Dim.Render(fmt.Sprintf("%s:%d", t.Path, t.Line+1)))
	return strings.Join(parts, " ")
}

func (i taskItem) Description() string { return "" }

// dateBadge shows the date that put an open task on the agenda, or its
// completion date.
func (i taskItem) dateBadge() string {
	t := i.task
	if t.IsDone() && !t.Dates.Completion.IsZero() {
		return i.styles.Dim.Render("✅ " + t.Dates.Completion.Format(metadata.DateLayout))
	}
	d, mark := t.Dates.Due, "📅 "
	if d.IsZero() {
		d, mark = t.Dates.Scheduled, "⏳ "
	}
	if d.IsZero() || !t.IsOpen() {
		return ""
	}
	style := i.styles.Date
	switch {
	case d.Before(i.day.Start):
		style = i.styles.Overdue
	case calendar.WithinTime(d, i.day):
		style = i.styles.Today
	}
	return style.Render(mark + d.Format(metadata.DateLayout))
}

type agendaMsg struct {
	agenda *dashboard.Agenda
	err    error
}

type fileChangedMsg struct{ paths []string }

type actionMsg struct {
	verb string
	err  error
}

type editorFinishedMsg struct{ err error }

// Model is the bubbletea model of the agenda.
type Model struct {
	ctx      context.Context
	service  *dashboard.Service
	watcher  *store.Watcher
	styles   *Styles
	keys     keyMap
	list     list.Model
	day      calendar.Window
	editor   string
	status   string
	quitting bool
}

// Options configure the agenda.
type Options struct {
	Styles Styles
	// Editor opens the selected task's note, e.g. "nvim" or "emacs -nw".
	Editor string
	// Watcher reloads the agenda when notes change. It may be nil.
	Watcher *store.Watcher
}

// New returns the agenda model for the current day.
func New(ctx context.Context, service *dashboard.Service, opts Options) Model {
	styles := opts.Styles
	keys := newKeyMap()

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = styles.Heading
	l.KeyMap.Quit.SetKeys("esc")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Next, keys.Prev, keys.Edit}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Cancel, keys.Postpone, keys.Next, keys.Prev, keys.Today, keys.Reload, keys.Edit}
	}

	m := Model{
		ctx:     ctx,
		service: service,
		watcher: opts.Watcher,
		styles:  &styles,
		keys:    keys,
		list:    l,
		day:     service.Calendar().Today(),
		editor:  opts.Editor,
	}
	m.list.Title = m.title()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), waitForChange(m.ctx, m.watcher))
}

func (m Model) title() string {
	title := "Agenda " + calendar.FormatDay(m.day.Start) + " " + m.day.Start.Weekday().String()
	if m.status != "" {
		title += "  " + m.status
	}
	return title
}

func (m Model) load() tea.Cmd {
	ctx, svc, day := m.ctx, m.service, m.day
	return func() tea.Msg {
		a, err := svc.Agenda(ctx, calendar.At(day.Start))
		return agendaMsg{agenda: a, err: err}
	}
}

func waitForChange(ctx context.Context, w *store.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		paths, err := w.Next(ctx)
		if err != nil {
			return nil
		}
		return fileChangedMsg{paths: paths}
	}
}

func (m Model) selected() (*task.Task, bool) {
	i, ok := m.list.SelectedItem().(taskItem)
	if !ok {
		return nil, false
	}
	return i.task, true
}

func (m Model) act(verb string, fn func(ctx context.Context, ref dashboard.Ref) error) tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	ctx, ref := m.ctx, dashboard.Ref{Path: t.Path, Line: t.Line}
	return func() tea.Msg {
		return actionMsg{verb: verb, err: fn(ctx, ref)}
	}
}

func (m Model) shift(days int) (Model, tea.Cmd) {
	m.day = m.service.Calendar().Containing(m.day.Start.AddDate(0, 0, days))
	m.status = ""
	m.list.Title = m.title()
	return m, m.load()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			return m, m.act("toggled", func(ctx context.Context, ref dashboard.Ref) error {
				_, err := m.service.Toggle(ctx, ref)
				return err
			})
		case key.Matches(msg, m.keys.Cancel):
			return m, m.act("cancelled", func(ctx context.Context, ref dashboard.Ref) error {
				_, err := m.service.SetStatus(ctx, ref, task.Cancelled)
				return err
			})
		case key.Matches(msg, m.keys.Postpone):
			return m, m.act("moved to tomorrow", func(ctx context.Context, ref dashboard.Ref) error {
				_, err := m.service.Reschedule(ctx, ref, "tomorrow")
				return err
			})
		case key.Matches(msg, m.keys.Next):
			return m.shift(1)
		case key.Matches(msg, m.keys.Prev):
			return m.shift(-1)
		case key.Matches(msg, m.keys.Today):
			m.day = m.service.Calendar().Today()
			return m.shift(0)
		case key.Matches(msg, m.keys.Reload):
			return m, m.load()
		case key.Matches(msg, m.keys.Edit):
			return m, m.edit()
		}
	case agendaMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.list.Title = m.title()
			return m, nil
		}
		cmd := m.list.SetItems(m.items(msg.agenda))
		return m, cmd
	case fileChangedMsg:
		return m, tea.Batch(m.load(), waitForChange(m.ctx, m.watcher))
	case actionMsg:
		m.status = msg.verb
		if msg.err != nil {
			m.status = msg.err.Error()
			log.Printf("%s: %v", msg.verb, msg.err)
		}
		m.list.Title = m.title()
		return m, m.load()
	case editorFinishedMsg:
		if msg.err != nil {
			log.Printf("Editor error: %v", msg.err)
		}
		return m, m.load()
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) items(a *dashboard.Agenda) []list.Item {
	var items []list.Item
	var walk func(ts []*task.Task, depth int)
	walk = func(ts []*task.Task, depth int) {
		for _, t := range ts {
			items = append(items, taskItem{task: t, depth: depth, day: a.Day, styles: m.styles})
			walk(t.Children, depth+1)
		}
	}
	walk(a.Forest, 0)
	return items
}

func (m Model) edit() tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	file, err := m.service.Abs(t.Path)
	if err != nil {
		return func() tea.Msg { return editorFinishedMsg{err: err} }
	}
	return tea.ExecProcess(EditorCommand(m.editor, file, t.Line+1), func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Day returns the window of the day shown.
func (m Model) Day() calendar.Window {
	return m.day
}

// Run shows the agenda until the user quits or ctx is done.
func Run(ctx context.Context, service *dashboard.Service, opts Options) error {
	p := tea.NewProgram(New(ctx, service, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
