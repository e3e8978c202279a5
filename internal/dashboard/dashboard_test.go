package dashboard

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/rewrite"
	"github.com/vinayprograms/kaal/internal/store"
)

var fixture = map[string]string{
	"journal/daily/2025-03-10.md": `# Monday

- [ ] Pay rent 📅 2025-03-10
  - [ ] Find checkbook
- [x] Call mom [due:: 2025-03-01] [completion:: 2025-03-11]
`,
	"projects/house.md": `- [ ] Paint fence ⏳ 2025-03-12 ^fence
- [-] Buy ladder 📅 2025-03-10
- [ ] Someday maybe
`,
	"journal/monthly/2025-February.md": `- [ ] Taxes 📅 2025-02-20
`,
}

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	for name, text := range fixture {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	logger := log.New(io.Discard, "", 0)
	vault, err := store.Open(root, calendar.New(time.UTC), logger)
	if err != nil {
		t.Fatal(err)
	}
	rw := rewrite.New(vault, rewrite.Options{Logger: logger})
	s := New(vault, rw, Folders{Daily: "journal/daily", Weekly: "journal/weekly", Monthly: "journal/monthly"}, logger)
	s.now = func() time.Time { return time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC) }
	return s, root
}

func descriptions(v *View) []string {
	var out []string
	for _, b := range v.Buckets {
		for _, t := range b.Tasks {
			out = append(out, b.Key+":"+t.Description)
		}
	}
	return out
}

func TestWeek(t *testing.T) {
	s, _ := newService(t)
	v, err := s.Week(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "2025-W10" || v.Note != "journal/weekly/2025-W10.md" {
		t.Errorf("name %q note %q", v.Name, v.Note)
	}
	got := strings.Join(descriptions(v), ", ")
	want := "Monday:Pay rent, Monday:Buy ladder, Tuesday:Call mom, Wednesday:Paint fence"
	if got != want {
		t.Errorf("buckets = %s, want %s", got, want)
	}
	if v.Count != 4 || len(v.Forest) != 4 {
		t.Errorf("count %d forest %d", v.Count, len(v.Forest))
	}
	if len(v.Forest[0].Children) != 1 {
		t.Errorf("Pay rent should carry its child")
	}
}

func TestDayAndMonth(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	day, err := s.Day(ctx, "today")
	if err != nil {
		t.Fatal(err)
	}
	if day.Name != "2025-03-12" || day.Count != 1 || len(day.Buckets) != 1 || day.Buckets[0].Key != "Wednesday" {
		t.Errorf("day view = %+v", day)
	}

	feb, err := s.Month(ctx, "2025-Feb")
	if err != nil {
		t.Fatal(err)
	}
	if feb.Count != 1 || len(feb.Buckets) != 28 || len(feb.Buckets[19].Tasks) != 1 {
		t.Errorf("february = %d tasks, %d buckets", feb.Count, len(feb.Buckets))
	}

	mar, err := s.Month(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if mar.Name != "2025-March" || mar.Count != 4 {
		t.Errorf("march = %q with %d tasks", mar.Name, mar.Count)
	}
	mar1, _ := s.Month(ctx, "2025-March")
	feb1, _ := s.Month(ctx, "2025-February")
	if mar1.Count != mar.Count || feb1.Count != 1 {
		t.Error("month names should resolve the same windows")
	}

	if _, err := s.Week(ctx, "2025-03-10"); !errors.Is(err, ErrBadName) {
		t.Errorf("Week(day name) err = %v", err)
	}
	if _, err := s.Day(ctx, "2025-13-01"); !errors.Is(err, ErrBadName) {
		t.Errorf("Day(bad) err = %v", err)
	}
}

func TestAgenda(t *testing.T) {
	s, _ := newService(t)
	a, err := s.Agenda(context.Background(), calendar.Input{})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, tk := range a.Tasks {
		got = append(got, tk.Description)
	}
	// overdue and due today are in; cancelled, undated and yesterday's
	// completion are out
	want := "Pay rent, Taxes, Paint fence"
	if strings.Join(got, ", ") != want {
		t.Errorf("agenda = %v, want %s", got, want)
	}

	a, err = s.Agenda(context.Background(), calendar.ParseInput("2025-03-11", time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Tasks) != 3 || a.Tasks[1].Description != "Call mom" {
		t.Errorf("agenda for 03-11 = %d tasks", len(a.Tasks))
	}
}

func TestSetStatusAndToggle(t *testing.T) {
	s, root := newService(t)
	ctx := context.Background()
	ref := Ref{Path: "journal/daily/2025-03-10.md", Line: 2}

	tk, err := s.SetStatus(ctx, ref, 'x')
	if err != nil {
		t.Fatal(err)
	}
	if !tk.IsDone() || tk.Text != "Pay rent 📅 2025-03-10 ✅ 2025-03-12" {
		t.Errorf("after done: %q %q", string(tk.Status), tk.Text)
	}

	tk, err = s.Toggle(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if !tk.IsOpen() || tk.Text != "Pay rent 📅 2025-03-10" {
		t.Errorf("after toggle: %q %q", string(tk.Status), tk.Text)
	}

	if _, err := s.SetStatus(ctx, Ref{Path: "projects/house.md", Line: 0}, '-'); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(root, "projects", "house.md"))
	if !strings.HasPrefix(string(data), "- [-] Paint fence ⏳ 2025-03-12 ^fence\n") {
		t.Errorf("house.md = %q", data)
	}

	if _, err := s.SetStatus(ctx, Ref{Path: "projects/house.md", Line: 9}, 'x'); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing line err = %v", err)
	}
	if _, err := s.SetStatus(ctx, Ref{Path: "nope.md", Line: 0}, 'x'); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing note err = %v", err)
	}
}

func TestRescheduleAndAssignID(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	tk, err := s.Reschedule(ctx, Ref{Path: "projects/house.md", Line: 0}, "+7 days")
	if err != nil {
		t.Fatal(err)
	}
	if tk.Text != "Paint fence 📅 2025-03-19 ^fence" {
		t.Errorf("rescheduled = %q", tk.Text)
	}

	tk, err = s.Reschedule(ctx, Ref{Path: "journal/daily/2025-03-10.md", Line: 4}, "tomorrow")
	if err != nil {
		t.Fatal(err)
	}
	if tk.Text != "Call mom [due:: 2025-03-13] [completion:: 2025-03-13]" {
		t.Errorf("rescheduled completed = %q", tk.Text)
	}

	if _, err := s.Reschedule(ctx, Ref{Path: "projects/house.md", Line: 0}, "whenever"); !errors.Is(err, ErrBadDate) {
		t.Errorf("bad date err = %v", err)
	}

	ref := Ref{Path: "projects/house.md", Line: 2}
	id, err := s.AssignID(ctx, ref)
	if err != nil || len(id) != 6 {
		t.Fatalf("AssignID() = %q, %v", id, err)
	}
	again, err := s.AssignID(ctx, ref)
	if err != nil || again != id {
		t.Errorf("second AssignID() = %q, %v; want %q", again, err, id)
	}
	tk, _ = s.Task(ctx, ref)
	if tk.Text != "Someday maybe [id:: "+id+"]" {
		t.Errorf("text = %q", tk.Text)
	}
}
