package metadata

import (
	"strings"
	"testing"
	"time"
)

func TestSet(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		n     Notation
		kind  Kind
		value string
		want  string
	}{
		{"replace structured bracket", "Task [due:: 2025-01-01] ^a1", Structured, Due, "2025-02-02", "Task [due:: 2025-02-02] ^a1"},
		{"replace structured bare", "Task due:: 2025-01-01", Structured, Due, "2025-02-02", "Task due:: 2025-02-02"},
		{"append structured", "Task", Structured, Scheduled, "2025-02-02", "Task [scheduled:: 2025-02-02]"},
		{"append before anchor", "Task ^a1", Structured, Due, "2025-02-02", "Task [due:: 2025-02-02] ^a1"},
		{"remove structured", "Task [due:: 2025-01-01] more", Structured, Due, "", "Task more"},
		{"remove absent", "Task", Structured, Due, "", "Task"},
		{"replace shorthand", "Task 📅 2025-01-01", Shorthand, Due, "2025-02-02", "Task 📅 2025-02-02"},
		{"append shorthand", "Task 📅 2025-01-01", Shorthand, Done, "2025-02-02", "Task 📅 2025-01-01 ✅ 2025-02-02"},
		{"remove shorthand", "Task ⏳ 2025-01-01 📅 2025-01-02", Shorthand, Scheduled, "", "Task 📅 2025-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Set(tt.text, tt.n, tt.kind, tt.value); got != tt.want {
				t.Errorf("Set() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReschedule_Shorthand(t *testing.T) {
	got := Reschedule("Pay rent ⏳ 2025-01-01 📅 2025-01-03 ^r1", "2025-02-01", false)
	want := "Pay rent 📅 2025-02-01 ^r1"
	if got != want {
		t.Errorf("Reschedule() = %q, want %q", got, want)
	}

	got = Reschedule("Pay rent 📅 2025-01-03 ✅ 2025-01-04", "2025-02-01", true)
	want = "Pay rent 📅 2025-02-01 ✅ 2025-02-01"
	if got != want {
		t.Errorf("Reschedule(completed) = %q, want %q", got, want)
	}
}

func TestReschedule_Structured(t *testing.T) {
	got := Reschedule("Pay rent [due:: 2025-01-03]", "2025-02-01", false)
	want := "Pay rent [due:: 2025-02-01] [scheduled:: 2025-02-01]"
	if got != want {
		t.Errorf("Reschedule() = %q, want %q", got, want)
	}

	got = Reschedule("Pay rent [due:: 2025-01-03] [completion:: 2025-01-04]", "2025-02-01", true)
	want = "Pay rent [due:: 2025-02-01] [completion:: 2025-02-01]"
	if got != want {
		t.Errorf("Reschedule(completed) = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	lines := []string{
		"Water plants ⏳ 2025-03-09 📅 2025-03-10",
		"Water plants [due:: 2025-03-10] [scheduled:: 2025-03-10]",
		"Water plants 🔁 every week 📅 2025-03-10 ✅ 2025-03-10 ^w1",
	}
	for _, line := range lines {
		p := Parse(line)
		completed := p.Has(Done)
		due, _ := p.Get(Due)
		again := Parse(Reschedule(line, due, completed))
		if again.Notation != p.Notation {
			t.Errorf("%q: notation changed to %s", line, again.Notation)
		}
		if again.Description() != p.Description() {
			t.Errorf("%q: description %q, want %q", line, again.Description(), p.Description())
		}
		if v, _ := again.Get(Due); v != due {
			t.Errorf("%q: due %q, want %q", line, v, due)
		}
		if completed {
			if v, _ := again.Get(Done); v != due {
				t.Errorf("%q: completion %q, want %q", line, v, due)
			}
		}
		if a, ok := BlockAnchor(line); ok {
			if b, _ := BlockAnchor(again.Text); b != a {
				t.Errorf("%q: anchor %q lost", line, a)
			}
		}
	}
}

func TestReferenceDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		text string
		want string
	}{
		{"a ⏳ 2025-01-01 📅 2025-01-02 ✅ 2025-01-03", "2025-01-03"},
		{"a ⏳ 2025-01-01 📅 2025-01-02", "2025-01-02"},
		{"a ⏳ 2025-01-01", "2025-01-01"},
		{"a", "2025-03-10"},
	}
	for _, tt := range tests {
		got := Parse(tt.text).ReferenceDate(now, time.UTC).Format(DateLayout)
		if got != tt.want {
			t.Errorf("ReferenceDate(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in   string
		want Offset
		ok   bool
	}{
		{"+7 days", Offset{Days: 7}, true},
		{"-1w", Offset{Days: -7}, true},
		{"2 months", Offset{Months: 2}, true},
		{"+1y", Offset{Years: 1}, true},
		{"+1 day", Offset{Days: 1}, true},
		{"soon", Offset{}, false},
		{"+7 fortnights", Offset{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseOffset(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseOffset(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolveDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	p := Parse("Renew 📅 2025-01-31")
	tests := []struct {
		value string
		want string
	}{
		{"2025-04-01", "2025-04-01"},
		{"today", "2025-03-10"},
		{"tomorrow", "2025-03-11"},
		{"+7 days", "2025-02-07"},
		{"+1m", "2025-03-03"}, // Feb 31st rolls over
	}
	for _, tt := range tests {
		got, ok := ResolveDate(tt.value, p, now, time.UTC)
		if !ok || got != tt.want {
			t.Errorf("ResolveDate(%q) = %q, %v; want %q", tt.value, got, ok, tt.want)
		}
	}
	if _, ok := ResolveDate("whenever", p, now, time.UTC); ok {
		t.Error("unparseable date should fail")
	}
}

func TestEnsureID(t *testing.T) {
	text, id := EnsureID("Draft 📅 2025-03-10")
	if len(id) != 6 || strings.ToLower(id) != id {
		t.Fatalf("id = %q", id)
	}
	if got, _ := Parse(text).Get(ID); got != id {
		t.Errorf("id not written: %q", text)
	}
	again, same := EnsureID(text)
	if again != text || same != id {
		t.Errorf("EnsureID should keep an existing id")
	}

	text, id = EnsureID("Draft [due:: 2025-03-10]")
	if !strings.Contains(text, "[id:: "+id+"]") {
		t.Errorf("structured id not written: %q", text)
	}
}
