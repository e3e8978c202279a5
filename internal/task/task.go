package task

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/vinayprograms/kaal/internal/metadata"
)

// Status symbols found between the checkbox brackets.
const (
	Open      = ' '
	Done      = 'x'
	Cancelled = '-'
)

// Key identifies a task by its source position.
type Key struct {
	Path string
	Line int
}

// Dates holds the parsed date annotations. A zero time means absent.
type Dates struct {
	Due        time.Time
	Scheduled  time.Time
	Completion time.Time
	Start      time.Time
}

// Task is a checklist line of a document.
type Task struct {
	Status      rune
	Text        string // annotated text; continuation lines joined with "\n"
	Description string
	Dates       Dates
	Notation    metadata.Notation
	Path        string
	Line        int // 0-based
	LineCount   int
	Prefix      string // indentation, quote markers and list marker up to the checkbox
	Children    []*Task
	Parent      *Key
	Revision    string // digest of the document the task was read from
}

// Key returns the source position of the task.
func (t *Task) Key() Key {
	return Key{Path: t.Path, Line: t.Line}
}

// IsDone reports whether the task is checked.
func (t *Task) IsDone() bool {
	return t.Status == 'x' || t.Status == 'X'
}

// IsCancelled reports whether the task is cancelled.
func (t *Task) IsCancelled() bool {
	return t.Status == Cancelled
}

// IsOpen reports whether the task is neither done nor cancelled.
func (t *Task) IsOpen() bool {
	return !t.IsDone() && !t.IsCancelled()
}

// FirstLine returns the first physical line of Text.
func (t *Task) FirstLine() string {
	if i := strings.IndexByte(t.Text, '\n'); i >= 0 {
		return t.Text[:i]
	}
	return t.Text
}

// Meta parses the annotations of the first line.
func (t *Task) Meta() metadata.Parsed {
	return metadata.Parse(t.FirstLine())
}

// Item is a checklist line split into its parts.
type Item struct {
	Prefix string
	Status rune
	Text   string
}

var (
	itemRe  = regexp.MustCompile(`^((?:[ \t]*>)*[ \t]*(?:[-*+]|\d+[.)])[ \t]+)\[(.)\](?:[ \t]+(.*))?$`)
	listRe  = regexp.MustCompile(`^(?:[ \t]*>)*[ \t]*(?:[-*+]|\d+[.)])(?:[ \t]+|$)`)
	quoteRe = regexp.MustCompile(`^(?:[ \t]*>)*`)
)

// ParseItem splits a checklist line. It reports false for anything that is
// not a "- [ ] text" style list item.
func ParseItem(line string) (Item, bool) {
	m := itemRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return Item{}, false
	}
	return Item{Prefix: m[1], Status: []rune(m[2])[0], Text: m[3]}, true
}

// Format renders an item back into a line.
func (it Item) Format() string {
	line := it.Prefix + "[" + string(it.Status) + "]"
	if it.Text != "" {
		line += " " + it.Text
	}
	return line
}

// ContinuationPrefix returns the lead for a continuation line of an item
// with prefix: the quote markers followed by spaces up to the checkbox.
func ContinuationPrefix(prefix string) string {
	quote := quoteRe.FindString(prefix)
	width := len(strings.TrimLeft(prefix[len(quote):], " \t"))
	return quote + strings.Repeat(" ", indentOf(prefix)+width)
}

// indentOf measures the indentation after any quote markers; tabs count as four.
func indentOf(line string) int {
	rest := line[len(quoteRe.FindString(line)):]
	n := 0
	for _, r := range rest {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// Revision returns the digest recorded on tasks parsed from text.
func Revision(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}

type frame struct {
	indent int
	task   *Task // nil for a plain list item
}

// ParseDocument derives the tasks of a document. Every task is returned in
// line order, nested tasks included, and each carries its Children, so a
// nested task is reachable both directly and through its parent.
// Dates are read as midnight in loc.
func ParseDocument(path, text string, loc *time.Location) []*Task {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	rev := Revision(text)

	var tasks []*Task
	var stack []frame
	depth := 0
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		// a change of quote level or an unindented paragraph ends the list
		if d := strings.Count(quoteRe.FindString(line), ">"); d != depth {
			depth = d
			stack = stack[:0]
		}
		indent := indentOf(line)
		if !listRe.MatchString(line) {
			if indent == 0 {
				stack = stack[:0]
			}
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}

		item, ok := ParseItem(line)
		if !ok {
			stack = append(stack, frame{indent: indent})
			continue
		}

		t := &Task{
			Status:    item.Status,
			Text:      item.Text,
			Path:      path,
			Line:      i,
			LineCount: 1,
			Prefix:    item.Prefix,
			Revision:  rev,
		}
		// continuation lines belong to the task until a blank line,
		// another list item or a line at the task's own indentation
		for j := i + 1; j < len(lines); j++ {
			next := lines[j]
			if strings.TrimSpace(next) == "" || listRe.MatchString(next) || indentOf(next) <= indent {
				break
			}
			t.Text += "\n" + strings.TrimSpace(next[len(quoteRe.FindString(next)):])
			t.LineCount++
		}
		fillMeta(t, loc)

		for k := len(stack) - 1; k >= 0; k-- {
			if parent := stack[k].task; parent != nil {
				key := parent.Key()
				t.Parent = &key
				parent.Children = append(parent.Children, t)
				break
			}
		}
		stack = append(stack, frame{indent: indent, task: t})
		tasks = append(tasks, t)
		i += t.LineCount - 1
	}
	return tasks
}

func fillMeta(t *Task, loc *time.Location) {
	p := metadata.Parse(t.FirstLine())
	t.Notation = p.Notation
	t.Description = p.Description()
	t.Dates.Due, _ = p.Date(metadata.Due, loc)
	t.Dates.Scheduled, _ = p.Date(metadata.Scheduled, loc)
	t.Dates.Completion, _ = p.Date(metadata.Done, loc)
	t.Dates.Start, _ = p.Date(metadata.StartDate, loc)
}

// Walk visits tasks and their descendants depth first. A task reachable
// twice is visited twice.
func Walk(tasks []*Task, fn func(*Task)) {
	for _, t := range tasks {
		fn(t)
		Walk(t.Children, fn)
	}
}
