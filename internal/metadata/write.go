package metadata

import (
	"crypto/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Set writes value for kind in notation n. An existing annotation has its
// value replaced in place; a missing one is appended before any trailing
// block anchor. An empty value removes the annotation.
func Set(text string, n Notation, k Kind, value string) string {
	value = strings.TrimSpace(value)
	p := parseAs(text, n)
	f, exists := p.fields[k]
	switch {
	case value == "" && !exists:
		return text
	case value == "":
		return text[:f.start] + text[f.end:]
	case exists:
		return text[:f.valueStart] + value + text[f.valueEnd:]
	}
	return appendAnnotation(text, render(n, k, value))
}

// Remove deletes the annotation of kind in notation n.
func Remove(text string, n Notation, k Kind) string {
	return Set(text, n, k, "")
}

func render(n Notation, k Kind, value string) string {
	if n == Shorthand {
		return emojis[k][0] + " " + value
	}
	return "[" + fieldKeys[k].key + ":: " + value + "]"
}

func appendAnnotation(text, annotation string) string {
	body, anchor := text, ""
	if loc := blockAnchorRe.FindStringIndex(text); loc != nil {
		body, anchor = text[:loc[0]], text[loc[0]:]
	}
	body = strings.TrimRight(body, " \t")
	if body == "" {
		return annotation + anchor
	}
	return body + " " + annotation + anchor
}

// Reschedule rewrites the dates of a task line to date (YYYY-MM-DD).
//
// In shorthand the due and scheduled pairs are removed (and the completion
// pair when completed), then "📅 date" is appended, followed by "✅ date"
// when completed. In structured notation due is set, then completion or
// scheduled depending on completed.
func Reschedule(text, date string, completed bool) string {
	n := Detect(text)
	if n == Shorthand {
		text = Remove(text, n, Due)
		text = Remove(text, n, Scheduled)
		if completed {
			text = Remove(text, n, Done)
		}
		if date == "" {
			return text
		}
		text = appendAnnotation(text, render(n, Due, date))
		if completed {
			text = appendAnnotation(text, render(n, Done, date))
		}
		return text
	}
	text = Set(text, n, Due, date)
	if completed {
		return Set(text, n, Done, date)
	}
	return Set(text, n, Scheduled, date)
}

// ReferenceDate picks the instant relative rescheduling is measured from:
// completion, then due, then scheduled, then now.
func (p Parsed) ReferenceDate(now time.Time, loc *time.Location) time.Time {
	for _, k := range []Kind{Done, Due, Scheduled} {
		if t, ok := p.Date(k, loc); ok {
			return t
		}
	}
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// Offset is a relative date shift such as "+7 days" or "-1w".
type Offset struct {
	Years, Months, Days int
}

var offsetRe = regexp.MustCompile(`^([+-]?\d+)\s*(d|days?|w|weeks?|m|months?|y|years?)$`)

// ParseOffset parses "+N unit" with unit one of d/day(s), w/week(s),
// m/month(s), y/year(s). A missing sign means forward.
func ParseOffset(s string) (Offset, bool) {
	m := offsetRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Offset{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Offset{}, false
	}
	switch m[2][0] {
	case 'd':
		return Offset{Days: n}, true
	case 'w':
		return Offset{Days: 7 * n}, true
	case 'm':
		return Offset{Months: n}, true
	default:
		return Offset{Years: n}, true
	}
}

// Apply shifts t by the offset. Month overflow rolls over the way
// time.AddDate does.
func (o Offset) Apply(t time.Time) time.Time {
	return t.AddDate(o.Years, o.Months, o.Days)
}

// ResolveDate turns an absolute date, "today", "tomorrow" or a relative
// offset into a YYYY-MM-DD string. Offsets are measured from the
// reference date of p.
func ResolveDate(value string, p Parsed, now time.Time, loc *time.Location) (string, bool) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t.Format(DateLayout), true
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	switch strings.ToLower(value) {
	case "today":
		return today.Format(DateLayout), true
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format(DateLayout), true
	}
	o, ok := ParseOffset(value)
	if !ok {
		return "", false
	}
	return o.Apply(p.ReferenceDate(now, loc)).Format(DateLayout), true
}

var timeNow = time.Now

// NewID returns a short lowercase identifier for the id annotation.
func NewID() string {
	id, err := ulid.New(ulid.Timestamp(timeNow()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return strconv.FormatInt(timeNow().UnixNano(), 36)
	}
	s := strings.ToLower(id.String())
	// the trailing characters are the random part
	return s[len(s)-6:]
}

// EnsureID adds an id annotation to text unless one exists and returns
// the updated text with the id in effect.
func EnsureID(text string) (string, string) {
	p := Parse(text)
	if id, ok := p.Get(ID); ok {
		return text, id
	}
	id := NewID()
	return Set(text, p.Notation, ID, id), id
}
