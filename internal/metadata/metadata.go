// Package metadata reads and writes the inline annotations of a task line.
//
// A line carries its annotations in one of two notations: structured
// fields ("due:: 2025-03-10", "[due:: 2025-03-10]") or emoji shorthand
// ("📅 2025-03-10"). The notation is detected once per line and only that
// notation is parsed; mixed lines are never merged.
package metadata

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Notation is the annotation style of a line.
type Notation int

const (
	Structured Notation = iota
	Shorthand
)

func (n Notation) String() string {
	if n == Shorthand {
		return "shorthand"
	}
	return "structured"
}

// Kind is a recognized annotation.
type Kind int

const (
	Duration Kind = iota
	StartTime
	ID
	Repeat
	StartDate
	Scheduled
	Due
	Done
)

// Kinds lists every annotation kind in rendering order.
var Kinds = []Kind{Duration, StartTime, ID, Repeat, StartDate, Scheduled, Due, Done}

func (k Kind) String() string {
	switch k {
	case Duration:
		return "duration"
	case StartTime:
		return "start-time"
	case ID:
		return "id"
	case Repeat:
		return "repeat"
	case StartDate:
		return "start"
	case Scheduled:
		return "scheduled"
	case Due:
		return "due"
	case Done:
		return "completion"
	}
	return "unknown"
}

// DateLayout is the layout of every date annotation.
const DateLayout = "2006-01-02"

const datePat = `\d{4}-\d{2}-\d{2}`

// structured field keys and their bare value patterns
var fieldKeys = map[Kind]struct{ key, value string }{
	Duration:  {"duration", `\S+`},
	StartTime: {"startTime", `\d{1,2}:\d{2}`},
	ID:        {"id", `[A-Za-z0-9_-]+`},
	Repeat:    {"repeat", `[^\s\[\]():]+(?:[ \t]+[^\s\[\]():]+)*`},
	StartDate: {"start", datePat},
	Scheduled: {"scheduled", datePat},
	Due:       {"due", datePat},
	Done:      {"completion", datePat},
}

// shorthand emoji, first entry is the one written back
var emojis = map[Kind][]string{
	Duration:  {"⏱️", "⏱"},
	StartTime: {"⏰"},
	ID:        {"🆔"},
	Repeat:    {"🔁"},
	StartDate: {"🛫"},
	Scheduled: {"⏳", "⌛"},
	Due:       {"📅", "📆", "🗓️", "🗓"},
	Done:      {"✅"},
}

var shorthandValues = map[Kind]string{
	Duration:  `\d+[A-Za-z]*(?:\d+[A-Za-z]+)*`,
	StartTime: `\d{1,2}:\d{2}`,
	ID:        `[A-Za-z0-9_-]+`,
	Repeat:    `[A-Za-z0-9,! ]*[A-Za-z0-9!]`,
	StartDate: datePat,
	Scheduled: datePat,
	Due:       datePat,
	Done:      datePat,
}

type pattern struct {
	re *regexp.Regexp
	// bare structured fields end at the value, so a trailing "key::" word
	// swallowed by a free-text value must be given back
	bare bool
}

var (
	structuredPatterns = map[Kind][]pattern{}
	shorthandPatterns  = map[Kind][]pattern{}

	detectRe      = regexp.MustCompile(`(?:📅|📆|🗓\x{FE0F}?|⏳|⌛|✅) ?` + datePat)
	blockAnchorRe = regexp.MustCompile(`[ \t]+\^[A-Za-z0-9-]+[ \t]*$`)
	multiSpaceRe  = regexp.MustCompile(`[ \t]{2,}`)
)

func init() {
	for k, f := range fieldKeys {
		key := "(?i:" + regexp.QuoteMeta(f.key) + ")"
		structuredPatterns[k] = []pattern{
			{re: regexp.MustCompile(`[ \t]*[\[(]` + key + `::[ \t]*([^\])]*?)[ \t]*[\])]`)},
			{re: regexp.MustCompile(`(?:^|[ \t]+)` + key + `::[ \t]*(` + f.value + `)`), bare: true},
		}
	}
	for k, list := range emojis {
		quoted := make([]string, len(list))
		for i, e := range list {
			quoted[i] = regexp.QuoteMeta(e)
		}
		shorthandPatterns[k] = []pattern{{
			re: regexp.MustCompile(`[ \t]*(?:` + strings.Join(quoted, "|") + `)[ \t]*(` + shorthandValues[k] + `)`),
		}}
	}
}

// Field is one annotation found in a line.
type Field struct {
	Kind  Kind
	Value string
	// span of the whole annotation including leading whitespace
	start, end int
	// span of the value
	valueStart, valueEnd int
}

// Detect returns the notation of text: shorthand when an emoji date is
// present for due, scheduled or completion, structured otherwise.
func Detect(text string) Notation {
	if detectRe.MatchString(text) {
		return Shorthand
	}
	return Structured
}

// Parsed is the result of reading the annotations of one line.
type Parsed struct {
	Text     string
	Notation Notation
	fields   map[Kind]Field
}

// Parse reads the annotations of text in its detected notation.
func Parse(text string) Parsed {
	return parseAs(text, Detect(text))
}

func parseAs(text string, n Notation) Parsed {
	patterns := structuredPatterns
	if n == Shorthand {
		patterns = shorthandPatterns
	}
	p := Parsed{Text: text, Notation: n, fields: make(map[Kind]Field)}
	for _, k := range Kinds {
		for _, pat := range patterns[k] {
			if f, ok := find(text, k, pat); ok {
				p.fields[k] = f
				break
			}
		}
	}
	return p
}

func find(text string, k Kind, pat pattern) (Field, bool) {
	m := pat.re.FindStringSubmatchIndex(text)
	if m == nil {
		return Field{}, false
	}
	f := Field{Kind: k, start: m[0], end: m[1], valueStart: m[2], valueEnd: m[3]}
	if pat.bare && k == Repeat && f.valueEnd < len(text) && text[f.valueEnd] == ':' {
		// the last word is the key of the next field
		if i := strings.LastIndexAny(text[f.valueStart:f.valueEnd], " \t"); i >= 0 {
			f.valueEnd = f.valueStart + i
			f.end = f.valueEnd
		} else {
			return Field{}, false
		}
	}
	f.Value = strings.TrimSpace(text[f.valueStart:f.valueEnd])
	if f.Value == "" {
		return Field{}, false
	}
	return f, true
}

// Get returns the raw value of an annotation.
func (p Parsed) Get(k Kind) (string, bool) {
	f, ok := p.fields[k]
	return f.Value, ok
}

// Has reports whether the annotation is present.
func (p Parsed) Has(k Kind) bool {
	_, ok := p.fields[k]
	return ok
}

// Date returns a date annotation as midnight in loc. Malformed dates are absent.
func (p Parsed) Date(k Kind, loc *time.Location) (time.Time, bool) {
	v, ok := p.Get(k)
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, v, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Fields returns the annotations found, ordered by position in the line.
func (p Parsed) Fields() []Field {
	out := make([]Field, 0, len(p.fields))
	for _, f := range p.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// Description is the text with every recognized annotation and a trailing
// block anchor removed, whitespace collapsed.
func (p Parsed) Description() string {
	var b strings.Builder
	pos := 0
	for _, f := range p.Fields() {
		if f.start < pos {
			continue
		}
		b.WriteString(p.Text[pos:f.start])
		pos = f.end
	}
	b.WriteString(p.Text[pos:])
	s := blockAnchorRe.ReplaceAllString(b.String(), "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Description parses text and returns its description.
func Description(text string) string {
	return Parse(text).Description()
}

// BlockAnchor returns the trailing "^id" block anchor of text, if any.
func BlockAnchor(text string) (string, bool) {
	m := blockAnchorRe.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}
