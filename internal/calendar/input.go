package calendar

import (
	"math"
	"strconv"
	"strings"
	"time"
)

type inputKind uint8

const (
	inputNone inputKind = iota
	inputMillis
	inputTime
)

// Input is a date value as handed over by a collaborator: either raw
// epoch milliseconds or a zone-aware time. It is normalized with Instant
// before any comparison.
type Input struct {
	kind   inputKind
	millis int64
	at     time.Time
}

// Millis wraps an epoch-millisecond timestamp.
func Millis(ms int64) Input {
	return Input{kind: inputMillis, millis: ms}
}

// At wraps a time value. The zero time is treated as absent.
func At(t time.Time) Input {
	if t.IsZero() {
		return Input{}
	}
	return Input{kind: inputTime, at: t}
}

// FromAny converts loosely typed values (frontmatter, JSON, query strings)
// into an Input: time.Time, integer and float epoch milliseconds, and
// strings holding YYYY-MM-DD, RFC 3339 or digits. Anything else is absent.
func FromAny(v any, loc *time.Location) Input {
	switch x := v.(type) {
	case nil:
		return Input{}
	case Input:
		return x
	case time.Time:
		return At(x)
	case *time.Time:
		if x == nil {
			return Input{}
		}
		return At(*x)
	case int:
		return Millis(int64(x))
	case int64:
		return Millis(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Input{}
		}
		return Millis(int64(x))
	case string:
		return ParseInput(x, loc)
	}
	return Input{}
}

// ParseInput parses a textual date: YYYY-MM-DD (midnight in loc),
// RFC 3339, or a decimal epoch-millisecond count.
func ParseInput(s string, loc *time.Location) Input {
	s = strings.TrimSpace(s)
	if s == "" {
		return Input{}
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return At(t)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return At(t)
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Millis(ms)
	}
	return Input{}
}

// Present reports whether the input carries a value.
func (in Input) Present() bool {
	return in.kind != inputNone
}

// Instant returns the normalized instant.
func (in Input) Instant() (time.Time, bool) {
	switch in.kind {
	case inputMillis:
		return time.UnixMilli(in.millis), true
	case inputTime:
		return in.at, true
	}
	return time.Time{}, false
}

// Within reports whether in falls inside w, both bounds inclusive.
// It is false for absent inputs and invalid windows.
func Within(in Input, w Window) bool {
	t, ok := in.Instant()
	if !ok || !w.Valid() {
		return false
	}
	ms := t.UnixMilli()
	return ms >= w.Start.UnixMilli() && ms <= w.End.UnixMilli()
}

// AtOrBefore reports whether in is not later than end.
// It is false for absent inputs and a zero end.
func AtOrBefore(in Input, end time.Time) bool {
	t, ok := in.Instant()
	if !ok || end.IsZero() {
		return false
	}
	return t.UnixMilli() <= end.UnixMilli()
}

// WithinTime is Within for a plain time; the zero time is absent.
func WithinTime(t time.Time, w Window) bool {
	return Within(At(t), w)
}
