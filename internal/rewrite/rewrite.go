// Package rewrite writes a task's status or text back to its source line.
//
// A rewrite is read-verify-write: the document is re-read, the recorded
// line is checked to still be the same checklist item, and only then is
// the document written back. Any mismatch aborts the rewrite and leaves
// the document untouched. This is best-effort optimistic checking, not a
// transaction; an edit by another process between the read and the write
// is not detected unless strict revision checking is on.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"unicode"

	"github.com/vinayprograms/kaal/internal/metadata"
	"github.com/vinayprograms/kaal/internal/task"
)

// Store is the document store the coordinator reads from and writes to.
type Store interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, text string) error
}

var (
	// ErrAborted wraps every reason a rewrite was refused. The document is
	// unchanged when it is returned.
	ErrAborted = errors.New("rewrite aborted")

	ErrLineMissing = errors.New("line no longer exists")
	ErrNotTask     = errors.New("line is not a checklist item")
	ErrMismatch    = errors.New("line no longer matches the task")
	ErrStale       = errors.New("document changed since it was read")
)

// Change is the desired state of a task. A nil Text keeps the current text.
type Change struct {
	Status rune
	Text   *string
}

// Options configures a Coordinator.
type Options struct {
	Logger *log.Logger
	// Strict aborts with ErrStale when the document revision differs from
	// the one the task was parsed from.
	Strict bool
	// OnWrite runs after a successful write. Its error is logged.
	OnWrite func(ctx context.Context, path string) error
}

// Coordinator applies changes to task lines. Rewrites of the same path
// are serialized within the process.
type Coordinator struct {
	store   Store
	logger  *log.Logger
	strict  bool
	onWrite func(ctx context.Context, path string) error

	mu    sync.Mutex
	paths map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

// New returns a coordinator over store. It panics if store is nil.
func New(store Store, opts Options) *Coordinator {
	if store == nil {
		panic("rewrite: nil store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		store:   store,
		logger:  logger,
		strict:  opts.Strict,
		onWrite: opts.OnWrite,
		paths:   make(map[string]*pathLock),
	}
}

// lock serializes rewrites of path. The entry is dropped once no rewrite
// holds or waits for it.
func (c *Coordinator) lock(path string) func() {
	c.mu.Lock()
	l, ok := c.paths[path]
	if !ok {
		l = &pathLock{}
		c.paths[path] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.paths, path)
		}
		c.mu.Unlock()
	}
}

// Rewrite applies ch to t. It reports whether the document was written.
// A refused rewrite returns an error wrapping ErrAborted and one of the
// detail errors; the document is left byte-identical.
func (c *Coordinator) Rewrite(ctx context.Context, t *task.Task, ch Change) (bool, error) {
	if t == nil {
		return false, fmt.Errorf("%w: no task", ErrAborted)
	}
	if ch.Status == 0 {
		ch.Status = t.Status
	}
	if ch.Status == t.Status && (ch.Text == nil || *ch.Text == t.Text) {
		return false, nil
	}

	unlock := c.lock(t.Path)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	content, err := c.store.Read(ctx, t.Path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", t.Path, err)
	}

	updated, err := c.apply(content, t, ch)
	if err != nil {
		c.logger.Printf("rewrite %s:%d aborted: %v", t.Path, t.Line+1, err)
		return false, fmt.Errorf("%w: %s:%d: %w", ErrAborted, t.Path, t.Line+1, err)
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := c.store.Write(ctx, t.Path, updated); err != nil {
		return false, fmt.Errorf("write %s: %w", t.Path, err)
	}
	if c.onWrite != nil {
		if err := c.onWrite(ctx, t.Path); err != nil {
			c.logger.Printf("after rewrite of %s: %v", t.Path, err)
		}
	}
	return true, nil
}

func (c *Coordinator) apply(content string, t *task.Task, ch Change) (string, error) {
	if c.strict && t.Revision != "" && task.Revision(content) != t.Revision {
		return "", ErrStale
	}
	lines, crlf := splitLines(content)
	if t.Line < 0 || t.Line >= len(lines) {
		return "", ErrLineMissing
	}
	item, ok := task.ParseItem(lines[t.Line])
	if !ok {
		return "", ErrNotTask
	}
	if !Similar(t.FirstLine(), item.Text) {
		return "", ErrMismatch
	}

	end := t.Line + max(t.LineCount, 1)
	if end > len(lines) {
		end = len(lines)
	}
	replacement := replace(item, lines[t.Line+1:end], ch)

	// A span of the same length keeps its endings. Otherwise new lines take
	// the ending of the task's first line and the last one keeps the ending
	// that closed the old span.
	spanCRLF := make([]bool, len(replacement))
	if len(replacement) == end-t.Line {
		copy(spanCRLF, crlf[t.Line:end])
	} else {
		for i := range spanCRLF {
			spanCRLF[i] = crlf[t.Line]
		}
		spanCRLF[len(spanCRLF)-1] = crlf[end-1]
	}

	out := make([]string, 0, len(lines)-(end-t.Line)+len(replacement))
	out = append(out, lines[:t.Line]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	endings := make([]bool, 0, len(out))
	endings = append(endings, crlf[:t.Line]...)
	endings = append(endings, spanCRLF...)
	endings = append(endings, crlf[end:]...)
	return joinLines(out, endings), nil
}

// splitLines splits content on "\n", stripping and recording a "\r"
// before each newline. The final segment has no ending.
func splitLines(content string) ([]string, []bool) {
	lines := strings.Split(content, "\n")
	crlf := make([]bool, len(lines))
	for i := 0; i < len(lines)-1; i++ {
		if strings.HasSuffix(lines[i], "\r") {
			lines[i] = lines[i][:len(lines[i])-1]
			crlf[i] = true
		}
	}
	return lines, crlf
}

func joinLines(lines []string, crlf []bool) string {
	var b strings.Builder
	for i, l := range lines {
		b.WriteString(l)
		if i == len(lines)-1 {
			break
		}
		if crlf[i] {
			b.WriteString("\r\n")
		} else {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// replace builds the new lines for the task span. A single-line text
// replaces the first line only, keeping continuation lines and carrying a
// block anchor over when the new text has none; multi-line text replaces
// the whole span.
func replace(item task.Item, continuation []string, ch Change) []string {
	item.Status = ch.Status
	if ch.Text == nil {
		return append([]string{item.Format()}, continuation...)
	}
	text := strings.TrimRight(*ch.Text, "\n")
	parts := strings.Split(text, "\n")
	if len(parts) == 1 {
		if anchor, ok := metadata.BlockAnchor(item.Text); ok {
			if _, has := metadata.BlockAnchor(text); !has {
				text = strings.TrimRight(text, " \t") + " " + anchor
			}
		}
		item.Text = text
		return append([]string{item.Format()}, continuation...)
	}

	lead := task.ContinuationPrefix(item.Prefix)
	if len(continuation) > 0 {
		first := continuation[0]
		lead = first[:len(first)-len(strings.TrimLeft(first, " \t>"))]
	}
	item.Text = parts[0]
	out := []string{item.Format()}
	for _, p := range parts[1:] {
		out = append(out, lead+strings.TrimSpace(p))
	}
	return out
}

// Normalize reduces a task line to its comparable core: annotations and
// block anchor removed, only letters, digits and single spaces kept.
func Normalize(text string) string {
	desc := metadata.Description(text)
	var b strings.Builder
	space := false
	for _, r := range desc {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// Similar reports whether two task lines plausibly describe the same task:
// their normalized forms are equal or one contains the other. An empty
// normalized form only matches another empty one.
func Similar(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return na == nb
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}
