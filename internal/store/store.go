// Package store is the document store over a vault directory of markdown
// notes. Tasks are never stored: each load derives them from the text.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/parallel"
	"github.com/vinayprograms/kaal/internal/task"
)

// ErrNotFound is returned for a document that does not exist. It also
// matches fs.ErrNotExist.
var ErrNotFound = errors.New("document not found")

// ErrOutsideVault is returned for paths that resolve outside the vault.
var ErrOutsideVault = errors.New("path outside vault")

// Extension of the documents the vault indexes.
const Extension = ".md"

// Document is one note of the vault.
type Document struct {
	Path        string // slash-separated, relative to the vault root
	Name        string // base name without extension
	ModTime     time.Time
	Frontmatter map[string]any
	Text        string
	Tasks       []*task.Task // every task in line order, nested ones included
	Revision    string
	// Period and Window are set for periodic notes named after a day,
	// week or month.
	Period calendar.Period
	Window calendar.Window
}

type entry struct {
	modTime     time.Time
	size        int64
	text        string
	frontmatter map[string]any
}

// Vault reads and writes the notes below a root directory.
type Vault struct {
	root   string
	cal    calendar.Calendar
	logger *log.Logger

	mu    sync.Mutex
	cache map[string]entry
}

// Open returns a vault rooted at root. Dates are read in the calendar's
// location.
func Open(root string, cal calendar.Calendar, logger *log.Logger) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Vault{root: abs, cal: cal, logger: logger, cache: make(map[string]entry)}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Calendar returns the calendar documents are read with.
func (v *Vault) Calendar() calendar.Calendar {
	return v.cal
}

// Abs resolves a vault path to a file system path.
func (v *Vault) Abs(p string) (string, error) {
	rel, err := v.Rel(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(v.root, filepath.FromSlash(rel)), nil
}

// Rel normalizes p, absolute or relative to the root, to a vault path.
func (v *Vault) Rel(p string) (string, error) {
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(v.root, filepath.FromSlash(p))
	}
	rel, err := filepath.Rel(v.root, filepath.Clean(full))
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, p)
	}
	return rel, nil
}

// Read returns the full text of the document at p. It always reads the
// file; the cache is refreshed but never trusted.
func (v *Vault) Read(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, err := v.Rel(p)
	if err != nil {
		return "", err
	}
	e, err := v.entry(rel, true)
	if err != nil {
		return "", err
	}
	return e.text, nil
}

// Write replaces the document at p with text. The file is replaced
// atomically; missing directories are created.
func (v *Vault) Write(ctx context.Context, p, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := v.Rel(p)
	if err != nil {
		return err
	}
	full := filepath.Join(v.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	v.invalidate(rel)
	if err := atomic.WriteFile(full, strings.NewReader(text)); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// Load returns the document at p with its tasks.
func (v *Vault) Load(ctx context.Context, p string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := v.Rel(p)
	if err != nil {
		return nil, err
	}
	e, err := v.entry(rel, false)
	if err != nil {
		return nil, err
	}
	return v.document(rel, e), nil
}

// Query returns the documents whose vault path starts with prefix, sorted
// by path. Hidden directories are skipped. Documents that cannot be read
// are logged and left out.
func (v *Vault) Query(ctx context.Context, prefix string) ([]*Document, error) {
	prefix = strings.TrimPrefix(filepath.ToSlash(prefix), "./")
	var paths []string
	err := filepath.WalkDir(v.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if full != v.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), Extension) {
			return nil
		}
		rel, err := filepath.Rel(v.root, full)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", prefix, err)
	}

	docs := parallel.Collect(ctx, paths, parallel.FileProcessing, func(_ context.Context, rel string) (*Document, error) {
		e, err := v.entry(rel, false)
		if err != nil {
			return nil, err
		}
		return v.document(rel, e), nil
	}, func(rel string, err error) {
		v.logger.Printf("skipping %s: %v", rel, err)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// entry returns the cached text of rel, reloading it when the file's
// modification time or size changed, or always when fresh is set. A
// same-size edit within one timestamp tick is only seen with fresh.
func (v *Vault) entry(rel string, fresh bool) (entry, error) {
	full := filepath.Join(v.root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return entry{}, notFound(rel, err)
	}
	if info.IsDir() {
		return entry{}, fmt.Errorf("read %s: is a directory", rel)
	}

	if !fresh {
		v.mu.Lock()
		e, ok := v.cache[rel]
		v.mu.Unlock()
		if ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
			return e, nil
		}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return entry{}, notFound(rel, err)
	}
	e := entry{modTime: info.ModTime(), size: info.Size(), text: string(data)}
	if e.frontmatter, err = parseFrontmatter(e.text); err != nil {
		v.logger.Printf("%s: %v", rel, err)
	}

	v.mu.Lock()
	v.cache[rel] = e
	v.mu.Unlock()
	return e, nil
}

func (v *Vault) invalidate(rel string) {
	v.mu.Lock()
	delete(v.cache, rel)
	v.mu.Unlock()
}

func (v *Vault) document(rel string, e entry) *Document {
	base := path.Base(rel)
	doc := &Document{
		Path:        rel,
		Name:        strings.TrimSuffix(base, path.Ext(base)),
		ModTime:     e.modTime,
		Frontmatter: e.frontmatter,
		Text:        e.text,
		Tasks:       task.ParseDocument(rel, e.text, v.cal.Location()),
		Revision:    task.Revision(e.text),
	}
	if w, p, ok := v.cal.WindowForName(base); ok {
		doc.Window, doc.Period = w, p
	}
	return doc
}

func notFound(rel string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w: %w", rel, ErrNotFound, err)
	}
	return fmt.Errorf("read %s: %w", rel, err)
}

// Tasks returns the tasks of every document, in document then line order.
func Tasks(docs []*Document) []*task.Task {
	var out []*task.Task
	for _, d := range docs {
		out = append(out, d.Tasks...)
	}
	return out
}
