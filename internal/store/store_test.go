package store

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/rewrite"
)

func newVault(t *testing.T, files map[string]string) *Vault {
	t.Helper()
	root := t.TempDir()
	for name, text := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	v, err := Open(root, calendar.New(time.UTC), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

const dailyNote = `---
tags: [daily]
mood: good
---
# Monday

- [ ] Pay rent 📅 2025-03-10
  - [x] Find checkbook ✅ 2025-03-09
`

func TestVault_ReadWrite(t *testing.T) {
	v := newVault(t, map[string]string{"journal/2025-03-10.md": dailyNote})
	ctx := context.Background()

	text, err := v.Read(ctx, "journal/2025-03-10.md")
	if err != nil || text != dailyNote {
		t.Fatalf("Read() = %q, %v", text, err)
	}

	if err := v.Write(ctx, "journal/2025-03-10.md", "- [x] done\n"); err != nil {
		t.Fatal(err)
	}
	text, err = v.Read(ctx, "journal/2025-03-10.md")
	if err != nil || text != "- [x] done\n" {
		t.Errorf("Read() after Write = %q, %v", text, err)
	}

	if err := v.Write(ctx, "new/dir/note.md", "hello"); err != nil {
		t.Fatalf("Write() into a new directory: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(v.Root(), "new", "dir", "note.md")); string(data) != "hello" {
		t.Errorf("file content = %q", data)
	}
}

func TestVault_NotFoundAndOutside(t *testing.T) {
	v := newVault(t, nil)
	ctx := context.Background()

	_, err := v.Read(ctx, "missing.md")
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read(missing) err = %v", err)
	}
	if _, err := v.Read(ctx, "../etc/passwd"); !errors.Is(err, ErrOutsideVault) {
		t.Errorf("Read(outside) err = %v", err)
	}
	if err := v.Write(ctx, "../escape.md", "x"); !errors.Is(err, ErrOutsideVault) {
		t.Errorf("Write(outside) err = %v", err)
	}
}

func TestVault_Load(t *testing.T) {
	v := newVault(t, map[string]string{"journal/2025-03-10.md": dailyNote})
	doc, err := v.Load(context.Background(), filepath.Join(v.Root(), "journal", "2025-03-10.md"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Path != "journal/2025-03-10.md" || doc.Name != "2025-03-10" {
		t.Errorf("path %q name %q", doc.Path, doc.Name)
	}
	if doc.Frontmatter["mood"] != "good" {
		t.Errorf("frontmatter = %v", doc.Frontmatter)
	}
	if doc.Period != calendar.Daily || !doc.Window.Valid() || doc.Window.Start.Day() != 10 {
		t.Errorf("period %q window %+v", doc.Period, doc.Window)
	}
	if len(doc.Tasks) != 2 || doc.Tasks[0].Line != 6 || len(doc.Tasks[0].Children) != 1 {
		t.Fatalf("tasks = %+v", doc.Tasks)
	}
	if doc.Tasks[1].Parent == nil {
		t.Error("nested task lost its parent")
	}
}

func TestVault_LoadDerivesFreshTasks(t *testing.T) {
	v := newVault(t, map[string]string{"a.md": "- [ ] one\n"})
	ctx := context.Background()
	a, _ := v.Load(ctx, "a.md")
	a.Tasks[0].Status = 'x'
	b, _ := v.Load(ctx, "a.md")
	if b.Tasks[0].Status != ' ' {
		t.Error("tasks must be derived from text on every load")
	}
}

func TestVault_Query(t *testing.T) {
	v := newVault(t, map[string]string{
		"journal/2025-03-10.md":  dailyNote,
		"journal/2025-W10.md":    "- [ ] Weekly review\n",
		"journal/2025-March.md":  "- [ ] Budget\n",
		"projects/house.md":      "- [ ] Paint fence ⏳ 2025-03-12\n",
		"journal/image.png":      "not markdown",
		".obsidian/workspace.md": "- [ ] hidden\n",
		"journal/broken.md":      "---\nkey: [unclosed\n---\n- [ ] still parsed\n",
	})

	docs, err := v.Query(context.Background(), "journal/")
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	want := []string{"journal/2025-03-10.md", "journal/2025-March.md", "journal/2025-W10.md", "journal/broken.md"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
	if docs[1].Period != calendar.Monthly || docs[2].Period != calendar.Weekly {
		t.Errorf("periods %q %q", docs[1].Period, docs[2].Period)
	}
	if docs[3].Frontmatter != nil || len(docs[3].Tasks) != 1 {
		t.Errorf("broken frontmatter doc = %+v", docs[3])
	}

	all, err := v.Query(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("Query(\"\") returned %d documents, want 5", len(all))
	}
	if n := len(Tasks(all)); n != 6 {
		t.Errorf("Tasks() = %d, want 6", n)
	}
}

func TestVault_CacheInvalidatedByExternalEdit(t *testing.T) {
	v := newVault(t, map[string]string{"a.md": "- [ ] one\n"})
	ctx := context.Background()
	if _, err := v.Read(ctx, "a.md"); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(v.Root(), "a.md")
	if err := os.WriteFile(full, []byte("- [ ] one\n- [ ] two\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(full, later, later); err != nil {
		t.Fatal(err)
	}
	doc, err := v.Load(ctx, "a.md")
	if err != nil || len(doc.Tasks) != 2 {
		t.Errorf("Load() after external edit = %v, %v", doc, err)
	}
}

func TestVault_ReadSeesSameSizeEditWithinTick(t *testing.T) {
	v := newVault(t, map[string]string{"a.md": "- [ ] Pay rent\n"})
	ctx := context.Background()
	doc, err := v.Load(ctx, "a.md")
	if err != nil || len(doc.Tasks) != 1 {
		t.Fatalf("Load() = %v, %v", doc, err)
	}

	full := filepath.Join(v.Root(), "a.md")
	info, err := os.Stat(full)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("- [ ] Buy milk\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(full, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}

	text, err := v.Read(ctx, "a.md")
	if err != nil || text != "- [ ] Buy milk\n" {
		t.Errorf("Read() = %q, %v; want the edited text", text, err)
	}

	rw := rewrite.New(v, rewrite.Options{Logger: log.New(io.Discard, "", 0)})
	wrote, err := rw.Rewrite(ctx, doc.Tasks[0], rewrite.Change{Status: 'x'})
	if wrote || !errors.Is(err, rewrite.ErrMismatch) {
		t.Errorf("Rewrite() = %v, %v; want ErrMismatch", wrote, err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "- [ ] Buy milk\n" {
		t.Errorf("file = %q, external edit was overwritten", data)
	}
}

func TestOpen_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(file, calendar.New(nil), nil); err == nil {
		t.Error("Open(file) should fail")
	}
}

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		wantErr bool
	}{
		{"none", "# Title\n", 0, false},
		{"simple", "---\na: 1\nb: two\n---\nbody", 2, false},
		{"crlf", "---\r\na: 1\r\n---\r\nbody", 1, false},
		{"unterminated", "---\na: 1\n", 0, true},
		{"invalid yaml", "---\na: [\n---\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, err := parseFrontmatter(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if len(fm) != tt.want {
				t.Errorf("frontmatter = %v", fm)
			}
		})
	}
}
