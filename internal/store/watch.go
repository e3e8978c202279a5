package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long a burst of events is given to finish before a change
// is reported.
const settle = 100 * time.Millisecond

// Watcher reports changed documents of a vault.
type Watcher struct {
	vault *Vault
	fsw   *fsnotify.Watcher
}

// Watch starts watching every non-hidden directory of the vault.
func (v *Vault) Watch() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{vault: v, fsw: fsw}
	if err := w.addTree(v.root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// Next blocks until documents change and returns their vault paths.
// Events arriving within a short settle period are reported together.
func (w *Watcher) Next(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var changed []string
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil, fs.ErrClosed
			}
			rel, ok := w.handle(event)
			if !ok || seen[rel] {
				continue
			}
			seen[rel] = true
			changed = append(changed, rel)
			if timer == nil {
				timer = time.After(settle)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil, fs.ErrClosed
			}
			w.vault.logger.Printf("watcher error: %v", err)
		case <-timer:
			return changed, nil
		}
	}
}

// handle returns the vault path of a document event. New directories are
// added to the watch.
func (w *Watcher) handle(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.vault.logger.Printf("watch %s: %v", event.Name, err)
			}
			return "", false
		}
	}
	if filepath.Ext(event.Name) != Extension || strings.HasPrefix(filepath.Base(event.Name), ".") {
		return "", false
	}
	rel, err := w.vault.Rel(event.Name)
	if err != nil {
		return "", false
	}
	w.vault.invalidate(rel)
	return rel, true
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
