package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Committer records rewritten notes in the git repository holding them.
type Committer struct {
	Push   bool
	Author object.Signature
}

// NewCommitter returns a committer signing as kaal.
func NewCommitter(push bool) *Committer {
	return &Committer{
		Push:   push,
		Author: object.Signature{Name: "Kaal", Email: "kaal@local"},
	}
}

// FindRepoRoot finds the root of the git repository containing the given path
func FindRepoRoot(path string) (string, error) {
	current := path
	if info, err := os.Stat(current); err == nil && !info.IsDir() {
		current = filepath.Dir(current)
	}

	for {
		gitDir := filepath.Join(current, ".git")
		if _, err := os.Stat(gitDir); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", os.ErrNotExist
		}
		current = parent
	}
}

// Commit stages and commits filePath with message. Files outside a git
// repository are ignored. If Push is set and remotes exist, the commit is
// pushed.
func (c *Committer) Commit(ctx context.Context, filePath, message string) error {
	repoRoot, err := FindRepoRoot(filePath)
	if err != nil {
		return nil
	}

	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return err
	}
	w, err := repo.Worktree()
	if err != nil {
		return err
	}

	relPath, err := filepath.Rel(repoRoot, filePath)
	if err != nil {
		return err
	}
	if _, err := w.Add(filepath.ToSlash(relPath)); err != nil {
		return err
	}

	status, err := w.Status()
	if err != nil {
		return err
	}
	if status.IsClean() {
		return nil
	}

	author := c.Author
	author.When = time.Now()
	if _, err := w.Commit(message, &git.CommitOptions{Author: &author}); err != nil {
		return err
	}

	if !c.Push {
		return nil
	}
	remotes, err := repo.Remotes()
	if err != nil || len(remotes) == 0 {
		return nil
	}
	err = repo.PushContext(ctx, &git.PushOptions{})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}
