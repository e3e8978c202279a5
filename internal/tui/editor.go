package tui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EditorCommand builds the command opening file at a 1-based line. The
// editor may carry arguments, e.g. "emacs -nw".
func EditorCommand(editor, file string, line int) *exec.Cmd {
	if editor == "" {
		editor = "vim"
	}
	if strings.HasPrefix(editor, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			editor = filepath.Join(home, editor[2:])
		}
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		parts = []string{"vim"}
	}
	args := append([]string{}, parts[1:]...)

	base := filepath.Base(parts[0])
	switch {
	case strings.Contains(base, "vim"), strings.Contains(base, "emacs"), strings.Contains(base, "nano"):
		args = append(args, fmt.Sprintf("+%d", line), file)
	case strings.Contains(base, "code"):
		args = append(args, "-g", fmt.Sprintf("%s:%d", file, line))
	default:
		args = append(args, file)
	}
	return exec.Command(parts[0], args...)
}
