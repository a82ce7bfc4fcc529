package util

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// FindEditor returns the editor command line split into fields.
// $VISUAL wins over $EDITOR; otherwise the first common editor on PATH is used.
func FindEditor() ([]string, error) {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			Log.Debugf("Using editor from $%s: %s", env, fields[0])
			return fields, nil
		}
	}

	candidates := []string{"nano", "vim", "vi"}
	if runtime.GOOS == "windows" {
		candidates = []string{"notepad"}
	}
	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			Log.Debugf("Found editor on PATH: %s", path)
			return []string{path}, nil
		}
	}
	return nil, fmt.Errorf("no editor found: set $EDITOR or install one of %v", candidates)
}

// OpenFileInEditor opens filePath in the user's editor attached to the terminal.
func OpenFileInEditor(filePath string) error {
	editor, err := FindEditor()
	if err != nil {
		return err
	}

	cmd := exec.Command(editor[0], append(editor[1:], filePath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	Log.Debugf("Opening %s with %s", filePath, strings.Join(editor, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor '%s' exited with error: %w", editor[0], err)
	}
	return nil
}
