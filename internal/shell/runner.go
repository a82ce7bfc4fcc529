// Package shell runs external programs as argument vectors and applies the
// failure policy shared by every tool this program drives.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"bludgeon/internal/util"

	"github.com/sirupsen/logrus"
)

// ErrToolFailed is matched by every ToolError.
var ErrToolFailed = errors.New("external tool failed")

// ToolError reports that an external tool failed. It carries neither the exit
// code nor the output; the output has already been logged.
type ToolError struct {
	Tool string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("error raised by %s", e.Tool)
}

func (e *ToolError) Is(target error) bool {
	return target == ErrToolFailed
}

// Command describes one process invocation.
type Command struct {
	Tool    string // label used in errors, e.g. "WP-CLI"
	Name    string
	Args    []string
	Dir     string
	Env     []string // nil inherits the current environment
	Stdin   io.Reader
	Display string // logged instead of Name+Args when set
}

func (c Command) String() string {
	if c.Display != "" {
		return c.Display
	}
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes a command and returns its combined stdout and stderr.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	return cmd.CombinedOutput()
}

// exitCoder is satisfied by *exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

// Run executes cmd through r and returns its trimmed output. A non-zero exit
// goes through Fail; a process that could not be started is returned wrapped.
func Run(ctx context.Context, r Runner, cmd Command) (string, error) {
	util.Log.Debug(cmd.String())

	out, err := r.Run(ctx, cmd)
	text := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr exitCoder
		if errors.As(err, &exitErr) {
			return "", Fail(cmd.Tool, text)
		}
		return "", fmt.Errorf("failed to run %s (%s): %w", cmd.Tool, cmd.Name, err)
	}
	return text, nil
}

// Fail logs every line of output at error level and returns the generic
// failure for tool.
func Fail(tool, output string) error {
	util.LogLines(logrus.ErrorLevel, output)
	return &ToolError{Tool: tool}
}
