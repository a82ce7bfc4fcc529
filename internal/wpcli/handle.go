// Package wpcli proxies arbitrary "wp <module> <action>" calls to a WP-CLI
// executable. Module and action names are never validated here; WP-CLI
// itself decides what exists.
package wpcli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bludgeon/internal/shell"
)

const (
	toolName     = "WP-CLI"
	allowRootArg = "--allow-root"
)

// Flags are named arguments rendered as long-form options in name order.
// A true bool becomes a bare --name; anything else becomes --name="value".
type Flags map[string]any

// Handle points at one WP-CLI executable operating on one WordPress install.
type Handle struct {
	executable string
	dir        string
	env        []string
	runner     shell.Runner
}

// Option customises a Handle.
type Option func(*Handle)

// WithRunner replaces the process runner.
func WithRunner(r shell.Runner) Option {
	return func(h *Handle) { h.runner = r }
}

// WithEnv sets the complete environment of every WP-CLI process.
func WithEnv(env []string) Option {
	return func(h *Handle) { h.env = env }
}

// New returns a Handle running executable inside dir.
func New(executable, dir string, opts ...Option) *Handle {
	h := &Handle{executable: executable, dir: dir, runner: shell.ExecRunner{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) Executable() string { return h.executable }
func (h *Handle) Dir() string        { return h.dir }

// Module returns a proxy for any WP-CLI command group.
func (h *Handle) Module(name string) *Module {
	return &Module{handle: h, name: name}
}

func (h *Handle) Core() *Module   { return h.Module("core") }
func (h *Handle) Plugin() *Module { return h.Module("plugin") }
func (h *Handle) CLI() *Module    { return h.Module("cli") }

// Call runs "<executable> --allow-root <module> <action> [flags] [args]".
func (h *Handle) Call(ctx context.Context, module, action string, flags Flags, args ...any) (string, error) {
	return shell.Run(ctx, h.runner, h.Command(module, action, flags, args...))
}

// Command composes the invocation without running it.
func (h *Handle) Command(module, action string, flags Flags, args ...any) shell.Command {
	action = strings.ReplaceAll(action, "_", "-")

	argv := []string{allowRootArg, module, action}
	var shown []string
	for _, name := range sortedNames(flags) {
		opt := "--" + strings.ReplaceAll(name, "_", "-")
		value := flags[name]
		if b, ok := value.(bool); ok && b {
			argv = append(argv, opt)
			shown = append(shown, opt)
			continue
		}
		s := fmt.Sprint(value)
		argv = append(argv, opt+"="+s)
		shown = append(shown, opt+`="`+s+`"`)
	}

	positionals := make([]string, len(args))
	for i, arg := range args {
		positionals[i] = fmt.Sprint(arg)
	}
	argv = append(argv, positionals...)

	display := fmt.Sprintf("%s %s %s %s", h.executable, allowRootArg, module, action)
	if block := strings.Join(shown, " "); block != "" {
		display += " " + block
	}
	if block := strings.Join(positionals, " "); block != "" {
		display += " " + block
	}

	return shell.Command{
		Tool:    toolName,
		Name:    h.executable,
		Args:    argv,
		Dir:     h.dir,
		Env:     h.env,
		Display: display,
	}
}

func sortedNames(flags Flags) []string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module is one WP-CLI command group bound to its Handle.
type Module struct {
	handle *Handle
	name   string
}

func (m *Module) Name() string { return m.name }

// Call dispatches action on this module through the owning Handle.
func (m *Module) Call(ctx context.Context, action string, flags Flags, args ...any) (string, error) {
	return m.handle.Call(ctx, m.name, action, flags, args...)
}
