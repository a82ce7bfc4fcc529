package cmd

import (
	"fmt"
	"strings"

	"bludgeon/internal/fetch"
	"bludgeon/internal/site"
	"bludgeon/internal/util"
	"bludgeon/internal/wpcli"

	"github.com/spf13/cobra"
)

// AddWPCommand defines the generic WP-CLI passthrough command.
func AddWPCommand(parentCmd *cobra.Command) {
	var wpCmd = &cobra.Command{
		Use:   "wp <path> <module> <action> [--flag[=value]]... [args]...",
		Short: "Run any WP-CLI command against a WordPress install",
		Long: `Runs "wp-cli.phar --allow-root <module> <action> ..." inside the given install,
downloading WP-CLI first if needed. Everything after the path is handed to WP-CLI;
"--" ends flag handling.

Example:
  sudo bludgeon wp /home/alice/wp plugin list --status=active`,
		DisableFlagParsing: true,
		RunE: func(cobraCmd *cobra.Command, rawArgs []string) error {
			args, changed, err := consumeRootFlags(rawArgs)
			if err != nil {
				return &UsageError{Msg: err.Error()}
			}
			if changed {
				if err := loadSettings(cobraCmd, nil); err != nil {
					return err
				}
			}
			if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
				return cobraCmd.Help()
			}
			if len(args) < 1 {
				return &UsageError{Msg: "missing WordPress path"}
			}
			module, action, flags, positionals, err := parseToolArgs(args[1:])
			if err != nil {
				return &UsageError{Msg: err.Error()}
			}
			if err := requireRoot(); err != nil {
				return err
			}

			wp, err := site.Resolve(args[0])
			if err != nil {
				return err
			}
			handle, err := newHandle(wp.Path)
			if err != nil {
				return err
			}
			if _, err := fetch.New(cfg.WPCLI.URL).Ensure(cobraCmd.Context(), handle.Executable()); err != nil {
				return fmt.Errorf("failed to obtain wp-cli: %w", err)
			}

			out, err := handle.Module(module).Call(cobraCmd.Context(), action, flags, positionals...)
			if err != nil {
				util.Log.Errorf("WP-CLI command failed: %v", err)
				return err
			}
			if out != "" {
				fmt.Fprintln(cobraCmd.OutOrStdout(), out)
			}
			return nil
		},
	}

	parentCmd.AddCommand(wpCmd)
}

// consumeRootFlags takes bludgeon's own -d/--debug and -c/--config off the
// front of args, since flag parsing is disabled for this command.
func consumeRootFlags(args []string) ([]string, bool, error) {
	changed := false
	for len(args) > 0 {
		switch arg := args[0]; {
		case arg == "-d" || arg == "--debug":
			debug = true
			args = args[1:]
		case arg == "-c" || arg == "--config":
			if len(args) < 2 {
				return nil, false, fmt.Errorf("flag needs an argument: %s", arg)
			}
			cfgFile = args[1]
			args = args[2:]
		case strings.HasPrefix(arg, "--config="):
			cfgFile = strings.TrimPrefix(arg, "--config=")
			args = args[1:]
		default:
			return args, changed, nil
		}
		changed = true
	}
	return args, changed, nil
}

// parseToolArgs splits passthrough arguments into module, action, named flags
// and positionals. "--name" is a bare flag, "--name=value" a valued one.
func parseToolArgs(args []string) (string, string, wpcli.Flags, []any, error) {
	flags := wpcli.Flags{}
	var words []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			words = append(words, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "--") && len(arg) > 2 {
			name, value, hasValue := strings.Cut(arg[2:], "=")
			if name == "" {
				return "", "", nil, nil, fmt.Errorf("invalid flag '%s'", arg)
			}
			if hasValue {
				flags[name] = value
			} else {
				flags[name] = true
			}
			continue
		}
		words = append(words, arg)
	}

	if len(words) < 2 {
		return "", "", nil, nil, fmt.Errorf("expected <module> <action>, got %d word(s)", len(words))
	}
	positionals := make([]any, 0, len(words)-2)
	for _, w := range words[2:] {
		positionals = append(positionals, w)
	}
	return words[0], words[1], flags, positionals, nil
}
