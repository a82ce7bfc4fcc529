package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bludgeon/cmd/version"
	"bludgeon/internal/config"
	"bludgeon/internal/fetch"
	"bludgeon/internal/history"
	"bludgeon/internal/mysql"
	"bludgeon/internal/orchestrator"
	"bludgeon/internal/shell"
	"bludgeon/internal/site"
	"bludgeon/internal/update"
	"bludgeon/internal/util"
	"bludgeon/internal/wpcli"

	"github.com/spf13/cobra"
)

var (
	debug         bool
	cfgFile       string
	mysqlPassword string
	mysqlConfig   string
	mysqlDriver   string
	checkUpdates  bool

	cfg *config.Config

	geteuid = os.Geteuid
)

// UsageError aborts before any external call and exits with status 2.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// rootCmd runs the whole Disable Comments procedure against one install.
var rootCmd = &cobra.Command{
	Use:   "bludgeon [flags] <path>",
	Short: "Force the Disable Comments plugin onto an existing WordPress install",
	Long: `Bludgeon installs, activates and updates the Disable Comments plugin with WP-CLI
and then writes the plugin's settings straight into the site's database.

It must run as root. The MySQL root password comes from --mysql-password or from
the [mysql] section of a MySQL option file (default ~/.my.cnf). The database name
is the account owning the WordPress directory.

Example:
  sudo bludgeon /home/alice/wp`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return &UsageError{Msg: fmt.Sprintf("expected exactly one WordPress path, got %d arguments", len(args))}
		}
		return nil
	},
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
	RunE:              runDisable,
}

// Execute runs the root command and maps errors to exit codes.
func Execute() {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprint(os.Stderr, cmd.UsageString())
		fmt.Fprintf(os.Stderr, "%s: error: %s\n", cmd.CommandPath(), usageErr.Msg)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Bludgeon configuration file (default ~/.bludgeon/config.yaml)")

	rootCmd.Flags().StringVar(&mysqlPassword, "mysql-password", "", "MySQL root password")
	rootCmd.Flags().StringVar(&mysqlConfig, "mysql-config", config.DefaultMySQLConfig, "MySQL user configuration file")
	rootCmd.Flags().StringVar(&mysqlDriver, "mysql-driver", config.MySQLDriverCLI, "How to write plugin settings: 'cli' (mysql client) or 'native'")
	rootCmd.Flags().BoolVar(&checkUpdates, "check-updates", false, "Warn when a newer WP-CLI release is available")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Msg: err.Error()}
	})

	version.AddVersionCommand(rootCmd)
	AddFetchCommand(rootCmd)
	AddWPCommand(rootCmd)
	AddHistoryCommand(rootCmd)
	AddConfigCommand(rootCmd)
}

// loadSettings initialises logging and loads the configuration for every command.
func loadSettings(cmd *cobra.Command, args []string) error {
	util.InitLogger(debug)

	path := cfgFile
	if path == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}
	cfgFile = path

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if loaded.Debug && !debug {
		util.InitLogger(true)
		util.Log.Debug("Enabling debug mode based on config file.")
	}

	if f := cmd.Flags().Lookup("mysql-driver"); f != nil && f.Changed {
		loaded.MySQL.Driver = mysqlDriver
	}
	if f := cmd.Flags().Lookup("check-updates"); f != nil && f.Changed {
		loaded.WPCLI.CheckUpdates = checkUpdates
	}
	if f := cmd.Flags().Lookup("mysql-config"); f != nil && f.Changed {
		loaded.MySQL.ConfigFile = mysqlConfig
	}
	if err := loaded.Validate(); err != nil {
		return &UsageError{Msg: err.Error()}
	}

	cfg = loaded
	util.Log.Debugf("Using configuration file %s", cfgFile)
	return nil
}

func requireRoot() error {
	if geteuid() != 0 {
		return &UsageError{Msg: "This utility should be run as root."}
	}
	return nil
}

func runDisable(cmd *cobra.Command, args []string) error {
	if err := requireRoot(); err != nil {
		return err
	}

	explicit := mysqlPassword
	if explicit == "" {
		explicit = cfg.MySQL.Password
	}
	secret, err := config.ResolveSecret(explicit, cfg.MySQL.ConfigFile, cfg.MySQL.ConfigSection)
	if err != nil {
		if errors.Is(err, config.ErrNoSecret) {
			return &UsageError{Msg: "No MySQL root password could be loaded."}
		}
		return err
	}

	wp, err := site.Resolve(args[0])
	if err != nil {
		return err
	}
	util.Log.Infof("Wordpress install at %s", wp.Path)

	database := cfg.MySQL.Database
	if database == "" {
		database = wp.Owner
		util.Log.Infof("Using directory owner %s as MySQL database", database)
	}

	handle, err := newHandle(wp.Path)
	if err != nil {
		return err
	}
	applier, err := mysql.New(cfg.MySQL, shell.ExecRunner{})
	if err != nil {
		return err
	}

	deps := orchestrator.Deps{
		Fetcher: fetch.New(cfg.WPCLI.URL),
		WP:      handle,
		DB:      applier,
	}
	if cfg.WPCLI.CheckUpdates {
		deps.CheckUpdate = func(ctx context.Context, raw string) (*update.CheckResult, error) {
			cachePath := filepath.Join(cfg.StateDir, update.CacheFileName)
			return update.CheckForUpdate(ctx, raw, cfg.WPCLI.ReleaseRepo, cachePath, 24*time.Hour)
		}
	}
	plan := orchestrator.Plan{
		ToolPath:   handle.Executable(),
		PluginSlug: cfg.Plugin.Slug,
		Target:     mysql.Target{Database: database, User: cfg.MySQL.User, Password: secret},
	}

	started := time.Now()
	report, runErr := orchestrator.DisableComments(cmd.Context(), deps, plan)

	event := &history.Event{
		Timestamp:        started,
		SitePath:         wp.Path,
		Database:         database,
		Plugin:           cfg.Plugin.Slug,
		WordPressVersion: report.WordPressVersion,
		Outcome:          history.OutcomeSuccess,
		DurationMs:       time.Since(started).Milliseconds(),
	}
	if runErr != nil {
		event.Outcome = history.OutcomeFailure
		event.Error = runErr.Error()
	}
	history.Append(cfg.StateDir, event)

	if runErr != nil {
		util.Log.Errorf("Run failed: %v", runErr)
		return runErr
	}
	util.Log.Infof("Disable Comments is installed and configured for %s", wp.Path)
	return nil
}

// newHandle builds the WP-CLI handle for an install directory.
func newHandle(sitePath string) (*wpcli.Handle, error) {
	toolPath, err := cfg.ToolPath()
	if err != nil {
		return nil, err
	}
	util.Log.Debugf("Using WP-CLI at %s", toolPath)

	var opts []wpcli.Option
	vars, err := util.LoadEnvFile(cfg.WPCLI.EnvFile)
	if err != nil {
		return nil, err
	}
	if len(vars) > 0 {
		opts = append(opts, wpcli.WithEnv(append(os.Environ(), vars...)))
	}
	return wpcli.New(toolPath, sitePath, opts...), nil
}
