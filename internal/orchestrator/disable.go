package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"bludgeon/internal/mysql"
	"bludgeon/internal/update"
	"bludgeon/internal/util"
	"bludgeon/internal/wpcli"

	hversion "github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"
)

// ToolFetcher makes sure the WP-CLI executable exists locally.
type ToolFetcher interface {
	Ensure(ctx context.Context, dest string) (bool, error)
}

// Proxy dispatches WP-CLI module/action calls.
type Proxy interface {
	Call(ctx context.Context, module, action string, flags wpcli.Flags, args ...any) (string, error)
}

// UpdateCheckFunc compares raw "wp cli version" output with the latest release.
type UpdateCheckFunc func(ctx context.Context, cliVersionOutput string) (*update.CheckResult, error)

// Deps are the collaborators a run drives.
type Deps struct {
	Fetcher     ToolFetcher
	WP          Proxy
	DB          mysql.Applier
	CheckUpdate UpdateCheckFunc // nil disables the staleness check
}

// Plan is what a single run should do.
type Plan struct {
	ToolPath   string
	PluginSlug string
	Target     mysql.Target
}

// Report summarises a run, including a partial one.
type Report struct {
	ToolDownloaded   bool
	WordPressVersion string
	StepsCompleted   []string
}

const (
	StepFetch    = "fetch"
	StepVersion  = "core-version"
	StepInstall  = "plugin-install"
	StepUpdate   = "plugin-update"
	StepSettings = "settings"
)

// DisableComments installs, activates and updates the plugin, then writes its
// settings row. The first failing step aborts the run; nothing is rolled back.
func DisableComments(ctx context.Context, deps Deps, plan Plan) (*Report, error) {
	report := &Report{}

	// --- 1. Make sure WP-CLI is present ---
	downloaded, err := deps.Fetcher.Ensure(ctx, plan.ToolPath)
	if err != nil {
		return report, fmt.Errorf("failed to obtain wp-cli: %w", err)
	}
	report.ToolDownloaded = downloaded
	report.StepsCompleted = append(report.StepsCompleted, StepFetch)

	// --- 2. Optional staleness check, never fatal ---
	if deps.CheckUpdate != nil {
		checkToolVersion(ctx, deps)
	}

	// --- 3. WordPress version ---
	rawVersion, err := deps.WP.Call(ctx, "core", "version", nil)
	if err != nil {
		return report, fmt.Errorf("failed to query WordPress version: %w", err)
	}
	report.WordPressVersion = wordPressVersion(rawVersion)
	util.Log.Infof("Wordpress version %s", report.WordPressVersion)
	report.StepsCompleted = append(report.StepsCompleted, StepVersion)

	// --- 4. Install, don't check first ---
	util.Log.Info("Installing Disable Comments plugin")
	out, err := deps.WP.Call(ctx, "plugin", "install", wpcli.Flags{"activate": true}, plan.PluginSlug)
	if err != nil {
		return report, fmt.Errorf("failed to install plugin '%s': %w", plan.PluginSlug, err)
	}
	util.LogLines(logrus.InfoLevel, out)
	report.StepsCompleted = append(report.StepsCompleted, StepInstall)

	// --- 5. Update it too, just in case ---
	util.Log.Info("Updating Disable Comments plugin")
	out, err = deps.WP.Call(ctx, "plugin", "update", nil, plan.PluginSlug)
	if err != nil {
		return report, fmt.Errorf("failed to update plugin '%s': %w", plan.PluginSlug, err)
	}
	util.LogLines(logrus.InfoLevel, out)
	report.StepsCompleted = append(report.StepsCompleted, StepUpdate)

	// --- 6. Settings row ---
	util.Log.Info("Writing plugin settings")
	if err := deps.DB.Apply(ctx, plan.Target); err != nil {
		return report, fmt.Errorf("failed to write plugin settings to database '%s': %w", plan.Target.Database, err)
	}
	report.StepsCompleted = append(report.StepsCompleted, StepSettings)

	return report, nil
}

func checkToolVersion(ctx context.Context, deps Deps) {
	raw, err := deps.WP.Call(ctx, "cli", "version", nil)
	if err != nil {
		util.Log.Warnf("Could not determine WP-CLI version: %v", err)
		return
	}
	result, err := deps.CheckUpdate(ctx, raw)
	if err != nil {
		util.Log.Warnf("WP-CLI update check failed: %v", err)
		return
	}
	if result.IsNewer {
		util.Log.Warnf("WP-CLI %s is available (local %s): %s", result.LatestVersion, result.CurrentVersion, result.ReleaseURL)
		util.Log.Warn("Run 'bludgeon fetch --force' to replace the local copy.")
		return
	}
	util.Log.Debugf("WP-CLI %s is up to date.", result.CurrentVersion)
}

// wordPressVersion picks the version out of "core version" output. Output is
// merged with stderr, so PHP notices may precede it; the last line that parses
// as a version wins, otherwise the raw text is returned.
func wordPressVersion(raw string) string {
	lines := util.SplitLines(raw)
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if _, err := hversion.NewVersion(line); err == nil {
			return line
		}
	}
	util.Log.Debugf("Unrecognised WordPress version output '%s'", raw)
	return strings.TrimSpace(raw)
}
