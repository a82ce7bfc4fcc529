package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"bludgeon/internal/mysql"
	"bludgeon/internal/shell"
	"bludgeon/internal/update"
	"bludgeon/internal/util"
	"bludgeon/internal/wpcli"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	downloaded bool
	err        error
	dest       string
}

func (f *fakeFetcher) Ensure(_ context.Context, dest string) (bool, error) {
	f.dest = dest
	return f.downloaded, f.err
}

type fakeProxy struct {
	outputs map[string]string
	fail    map[string]bool
	calls   []string
}

func (p *fakeProxy) Call(_ context.Context, module, action string, flags wpcli.Flags, args ...any) (string, error) {
	key := module + " " + action
	call := key
	if flags["activate"] == true {
		call += " --activate"
	}
	for _, a := range args {
		call += fmt.Sprintf(" %v", a)
	}
	p.calls = append(p.calls, call)
	if p.fail[key] {
		return "", &shell.ToolError{Tool: "WP-CLI"}
	}
	return p.outputs[key], nil
}

type fakeDB struct {
	err     error
	targets []mysql.Target
}

func (d *fakeDB) Apply(_ context.Context, target mysql.Target) error {
	d.targets = append(d.targets, target)
	return d.err
}

func newProxy() *fakeProxy {
	return &fakeProxy{
		outputs: map[string]string{
			"core version":   "6.4.2\n",
			"plugin install": "Installing Disable Comments (2.4.3)\nPlugin installed successfully.\nSuccess: Installed 1 of 1 plugins.",
			"plugin update":  "Success: Plugin already updated.",
			"cli version":    "WP-CLI 2.9.0",
		},
		fail: map[string]bool{},
	}
}

var plan = Plan{
	ToolPath:   "/opt/bludgeon/wp-cli.phar",
	PluginSlug: "disable-comments",
	Target:     mysql.Target{Database: "alice", User: "root", Password: "pw"},
}

func captureInfo(t *testing.T) *test.Hook {
	t.Helper()
	util.Log.SetOutput(io.Discard)
	hook := test.NewLocal(util.Log)
	t.Cleanup(func() { util.Log.ReplaceHooks(make(logrus.LevelHooks)) })
	return hook
}

func TestDisableCommentsRunsStepsInOrder(t *testing.T) {
	hook := captureInfo(t)
	fetcher := &fakeFetcher{downloaded: true}
	proxy := newProxy()
	db := &fakeDB{}

	report, err := DisableComments(context.Background(), Deps{Fetcher: fetcher, WP: proxy, DB: db}, plan)
	require.NoError(t, err)

	assert.Equal(t, plan.ToolPath, fetcher.dest)
	assert.Equal(t, []string{
		"core version",
		"plugin install --activate disable-comments",
		"plugin update disable-comments",
	}, proxy.calls)
	assert.Equal(t, []mysql.Target{plan.Target}, db.targets)

	assert.True(t, report.ToolDownloaded)
	assert.Equal(t, "6.4.2", report.WordPressVersion)
	assert.Equal(t, []string{StepFetch, StepVersion, StepInstall, StepUpdate, StepSettings}, report.StepsCompleted)

	var messages []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			messages = append(messages, e.Message)
		}
	}
	assert.Contains(t, messages, "Wordpress version 6.4.2")
	assert.Contains(t, messages, "Plugin installed successfully.")
	assert.Contains(t, messages, "Success: Plugin already updated.")
	assert.Contains(t, messages, "Writing plugin settings")
}

func TestDisableCommentsAbortsOnFirstFailure(t *testing.T) {
	captureInfo(t)
	proxy := newProxy()
	proxy.fail["plugin install"] = true
	db := &fakeDB{}

	report, err := DisableComments(context.Background(), Deps{Fetcher: &fakeFetcher{}, WP: proxy, DB: db}, plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, shell.ErrToolFailed)
	assert.Equal(t, []string{"core version", "plugin install --activate disable-comments"}, proxy.calls)
	assert.Empty(t, db.targets)
	assert.Equal(t, []string{StepFetch, StepVersion}, report.StepsCompleted)
}

func TestDisableCommentsFetchFailureStopsBeforeWPCLI(t *testing.T) {
	captureInfo(t)
	proxy := newProxy()

	_, err := DisableComments(context.Background(), Deps{Fetcher: &fakeFetcher{err: errors.New("dial tcp: timeout")}, WP: proxy, DB: &fakeDB{}}, plan)
	assert.ErrorContains(t, err, "failed to obtain wp-cli")
	assert.Empty(t, proxy.calls)
}

func TestDisableCommentsDatabaseFailure(t *testing.T) {
	captureInfo(t)
	db := &fakeDB{err: &shell.ToolError{Tool: "MySQL"}}

	report, err := DisableComments(context.Background(), Deps{Fetcher: &fakeFetcher{}, WP: newProxy(), DB: db}, plan)
	assert.ErrorIs(t, err, shell.ErrToolFailed)
	assert.ErrorContains(t, err, "database 'alice'")
	assert.Equal(t, []string{StepFetch, StepVersion, StepInstall, StepUpdate}, report.StepsCompleted)
}

func TestUpdateCheckIsAdvisory(t *testing.T) {
	hook := captureInfo(t)
	proxy := newProxy()
	var seen string
	check := func(_ context.Context, raw string) (*update.CheckResult, error) {
		seen = raw
		return &update.CheckResult{CurrentVersion: "2.9.0", LatestVersion: "v2.10.0", IsNewer: true}, nil
	}

	_, err := DisableComments(context.Background(), Deps{Fetcher: &fakeFetcher{}, WP: proxy, DB: &fakeDB{}, CheckUpdate: check}, plan)
	require.NoError(t, err)
	assert.Equal(t, "WP-CLI 2.9.0", seen)
	assert.Equal(t, "cli version", proxy.calls[0])

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "fetch --force") {
			warned = true
		}
	}
	assert.True(t, warned)

	failing := func(context.Context, string) (*update.CheckResult, error) { return nil, errors.New("rate limited") }
	_, err = DisableComments(context.Background(), Deps{Fetcher: &fakeFetcher{}, WP: newProxy(), DB: &fakeDB{}, CheckUpdate: failing}, plan)
	assert.NoError(t, err)
}

func TestWordPressVersionSkipsNotices(t *testing.T) {
	util.Log.SetOutput(io.Discard)
	assert.Equal(t, "6.4.2", wordPressVersion("PHP Deprecated:  Something in /x.php on line 3\n6.4.2\n"))
	assert.Equal(t, "6.5-RC1", wordPressVersion("6.5-RC1"))
	assert.Equal(t, "weird", wordPressVersion("  weird "))
}
