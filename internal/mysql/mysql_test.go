package mysql

import (
	"context"
	"database/sql"
	sqldriver "database/sql/driver"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"bludgeon/internal/config"
	"bludgeon/internal/shell"
	"bludgeon/internal/util"

	driver "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedStatement = "REPLACE INTO `wp_options` (`option_name`, `option_value`, `autoload`) VALUES " +
	`('disable_comments_options','a:4:{s:19:\"disabled_post_types\";a:3:{i:0;s:4:\"post\";i:1;s:4:\"page\";i:2;s:10:\"attachment\";}s:17:\"remove_everywhere\";b:1;s:9:\"permanent\";b:0;s:10:\"db_version\";i:5;}','yes');`

func logCapture(t *testing.T) *test.Hook {
	t.Helper()
	util.Log.SetOutput(io.Discard)
	hook := test.NewLocal(util.Log)
	t.Cleanup(func() { util.Log.ReplaceHooks(make(logrus.LevelHooks)) })
	return hook
}

func errorMessages(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestDefaultPayloadDecodesExactly(t *testing.T) {
	data, err := DefaultPayload.Decode()
	require.NoError(t, err)
	assert.Equal(t, expectedStatement, string(data))
}

func TestPayloadDecodeErrors(t *testing.T) {
	_, err := Payload("not base64!").Decode()
	assert.Error(t, err)
	_, err = Payload("").Decode()
	assert.Error(t, err)
}

func TestNewSelectsDriver(t *testing.T) {
	a, err := New(config.MySQLConfig{Driver: config.MySQLDriverCLI, Binary: "mariadb"}, nil)
	require.NoError(t, err)
	require.IsType(t, &CLIRunner{}, a)
	assert.Equal(t, "mariadb", a.(*CLIRunner).Binary)
	assert.Equal(t, DefaultPayload, a.(*CLIRunner).Payload)

	a, err = New(config.MySQLConfig{Driver: config.MySQLDriverNative, Address: "db:3306"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &NativeRunner{}, a)

	_, err = New(config.MySQLConfig{Driver: "odbc"}, nil)
	assert.Error(t, err)

	_, err = New(config.MySQLConfig{Driver: config.MySQLDriverCLI, Payload: "%%%"}, nil)
	assert.Error(t, err)
}

type exitStatus int

func (e exitStatus) Error() string { return "exit status" }
func (e exitStatus) ExitCode() int { return int(e) }

type stubRunner struct {
	out   string
	err   error
	cmd   shell.Command
	stdin string

	optionFile     string
	optionFileMode os.FileMode
	optionContent  string
}

func (s *stubRunner) Run(_ context.Context, cmd shell.Command) ([]byte, error) {
	s.cmd = cmd
	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		s.stdin = string(data)
	}
	if len(cmd.Args) > 0 {
		if path, ok := strings.CutPrefix(cmd.Args[0], "--defaults-extra-file="); ok {
			s.optionFile = path
			if info, err := os.Stat(path); err == nil {
				s.optionFileMode = info.Mode().Perm()
			}
			data, _ := os.ReadFile(path)
			s.optionContent = string(data)
		}
	}
	return []byte(s.out), s.err
}

func TestCLIRunnerCommand(t *testing.T) {
	logCapture(t)
	stub := &stubRunner{}
	r := &CLIRunner{Binary: "mysql", Payload: DefaultPayload, Runner: stub}

	require.NoError(t, r.Apply(context.Background(), Target{Database: "alice", User: "root", Password: "hunter2"}))

	assert.Equal(t, "mysql", stub.cmd.Name)
	require.NotEmpty(t, stub.optionFile)
	assert.Equal(t, []string{"--defaults-extra-file=" + stub.optionFile, "-uroot", "alice"}, stub.cmd.Args)
	assert.Equal(t, "MySQL", stub.cmd.Tool)
	assert.Nil(t, stub.cmd.Env)
	assert.NotContains(t, stub.cmd.String(), "hunter2")
	assert.Equal(t, expectedStatement, stub.stdin)

	assert.Equal(t, "[client]\npassword=\"hunter2\"\n", stub.optionContent)
	assert.Equal(t, os.FileMode(0600), stub.optionFileMode)
	assert.NoFileExists(t, stub.optionFile)
}

func TestCLIRunnerOptionFileEscapesPassword(t *testing.T) {
	logCapture(t)
	stub := &stubRunner{}
	r := &CLIRunner{Payload: DefaultPayload, Runner: stub}

	require.NoError(t, r.Apply(context.Background(), Target{Database: "alice", User: "root", Password: `p"a\ss#1`}))
	assert.Equal(t, "[client]\npassword=\"p\"a\\\\ss#1\"\n", stub.optionContent)
}

func TestCLIRunnerFailureUsesSharedPolicy(t *testing.T) {
	hook := logCapture(t)
	stub := &stubRunner{out: "ERROR 1049 (42000): Unknown database 'alice'\n", err: exitStatus(1)}
	r := &CLIRunner{Payload: DefaultPayload, Runner: stub}

	err := r.Apply(context.Background(), Target{Database: "alice", User: "root"})
	assert.ErrorIs(t, err, shell.ErrToolFailed)
	assert.EqualError(t, err, "error raised by MySQL")
	assert.Equal(t, []string{"ERROR 1049 (42000): Unknown database 'alice'"}, errorMessages(hook))
	assert.NoFileExists(t, stub.optionFile)
}

func TestCLIRunnerRequiresDatabase(t *testing.T) {
	r := &CLIRunner{Payload: DefaultPayload, Runner: &stubRunner{}}
	assert.Error(t, r.Apply(context.Background(), Target{User: "root"}))
}

func TestNativeRunnerDSN(t *testing.T) {
	target := Target{Database: "alice", User: "root", Password: "p@ss"}

	parsed, err := driver.ParseDSN((&NativeRunner{}).DSN(target))
	require.NoError(t, err)
	assert.Equal(t, "unix", parsed.Net)
	assert.Equal(t, "/var/run/mysqld/mysqld.sock", parsed.Addr)
	assert.Equal(t, "root", parsed.User)
	assert.Equal(t, "p@ss", parsed.Passwd)

	dsn := (&NativeRunner{Address: "db.internal:3307"}).DSN(target)
	parsed, err = driver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "alice", parsed.DBName)

	dsn = (&NativeRunner{Address: "/tmp/mysql.sock"}).DSN(target)
	parsed, err = driver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "unix", parsed.Net)
}

// fakeDriver records executed statements and returns execErr.
type fakeDriver struct {
	mu       sync.Mutex
	dsn      string
	executed []string
	execErr  error
}

func (d *fakeDriver) Open(dsn string) (sqldriver.Conn, error) {
	d.mu.Lock()
	d.dsn = dsn
	d.mu.Unlock()
	return &fakeConn{d: d}, nil
}

type fakeConn struct{ d *fakeDriver }

func (c *fakeConn) Prepare(string) (sqldriver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *fakeConn) Close() error                 { return nil }
func (c *fakeConn) Begin() (sqldriver.Tx, error) { return nil, errors.New("tx not supported") }

func (c *fakeConn) ExecContext(_ context.Context, query string, _ []sqldriver.NamedValue) (sqldriver.Result, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.executed = append(c.d.executed, query)
	if c.d.execErr != nil {
		return nil, c.d.execErr
	}
	return sqldriver.RowsAffected(1), nil
}

var (
	okDriver     = &fakeDriver{}
	deniedDriver = &fakeDriver{execErr: &driver.MySQLError{Number: 1045, Message: "Access denied for user 'root'@'localhost'"}}
)

func init() {
	sql.Register("bludgeon-fake-ok", okDriver)
	sql.Register("bludgeon-fake-denied", deniedDriver)
}

func TestNativeRunnerExecutesStatement(t *testing.T) {
	logCapture(t)
	r := &NativeRunner{Payload: DefaultPayload, DriverName: "bludgeon-fake-ok"}

	require.NoError(t, r.Apply(context.Background(), Target{Database: "alice", User: "root", Password: "x"}))

	okDriver.mu.Lock()
	defer okDriver.mu.Unlock()
	require.Len(t, okDriver.executed, 1)
	assert.Equal(t, strings.TrimSuffix(expectedStatement, ";"), okDriver.executed[0])
	assert.Contains(t, okDriver.dsn, "/alice")
}

func TestNativeRunnerFailureUsesSharedPolicy(t *testing.T) {
	hook := logCapture(t)
	r := &NativeRunner{Payload: DefaultPayload, DriverName: "bludgeon-fake-denied"}

	err := r.Apply(context.Background(), Target{Database: "alice", User: "root"})
	assert.ErrorIs(t, err, shell.ErrToolFailed)
	assert.EqualError(t, err, "error raised by MySQL")
	assert.Equal(t, []string{"ERROR 1045: Access denied for user 'root'@'localhost'"}, errorMessages(hook))
}
