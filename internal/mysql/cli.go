package mysql

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"bludgeon/internal/config"
	"bludgeon/internal/shell"
	"bludgeon/internal/util"
)

// CLIRunner pipes the decoded statement into the mysql command-line client.
// The password is handed over in a private option file passed as
// --defaults-extra-file, never in argv. That file is read after the standard
// option files, so its password wins over any in ~/.my.cnf.
type CLIRunner struct {
	Binary  string
	Payload Payload
	Runner  shell.Runner
}

func (r *CLIRunner) Apply(ctx context.Context, target Target) error {
	if target.Database == "" {
		return fmt.Errorf("no database name given")
	}
	optionFile, err := writeOptionFile(target.Password)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(optionFile); err != nil && !os.IsNotExist(err) {
			util.Log.Warnf("Failed to remove MySQL option file %s: %v", optionFile, err)
		}
	}()

	cmd, err := r.Command(target, optionFile)
	if err != nil {
		return err
	}
	runner := r.Runner
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	_, err = shell.Run(ctx, runner, cmd)
	return err
}

// Command composes the mysql client invocation for target, reading its
// credentials from optionFile.
func (r *CLIRunner) Command(target Target, optionFile string) (shell.Command, error) {
	if target.Database == "" {
		return shell.Command{}, fmt.Errorf("no database name given")
	}
	statement, err := r.Payload.Decode()
	if err != nil {
		return shell.Command{}, err
	}
	binary := r.Binary
	if binary == "" {
		binary = config.DefaultMySQLBinary
	}
	// --defaults-extra-file must be the first option.
	args := []string{"--defaults-extra-file=" + optionFile, "-u" + target.User, target.Database}
	return shell.Command{
		Tool:  toolName,
		Name:  binary,
		Args:  args,
		Stdin: bytes.NewReader(statement),
	}, nil
}

// optionFileEscaper escapes what the mysql option file reader would otherwise
// interpret inside a double-quoted value.
var optionFileEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// writeOptionFile stores password in a [client] section of a 0600 temp file
// and returns its path.
func writeOptionFile(password string) (string, error) {
	file, err := os.CreateTemp("", "bludgeon-mysql-*.cnf")
	if err != nil {
		return "", fmt.Errorf("failed to create MySQL option file: %w", err)
	}
	path := file.Name()
	content := fmt.Sprintf("[client]\npassword=\"%s\"\n", optionFileEscaper.Replace(password))

	_, err = file.WriteString(content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(path, 0600)
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write MySQL option file %s: %w", path, err)
	}
	return path, nil
}
