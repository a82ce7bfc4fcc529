package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bludgeon/internal/shell"
	"bludgeon/internal/util"

	driver "github.com/go-sql-driver/mysql"
)

const defaultSocket = "/var/run/mysqld/mysqld.sock"

// NativeRunner executes the statement over a go-sql-driver/mysql connection.
// Address is a unix socket path or host:port; empty means the default socket.
type NativeRunner struct {
	Address    string
	Payload    Payload
	DriverName string
}

// DSN builds the driver connection string for target.
func (r *NativeRunner) DSN(target Target) string {
	cfg := driver.NewConfig()
	cfg.User = target.User
	cfg.Passwd = target.Password
	cfg.DBName = target.Database
	cfg.Timeout = 10 * time.Second

	switch {
	case r.Address == "":
		cfg.Net, cfg.Addr = "unix", defaultSocket
	case strings.HasPrefix(r.Address, "/"):
		cfg.Net, cfg.Addr = "unix", r.Address
	default:
		cfg.Net, cfg.Addr = "tcp", r.Address
	}
	return cfg.FormatDSN()
}

func (r *NativeRunner) Apply(ctx context.Context, target Target) error {
	if target.Database == "" {
		return fmt.Errorf("no database name given")
	}
	statement, err := r.Payload.Decode()
	if err != nil {
		return err
	}
	query := strings.TrimRight(strings.TrimSpace(string(statement)), ";")

	driverName := r.DriverName
	if driverName == "" {
		driverName = "mysql"
	}
	db, err := sql.Open(driverName, r.DSN(target))
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", toolName, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	util.Log.Debugf("Executing settings statement on database '%s' as '%s'", target.Database, target.User)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return shell.Fail(toolName, describe(err))
	}
	return nil
}

// describe renders driver errors the way the mysql client prints them.
func describe(err error) string {
	var mysqlErr *driver.MySQLError
	if errors.As(err, &mysqlErr) {
		return fmt.Sprintf("ERROR %d: %s", mysqlErr.Number, mysqlErr.Message)
	}
	return "ERROR: " + err.Error()
}
