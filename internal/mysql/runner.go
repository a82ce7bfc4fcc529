package mysql

import (
	"context"
	"fmt"

	"bludgeon/internal/config"
	"bludgeon/internal/shell"
)

const toolName = "MySQL"

// Target identifies where and as whom the statement runs.
type Target struct {
	Database string
	User     string
	Password string
}

// Applier executes the configured statement against a target.
type Applier interface {
	Apply(ctx context.Context, target Target) error
}

// New builds the Applier selected by cfg.Driver. runner is used by the cli
// driver only.
func New(cfg config.MySQLConfig, runner shell.Runner) (Applier, error) {
	payload := DefaultPayload
	if cfg.Payload != "" {
		payload = Payload(cfg.Payload)
	}
	if _, err := payload.Decode(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.MySQLDriverCLI, "":
		return &CLIRunner{Binary: cfg.Binary, Payload: payload, Runner: runner}, nil
	case config.MySQLDriverNative:
		return &NativeRunner{Address: cfg.Address, Payload: payload}, nil
	default:
		return nil, fmt.Errorf("unknown mysql driver '%s'", cfg.Driver)
	}
}
