package checkpointer

import (
	"errors"

	"github.com/derogold/checkpointgen/pkg/ledger"
)

// Config holds the configuration for the checkpoint generator.
type Config struct {
	OutputPath string // Ledger file the checkpoints are written to
	SyncWrites bool   // Fsync the ledger after every row
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		OutputPath: ledger.DefaultPath,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.OutputPath == "" {
		return errors.New("output file name is required")
	}
	return nil
}
