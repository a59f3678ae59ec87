package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/derogold/checkpointgen/internal/chainclient"
	"github.com/derogold/checkpointgen/internal/chainclient/daemon"
	"github.com/derogold/checkpointgen/pkg/ledger"
	"github.com/derogold/checkpointgen/pkg/utils"
)

// missingCheckpoints returns how many heights below chainHeight are not yet
// covered by a ledger whose state is r.
func missingCheckpoints(r ledger.Resume, chainHeight uint64) uint64 {
	if !r.Found() {
		return chainHeight
	}
	if r.Height+1 >= chainHeight {
		return 0
	}
	return chainHeight - r.Height - 1
}

func status(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	r := ledger.DetectResume(cfg.OutputFileName)
	switch r.Status {
	case ledger.ResumeError:
		return fmt.Errorf("failed to read %s: %w", cfg.OutputFileName, r.Err)
	case ledger.ResumeNotFound:
		sugar.Infow("no existing checkpoints found", "path", cfg.OutputFileName)
	case ledger.ResumeFound:
		sugar.Infow("checkpoints found", "path", cfg.OutputFileName, "lastCheckpoint", r.Height)
	}

	client, err := daemon.New(cfg.Daemon, daemon.WithLogger(sugar))
	if err != nil {
		return fmt.Errorf("failed to create daemon client: %w", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	height, err := client.Height(ctx)
	if err != nil {
		if errors.Is(err, chainclient.ErrUnreachable) {
			sugar.Errorw("could not connect to the daemon RPC", "url", client.BaseURL(), "error", err)
		}
		return fmt.Errorf("failed to get chain height: %w", err)
	}

	missing := missingCheckpoints(r, height)
	sugar.Infow("ledger status",
		"path", cfg.OutputFileName,
		"height", height,
		"missing", missing,
		"upToDate", missing == 0,
	)
	return nil
}
