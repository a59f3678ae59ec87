package checkpointer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/derogold/checkpointgen/internal/chainclient"
	"github.com/derogold/checkpointgen/pkg/ledger"
	"github.com/derogold/checkpointgen/pkg/metrics"
)

// Result summarises a generator run.
type Result struct {
	Start   uint64 // First height requested
	End     uint64 // Chain height; heights up to End-1 are covered
	Written uint64 // Rows appended during this run
	Resumed bool   // Whether the run continued an existing ledger
}

// Generator walks the chain from a start height up to the daemon's current
// height and appends one ledger row per block.
type Generator struct {
	client  chainclient.ChainClient
	cfg     Config
	sugar   *zap.SugaredLogger
	metrics *metrics.Metrics
}

// New creates a Generator. m may be nil.
func New(client chainclient.ChainClient, cfg Config, sugar *zap.SugaredLogger, m *metrics.Metrics) (*Generator, error) {
	if client == nil {
		return nil, errors.New("chain client is required")
	}
	if sugar == nil {
		return nil, errors.New("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Generator{
		client:  client,
		cfg:     cfg,
		sugar:   sugar,
		metrics: m,
	}, nil
}

// Run generates checkpoints for every height below the daemon's current
// height. When resume is set, an existing ledger is extended starting at its
// last recorded height, which is fetched and written again; otherwise the
// ledger is overwritten and generation starts at 0.
//
// Heights are requested one at a time in ascending order and each row is
// flushed before the next request, so an aborted run leaves a valid prefix
// in the ledger.
func (g *Generator) Run(ctx context.Context, resume bool) (res Result, err error) {
	path := g.cfg.OutputPath

	var last ledger.Resume
	if resume {
		last = g.detectResume(path)
	}

	g.sugar.Info("generating checkpoints")

	height, err := g.client.Height(ctx)
	if err != nil {
		return res, g.abort(fmt.Errorf("failed to get chain height: %w", err))
	}
	g.metrics.SetChainHeight(height)
	g.sugar.Infow("current height", "height", height)

	res.End = height
	if last.Found() {
		// A ledger at or past the tip gets nothing appended. Falling through
		// would restart at 0 and duplicate every row already on disk.
		if last.Height >= height {
			res.Start = height
			g.sugar.Infow("checkpoints are up to date",
				"lastCheckpoint", last.Height,
				"height", height,
			)
			return res, nil
		}
		res.Start = last.Height
		res.Resumed = true
		g.sugar.Infow("resuming from height", "height", res.Start)
	}

	mode := ledger.ModeOverwrite
	if resume {
		mode = ledger.ModeAppend
	}
	sink, err := ledger.OpenFile(path, mode, ledger.WithSyncWrites(g.cfg.SyncWrites))
	if err != nil {
		g.metrics.IncError(metrics.ErrTypeWrite)
		return res, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			g.metrics.IncError(metrics.ErrTypeWrite)
			err = fmt.Errorf("failed to close ledger: %w", cerr)
		}
	}()

	for h := res.Start; h < height; h++ {
		if err := ctx.Err(); err != nil {
			return res, g.abort(err)
		}

		hash, err := g.client.BlockHashByHeight(ctx, h)
		if err != nil {
			return res, g.abort(fmt.Errorf("failed to get block hash at height %d: %w", h, err))
		}

		if err := sink.Append(ledger.Checkpoint{Height: h, Hash: hash}); err != nil {
			g.metrics.IncError(metrics.ErrTypeWrite)
			return res, g.abort(fmt.Errorf("failed to append checkpoint: %w", err))
		}
		res.Written++
		g.metrics.RecordCheckpoint(h)
		g.sugar.Infow("generated checkpoint", "height", h)
	}

	g.sugar.Infow("checkpoints generated",
		"path", path,
		"written", res.Written,
	)
	return res, nil
}

func (g *Generator) detectResume(path string) ledger.Resume {
	g.sugar.Info("checking for existing checkpoints")

	r := ledger.DetectResume(path)
	switch r.Status {
	case ledger.ResumeFound:
		g.sugar.Infow("checkpoints found", "lastCheckpoint", r.Height)
	case ledger.ResumeNotFound:
		g.sugar.Info("no existing checkpoints found")
	case ledger.ResumeError:
		g.metrics.IncError(metrics.ErrTypeResume)
		g.sugar.Errorw("failed to check for existing checkpoints", "path", path, "error", r.Err)
	}
	return r
}

// abort logs operator guidance for err and returns it unchanged.
func (g *Generator) abort(err error) error {
	switch {
	case errors.Is(err, chainclient.ErrUnreachable):
		g.sugar.Errorw("could not connect to the daemon RPC, exiting", "error", err)
		g.sugar.Info("check if the DeroGold daemon is running and run the command again")
		g.sugar.Infow("progress has been saved", "path", g.cfg.OutputPath)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		g.sugar.Infow("interrupted, progress has been saved", "path", g.cfg.OutputPath)
	}
	return err
}
