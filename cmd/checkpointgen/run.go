package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/derogold/checkpointgen/internal/chainclient/daemon"
	"github.com/derogold/checkpointgen/pkg/checkpointer"
	"github.com/derogold/checkpointgen/pkg/metrics"
	"github.com/derogold/checkpointgen/pkg/utils"
)

const (
	metricsShutdownTimeout = 5 * time.Second
	pushTimeout            = 10 * time.Second
)

func run(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"daemonURL", cfg.Daemon.BaseURL(),
		"daemonTimeout", cfg.Daemon.Timeout,
		"outputFileName", cfg.OutputFileName,
		"checkExisting", cfg.CheckExisting,
		"syncWrites", cfg.SyncWrites,
		"metricsHost", cfg.MetricsHost,
		"metricsPort", cfg.MetricsPort,
		"pushgatewayURL", cfg.PushgatewayURL,
		"network", cfg.Network,
		"environment", cfg.Environment,
	)

	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{
		Network:     cfg.Network,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	client, err := daemon.New(cfg.Daemon, daemon.WithMetrics(m), daemon.WithLogger(sugar))
	if err != nil {
		return fmt.Errorf("failed to create daemon client: %w", err)
	}
	defer client.Close()

	gen, err := checkpointer.New(client, cfg.Checkpointer(), sugar, m)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	var metricsServer *metrics.Server
	var metricsErrCh <-chan error
	if cfg.MetricsPort > 0 {
		metricsServer = metrics.NewServer(cfg.MetricsAddr(), registry)
		metricsErrCh = metricsServer.Start()
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr())
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	generated := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(generated)
		res, err := gen.Run(gctx, cfg.CheckExisting)
		sugar.Infow("run finished",
			"start", res.Start,
			"end", res.End,
			"written", res.Written,
			"resumed", res.Resumed,
		)
		return err
	})
	if metricsErrCh != nil {
		g.Go(func() error {
			select {
			case <-generated:
				return nil
			case <-gctx.Done():
				return nil
			case err, ok := <-metricsErrCh:
				if ok && err != nil {
					return fmt.Errorf("metrics server failed: %w", err)
				}
				return nil
			}
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		sugar.Infow("exiting due to context cancellation")
	} else if err != nil {
		sugar.Errorw("run failed", "error", err)
	}

	if cfg.PushgatewayURL != "" {
		pushMetrics(sugar, cfg.PushgatewayURL, registry)
	}

	if metricsServer != nil {
		sugar.Info("shutting down metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("metrics server shutdown error", "error", err)
		}
	}

	return err
}

// pushMetrics pushes the final metric values. Failures are logged only; the
// ledger is already written at this point.
func pushMetrics(sugar *zap.SugaredLogger, url string, gatherer prometheus.Gatherer) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := metrics.Push(ctx, url, gatherer); err != nil {
		sugar.Warnw("failed to push metrics", "error", err)
		return
	}
	sugar.Infow("pushed metrics", "url", url)
}
