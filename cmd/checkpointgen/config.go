package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/derogold/checkpointgen/internal/chainclient/daemon"
	"github.com/derogold/checkpointgen/pkg/checkpointer"
	"github.com/derogold/checkpointgen/pkg/utils"
)

// Config holds all configuration for the checkpointgen application
type Config struct {
	// Application settings
	Verbose   bool
	LogFormat string

	// Daemon settings
	Daemon daemon.Config

	// Output settings
	OutputFileName string
	CheckExisting  bool
	SyncWrites     bool

	// Metrics settings
	MetricsHost    string
	MetricsPort    int
	PushgatewayURL string
	Network        string
	Environment    string
}

type outputEnv struct {
	FileName string `env:"OUTPUT_FILE_NAME" envDefault:"checkpoints.csv"`
}

// MetricsAddr returns the formatted metrics address
func (c *Config) MetricsAddr() string {
	return net.JoinHostPort(c.MetricsHost, strconv.Itoa(c.MetricsPort))
}

// Checkpointer returns the generator configuration.
func (c *Config) Checkpointer() checkpointer.Config {
	return checkpointer.Config{
		OutputPath: c.OutputFileName,
		SyncWrites: c.SyncWrites,
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if err := c.Daemon.Validate(); err != nil {
		return err
	}
	if err := c.Checkpointer().Validate(); err != nil {
		return err
	}
	if c.LogFormat != utils.LogFormatConsole && c.LogFormat != utils.LogFormatJSON {
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 0 and 65535, got %d", c.MetricsPort)
	}
	return nil
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// loadEnvConfig reads the daemon connection settings and the output file name
// from the environment, applying defaults for anything unset.
func loadEnvConfig() (daemon.Config, string, error) {
	daemonCfg, err := daemon.LoadConfig()
	if err != nil {
		return daemon.Config{}, "", err
	}
	var out outputEnv
	if err := env.Parse(&out); err != nil {
		return daemon.Config{}, "", fmt.Errorf("failed to parse output config: %w", err)
	}
	return daemonCfg, out.FileName, nil
}

// buildConfig builds a Config from the dotenv file, the environment and CLI
// flags, in increasing order of precedence.
func buildConfig(c *cli.Context) (*Config, error) {
	if err := loadDotEnv(c.String("env-file")); err != nil {
		return nil, err
	}

	daemonCfg, outputFileName, err := loadEnvConfig()
	if err != nil {
		return nil, err
	}

	if c.IsSet("daemon-rpc-host") {
		daemonCfg.Host = c.String("daemon-rpc-host")
	}
	if c.IsSet("daemon-rpc-port") {
		daemonCfg.Port = c.Int("daemon-rpc-port")
	}
	if c.IsSet("daemon-rpc-ssl") {
		daemonCfg.SSL = c.Bool("daemon-rpc-ssl")
	}
	if c.IsSet("daemon-rpc-timeout") {
		daemonCfg.Timeout = c.Duration("daemon-rpc-timeout")
	}
	if c.IsSet("output-file-name") {
		outputFileName = c.String("output-file-name")
	}

	cfg := &Config{
		Verbose:        c.Bool("verbose"),
		LogFormat:      c.String("log-format"),
		Daemon:         daemonCfg,
		OutputFileName: outputFileName,
		CheckExisting:  c.Bool("check-existing"),
		SyncWrites:     c.Bool("sync-writes"),
		MetricsHost:    c.String("metrics-host"),
		MetricsPort:    c.Int("metrics-port"),
		PushgatewayURL: c.String("pushgateway-url"),
		Network:        c.String("network"),
		Environment:    c.String("environment"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
