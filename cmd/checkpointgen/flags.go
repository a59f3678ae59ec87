package main

import (
	"github.com/urfave/cli/v2"

	"github.com/derogold/checkpointgen/pkg/utils"
)

// appFlags returns all CLI flags. They are registered on the app only, so they
// go before the command name ("checkpointgen -c run") and commands read them
// through the context lineage. Daemon and output flags carry no EnvVars: the
// environment layer for those is parsed in loadEnvConfig and the flags only
// override it when set explicitly.
func appFlags() []cli.Flag {
	return append(commonFlags(), runFlags()...)
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
			EnvVars: []string{"VERBOSE"},
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log output format (console or json)",
			EnvVars: []string{"LOG_FORMAT"},
			Value:   utils.LogFormatConsole,
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Dotenv file to load before reading the environment; missing files are ignored",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "daemon-rpc-host",
			Usage: "Daemon RPC host address (e.g. localhost) [$DAEMON_RPC_HOST]",
		},
		&cli.IntFlag{
			Name:  "daemon-rpc-port",
			Usage: "Daemon RPC port (usually 6969) [$DAEMON_RPC_PORT]",
		},
		&cli.BoolFlag{
			Name:  "daemon-rpc-ssl",
			Usage: "Use SSL for daemon RPC [$DAEMON_RPC_SSL]",
		},
		&cli.DurationFlag{
			Name:  "daemon-rpc-timeout",
			Usage: "Timeout for each daemon RPC request, 0 disables it [$DAEMON_RPC_TIMEOUT]",
		},
		&cli.StringFlag{
			Name:    "output-file-name",
			Aliases: []string{"o"},
			Usage:   "Output file name (e.g. checkpoints.csv) [$OUTPUT_FILE_NAME]",
		},
	}
}

// runFlags are only meaningful to run; status ignores them.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "check-existing",
			Aliases: []string{"c"},
			Usage:   "Check for existing checkpoints and resume from the last one",
		},
		&cli.BoolFlag{
			Name:    "sync-writes",
			Usage:   "Fsync the output file after every checkpoint",
			EnvVars: []string{"SYNC_WRITES"},
		},
		&cli.StringFlag{
			Name:    "metrics-host",
			Usage:   "The host to listen on for metrics server",
			EnvVars: []string{"METRICS_HOST"},
			Value:   "",
		},
		&cli.IntFlag{
			Name:    "metrics-port",
			Usage:   "The port to listen on for metrics server, 0 disables it",
			EnvVars: []string{"METRICS_PORT"},
			Value:   0,
		},
		&cli.StringFlag{
			Name:    "pushgateway-url",
			Usage:   "Prometheus Pushgateway URL to push metrics to when the run ends",
			EnvVars: []string{"PUSHGATEWAY_URL"},
		},
		&cli.StringFlag{
			Name:    "network",
			Usage:   "Network label for metrics (e.g. mainnet)",
			EnvVars: []string{"NETWORK"},
		},
		&cli.StringFlag{
			Name:    "environment",
			Usage:   "Deployment environment label for metrics (e.g. production)",
			EnvVars: []string{"ENVIRONMENT"},
		},
	}
}
