package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.5b"

func init() {
	// -v is taken by --verbose
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "Show the version and exit",
	}
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "DeroGold Checkpoints Generator v%s\n", c.App.Version)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "checkpointgen",
		Usage:     "Generate block hash checkpoints for the DeroGold blockchain",
		UsageText: "checkpointgen [options] [run|status]",
		Version:   version,
		Flags:     appFlags(),
		Action:    run,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Generate checkpoints from the daemon into the output file (default)",
				Action: run,
			},
			{
				Name:   "status",
				Usage:  "Report how far the output file is behind the daemon",
				Action: status,
			},
		},
	}
}

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
