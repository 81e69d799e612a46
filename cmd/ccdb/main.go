package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "ccdb",
		Usage: "Consumer complaint search and export API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Configuration file path (default: config/$ENV.yaml)",
				Sources: cli.EnvVars("CCDB_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			exportCommand(),
			indexCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ccdb:", err)
		os.Exit(1)
	}
}
