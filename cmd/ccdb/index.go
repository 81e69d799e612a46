package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Manage the complaint index",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create the complaint index schema if it is missing",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "recreate",
						Usage: "Drop and recreate an existing index (documents are kept)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					a, err := bootstrap(ctx, c)
					if err != nil {
						return err
					}
					defer a.close()
					return a.ensureIndex(ctx, c.Bool("recreate"))
				},
			},
		},
	}
}
