package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/compliance-vault/cmd/app/commands"
	"github.com/allisson/compliance-vault/internal/app"
	"github.com/allisson/compliance-vault/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the metrics server and the rotation and backup schedulers",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "report",
			Usage: "Generate a compliance report for a time range",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "start-date",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Start of the reporting period (YYYY-MM-DD)",
				},
				&cli.StringFlag{
					Name:     "end-date",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "End of the reporting period (YYYY-MM-DD)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				reporter, err := container.Reporter(ctx)
				if err != nil {
					return err
				}

				return commands.RunReport(
					ctx,
					reporter,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start-date"),
					cmd.String("end-date"),
					cmd.String("format"),
				)
			},
		},
	}
}
