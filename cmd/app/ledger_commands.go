package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/compliance-vault/cmd/app/commands"
	"github.com/allisson/compliance-vault/internal/app"
	"github.com/allisson/compliance-vault/internal/config"
)

func getLedgerCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "append-event",
			Usage: "Append an event to the audit ledger",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "category",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Event category: 'data_access', 'data_modification', 'authentication', 'system_operation', 'security_event' or 'administrative'",
				},
				&cli.StringFlag{
					Name:     "actor-id",
					Required: true,
					Usage:    "Identifier of the actor performing the action",
				},
				&cli.StringFlag{
					Name:  "actor-role",
					Usage: "Role of the actor",
				},
				&cli.StringFlag{
					Name:     "action",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Action performed",
				},
				&cli.StringFlag{
					Name:     "outcome",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Outcome of the action: 'success' or 'failure'",
				},
				&cli.StringFlag{
					Name:  "resource-type",
					Usage: "Type of the affected resource",
				},
				&cli.StringFlag{
					Name:  "resource-id",
					Usage: "Identifier of the affected resource",
				},
				&cli.StringFlag{
					Name:  "subject-id",
					Usage: "Identifier of the data subject",
				},
				&cli.StringFlag{
					Name:  "justification",
					Usage: "Reason for the access",
				},
				&cli.StringFlag{
					Name:  "details",
					Usage: "Extra event details as a JSON object",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ledgerUseCase, err := container.LedgerUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunAppendEvent(
					ctx,
					ledgerUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.AppendEventArgs{
						Category:      cmd.String("category"),
						ActorID:       cmd.String("actor-id"),
						ActorRole:     cmd.String("actor-role"),
						Action:        cmd.String("action"),
						Outcome:       cmd.String("outcome"),
						ResourceType:  cmd.String("resource-type"),
						ResourceID:    cmd.String("resource-id"),
						SubjectID:     cmd.String("subject-id"),
						Justification: cmd.String("justification"),
						Details:       cmd.String("details"),
					},
				)
			},
		},
		{
			Name:  "query-events",
			Usage: "Query audit ledger events with chain verification",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "start-date",
					Aliases: []string{"s"},
					Usage:   "Only include events at or after this date (YYYY-MM-DD)",
				},
				&cli.StringFlag{
					Name:    "end-date",
					Aliases: []string{"e"},
					Usage:   "Only include events before this date (YYYY-MM-DD)",
				},
				&cli.StringFlag{
					Name:    "category",
					Aliases: []string{"c"},
					Usage:   "Only include events with this category",
				},
				&cli.StringFlag{
					Name:  "actor-id",
					Usage: "Only include events with this actor",
				},
				&cli.StringFlag{
					Name:  "subject-id",
					Usage: "Only include events with this data subject",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Usage:   "Maximum number of events to return",
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

				ledgerUseCase, err := container.LedgerUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunQueryEvents(
					ctx,
					ledgerUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.QueryEventsArgs{
						StartDate: cmd.String("start-date"),
						EndDate:   cmd.String("end-date"),
						Category:  cmd.String("category"),
						ActorID:   cmd.String("actor-id"),
						SubjectID: cmd.String("subject-id"),
						Limit:     int(cmd.Int("limit")),
						Format:    cmd.String("format"),
					},
				)
			},
		},
		{
			Name:  "verify-ledger",
			Usage: "Verify the hash chain of the audit ledger",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "start-date",
					Aliases: []string{"s"},
					Usage:   "Start of the verification range (YYYY-MM-DD)",
				},
				&cli.StringFlag{
					Name:    "end-date",
					Aliases: []string{"e"},
					Usage:   "End of the verification range (YYYY-MM-DD)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ledgerUseCase, err := container.LedgerUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunVerifyLedger(
					ctx,
					ledgerUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("start-date"),
					cmd.String("end-date"),
				)
			},
		},
		{
			Name:  "archive-segments",
			Usage: "Move closed ledger segments past the retention cutoff to the archive bucket",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ledgerUseCase, err := container.LedgerUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunArchiveSegments(
					ctx,
					ledgerUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
	}
}
