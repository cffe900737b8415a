package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/compliance-vault/cmd/app/commands"
	"github.com/allisson/compliance-vault/internal/app"
	"github.com/allisson/compliance-vault/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rotate-key",
			Usage: "Rotate the active encryption key for a purpose",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "purpose",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Key purpose: 'patient_records', 'audit_ledger' or 'backups'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keysUseCase, err := container.KeysUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunRotateKey(
					ctx,
					keysUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("purpose"),
				)
			},
		},
		{
			Name:  "list-keys",
			Usage: "List every persisted encryption key",
			Flags: []cli.Flag{
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

				keysUseCase, err := container.KeysUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunListKeys(
					ctx,
					keysUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "mark-compromised",
			Usage: "Withdraw a key from use and rotate in a replacement",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key-id",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Identifier of the compromised key",
				},
				&cli.StringFlag{
					Name:     "reason",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Why the key is considered compromised",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keysUseCase, err := container.KeysUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunMarkCompromised(
					ctx,
					keysUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("key-id"),
					cmd.String("reason"),
				)
			},
		},
	}
}
