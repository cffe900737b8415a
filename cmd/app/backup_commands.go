package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/compliance-vault/cmd/app/commands"
	"github.com/allisson/compliance-vault/internal/app"
	"github.com/allisson/compliance-vault/internal/config"
)

func getBackupCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-backup",
			Usage: "Run the backup pipeline for one source file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "data-type",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Backup policy to apply: 'patient_records', 'audit_ledger' or 'configuration'",
				},
				&cli.StringFlag{
					Name:     "source",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Path of the file to back up",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				backupUseCase, err := container.BackupUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunCreateBackup(
					ctx,
					backupUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("data-type"),
					cmd.String("source"),
				)
			},
		},
		{
			Name:  "verify-backup",
			Usage: "Re-check a backup artifact end to end",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "backup-id",
					Aliases:  []string{"b"},
					Required: true,
					Usage:    "Identifier of the backup to verify",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				backupUseCase, err := container.BackupUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunVerifyBackup(
					ctx,
					backupUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("backup-id"),
				)
			},
		},
		{
			Name:  "test-restore",
			Usage: "Restore a backup and check the result against the original",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "backup-id",
					Aliases:  []string{"b"},
					Required: true,
					Usage:    "Identifier of the backup to restore",
				},
				&cli.StringFlag{
					Name:    "target",
					Aliases: []string{"t"},
					Usage:   "Install the restored file at this path instead of discarding it",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				backupUseCase, err := container.BackupUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunTestRestore(
					ctx,
					backupUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("backup-id"),
					cmd.String("target"),
				)
			},
		},
		{
			Name:  "list-backups",
			Usage: "List every backup's metadata, newest first",
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

				backupUseCase, err := container.BackupUseCase(ctx)
				if err != nil {
					return err
				}

				return commands.RunListBackups(
					ctx,
					backupUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
