package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
	backupUseCase "github.com/allisson/compliance-vault/internal/backup/usecase"
)

// RunListBackups prints every backup's metadata, newest first.
func RunListBackups(
	ctx context.Context,
	useCase backupUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	backups, err := useCase.ListBackups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	logger.Info("backups listed", slog.Int("count", len(backups)))

	if format == "json" {
		return outputJSON(writer, backups)
	}

	outputBackupsText(writer, backups)
	return nil
}

// outputBackupsText outputs the backups in human-readable text format.
func outputBackupsText(writer io.Writer, backups []*backupDomain.BackupMetadata) {
	if len(backups) == 0 {
		_, _ = fmt.Fprintln(writer, "No backups found")
		return
	}

	for _, meta := range backups {
		restored := "no"
		if meta.RestorationTested {
			restored = "yes"
		}
		ratio := "-"
		if meta.CompressionRatio > 0 {
			ratio = fmt.Sprintf("%.2fx", meta.CompressionRatio)
		}
		_, _ = fmt.Fprintf(writer, "%s  %-15s  %s  %-8s  restore_tested=%-3s  ratio=%-6s  %d bytes\n",
			meta.ID,
			meta.DataType,
			meta.CreatedAt.UTC().Format(time.RFC3339),
			meta.Verification,
			restored,
			ratio,
			meta.ArtifactSize,
		)
	}

	_, _ = fmt.Fprintf(writer, "\nTotal: %d backup(s)\n", len(backups))
}
