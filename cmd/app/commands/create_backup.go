package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	backupUseCase "github.com/allisson/compliance-vault/internal/backup/usecase"
)

// RunCreateBackup runs the backup pipeline for one source file and prints
// the resulting artifact metadata.
func RunCreateBackup(
	ctx context.Context,
	useCase backupUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	dataType, sourcePath string,
) error {
	logger.Info("creating backup",
		slog.String("data_type", dataType),
		slog.String("source_path", sourcePath),
	)

	meta, err := useCase.CreateBackup(ctx, dataType, sourcePath)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Backup created: %s\n", meta.ID)
	_, _ = fmt.Fprintf(writer, "  Artifact:      %s\n", meta.ArtifactPath)
	_, _ = fmt.Fprintf(writer, "  Original size: %d bytes\n", meta.OriginalSize)
	_, _ = fmt.Fprintf(writer, "  Artifact size: %d bytes\n", meta.ArtifactSize)
	_, _ = fmt.Fprintf(writer, "  Verification:  %s\n", meta.Verification)
	return nil
}
