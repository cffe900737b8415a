package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	backupUseCase "github.com/allisson/compliance-vault/internal/backup/usecase"
)

// RunTestRestore restores a backup, checks the result against the recorded
// original, and prints the outcome. With an empty target the restore goes to
// scratch space and is discarded.
func RunTestRestore(
	ctx context.Context,
	useCase backupUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	backupID, targetPath string,
) error {
	id, err := parseID(backupID)
	if err != nil {
		return err
	}

	logger.Info("testing restoration",
		slog.String("backup_id", id.String()),
		slog.String("target", targetPath),
	)

	if err := useCase.TestRestoration(ctx, id, targetPath); err != nil {
		return fmt.Errorf("restoration test failed: %w", err)
	}

	if targetPath != "" {
		_, _ = fmt.Fprintf(writer, "Backup %s restored to %s\n", id, targetPath)
		return nil
	}
	_, _ = fmt.Fprintf(writer, "Restoration test passed for backup %s\n", id)
	return nil
}
