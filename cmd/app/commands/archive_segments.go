package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	ledgerUseCase "github.com/allisson/compliance-vault/internal/ledger/usecase"
)

// RunArchiveSegments moves retention-expired ledger segments to archive
// storage and prints how many were moved.
func RunArchiveSegments(
	ctx context.Context,
	useCase ledgerUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	moved, err := useCase.ArchiveDueSegments(ctx)
	if err != nil {
		return fmt.Errorf("failed to archive segments: %w", err)
	}

	logger.Info("segments archived", slog.Int("moved", moved))

	if moved == 0 {
		_, _ = fmt.Fprintln(writer, "No segments due for archival")
		return nil
	}

	_, _ = fmt.Fprintf(writer, "Archived %d segment(s)\n", moved)
	return nil
}
