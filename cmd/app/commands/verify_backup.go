package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
	backupUseCase "github.com/allisson/compliance-vault/internal/backup/usecase"
)

// RunVerifyBackup re-checks a backup artifact end to end and prints each
// check's result. A failed verification is returned as an error so the
// process exits non-zero.
func RunVerifyBackup(
	ctx context.Context,
	useCase backupUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	backupID string,
) error {
	id, err := parseID(backupID)
	if err != nil {
		return err
	}

	logger.Info("verifying backup", slog.String("backup_id", id.String()))

	result, verifyErr := useCase.VerifyBackup(ctx, id)
	if verifyErr != nil && !errors.Is(verifyErr, backupDomain.ErrVerificationFailed) {
		return fmt.Errorf("failed to verify backup: %w", verifyErr)
	}

	outputCheck(writer, "Hash", result.HashValid)
	outputCheck(writer, "Size", result.SizeValid)
	outputCheck(writer, "Decrypt", result.DecryptValid)
	outputCheck(writer, "Decompress", result.DecompressValid)

	if verifyErr != nil {
		_, _ = fmt.Fprintln(writer, "\nStatus: FAILED")
		return verifyErr
	}

	_, _ = fmt.Fprintln(writer, "\nStatus: PASSED")
	return nil
}

func outputCheck(writer io.Writer, name string, ok bool) {
	status := "ok"
	if !ok {
		status = "FAILED"
	}
	_, _ = fmt.Fprintf(writer, "%-11s %s\n", name+":", status)
}
