package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	keysUseCase "github.com/allisson/compliance-vault/internal/keys/usecase"
)

// RunRotateKey replaces the active key for a purpose and prints the new key
// id. The predecessor stays available for decryption during its grace period.
func RunRotateKey(
	ctx context.Context,
	useCase keysUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	purposeStr string,
) error {
	purpose, err := parsePurpose(purposeStr)
	if err != nil {
		return err
	}

	logger.Info("rotating key", slog.String("purpose", string(purpose)))

	key, err := useCase.RotateKey(ctx, purpose)
	if err != nil {
		return fmt.Errorf("failed to rotate key: %w", err)
	}

	logger.Info("key rotated",
		slog.String("purpose", string(purpose)),
		slog.String("key_id", key.ID.String()),
	)

	_, _ = fmt.Fprintf(writer, "Rotated %s: new active key %s\n", purpose, key.ID)
	return nil
}
