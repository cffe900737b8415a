package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	keysUseCase "github.com/allisson/compliance-vault/internal/keys/usecase"
)

// RunMarkCompromised withdraws a key from all use. When the key was active a
// replacement is installed before the command returns.
func RunMarkCompromised(
	ctx context.Context,
	useCase keysUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	keyID, reason string,
) error {
	id, err := parseID(keyID)
	if err != nil {
		return err
	}

	if reason == "" {
		return fmt.Errorf("reason must not be empty")
	}

	logger.Info("marking key compromised",
		slog.String("key_id", id.String()),
		slog.String("reason", reason),
	)

	if err := useCase.MarkCompromised(ctx, id, reason); err != nil {
		return fmt.Errorf("failed to mark key compromised: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Key %s marked compromised\n", id)
	return nil
}
