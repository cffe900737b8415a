package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	keysUseCase "github.com/allisson/compliance-vault/internal/keys/usecase"
)

// RunListKeys prints every persisted key. Key material never appears in the
// output; the JSON encoding of keys excludes it.
func RunListKeys(
	ctx context.Context,
	useCase keysUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	keys, err := useCase.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	logger.Info("keys listed", slog.Int("count", len(keys)))

	if format == "json" {
		return outputJSON(writer, keys)
	}

	outputKeysText(writer, keys)
	return nil
}

// outputKeysText outputs the keys in human-readable text format.
func outputKeysText(writer io.Writer, keys []*keysDomain.EncryptionKey) {
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(writer, "No keys found")
		return
	}

	for _, key := range keys {
		backedUp := "no"
		if key.BackedUp {
			backedUp = "yes"
		}
		_, _ = fmt.Fprintf(writer, "%s  %-15s  %-11s  backed_up=%-3s  expires=%s\n",
			key.ID,
			key.Purpose,
			key.Status,
			backedUp,
			key.ExpiresAt.UTC().Format(time.RFC3339),
		)
	}

	_, _ = fmt.Fprintf(writer, "\nTotal: %d key(s)\n", len(keys))
}
