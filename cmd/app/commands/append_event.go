package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
	ledgerUseCase "github.com/allisson/compliance-vault/internal/ledger/usecase"
)

// AppendEventArgs holds the raw flag values for an append-event run.
type AppendEventArgs struct {
	Category      string
	ActorID       string
	ActorRole     string
	Action        string
	Outcome       string
	ResourceType  string
	ResourceID    string
	SubjectID     string
	Justification string
	Details       string
}

// RunAppendEvent appends one regulated event to the audit ledger and prints
// the generated event id.
func RunAppendEvent(
	ctx context.Context,
	useCase ledgerUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	args AppendEventArgs,
) error {
	var details map[string]any
	if args.Details != "" {
		if err := json.Unmarshal([]byte(args.Details), &details); err != nil {
			return fmt.Errorf("invalid details JSON: %w", err)
		}
	}

	input := ledgerDomain.EventInput{
		Category: ledgerDomain.EventCategory(args.Category),
		Actor: ledgerDomain.Actor{
			ID:   args.ActorID,
			Role: args.ActorRole,
		},
		Action: ledgerDomain.Action{
			Type:    args.Action,
			Outcome: ledgerDomain.ActionOutcome(args.Outcome),
			Details: details,
		},
		Resource: ledgerDomain.Resource{
			Type: args.ResourceType,
			ID:   args.ResourceID,
		},
		SubjectID:     args.SubjectID,
		Justification: args.Justification,
	}

	id, err := useCase.Append(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	logger.Info("event appended",
		slog.String("event_id", id.String()),
		slog.String("category", args.Category),
	)

	_, _ = fmt.Fprintf(writer, "Event appended: %s\n", id)
	return nil
}
