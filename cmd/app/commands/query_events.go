package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
	ledgerUseCase "github.com/allisson/compliance-vault/internal/ledger/usecase"
)

// QueryEventsArgs holds the raw flag values for a query-events run.
type QueryEventsArgs struct {
	StartDate string
	EndDate   string
	Category  string
	ActorID   string
	SubjectID string
	Limit     int
	Format    string
}

// RunQueryEvents queries the audit ledger and prints the matching events,
// newest first. The hash chain over the retrieved window is verified before
// any event is returned.
func RunQueryEvents(
	ctx context.Context,
	useCase ledgerUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	args QueryEventsArgs,
) error {
	filter := ledgerDomain.QueryFilter{
		Category:  ledgerDomain.EventCategory(args.Category),
		ActorID:   args.ActorID,
		SubjectID: args.SubjectID,
	}

	if args.StartDate != "" {
		start, err := parseDate(args.StartDate)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		filter.From = start
	}

	if args.EndDate != "" {
		end, err := parseDate(args.EndDate)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		filter.To = end
	}

	events, err := useCase.Query(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}

	if args.Limit > 0 && len(events) > args.Limit {
		events = events[:args.Limit]
	}

	logger.Info("events queried", slog.Int("count", len(events)))

	if args.Format == "json" {
		return outputJSON(writer, events)
	}

	outputEventsText(writer, events)
	return nil
}

// outputEventsText outputs the events in human-readable text format.
func outputEventsText(writer io.Writer, events []*ledgerDomain.AuditEvent) {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(writer, "No events found")
		return
	}

	for _, event := range events {
		_, _ = fmt.Fprintf(writer, "%s  %s  %s  %s/%s  %s",
			event.Timestamp.UTC().Format(time.RFC3339),
			event.ID,
			event.Category,
			event.Actor.ID,
			event.Action.Type,
			event.Action.Outcome,
		)
		if event.SubjectID != "" {
			_, _ = fmt.Fprintf(writer, "  subject=%s", event.SubjectID)
		}
		_, _ = fmt.Fprintln(writer)
	}

	_, _ = fmt.Fprintf(writer, "\nTotal: %d event(s), hash chain verified\n", len(events))
}
