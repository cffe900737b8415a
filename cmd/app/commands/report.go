package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/compliance-vault/internal/report"
)

// RunReport generates a compliance report for a time range and prints it.
func RunReport(
	ctx context.Context,
	reporter *report.Reporter,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	format string,
) error {
	start, err := parseDate(startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	end, err := parseDate(endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("generating report",
		slog.Time("start_date", start),
		slog.Time("end_date", end),
	)

	result, err := reporter.Generate(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if format == "json" {
		return outputJSON(writer, result)
	}

	outputReportText(writer, result)
	return nil
}

// outputReportText outputs the report in human-readable text format.
func outputReportText(writer io.Writer, result *report.Report) {
	_, _ = fmt.Fprintf(writer, "Compliance Report\n")
	_, _ = fmt.Fprintf(writer, "=================\n\n")
	_, _ = fmt.Fprintf(writer,
		"Period: %s to %s\n\n",
		result.PeriodStart.Format("2006-01-02 15:04:05"),
		result.PeriodEnd.Format("2006-01-02 15:04:05"),
	)

	chain := "verified"
	if !result.Ledger.ChainVerified {
		chain = "BROKEN"
	}
	_, _ = fmt.Fprintf(writer, "Audit Ledger\n")
	_, _ = fmt.Fprintf(writer, "  Events:      %d\n", result.Ledger.TotalEvents)
	_, _ = fmt.Fprintf(writer, "  High risk:   %d\n", result.Ledger.HighRiskEvents)
	_, _ = fmt.Fprintf(writer, "  Hash chain:  %s\n", chain)
	for category, count := range result.Ledger.ByCategory {
		_, _ = fmt.Fprintf(writer, "    %-20s %d\n", category, count)
	}

	_, _ = fmt.Fprintf(writer, "\nBackups\n")
	_, _ = fmt.Fprintf(writer, "  In window:       %d\n", result.Backups.WindowTotal)
	_, _ = fmt.Fprintf(writer, "  Verified:        %d\n", result.Backups.WindowVerified)
	_, _ = fmt.Fprintf(writer, "  Restore tested:  %d\n", result.Backups.RestorationTested)
	_, _ = fmt.Fprintf(writer, "  Coverage:        %.0f%%\n", result.Backups.Coverage*100)

	_, _ = fmt.Fprintf(writer, "\nKeys\n")
	for _, purpose := range result.Keys.Purposes {
		backedUp := "backed up"
		if !purpose.BackedUp {
			backedUp = "NOT backed up"
		}
		expired := ""
		if purpose.Expired {
			expired = ", EXPIRED"
		}
		_, _ = fmt.Fprintf(writer, "  %-16s %s (%s%s)\n", purpose.Purpose, purpose.KeyID, backedUp, expired)
	}
	if result.Keys.Compromised > 0 {
		_, _ = fmt.Fprintf(writer, "  WARNING: %d compromised key(s) on record\n", result.Keys.Compromised)
	}

	_, _ = fmt.Fprintf(writer, "\nReadiness Score: %d/100\n", result.Score)
	_, _ = fmt.Fprintf(writer, "Generated at: %s\n", result.GeneratedAt.Format(time.RFC3339))
}
