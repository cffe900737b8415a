// Package commands contains CLI command implementations for the application.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// parseDate parses a date string in format "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" to time.Time.
func parseDate(dateStr string) (time.Time, error) {
	// Try full datetime format first
	t, err := time.Parse("2006-01-02 15:04:05", dateStr)
	if err == nil {
		return t, nil
	}

	// Try date-only format (defaults to start of day)
	t, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid date format (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS): %s",
			dateStr,
		)
	}

	return t, nil
}

// parsePurpose converts a purpose string to keysDomain.Purpose.
// Returns an error if the purpose string is invalid.
func parsePurpose(purpose string) (keysDomain.Purpose, error) {
	switch purpose {
	case "patient_records":
		return keysDomain.PurposePatientRecords, nil
	case "audit_ledger":
		return keysDomain.PurposeAuditLedger, nil
	case "backups":
		return keysDomain.PurposeBackups, nil
	default:
		return "", fmt.Errorf(
			"invalid purpose: %s (valid options: patient_records, audit_ledger, backups)",
			purpose,
		)
	}
}

// parseID converts an id string to a uuid.UUID.
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id: %s", id)
	}
	return parsed, nil
}

// outputJSON writes the value as indented JSON.
func outputJSON(writer io.Writer, value any) error {
	jsonBytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
