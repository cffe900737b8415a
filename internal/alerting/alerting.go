// Package alerting defines the alert sink consumed by the audit ledger, key
// lifecycle manager, and backup pipeline. Raising an alert is fire-and-forget:
// a failing sink must never abort the operation that triggered the alert.
package alerting

// Severity classifies how urgently an alert needs operator attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Sink receives named alerts with a severity and a structured detail payload.
// Implementations must not return control-flow errors to the caller; delivery
// failures are logged and swallowed.
type Sink interface {
	Raise(kind string, severity Severity, details map[string]any)
}
