// Package domain defines the audit ledger domain model: regulated events, the
// hash-chain metadata that makes the ledger tamper-evident, and the retention
// policies that drive archival.
package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appvalidation "github.com/allisson/compliance-vault/internal/validation"
)

// EventCategory classifies a regulated event.
type EventCategory string

const (
	CategoryDataAccess       EventCategory = "data_access"
	CategoryDataModification EventCategory = "data_modification"
	CategoryAuthentication   EventCategory = "authentication"
	CategorySystemOperation  EventCategory = "system_operation"
	CategorySecurityEvent    EventCategory = "security_event"
	CategoryAdministrative   EventCategory = "administrative"
)

// Categories lists all valid event categories.
func Categories() []EventCategory {
	return []EventCategory{
		CategoryDataAccess,
		CategoryDataModification,
		CategoryAuthentication,
		CategorySystemOperation,
		CategorySecurityEvent,
		CategoryAdministrative,
	}
}

// ActionOutcome records whether the audited action succeeded.
type ActionOutcome string

const (
	OutcomeSuccess ActionOutcome = "success"
	OutcomeFailure ActionOutcome = "failure"
)

// Actor identifies who performed the audited action.
type Actor struct {
	ID     string `json:"id"`
	Role   string `json:"role,omitempty"`
	Origin string `json:"origin,omitempty"` // network origin, e.g. client IP
}

// Action describes what was done and how it went.
type Action struct {
	Type    string         `json:"type"`
	Outcome ActionOutcome  `json:"outcome"`
	Details map[string]any `json:"details,omitempty"`
}

// Resource describes the object the action was performed on.
type Resource struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// EventMetadata carries the ledger-assigned hash-chain fields. The ledger
// stamps these at append time; they are never supplied by callers.
type EventMetadata struct {
	EncryptedAt  time.Time `json:"encrypted_at"`
	Hash         string    `json:"hash"`
	PreviousHash string    `json:"previous_hash"`
}

// AuditEvent is one regulated action recorded in the ledger. Events are
// created once at append time and never mutated afterwards.
type AuditEvent struct {
	ID            uuid.UUID     `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	Category      EventCategory `json:"category"`
	Actor         Actor         `json:"actor"`
	Action        Action        `json:"action"`
	Resource      Resource      `json:"resource"`
	SubjectID     string        `json:"subject_id,omitempty"` // e.g. patient id
	Location      string        `json:"location,omitempty"`
	Justification string        `json:"justification,omitempty"`
	Metadata      EventMetadata `json:"metadata"`
}

// EventInput is a submission to the ledger: an event without identifier and
// chain metadata. Timestamp may be zero, in which case the ledger stamps the
// append time.
type EventInput struct {
	Timestamp     time.Time
	Category      EventCategory
	Actor         Actor
	Action        Action
	Resource      Resource
	SubjectID     string
	Location      string
	Justification string
}

// Validate checks the submission before it enters the ledger.
func (e EventInput) Validate() error {
	categories := make([]any, 0, len(Categories()))
	for _, c := range Categories() {
		categories = append(categories, c)
	}

	err := validation.Errors{
		"category": validation.Validate(e.Category, validation.Required, validation.In(categories...)),
		"actor_id": validation.Validate(e.Actor.ID, validation.Required),
		"action_type": validation.Validate(e.Action.Type, validation.Required),
		"action_outcome": validation.Validate(
			e.Action.Outcome,
			validation.Required,
			validation.In(OutcomeSuccess, OutcomeFailure),
		),
		"resource_type": validation.Validate(e.Resource.Type, validation.Required),
		"resource_id":   validation.Validate(e.Resource.ID, validation.Required),
	}.Filter()

	return appvalidation.WrapValidationError(err)
}

// highRiskCategories trigger an alert on append regardless of outcome.
var highRiskCategories = map[EventCategory]bool{
	CategoryDataAccess:       true,
	CategoryDataModification: true,
	CategoryAuthentication:   true,
	CategorySecurityEvent:    true,
}

// IsHighRisk reports whether the event must raise a high-severity alert when
// appended: high-risk category or any failed action.
func (e *AuditEvent) IsHighRisk() bool {
	return highRiskCategories[e.Category] || e.Action.Outcome == OutcomeFailure
}
