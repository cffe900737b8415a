package domain

import "time"

// QueryFilter selects events from the ledger. Time bounds are required;
// all other predicates are optional and ANDed together.
type QueryFilter struct {
	From time.Time
	To   time.Time

	Category   EventCategory
	ActionType string
	ActorID    string
	SubjectID  string
	ResourceID string
}

// Matches reports whether the event satisfies every set predicate.
func (f QueryFilter) Matches(event *AuditEvent) bool {
	if event.Timestamp.Before(f.From) || event.Timestamp.After(f.To) {
		return false
	}
	if f.Category != "" && event.Category != f.Category {
		return false
	}
	if f.ActionType != "" && event.Action.Type != f.ActionType {
		return false
	}
	if f.ActorID != "" && event.Actor.ID != f.ActorID {
		return false
	}
	if f.SubjectID != "" && event.SubjectID != f.SubjectID {
		return false
	}
	if f.ResourceID != "" && event.Resource.ID != f.ResourceID {
		return false
	}
	return true
}
