// Package usecase implements the audit ledger operations: serialized appends
// that advance the hash chain, verified queries, and retention-driven
// archival.
package usecase

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/compliance-vault/internal/alerting"
	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
	ledgerService "github.com/allisson/compliance-vault/internal/ledger/service"
)

// Alert kinds raised by the ledger.
const (
	AlertHighRiskEvent   = "high_risk_audit_event"
	AlertChainViolation  = "chain_integrity_violation"
	AlertPersistFailure  = "audit_persistence_failure"
	AlertSegmentArchived = "audit_segment_archived"
)

// LedgerUseCase owns the chain tail and serializes appends against it.
type LedgerUseCase struct {
	store    SegmentStore
	policies []ledgerDomain.RetentionPolicy
	alerts   alerting.Sink
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex // guards tailHash; appends are serialized
	tailHash string
}

// NewLedgerUseCase creates the ledger. The chain tail is recovered from the
// newest persisted event on first use; an empty ledger starts at the genesis
// sentinel.
func NewLedgerUseCase(
	store SegmentStore,
	policies []ledgerDomain.RetentionPolicy,
	alerts alerting.Sink,
	logger *slog.Logger,
) *LedgerUseCase {
	if len(policies) == 0 {
		policies = ledgerDomain.DefaultRetentionPolicies()
	}
	return &LedgerUseCase{
		store:    store,
		policies: policies,
		alerts:   alerts,
		logger:   logger,
		now:      time.Now,
	}
}

// loadTail recovers the chain tail. Caller must hold mu.
func (uc *LedgerUseCase) loadTail(ctx context.Context) error {
	if uc.tailHash != "" {
		return nil
	}
	tail, err := uc.store.TailEvent(ctx)
	if err != nil {
		return err
	}
	if tail == nil {
		uc.tailHash = ledgerService.GenesisHash()
	} else {
		uc.tailHash = tail.Metadata.Hash
	}
	return nil
}

// Append validates the submission, stamps id and chain metadata, persists the
// event, and advances the tail hash. Appends are serialized: a stale tail
// would produce a chain that fails verification.
func (uc *LedgerUseCase) Append(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error) {
	if err := input.Validate(); err != nil {
		return uuid.Nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.loadTail(ctx); err != nil {
		return uuid.Nil, err
	}

	now := uc.now().UTC()
	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	event := &ledgerDomain.AuditEvent{
		ID:            uuid.Must(uuid.NewV7()),
		Timestamp:     timestamp.UTC(),
		Category:      input.Category,
		Actor:         input.Actor,
		Action:        input.Action,
		Resource:      input.Resource,
		SubjectID:     input.SubjectID,
		Location:      input.Location,
		Justification: input.Justification,
		Metadata: ledgerDomain.EventMetadata{
			EncryptedAt:  now,
			PreviousHash: uc.tailHash,
		},
	}

	hash, err := ledgerService.ComputeHash(event)
	if err != nil {
		return uuid.Nil, err
	}
	event.Metadata.Hash = hash

	if err := uc.store.Append(ctx, event); err != nil {
		uc.alerts.Raise(AlertPersistFailure, alerting.SeverityHigh, map[string]any{
			"event_id": event.ID.String(),
			"error":    err.Error(),
		})
		return uuid.Nil, err
	}
	uc.tailHash = hash

	if event.IsHighRisk() {
		uc.alerts.Raise(AlertHighRiskEvent, alerting.SeverityHigh, map[string]any{
			"event_id": event.ID.String(),
			"category": string(event.Category),
			"action":   event.Action.Type,
			"outcome":  string(event.Action.Outcome),
			"actor_id": event.Actor.ID,
		})
	}

	uc.logger.Debug("audit event appended",
		slog.String("event_id", event.ID.String()),
		slog.String("category", string(event.Category)),
	)
	return event.ID, nil
}

// collectWindow reads all events of segments intersecting [from, to] in
// append order.
func (uc *LedgerUseCase) collectWindow(ctx context.Context, from, to time.Time) ([]*ledgerDomain.AuditEvent, error) {
	segments, err := uc.store.ListSegments(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var events []*ledgerDomain.AuditEvent
	for _, segment := range segments {
		decoded, err := uc.store.ReadSegment(ctx, segment.Name)
		if err != nil {
			return nil, err
		}
		events = append(events, decoded...)
	}
	return events, nil
}

// verifyWindow verifies the chain across a retrieved window and raises a
// critical alert on any break.
func (uc *LedgerUseCase) verifyWindow(events []*ledgerDomain.AuditEvent, from, to time.Time) error {
	err := ledgerService.VerifyChain(events, false)
	if err != nil {
		uc.alerts.Raise(AlertChainViolation, alerting.SeverityCritical, map[string]any{
			"from":  from.Format(time.RFC3339),
			"to":    to.Format(time.RFC3339),
			"error": err.Error(),
		})
	}
	return err
}

// Query collects segments intersecting the filter window, verifies the hash
// chain across the whole retrieved window (before filtering, so gaps created
// by predicates cannot mask tampering), then filters and returns the matches
// sorted by timestamp descending.
func (uc *LedgerUseCase) Query(ctx context.Context, filter ledgerDomain.QueryFilter) ([]*ledgerDomain.AuditEvent, error) {
	events, err := uc.collectWindow(ctx, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	if err := uc.verifyWindow(events, filter.From, filter.To); err != nil {
		return nil, err
	}

	matches := make([]*ledgerDomain.AuditEvent, 0, len(events))
	for _, event := range events {
		if filter.Matches(event) {
			matches = append(matches, event)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})
	return matches, nil
}

// VerifyRange verifies the chain across a window without filtering.
func (uc *LedgerUseCase) VerifyRange(ctx context.Context, from, to time.Time) (int, error) {
	events, err := uc.collectWindow(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if err := uc.verifyWindow(events, from, to); err != nil {
		return 0, err
	}
	return len(events), nil
}

// ArchiveDueSegments moves every segment older than the retention schedule's
// archival cutoff into archive storage. Each move raises an informational
// alert. The chain is unaffected: archival moves whole files without
// rewriting records.
func (uc *LedgerUseCase) ArchiveDueSegments(ctx context.Context) (int, error) {
	cutoff := ledgerDomain.ArchiveCutoffFor(uc.policies, uc.now().UTC())

	segments, err := uc.store.ListSegments(ctx, time.Unix(0, 0).UTC(), cutoff)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, segment := range segments {
		if !segment.Date.Before(cutoff.Truncate(24 * time.Hour)) {
			continue
		}
		if err := uc.store.MoveToArchive(ctx, segment.Name); err != nil {
			uc.alerts.Raise(AlertPersistFailure, alerting.SeverityHigh, map[string]any{
				"segment": segment.Name,
				"error":   err.Error(),
			})
			return moved, err
		}
		moved++
		uc.alerts.Raise(AlertSegmentArchived, alerting.SeverityLow, map[string]any{
			"segment": segment.Name,
			"date":    segment.Date.Format("2006-01-02"),
		})
	}
	return moved, nil
}
