package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
	ledgerRepository "github.com/allisson/compliance-vault/internal/ledger/repository"
)

// SegmentStore defines the persistence operations the ledger needs.
type SegmentStore interface {
	Append(ctx context.Context, event *ledgerDomain.AuditEvent) error
	ListSegments(ctx context.Context, from, to time.Time) ([]ledgerRepository.Segment, error)
	ReadSegment(ctx context.Context, name string) ([]*ledgerDomain.AuditEvent, error)
	TailEvent(ctx context.Context) (*ledgerDomain.AuditEvent, error)
	MoveToArchive(ctx context.Context, name string) error
}

// UseCase defines the audit ledger operations.
type UseCase interface {
	// Append records one regulated event, stamping its identifier and
	// hash-chain metadata, and returns the generated event id.
	Append(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error)

	// Query returns events matching the filter, newest first, after
	// verifying the hash chain across the retrieved window.
	Query(ctx context.Context, filter ledgerDomain.QueryFilter) ([]*ledgerDomain.AuditEvent, error)

	// VerifyRange verifies the hash chain across a time window without
	// filtering and returns the number of events checked.
	VerifyRange(ctx context.Context, from, to time.Time) (int, error)

	// ArchiveDueSegments moves retention-expired segments to archive
	// storage and returns the number of segments moved.
	ArchiveDueSegments(ctx context.Context) (int, error)
}
