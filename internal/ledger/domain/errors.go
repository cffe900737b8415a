package domain

import (
	"github.com/allisson/compliance-vault/internal/errors"
)

var (
	// ErrChainIntegrity indicates the hash chain failed verification: an
	// event was inserted, deleted, reordered, or altered after the fact.
	// Fatal to the query; always accompanied by a critical alert.
	ErrChainIntegrity = errors.Wrap(errors.ErrIntegrity, "audit chain verification failed")

	// ErrSegmentNotFound indicates a segment file vanished between listing
	// and read. Retryable by the caller; not a chain violation.
	ErrSegmentNotFound = errors.Wrap(errors.ErrTransient, "ledger segment not found")
)
