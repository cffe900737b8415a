package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/compliance-vault/internal/errors"
	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
)

func chainedEvents(t *testing.T, n int) []*ledgerDomain.AuditEvent {
	t.Helper()

	events := make([]*ledgerDomain.AuditEvent, 0, n)
	previous := GenesisHash()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		event := &ledgerDomain.AuditEvent{
			ID:        uuid.Must(uuid.NewV7()),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Category:  ledgerDomain.CategoryDataAccess,
			Actor:     ledgerDomain.Actor{ID: "clinician-7", Role: "physician", Origin: "10.0.0.8"},
			Action: ledgerDomain.Action{
				Type:    "read_record",
				Outcome: ledgerDomain.OutcomeSuccess,
				Details: map[string]any{"fields": "all"},
			},
			Resource:  ledgerDomain.Resource{Type: "patient_record", ID: "rec-42"},
			SubjectID: "patient-42",
			Metadata: ledgerDomain.EventMetadata{
				EncryptedAt:  base.Add(time.Duration(i) * time.Second),
				PreviousHash: previous,
			},
		}
		hash, err := ComputeHash(event)
		require.NoError(t, err)
		event.Metadata.Hash = hash
		previous = hash
		events = append(events, event)
	}
	return events
}

func TestGenesisHash(t *testing.T) {
	assert.Len(t, GenesisHash(), 64)
	assert.Equal(t, GenesisHash(), GenesisHash())
}

func TestComputeHash(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		event := chainedEvents(t, 1)[0]
		h1, err := ComputeHash(event)
		require.NoError(t, err)
		h2, err := ComputeHash(event)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("sensitive to every content field", func(t *testing.T) {
		base := chainedEvents(t, 1)[0]
		baseHash, err := ComputeHash(base)
		require.NoError(t, err)

		mutations := map[string]func(e *ledgerDomain.AuditEvent){
			"timestamp":     func(e *ledgerDomain.AuditEvent) { e.Timestamp = e.Timestamp.Add(time.Nanosecond) },
			"category":      func(e *ledgerDomain.AuditEvent) { e.Category = ledgerDomain.CategoryAdministrative },
			"actor id":      func(e *ledgerDomain.AuditEvent) { e.Actor.ID = "other" },
			"outcome":       func(e *ledgerDomain.AuditEvent) { e.Action.Outcome = ledgerDomain.OutcomeFailure },
			"details":       func(e *ledgerDomain.AuditEvent) { e.Action.Details = map[string]any{"fields": "none"} },
			"resource id":   func(e *ledgerDomain.AuditEvent) { e.Resource.ID = "rec-43" },
			"subject":       func(e *ledgerDomain.AuditEvent) { e.SubjectID = "patient-43" },
			"previous hash": func(e *ledgerDomain.AuditEvent) { e.Metadata.PreviousHash = "not-" + GenesisHash() },
		}
		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				event := *base
				event.Metadata = base.Metadata
				mutate(&event)
				mutated, err := ComputeHash(&event)
				require.NoError(t, err)
				assert.NotEqual(t, baseHash, mutated)
			})
		}
	})

	t.Run("excludes own hash field", func(t *testing.T) {
		event := chainedEvents(t, 1)[0]
		before, err := ComputeHash(event)
		require.NoError(t, err)

		event.Metadata.Hash = "something else"
		after, err := ComputeHash(event)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("boundary ambiguity is prevented by length prefixes", func(t *testing.T) {
		a := chainedEvents(t, 1)[0]
		b := *a
		b.Metadata = a.Metadata
		// Move a byte across a field boundary: "clinician-7"/"physician"
		// vs "clinician-7p"/"hysician" must hash differently.
		b.Actor.ID = a.Actor.ID + "p"
		b.Actor.Role = a.Actor.Role[1:]

		ha, err := ComputeHash(a)
		require.NoError(t, err)
		hb, err := ComputeHash(&b)
		require.NoError(t, err)
		assert.NotEqual(t, ha, hb)
	})
}

func TestVerifyChain(t *testing.T) {
	t.Run("valid chain from genesis", func(t *testing.T) {
		events := chainedEvents(t, 5)
		assert.NoError(t, VerifyChain(events, true))
	})

	t.Run("empty sequence is valid", func(t *testing.T) {
		assert.NoError(t, VerifyChain(nil, true))
	})

	t.Run("mid-chain window skips genesis check", func(t *testing.T) {
		events := chainedEvents(t, 5)
		assert.NoError(t, VerifyChain(events[2:], false))
		assert.Error(t, VerifyChain(events[2:], true))
	})

	t.Run("tampered content is detected", func(t *testing.T) {
		events := chainedEvents(t, 3)
		events[1].SubjectID = "patient-99"

		err := VerifyChain(events, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, ledgerDomain.ErrChainIntegrity)
		assert.ErrorIs(t, err, apperrors.ErrIntegrity)
	})

	t.Run("reordered events are detected", func(t *testing.T) {
		events := chainedEvents(t, 3)
		events[1], events[2] = events[2], events[1]

		err := VerifyChain(events, true)
		assert.ErrorIs(t, err, ledgerDomain.ErrChainIntegrity)
	})

	t.Run("deleted event is detected", func(t *testing.T) {
		events := chainedEvents(t, 3)
		gapped := []*ledgerDomain.AuditEvent{events[0], events[2]}

		err := VerifyChain(gapped, true)
		assert.ErrorIs(t, err, ledgerDomain.ErrChainIntegrity)
	})

	t.Run("relinked previous hash is detected by content hash", func(t *testing.T) {
		events := chainedEvents(t, 3)
		// An attacker rewriting previous_hash to splice the chain invalidates
		// the content hash, which covers previous_hash.
		events[2].Metadata.PreviousHash = events[0].Metadata.Hash

		err := VerifyChain(events[1:], false)
		assert.ErrorIs(t, err, ledgerDomain.ErrChainIntegrity)
	})
}
