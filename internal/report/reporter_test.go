package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
)

type stubLedger struct {
	events []*ledgerDomain.AuditEvent
	err    error
}

func (s *stubLedger) Query(context.Context, ledgerDomain.QueryFilter) ([]*ledgerDomain.AuditEvent, error) {
	return s.events, s.err
}

type stubBackups struct {
	metas []*backupDomain.BackupMetadata
	err   error
}

func (s *stubBackups) ListBackups(context.Context) ([]*backupDomain.BackupMetadata, error) {
	return s.metas, s.err
}

type stubKeys struct {
	keys []*keysDomain.EncryptionKey
	err  error
}

func (s *stubKeys) ListKeys(context.Context) ([]*keysDomain.EncryptionKey, error) {
	return s.keys, s.err
}

func newReporter(ledger LedgerReader, backups BackupReader, keys KeyReader) *Reporter {
	return NewReporter(
		ledger, backups, keys,
		7*24*time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func healthyFixture(now time.Time) (*stubLedger, *stubBackups, *stubKeys) {
	ledger := &stubLedger{events: []*ledgerDomain.AuditEvent{
		{
			Category: ledgerDomain.CategoryDataAccess,
			Action:   ledgerDomain.Action{Type: "read_record", Outcome: ledgerDomain.OutcomeSuccess},
		},
		{
			Category: ledgerDomain.CategorySystemOperation,
			Action:   ledgerDomain.Action{Type: "backup_created", Outcome: ledgerDomain.OutcomeSuccess},
		},
	}}

	backups := &stubBackups{metas: []*backupDomain.BackupMetadata{
		{
			ID:                uuid.New(),
			CreatedAt:         now.Add(-24 * time.Hour),
			Verification:      backupDomain.VerificationSuccess,
			RestorationTested: true,
		},
	}}

	keys := &stubKeys{keys: []*keysDomain.EncryptionKey{
		{
			ID:        uuid.New(),
			Purpose:   keysDomain.PurposePatientRecords,
			Status:    keysDomain.KeyStatusActive,
			BackedUp:  true,
			ExpiresAt: now.Add(30 * 24 * time.Hour),
		},
	}}

	return ledger, backups, keys
}

func TestReporter_Generate(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	from := now.Add(-30 * 24 * time.Hour)

	t.Run("healthy system scores full marks", func(t *testing.T) {
		reporter := newReporter(healthyFixture(now))
		report, err := reporter.Generate(ctx, from, now)
		require.NoError(t, err)

		assert.Equal(t, 100, report.Score)
		assert.True(t, report.Ledger.ChainVerified)
		assert.Equal(t, 2, report.Ledger.TotalEvents)
		assert.Equal(t, 1, report.Ledger.HighRiskEvents)
		assert.Equal(t, 1, report.Ledger.ByCategory[string(ledgerDomain.CategoryDataAccess)])
		assert.Equal(t, 1.0, report.Backups.Coverage)
		assert.Equal(t, 1, report.Backups.RestorationTested)
		require.Len(t, report.Keys.Purposes, 1)
		assert.False(t, report.Keys.Purposes[0].Expired)
	})

	t.Run("broken chain is a finding, not an error", func(t *testing.T) {
		ledger, backups, keys := healthyFixture(now)
		ledger.events = nil
		ledger.err = ledgerDomain.ErrChainIntegrity

		report, err := newReporter(ledger, backups, keys).Generate(ctx, from, now)
		require.NoError(t, err)

		assert.False(t, report.Ledger.ChainVerified)
		assert.Equal(t, 60, report.Score, "the chain carries forty points")
	})

	t.Run("stale unverified backups drag coverage down", func(t *testing.T) {
		ledger, backups, keys := healthyFixture(now)
		backups.metas = append(backups.metas, &backupDomain.BackupMetadata{
			ID:           uuid.New(),
			CreatedAt:    now.Add(-24 * time.Hour),
			Verification: backupDomain.VerificationFailure,
		})

		report, err := newReporter(ledger, backups, keys).Generate(ctx, from, now)
		require.NoError(t, err)

		assert.Equal(t, 2, report.Backups.WindowTotal)
		assert.Equal(t, 1, report.Backups.WindowVerified)
		assert.Equal(t, 0.5, report.Backups.Coverage)
		assert.Equal(t, 85, report.Score)
	})

	t.Run("backups outside the window are ignored for coverage", func(t *testing.T) {
		ledger, backups, keys := healthyFixture(now)
		backups.metas = append(backups.metas, &backupDomain.BackupMetadata{
			ID:           uuid.New(),
			CreatedAt:    now.Add(-30 * 24 * time.Hour),
			Verification: backupDomain.VerificationFailure,
		})

		report, err := newReporter(ledger, backups, keys).Generate(ctx, from, now)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Backups.WindowTotal)
		assert.Equal(t, 1.0, report.Backups.Coverage)
	})

	t.Run("expired active key loses key points", func(t *testing.T) {
		ledger, backups, keys := healthyFixture(now)
		keys.keys[0].ExpiresAt = now.Add(-time.Hour)

		report, err := newReporter(ledger, backups, keys).Generate(ctx, from, now)
		require.NoError(t, err)

		require.Len(t, report.Keys.Purposes, 1)
		assert.True(t, report.Keys.Purposes[0].Expired)
		assert.Equal(t, 70, report.Score)
	})

	t.Run("compromised key costs ten points", func(t *testing.T) {
		ledger, backups, keys := healthyFixture(now)
		keys.keys = append(keys.keys, &keysDomain.EncryptionKey{
			ID:      uuid.New(),
			Purpose: keysDomain.PurposePatientRecords,
			Status:  keysDomain.KeyStatusCompromised,
		})

		report, err := newReporter(ledger, backups, keys).Generate(ctx, from, now)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Keys.Compromised)
		assert.Equal(t, 90, report.Score)
	})

	t.Run("section failure fails the report", func(t *testing.T) {
		ledger, backups, keys := healthyFixture(now)
		backups.err = errors.New("disk unreadable")

		_, err := newReporter(ledger, backups, keys).Generate(ctx, from, now)
		assert.Error(t, err)
	})
}
