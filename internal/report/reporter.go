// Package report builds compliance reports over the audit ledger, backup
// pipeline, and key lifecycle. Sections are gathered in parallel and folded
// into a single 0-100 readiness score.
package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
)

// LedgerReader is the slice of the ledger the reporter needs.
type LedgerReader interface {
	Query(ctx context.Context, filter ledgerDomain.QueryFilter) ([]*ledgerDomain.AuditEvent, error)
}

// BackupReader is the slice of the backup pipeline the reporter needs.
type BackupReader interface {
	ListBackups(ctx context.Context) ([]*backupDomain.BackupMetadata, error)
}

// KeyReader is the slice of the key lifecycle the reporter needs.
type KeyReader interface {
	ListKeys(ctx context.Context) ([]*keysDomain.EncryptionKey, error)
}

// LedgerSection summarizes audit activity in the reporting period.
type LedgerSection struct {
	TotalEvents    int            `json:"total_events"`
	ByCategory     map[string]int `json:"by_category"`
	HighRiskEvents int            `json:"high_risk_events"`
	ChainVerified  bool           `json:"chain_verified"`
}

// BackupSection summarizes backup verification coverage. Coverage counts
// backups created within the verification window that passed verification.
type BackupSection struct {
	WindowTotal       int     `json:"window_total"`
	WindowVerified    int     `json:"window_verified"`
	RestorationTested int     `json:"restoration_tested"`
	Coverage          float64 `json:"coverage"`
}

// PurposeStatus reports key freshness for one purpose.
type PurposeStatus struct {
	Purpose  keysDomain.Purpose `json:"purpose"`
	KeyID    string             `json:"key_id"`
	BackedUp bool               `json:"backed_up"`
	Expired  bool               `json:"expired"`
}

// KeySection summarizes the key lifecycle state.
type KeySection struct {
	Purposes    []PurposeStatus `json:"purposes"`
	Compromised int             `json:"compromised"`
}

// Report is the full compliance report.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Ledger      LedgerSection `json:"ledger"`
	Backups     BackupSection `json:"backups"`
	Keys        KeySection    `json:"keys"`
	Score       int           `json:"score"`
}

// Reporter gathers report sections from the three subsystems.
type Reporter struct {
	ledger       LedgerReader
	backups      BackupReader
	keys         KeyReader
	verifyWindow time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewReporter creates a Reporter. verifyWindow bounds how old a backup may
// be and still count toward verification coverage.
func NewReporter(
	ledger LedgerReader,
	backups BackupReader,
	keys KeyReader,
	verifyWindow time.Duration,
	logger *slog.Logger,
) *Reporter {
	return &Reporter{
		ledger:       ledger,
		backups:      backups,
		keys:         keys,
		verifyWindow: verifyWindow,
		logger:       logger,
		now:          time.Now,
	}
}

// Generate builds the report for [from, to]. The three sections are
// gathered concurrently; a failure in any section fails the report, except
// a broken audit chain, which is a finding, not an error.
func (r *Reporter) Generate(ctx context.Context, from, to time.Time) (*Report, error) {
	now := r.now().UTC()
	report := &Report{
		GeneratedAt: now,
		PeriodStart: from,
		PeriodEnd:   to,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		section, err := r.ledgerSection(gctx, from, to)
		if err != nil {
			return err
		}
		report.Ledger = *section
		return nil
	})

	g.Go(func() error {
		section, err := r.backupSection(gctx, now)
		if err != nil {
			return err
		}
		report.Backups = *section
		return nil
	})

	g.Go(func() error {
		section, err := r.keySection(gctx, now)
		if err != nil {
			return err
		}
		report.Keys = *section
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Score = score(report)
	r.logger.Info("compliance report generated",
		slog.Time("period_start", from),
		slog.Time("period_end", to),
		slog.Int("score", report.Score),
		slog.Bool("chain_verified", report.Ledger.ChainVerified),
	)
	return report, nil
}

func (r *Reporter) ledgerSection(ctx context.Context, from, to time.Time) (*LedgerSection, error) {
	section := &LedgerSection{ByCategory: make(map[string]int)}

	events, err := r.ledger.Query(ctx, ledgerDomain.QueryFilter{From: from, To: to})
	if err != nil {
		// A chain violation is the report's most important finding.
		if errors.Is(err, ledgerDomain.ErrChainIntegrity) {
			section.ChainVerified = false
			return section, nil
		}
		return nil, err
	}

	section.ChainVerified = true
	section.TotalEvents = len(events)
	for _, event := range events {
		section.ByCategory[string(event.Category)]++
		if event.IsHighRisk() {
			section.HighRiskEvents++
		}
	}
	return section, nil
}

func (r *Reporter) backupSection(ctx context.Context, now time.Time) (*BackupSection, error) {
	section := &BackupSection{}

	metas, err := r.backups.ListBackups(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-r.verifyWindow)
	for _, meta := range metas {
		if meta.RestorationTested {
			section.RestorationTested++
		}
		if meta.CreatedAt.Before(cutoff) {
			continue
		}
		section.WindowTotal++
		if meta.Verification == backupDomain.VerificationSuccess {
			section.WindowVerified++
		}
	}

	if section.WindowTotal > 0 {
		section.Coverage = float64(section.WindowVerified) / float64(section.WindowTotal)
	}
	return section, nil
}

func (r *Reporter) keySection(ctx context.Context, now time.Time) (*KeySection, error) {
	section := &KeySection{}

	keys, err := r.keys.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		switch key.Status {
		case keysDomain.KeyStatusCompromised:
			section.Compromised++
		case keysDomain.KeyStatusActive:
			section.Purposes = append(section.Purposes, PurposeStatus{
				Purpose:  key.Purpose,
				KeyID:    key.ID.String(),
				BackedUp: key.BackedUp,
				Expired:  key.RemainingTTL(now) < 0,
			})
		}
	}
	return section, nil
}

// score folds the sections into a 0-100 readiness score. The chain is
// weighted heaviest: a ledger that cannot be trusted invalidates most of
// what the rest of the report claims.
func score(report *Report) int {
	total := 0.0

	if report.Ledger.ChainVerified {
		total += 40
	}

	// No recent backups earns nothing for the backup section.
	if report.Backups.WindowTotal > 0 {
		total += 30 * report.Backups.Coverage
	}

	if n := len(report.Keys.Purposes); n > 0 {
		healthy := 0
		for _, status := range report.Keys.Purposes {
			if status.BackedUp && !status.Expired {
				healthy++
			}
		}
		total += 30 * float64(healthy) / float64(n)
	}
	if report.Keys.Compromised > 0 {
		total -= 10
	}

	if total < 0 {
		return 0
	}
	return int(total)
}
