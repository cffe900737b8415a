package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
)

func TestRunVerifyLedger(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		useCase := &ledgerStub{
			verifyFn: func(ctx context.Context, from, to time.Time) (int, error) {
				return 7, nil
			},
		}

		var out bytes.Buffer
		err := RunVerifyLedger(ctx, useCase, logger, &out, "2026-01-01", "2026-02-01")
		require.NoError(t, err)
		require.Contains(t, out.String(), "7 event(s) checked")
	})

	t.Run("date-range-forwarded", func(t *testing.T) {
		var gotFrom, gotTo time.Time
		useCase := &ledgerStub{
			verifyFn: func(ctx context.Context, from, to time.Time) (int, error) {
				gotFrom, gotTo = from, to
				return 0, nil
			},
		}

		var out bytes.Buffer
		err := RunVerifyLedger(ctx, useCase, logger, &out, "2026-01-01", "2026-02-01")
		require.NoError(t, err)
		require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), gotFrom)
		require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), gotTo)
	})

	t.Run("broken-chain", func(t *testing.T) {
		useCase := &ledgerStub{
			verifyFn: func(ctx context.Context, from, to time.Time) (int, error) {
				return 0, ledgerDomain.ErrChainIntegrity
			},
		}

		var out bytes.Buffer
		err := RunVerifyLedger(ctx, useCase, logger, &out, "", "")
		require.ErrorIs(t, err, ledgerDomain.ErrChainIntegrity)
		require.Contains(t, out.String(), "FAILED")
	})

	t.Run("invalid-date", func(t *testing.T) {
		var out bytes.Buffer
		err := RunVerifyLedger(ctx, &ledgerStub{}, logger, &out, "not-a-date", "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid start date")
	})
}
