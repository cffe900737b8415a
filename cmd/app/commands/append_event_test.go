package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
)

func TestRunAppendEvent(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	args := AppendEventArgs{
		Category:      "data_access",
		ActorID:       "dr-smith",
		ActorRole:     "physician",
		Action:        "read",
		Outcome:       "success",
		ResourceType:  "patient_record",
		ResourceID:    "record-42",
		SubjectID:     "patient-1",
		Justification: "treatment",
	}

	t.Run("success", func(t *testing.T) {
		id := uuid.New()
		var got ledgerDomain.EventInput
		useCase := &ledgerStub{
			appendFn: func(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error) {
				got = input
				return id, nil
			},
		}

		var out bytes.Buffer
		err := RunAppendEvent(ctx, useCase, logger, &out, args)
		require.NoError(t, err)
		require.Contains(t, out.String(), id.String())
		require.Equal(t, ledgerDomain.CategoryDataAccess, got.Category)
		require.Equal(t, "dr-smith", got.Actor.ID)
		require.Equal(t, ledgerDomain.OutcomeSuccess, got.Action.Outcome)
		require.Equal(t, "patient-1", got.SubjectID)
	})

	t.Run("details-json", func(t *testing.T) {
		withDetails := args
		withDetails.Details = `{"fields": ["diagnosis"]}`

		var got ledgerDomain.EventInput
		useCase := &ledgerStub{
			appendFn: func(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error) {
				got = input
				return uuid.New(), nil
			},
		}

		var out bytes.Buffer
		err := RunAppendEvent(ctx, useCase, logger, &out, withDetails)
		require.NoError(t, err)
		require.Contains(t, got.Action.Details, "fields")
	})

	t.Run("invalid-details-json", func(t *testing.T) {
		withDetails := args
		withDetails.Details = "{not json"

		var out bytes.Buffer
		err := RunAppendEvent(ctx, &ledgerStub{}, logger, &out, withDetails)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid details JSON")
	})

	t.Run("append-failure", func(t *testing.T) {
		useCase := &ledgerStub{
			appendFn: func(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error) {
				return uuid.Nil, errors.New("boom")
			},
		}

		var out bytes.Buffer
		err := RunAppendEvent(ctx, useCase, logger, &out, args)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to append event")
	})
}
