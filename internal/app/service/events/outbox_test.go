package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/types"
)

type recordingAccruer struct {
	events []types.TransactionEvent
	err    error
}

func (r *recordingAccruer) Accrue(_ context.Context, evt types.TransactionEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, evt)
	return nil
}

func TestDispatchInProcess(t *testing.T) {
	acc := &recordingAccruer{}
	o := NewOutbox(nil, nil, acc, zap.NewNop().Sugar())

	evt := types.TransactionEvent{
		TransactionID: "tx-1",
		UserID:        "user-1",
		Type:          types.TransactionTypeCreditTopup,
		AmountCents:   2500,
		OccurredAt:    time.Now(),
	}
	require.NoError(t, o.dispatch(context.Background(), evt))
	require.Len(t, acc.events, 1)
	require.Equal(t, evt.TransactionID, acc.events[0].TransactionID)
}

func TestDispatchFailureSurfaces(t *testing.T) {
	// A failed handoff must return an error so the row stays pending and is
	// retried on the next drain pass.
	acc := &recordingAccruer{err: errors.New("accrual unavailable")}
	o := NewOutbox(nil, nil, acc, zap.NewNop().Sugar())

	err := o.dispatch(context.Background(), types.TransactionEvent{TransactionID: "tx-2"})
	require.Error(t, err)
	require.Empty(t, acc.events)
}

func TestOutboxRowRebuildsEvent(t *testing.T) {
	occurred := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	row := &models.OutboxEvent{
		TransactionID: "tx-3",
		UserID:        "user-3",
		Type:          types.TransactionTypeBoostActivation,
		AmountCents:   990,
		OccurredAt:    occurred,
	}
	evt := row.Event()
	require.Equal(t, "tx-3", evt.TransactionID)
	require.Equal(t, "user-3", evt.UserID)
	require.Equal(t, types.TransactionTypeBoostActivation, evt.Type)
	require.Equal(t, int64(990), evt.AmountCents)
	require.True(t, evt.OccurredAt.Equal(occurred))
}

func TestIsDuplicate(t *testing.T) {
	require.True(t, isDuplicate(gorm.ErrDuplicatedKey))
	require.True(t, isDuplicate(errors.New(`ERROR: duplicate key value violates unique constraint "idx_outbox_event_transaction_id"`)))
	require.False(t, isDuplicate(errors.New("connection refused")))
}

func TestNudgeNeverBlocks(t *testing.T) {
	o := NewOutbox(nil, nil, &recordingAccruer{}, zap.NewNop().Sugar())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			o.Nudge()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nudge blocked with no drainer running")
	}
}
