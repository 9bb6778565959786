package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/tool"
	"github.com/feiralivre/monetize/pkg/types"
)

// Accruer consumes transaction events. Implemented by the affiliate service.
type Accruer interface {
	Accrue(ctx context.Context, evt types.TransactionEvent) error
}

const (
	accrueAttempts = 5
	retryBackoff   = 500 * time.Millisecond

	drainInterval = 15 * time.Second
	drainBatch    = 100
)

// Outbox hands completed monetary transactions to the commission accrual.
// Events are enqueued inside the purchase transaction and drained by a
// background worker, so a crash, a broker outage or a long accrual failure
// delays delivery but never drops it. Rows are marked published only after a
// successful handoff; the unique transaction id absorbs any redelivery.
type Outbox struct {
	db      *gorm.DB
	writer  *kafka.Writer
	accruer Accruer
	log     *zap.SugaredLogger

	nudge  chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

func NewOutbox(db *gorm.DB, w *kafka.Writer, accruer Accruer, log *zap.SugaredLogger) *Outbox {
	if w == nil {
		log.Infow("kafka not configured, outbox accrues in process")
	}
	return &Outbox{
		db:      db,
		writer:  w,
		accruer: accruer,
		log:     log,
		nudge:   make(chan struct{}, 1),
	}
}

// EnqueueTx records the event in the caller's transaction. A duplicate
// transaction id means the event is already queued (or delivered) and is a
// no-op, so confirmation replays enqueue at most once.
func (o *Outbox) EnqueueTx(ctx context.Context, tx *gorm.DB, evt types.TransactionEvent) error {
	row := &models.OutboxEvent{
		ID:            tool.GenerateUUIDV7(),
		TransactionID: evt.TransactionID,
		UserID:        evt.UserID,
		Type:          evt.Type,
		AmountCents:   evt.AmountCents,
		OccurredAt:    evt.OccurredAt,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		if isDuplicate(err) {
			return nil
		}
		return fmt.Errorf("failed to enqueue transaction event: %w", err)
	}
	return nil
}

// Nudge asks the drainer to run promptly instead of waiting for the next
// tick. Called after the enqueuing transaction commits; never blocks.
func (o *Outbox) Nudge() {
	select {
	case o.nudge <- struct{}{}:
	default:
	}
}

// Drain delivers one batch of pending events. Failed rows keep their attempt
// count and stay pending for the next pass; one bad row never blocks the rest.
func (o *Outbox) Drain(ctx context.Context) error {
	var rows []*models.OutboxEvent
	if err := o.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at").
		Limit(drainBatch).
		Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load pending events: %w", err)
	}

	for _, row := range rows {
		if err := o.dispatch(ctx, row.Event()); err != nil {
			o.log.Errorw("events: dispatch failed, will retry",
				"err", err, "transaction_id", row.TransactionID, "attempts", row.Attempts+1)
			if err := o.db.WithContext(ctx).Model(&models.OutboxEvent{}).
				Where("id = ?", row.ID).
				UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
				o.log.Warnw("events: bump attempts failed", "err", err, "id", row.ID)
			}
			continue
		}
		now := time.Now()
		if err := o.db.WithContext(ctx).Model(&models.OutboxEvent{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"published_at": now,
				"attempts":     gorm.Expr("attempts + 1"),
			}).Error; err != nil {
			// The event was delivered; a failed mark only causes a redelivery,
			// which the accrual absorbs.
			o.log.Warnw("events: mark published failed", "err", err, "id", row.ID)
		}
	}
	return nil
}

// dispatch hands one event over: to the broker when configured, straight to
// the accrual otherwise. An error leaves the row pending.
func (o *Outbox) dispatch(ctx context.Context, evt types.TransactionEvent) error {
	if o.writer != nil {
		raw, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		return o.writer.WriteMessages(ctx, kafka.Message{Key: []byte(evt.UserID), Value: raw})
	}
	return o.accruer.Accrue(ctx, evt)
}

func (o *Outbox) run(ctx context.Context) {
	defer close(o.done)
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-o.nudge:
		}
		if err := o.Drain(ctx); err != nil {
			o.log.Errorw("events: drain failed", "err", err)
		}
	}
}

func runOutbox(lc fx.Lifecycle, o *Outbox, log *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			o.cancel = cancel
			o.done = make(chan struct{})
			log.Infow("starting transaction-event outbox drainer")
			go o.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			o.cancel()
			select {
			case <-o.done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
