package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/feiralivre/monetize/pkg/types"
)

// Consumer drains the transaction-event topic into the commission accrual.
// Offsets are committed only after a successful accrual, so an uncommitted
// event is redelivered after a restart; the accrual is idempotent on
// transaction id, which makes redelivery harmless.
type Consumer struct {
	reader  *kafka.Reader
	accruer Accruer
	log     *zap.SugaredLogger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer(r *kafka.Reader, accruer Accruer, log *zap.SugaredLogger) *Consumer {
	return &Consumer{reader: r, accruer: accruer, log: log}
}

func (c *Consumer) run(ctx context.Context) {
	defer close(c.done)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			c.log.Errorw("events: fetch failed", "err", err)
			time.Sleep(time.Second)
			continue
		}

		var evt types.TransactionEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			// Malformed payloads can never succeed; commit and move on.
			c.log.Errorw("events: unmarshal failed, skipping", "err", err, "offset", msg.Offset)
			c.commit(ctx, msg)
			continue
		}

		var accrueErr error
		for attempt := 0; attempt < accrueAttempts; attempt++ {
			if accrueErr = c.accruer.Accrue(ctx, evt); accrueErr == nil {
				break
			}
			time.Sleep(retryBackoff << attempt)
		}
		if accrueErr != nil {
			// Leave uncommitted: redelivered after restart.
			c.log.Errorw("events: accrual failed",
				"err", accrueErr, "transaction_id", evt.TransactionID, "type", evt.Type)
			continue
		}
		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.log.Warnw("events: commit failed", "err", err, "offset", msg.Offset)
	}
}

func runConsumer(lc fx.Lifecycle, c *Consumer, log *zap.SugaredLogger) {
	if c.reader == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			c.cancel = cancel
			c.done = make(chan struct{})
			log.Infow("starting transaction-event consumer")
			go c.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			c.cancel()
			select {
			case <-c.done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

// Module exposes the event outbox and consumer via Fx.
var Module = fx.Options(
	fx.Provide(NewOutbox),
	fx.Provide(NewConsumer),
	fx.Invoke(runOutbox),
	fx.Invoke(runConsumer),
)
