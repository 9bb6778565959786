package stream

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/feiralivre/monetize/pkg/config"
)

// NewWriter returns a kafka writer for the transaction-event topic, or nil
// when no brokers are configured (dev/test runs use the inline dispatcher).
func NewWriter(l *zap.SugaredLogger, cfg *cfgpkg.Config) *kafka.Writer {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}
	l.Infow("kafka writer configured", "topic", cfg.Kafka.Topic)
	return &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
	}
}

// NewReader returns a consumer-group reader for the transaction-event topic,
// or nil when no brokers are configured.
func NewReader(l *zap.SugaredLogger, cfg *cfgpkg.Config) *kafka.Reader {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}
	l.Infow("kafka reader configured", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
}

func registerClose(lc fx.Lifecycle, l *zap.SugaredLogger, w *kafka.Writer, r *kafka.Reader) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if w != nil {
				if err := w.Close(); err != nil {
					l.Warnw("kafka: close writer failed", "err", err)
				}
			}
			if r != nil {
				if err := r.Close(); err != nil {
					l.Warnw("kafka: close reader failed", "err", err)
				}
			}
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewWriter),
	fx.Provide(NewReader),
	fx.Invoke(registerClose),
)
