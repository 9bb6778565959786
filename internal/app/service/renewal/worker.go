package renewal

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/feiralivre/monetize/internal/app/service/activation"
	"github.com/feiralivre/monetize/pkg/config"
)

// Worker drives the renewal service on a fixed interval. A single goroutine
// consumes the ticker, so cycles never overlap even when one runs long.
type Worker struct {
	svc         *Service
	activations *activation.Service
	interval    time.Duration
	log         *zap.SugaredLogger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(svc *Service, act *activation.Service, cfg *config.Config, log *zap.SugaredLogger) *Worker {
	return &Worker{
		svc:         svc,
		activations: act,
		interval:    cfg.Scheduler.Interval,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	start := time.Now()
	expired, err := w.activations.ExpireLapsed(ctx)
	if err != nil {
		w.log.Errorw("expiry sweep failed", "err", err)
	}
	if err := w.svc.RunCycle(ctx); err != nil {
		w.log.Errorw("renewal cycle failed", "err", err)
	}
	w.log.Infow("renewal cycle finished", "expired", expired, "took", time.Since(start))
}

func registerWorker(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			w.cancel = cancel
			go w.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			w.cancel()
			select {
			case <-w.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
