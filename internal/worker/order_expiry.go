// Package worker runs periodic background jobs.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const minExpiryInterval = time.Second

// Expirer cancels pending orders past their expiry and reports how many.
type Expirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// OrderExpiry sweeps stale pending orders on a fixed interval.
type OrderExpiry struct {
	orders   Expirer
	interval time.Duration
	log      *zap.Logger
}

func NewOrderExpiry(orders Expirer, interval time.Duration, log *zap.Logger) *OrderExpiry {
	if interval < minExpiryInterval {
		interval = time.Minute
	}
	return &OrderExpiry{orders: orders, interval: interval, log: log.Named("order_expiry")}
}

// Run blocks until ctx is done.
func (w *OrderExpiry) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("order expiry worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("order expiry worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *OrderExpiry) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("order expiry sweep panicked", zap.Any("panic", r))
		}
	}()

	cancelled, err := w.orders.ExpireStale(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error("order expiry sweep failed", zap.Error(err))
		}
		return
	}
	if cancelled > 0 {
		w.log.Info("expired pending orders cancelled", zap.Int("count", cancelled))
	}
}
