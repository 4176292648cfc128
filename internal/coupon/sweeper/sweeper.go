package sweeper

import (
	"context"
	"time"

	"github.com/tair/order-fulfillment/internal/coupon/domain"
	"github.com/tair/order-fulfillment/pkg/logger"
)

// Sweeper periodically deactivates coupons that have expired or reached
// their usage quota. Deactivation is a bulk update, so a missed tick only
// delays the sweep and never loses work.
type Sweeper struct {
	couponRepo domain.CouponRepository
	interval   time.Duration
	stopCh     chan struct{}
}

// NewSweeper creates a new coupon Sweeper running at the given interval
func NewSweeper(couponRepo domain.CouponRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		couponRepo: couponRepo,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or the context is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	logger.Info(ctx).Str("interval", s.interval.String()).Msg("Starting coupon sweeper")

	go s.run(ctx)
}

// Stop halts the sweep loop
func (s *Sweeper) Stop() {
	logger.Info(context.Background()).Msg("Stopping coupon sweeper")
	close(s.stopCh)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sweep once at startup so restarts don't leave stale coupons active
	// for a full interval
	if err := s.SweepOnce(ctx); err != nil {
		logger.Error(ctx).Err(err).Msg("Initial coupon sweep failed")
	}

	for {
		select {
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				logger.Error(ctx).Err(err).Msg("Coupon sweep failed")
			}
		case <-s.stopCh:
			logger.Info(ctx).Msg("Coupon sweeper stopped")
			return
		case <-ctx.Done():
			logger.Info(ctx).Msg("Coupon sweeper cancelled")
			return
		}
	}
}

// SweepOnce runs a single deactivation pass
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	expired, err := s.couponRepo.DeactivateExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if expired > 0 {
		logger.Info(ctx).Int64("count", expired).Msg("Deactivated expired coupons")
	}

	exhausted, err := s.couponRepo.DeactivateExhausted(ctx)
	if err != nil {
		return err
	}
	if exhausted > 0 {
		logger.Info(ctx).Int64("count", exhausted).Msg("Deactivated exhausted coupons")
	}

	return nil
}
