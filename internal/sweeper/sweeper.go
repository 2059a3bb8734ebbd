// Package sweeper runs the periodic housekeeping passes: releasing expired
// reservations and flagging lots that are about to expire.
package sweeper

import (
	"context"
	"time"

	"github.com/kitchenops/inventory-service/internal/batch"
	"github.com/kitchenops/inventory-service/internal/events"
	"github.com/kitchenops/inventory-service/internal/ledger"
	"github.com/kitchenops/inventory-service/internal/txn"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"go.uber.org/zap"
)

type Sweeper struct {
	ledger    *ledger.Ledger
	lots      *batch.Tracker
	processor txn.Processor
	publisher events.Publisher
	logger    logger.ZapLogger

	interval   time.Duration
	expiryDays int

	// warned remembers lots already announced as expiring so each gets one
	// warning per process lifetime, not one per tick.
	warned map[string]bool
}

func New(
	ledg *ledger.Ledger,
	lots *batch.Tracker,
	processor txn.Processor,
	publisher events.Publisher,
	log logger.ZapLogger,
	interval time.Duration,
	expiryDays int,
) *Sweeper {
	return &Sweeper{
		ledger:     ledg,
		lots:       lots,
		processor:  processor,
		publisher:  publisher,
		logger:     log,
		interval:   interval,
		expiryDays: expiryDays,
		warned:     map[string]bool{},
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("starting inventory sweeper",
		zap.Duration("interval", s.interval),
		zap.Int("expiry_warning_days", s.expiryDays),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping inventory sweeper")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one housekeeping pass. Failures are logged and retried on the
// next tick; a stuck reservation or lot never stops the others.
func (s *Sweeper) Sweep(ctx context.Context) {
	s.releaseExpiredReservations(ctx)
	s.warnExpiringBatches(ctx)
}

func (s *Sweeper) releaseExpiredReservations(ctx context.Context) {
	expired, err := s.ledger.ExpiredReservations(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to list expired reservations", zap.Error(err))
		return
	}

	for _, res := range expired {
		_, err := s.processor.Release(ctx, &dto.ReleaseInput{
			UserID:     "system",
			ItemID:     res.ItemID,
			LocationID: res.LocationID,
			Reference:  res.Reference,
		})
		if err != nil {
			s.logger.Error("failed to release expired reservation",
				zap.String("reservation_id", res.ID),
				zap.String("reference", res.Reference),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("released expired reservation",
			zap.String("reservation_id", res.ID),
			zap.String("reference", res.Reference),
			zap.String("quantity", res.Quantity.String()),
		)
	}
}

func (s *Sweeper) warnExpiringBatches(ctx context.Context) {
	expiring, err := s.lots.ExpiringWithin(ctx, s.expiryDays)
	if err != nil {
		s.logger.Error("failed to list expiring batches", zap.Error(err))
		return
	}

	for _, b := range expiring {
		if s.warned[b.ID] || b.ExpirationDate == nil {
			continue
		}
		err := s.publisher.Publish(ctx, &events.BatchExpiringSoon{
			BatchID:        b.ID,
			ItemID:         b.ItemID,
			LocationID:     b.LocationID,
			ExpirationDate: *b.ExpirationDate,
			DetectedAt:     time.Now(),
		})
		if err != nil {
			s.logger.Error("failed to publish expiring batch warning",
				zap.String("batch_id", b.ID), zap.Error(err))
			continue
		}
		s.warned[b.ID] = true
	}
}
