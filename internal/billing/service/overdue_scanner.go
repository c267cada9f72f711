package service

import (
	"context"
	"time"

	"github.com/hostelhq/hostelhq-backend/pkg/actor"
	"github.com/hostelhq/hostelhq-backend/pkg/logger"
)

// OverdueScanner periodically flips Due fees past their due date to Overdue.
// Paid fees are terminal and never touched.
type OverdueScanner struct {
	billing  *BillingService
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewOverdueScanner creates a new overdue scanner
func NewOverdueScanner(billing *BillingService, interval time.Duration, log *logger.Logger) *OverdueScanner {
	return &OverdueScanner{
		billing:  billing,
		interval: interval,
		logger:   log,
	}
}

// Start starts the scanner in a background goroutine
func (s *OverdueScanner) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("overdue scanner started")

		// Run an initial scan immediately
		s.runScan(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("overdue scanner stopped")
				return
			case <-ticker.C:
				s.runScan(ctx)
			}
		}
	}()
}

// Stop stops the scanner goroutine
func (s *OverdueScanner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *OverdueScanner) runScan(ctx context.Context) {
	start := time.Now()

	// Scans run with system privileges
	scanCtx := actor.WithActor(ctx, actor.SystemActor())

	count, err := s.billing.MarkOverdueFees(scanCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("overdue scan failed")
		return
	}

	if count > 0 {
		s.logger.Info().
			Int("fees_marked", count).
			Dur("duration", time.Since(start)).
			Msg("overdue scan completed")
	}
}
