package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mobile-money-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// ReconciliationScheduler runs the zero-sum check periodically. It uses a
// self-rescheduling timer rather than a ticker so a slow run pushes the
// next one out instead of drifting, and an atomic flag so overlapping runs
// are suppressed.
type ReconciliationScheduler struct {
	svc      ports.ReconciliationService
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	running atomic.Bool
}

// NewReconciliationScheduler creates a scheduler with the given interval.
func NewReconciliationScheduler(svc ports.ReconciliationService, interval time.Duration, log zerolog.Logger) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		svc:      svc,
		interval: interval,
		log:      log,
	}
}

// Start schedules the first run. Calling Start twice is a no-op while a
// timer is pending.
func (s *ReconciliationScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil || s.stopped {
		return
	}
	s.timer = time.AfterFunc(s.interval, s.run)
	s.log.Info().Dur("interval", s.interval).Msg("reconciliation scheduler started")
}

// Stop cancels the pending run. In-flight runs finish on their own.
func (s *ReconciliationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.log.Info().Msg("reconciliation scheduler stopped")
}

func (s *ReconciliationScheduler) run() {
	if s.running.CompareAndSwap(false, true) {
		func() {
			defer s.running.Store(false)
			if _, err := s.svc.ReconcileAll(context.Background()); err != nil {
				s.log.Error().Err(err).Msg("scheduled reconciliation failed")
			}
		}()
	} else {
		s.log.Warn().Msg("reconciliation run still in progress, skipping")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.timer = time.AfterFunc(s.interval, s.run)
}
