package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"mobile-money-ledger/internal/core/domain"
	"mobile-money-ledger/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestReconciliationScheduler_RunsPeriodically(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockReconciliationService(ctrl)
	var runs atomic.Int32
	svc.EXPECT().ReconcileAll(gomock.Any()).
		DoAndReturn(func(_ context.Context) ([]domain.ReconciliationReport, error) {
			runs.Add(1)
			return nil, nil
		}).MinTimes(2)

	s := NewReconciliationScheduler(svc, 10*time.Millisecond, zerolog.Nop())
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestReconciliationScheduler_StopCancelsPendingRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockReconciliationService(ctrl)

	s := NewReconciliationScheduler(svc, time.Hour, zerolog.Nop())
	s.Start()
	s.Stop()
	// No ReconcileAll expectation: the pending timer must never fire.
	time.Sleep(20 * time.Millisecond)
}

func TestReconciliationScheduler_StartAfterStopIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockReconciliationService(ctrl)

	s := NewReconciliationScheduler(svc, time.Millisecond, zerolog.Nop())
	s.Stop()
	s.Start()
	time.Sleep(20 * time.Millisecond)
}

func TestReconciliationScheduler_SkipsOverlappingRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := mocks.NewMockReconciliationService(ctrl)
	block := make(chan struct{})
	var started atomic.Int32
	svc.EXPECT().ReconcileAll(gomock.Any()).
		DoAndReturn(func(_ context.Context) ([]domain.ReconciliationReport, error) {
			started.Add(1)
			<-block
			return nil, nil
		}).AnyTimes()

	s := NewReconciliationScheduler(svc, 5*time.Millisecond, zerolog.Nop())
	s.running.Store(true) // simulate an in-flight run
	s.Start()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), started.Load(), "reschedules must be skipped while a run is in flight")

	s.Stop()
	close(block)
}
