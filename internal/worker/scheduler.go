package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/wallet-tracker/internal/config"
	"github.com/wallet-tracker/internal/logging"
	"github.com/wallet-tracker/internal/models"
)

// SyncScheduler runs sync cycles at a fixed interval. Cycles never overlap:
// a latch skips the tick when the previous cycle is still draining targets.
type SyncScheduler struct {
	coordinator *SyncCoordinator
	states      SyncStateStore
	cfg         config.SyncConfig
	logger      *logging.Logger

	running atomic.Bool // cycle latch
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(coordinator *SyncCoordinator, states SyncStateStore, cfg config.SyncConfig, logger *logging.Logger) (*SyncScheduler, error) {
	if coordinator == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	if states == nil {
		return nil, fmt.Errorf("sync state store is required")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &SyncScheduler{
		coordinator: coordinator,
		states:      states,
		cfg:         cfg,
		logger:      logger.WithField("component", "scheduler"),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins the scheduling loop in a background goroutine
func (s *SyncScheduler) Start(ctx context.Context) {
	s.logger.WithField("interval", s.cfg.Interval.String()).Info("starting sync scheduler")

	go func() {
		defer close(s.doneCh)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		// First cycle runs immediately rather than one interval in
		s.RunCycle(ctx)

		for {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunCycle(ctx)
			}
		}
	}()
}

// Stop signals the scheduler to stop and waits for the loop to exit
func (s *SyncScheduler) Stop() {
	s.logger.Info("stopping sync scheduler")
	close(s.stopCh)
	<-s.doneCh
	s.logger.Info("sync scheduler stopped")
}

// RunCycle syncs every eligible wallet-network pair once. A pair's failure is
// logged and does not stop the cycle. Returns false when a previous cycle
// still holds the latch.
func (s *SyncScheduler) RunCycle(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous sync cycle still running, skipping")
		return false
	}
	defer s.running.Store(false)

	started := time.Now()

	targets, err := s.states.ListEligible(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to enumerate sync targets")
		return true
	}

	var succeeded, failed, synced, skipped int
	limiter := rate.NewLimiter(rate.Every(s.cfg.PairDelay), 1)

	for _, target := range targets {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		result, err := s.coordinator.RunSync(ctx, target.WalletID, target.Address, target.Network, models.SyncOptions{})
		if err != nil {
			failed++
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"wallet_id": target.WalletID,
				"network":   target.Network,
			}).Error("scheduled sync failed")
			continue
		}
		succeeded++
		synced += result.Synced
		skipped += result.Skipped
	}

	s.logger.WithFields(map[string]interface{}{
		"targets":   len(targets),
		"succeeded": succeeded,
		"failed":    failed,
		"synced":    synced,
		"skipped":   skipped,
		"elapsed":   time.Since(started).String(),
	}).Info("sync cycle completed")

	return true
}
