// Package scheduler wires the nightly scan job. The funnel reads end-of-day
// data, so one run per user after the US market close is all the freshness
// the results can have.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"

	"wheelscan_backend/services/scanner"
)

// nightlyScanTimeout bounds one user's full scan. A large watchlist behind
// the shared rate limiter can legitimately take a while; past this point
// the run is assumed wedged.
const nightlyScanTimeout = 2 * time.Hour

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron         *gocron.Scheduler
	orchestrator *scanner.Orchestrator
	store        *scanner.Store
}

// NewScheduler creates a new scheduler instance
func NewScheduler(orchestrator *scanner.Orchestrator, store *scanner.Store) *Scheduler {
	return &Scheduler{
		cron:         gocron.NewScheduler(time.UTC),
		orchestrator: orchestrator,
		store:        store,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Info("Starting scheduler...")

	// Nightly full scan at 21:30 UTC, after the US market close and the
	// provider's end-of-day data load
	s.cron.Every(1).Day().At("21:30").Do(func() {
		s.runNightlyScans()
	})

	s.cron.StartAsync()
	log.Info("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info("Scheduler stopped")
}

// runNightlyScans runs a full scan for every user with a watchlist. Users
// are scanned one after another; they share one provider rate limit, so
// parallel runs would only contend for the same tokens.
func (s *Scheduler) runNightlyScans() {
	log.Info("Nightly scan starting...")

	users, err := s.store.ActiveScanUsers()
	if err != nil {
		log.Errorf("Nightly scan: could not load users: %v", err)
		return
	}

	for _, userID := range users {
		ctx, cancel := context.WithTimeout(context.Background(), nightlyScanTimeout)
		summary, err := s.orchestrator.RunFullScan(ctx, userID)
		cancel()

		if err != nil {
			log.Errorf("Nightly scan failed for user %d: %v", userID, err)
			continue
		}
		log.Infof("Nightly scan for user %d: %d/%d passed (run %s)",
			userID, summary.TotalPassed, summary.TotalScanned, summary.RunID)
	}

	log.Infof("Nightly scan finished for %d users", len(users))
}
