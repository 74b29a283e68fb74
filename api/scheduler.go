/*
scheduler.go - Automated activation scheduler

PURPOSE:
  Periodically scans for Implementation payrolls whose go-live date has
  arrived and activates them, superseding the previously active version.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each pass is a full batch: per-payroll failures are collected, the
    batch never aborts
  - Records every pass in activation_runs for audit and UI display
  - Activation is idempotent, so overlapping manual and scheduled runs
    are harmless

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewActivationScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunActivation endpoint (manual trigger)
  - engine/activation.go: ActivationEngine
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/tigearis/payroll-engine/engine"
	"github.com/tigearis/payroll-engine/store/sqlite"
)

// ActivationScheduler handles automated go-live activation.
type ActivationScheduler struct {
	Store         *sqlite.Store
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewActivationScheduler creates a new scheduler.
func NewActivationScheduler(store *sqlite.Store, handler *Handler) *ActivationScheduler {
	return &ActivationScheduler{
		Store:         store,
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (as *ActivationScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	log.Printf("[Scheduler] Started with check interval: %v", as.CheckInterval)
}

// Stop stops the scheduler.
func (as *ActivationScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker != nil {
		as.ticker.Stop()
		close(as.stop)
		as.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (as *ActivationScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.checkAndActivate()

	for {
		select {
		case <-as.ticker.C:
			as.checkAndActivate()
		case <-as.stop:
			return
		}
	}
}

func (as *ActivationScheduler) checkAndActivate() {
	ctx := context.Background()
	asOf := engine.Today()

	log.Printf("[Scheduler] Checking for due payrolls as of %s", asOf)

	run := sqlite.ActivationRun{
		ID:        engine.NewID(),
		AsOf:      asOf,
		Status:    "running",
		StartedAt: time.Now().UTC(),
	}
	if err := as.Store.SaveActivationRun(ctx, run); err != nil {
		log.Printf("[Scheduler] Failed to record run start: %v", err)
		return
	}

	report, err := as.Handler.Activation.ActivateDue(ctx, asOf)
	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt

	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		log.Printf("[Scheduler] Activation scan failed: %v", err)
	} else {
		run.Status = "completed"
		run.Activated = len(report.Results)
		run.Failed = len(report.Failures)
		if run.Activated > 0 || run.Failed > 0 {
			log.Printf("[Scheduler] Activated %d payrolls, %d failures", run.Activated, run.Failed)
		}
	}

	if err := as.Store.SaveActivationRun(ctx, run); err != nil {
		log.Printf("[Scheduler] Failed to record run completion: %v", err)
	}
}
