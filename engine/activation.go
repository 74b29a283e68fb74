/*
activation.go - Batch activation of due payroll versions

PURPOSE:
  Walks every Implementation payroll whose go-live date has arrived and
  promotes it through the version chain manager. Designed to run
  periodically (cron-style) and to be safe against overlapping runs:
  re-activating an already-active payroll is a recorded no-op.

PARTIAL FAILURE:
  Each activation is independent. One payroll's failure never aborts the
  others; the report carries both successes and failures.

SEE ALSO:
  - version.go: Manager.Activate
  - api/scheduler.go: Periodic driver
*/
package engine

import (
	"context"
	"log"
	"time"
)

// =============================================================================
// RESULTS
// =============================================================================

type ActivationResult struct {
	PayrollID     PayrollID
	VersionNumber int
	ActionTaken   ActivationAction
	ExecutedAt    time.Time
}

type ActivationFailure struct {
	PayrollID PayrollID
	Err       error
}

type ActivationReport struct {
	AsOf     Date
	Results  []ActivationResult
	Failures []ActivationFailure
}

// =============================================================================
// ENGINE
// =============================================================================

type ActivationEngine struct {
	Store   PayrollStore
	Manager *Manager
}

func NewActivationEngine(store PayrollStore, manager *Manager) *ActivationEngine {
	return &ActivationEngine{Store: store, Manager: manager}
}

// ActivateDue activates every due Implementation payroll as of the given
// date. The scan itself failing is the only whole-call error; per-item
// errors land in the report.
func (e *ActivationEngine) ActivateDue(ctx context.Context, asOf Date) (ActivationReport, error) {
	report := ActivationReport{AsOf: asOf}

	due, err := e.Store.ListDueForActivation(ctx, asOf)
	if err != nil {
		return report, err
	}

	for _, p := range due {
		action, err := e.Manager.Activate(ctx, p.ID, asOf)
		if err != nil {
			log.Printf("[Activation] Payroll %s (v%d) failed: %v", p.ID, p.VersionNumber, err)
			report.Failures = append(report.Failures, ActivationFailure{PayrollID: p.ID, Err: err})
			continue
		}
		report.Results = append(report.Results, ActivationResult{
			PayrollID:     p.ID,
			VersionNumber: p.VersionNumber,
			ActionTaken:   action,
			ExecutedAt:    time.Now().UTC(),
		})
	}
	return report, nil
}
