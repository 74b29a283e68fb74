package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tigearis/payroll-engine/engine"
	"github.com/tigearis/payroll-engine/engine/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// faultyStore delegates to a memory store but fails UpdatePayroll for one
// payroll id, to exercise per-item failure isolation in the batch.
type faultyStore struct {
	*store.Memory
	failID engine.PayrollID
}

var errInjected = errors.New("injected update failure")

func (f *faultyStore) UpdatePayroll(ctx context.Context, p engine.Payroll) error {
	if p.ID == f.failID {
		return errInjected
	}
	return f.Memory.UpdatePayroll(ctx, p)
}

func (f *faultyStore) WithPayrollTx(ctx context.Context, fn func(engine.PayrollStore) error) error {
	return fn(f)
}

// =============================================================================
// BATCH ACTIVATION
// =============================================================================

func TestActivateDue_ActivatesEveryDuePayroll(t *testing.T) {
	// GIVEN: Two due Implementation payrolls and one not yet due
	// WHEN: Running the batch as of March 1
	// THEN: The two due payrolls activate; the future one is untouched

	ctx := context.Background()
	mem := store.NewMemory()
	m := engine.NewManager(mem, nil)
	eng := engine.NewActivationEngine(mem, m)

	due1 := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.January, 10))
	due2 := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.February, 20))
	future := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.September, 1))

	report, err := eng.ActivateDue(ctx, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	if len(report.Failures) != 0 {
		t.Fatalf("expected no failures, got %d", len(report.Failures))
	}

	for _, id := range []engine.PayrollID{due1.ID, due2.ID} {
		p, _ := mem.GetPayroll(ctx, id)
		if p.Status != engine.StatusActive {
			t.Errorf("payroll %s: expected Active, got %s", id, p.Status)
		}
	}
	untouched, _ := mem.GetPayroll(ctx, future.ID)
	if untouched.Status != engine.StatusImplementation {
		t.Errorf("future payroll should stay Implementation, got %s", untouched.Status)
	}
}

func TestActivateDue_OneFailureDoesNotAbortOthers(t *testing.T) {
	// GIVEN: Two due payrolls, one wired to fail its status update
	// WHEN: Running the batch
	// THEN: The healthy payroll activates; the failure lands in the report

	ctx := context.Background()
	mem := store.NewMemory()
	healthy := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.January, 10))
	broken := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.January, 10))

	faulty := &faultyStore{Memory: mem, failID: broken.ID}
	m := engine.NewManager(faulty, nil)
	eng := engine.NewActivationEngine(faulty, m)

	report, err := eng.ActivateDue(ctx, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("batch-level error: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].PayrollID != healthy.ID {
		t.Fatalf("expected exactly the healthy payroll in results, got %+v", report.Results)
	}
	if len(report.Failures) != 1 || report.Failures[0].PayrollID != broken.ID {
		t.Fatalf("expected exactly the broken payroll in failures, got %+v", report.Failures)
	}
	if !errors.Is(report.Failures[0].Err, errInjected) {
		t.Errorf("failure should carry the underlying error, got %v", report.Failures[0].Err)
	}

	activated, _ := mem.GetPayroll(ctx, healthy.ID)
	if activated.Status != engine.StatusActive {
		t.Errorf("healthy payroll: expected Active, got %s", activated.Status)
	}
}

func TestActivateDue_RepeatRunIsQuiet(t *testing.T) {
	// GIVEN: A batch that already activated everything due
	// WHEN: Running again with the same as-of date
	// THEN: Nothing is due, so the report is empty

	ctx := context.Background()
	mem := store.NewMemory()
	m := engine.NewManager(mem, nil)
	eng := engine.NewActivationEngine(mem, m)

	seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.January, 10))

	if _, err := eng.ActivateDue(ctx, date(2026, time.March, 1)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := eng.ActivateDue(ctx, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(report.Results) != 0 || len(report.Failures) != 0 {
		t.Errorf("expected an empty report, got %d results and %d failures",
			len(report.Results), len(report.Failures))
	}
}

func TestActivateDue_SkipsSupersededRows(t *testing.T) {
	// GIVEN: A due Implementation payroll superseded before go-live
	// WHEN: Running the batch
	// THEN: The stale row never enters the scan; no results, no
	//       failure churn, and the family's current version is intact

	ctx := context.Background()
	mem := store.NewMemory()
	m := engine.NewManager(mem, nil)
	eng := engine.NewActivationEngine(mem, m)

	v1 := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.January, 10))
	v2, err := m.CreateVersionSimple(ctx, v1.ID, date(2026, time.June, 1), "ops")
	if err != nil {
		t.Fatalf("creating v2: %v", err)
	}

	report, err := eng.ActivateDue(ctx, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Results) != 0 || len(report.Failures) != 0 {
		t.Fatalf("expected an empty report, got %d results and %d failures",
			len(report.Results), len(report.Failures))
	}

	stale, _ := mem.GetPayroll(ctx, v1.ID)
	if stale.Status != engine.StatusImplementation {
		t.Errorf("superseded row should keep its status, got %s", stale.Status)
	}
	current, err := m.GetCurrent(ctx, v1.FamilyRootID)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != v2.ID {
		t.Errorf("expected current %s, got %s", v2.ID, current.ID)
	}
}

func TestActivateDue_RecordsActionPerResult(t *testing.T) {
	// GIVEN: One due payroll
	// WHEN: Running the batch
	// THEN: The result row carries the payroll, version and action taken

	ctx := context.Background()
	mem := store.NewMemory()
	m := engine.NewManager(mem, nil)
	eng := engine.NewActivationEngine(mem, m)

	p := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.January, 10))

	report, err := eng.ActivateDue(ctx, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(report.Results))
	}
	r := report.Results[0]
	if r.PayrollID != p.ID || r.VersionNumber != 1 || r.ActionTaken != engine.ActionActivated {
		t.Errorf("unexpected result: %+v", r)
	}
	if r.ExecutedAt.IsZero() {
		t.Error("expected ExecutedAt to be stamped")
	}
}
