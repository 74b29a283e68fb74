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

func newTestManager() (*engine.Manager, *store.Memory, *engine.MemoryEmitter) {
	mem := store.NewMemory()
	emitter := &engine.MemoryEmitter{}
	m := engine.NewManager(mem, emitter)
	m.Now = func() time.Time { return time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC) }
	return m, mem, emitter
}

// seedPayroll inserts version 1 of a fresh family and returns it.
func seedPayroll(t *testing.T, mem *store.Memory, status engine.PayrollStatus, goLive engine.Date) engine.Payroll {
	t.Helper()
	p := engine.NewPayroll("Acme Monthly", "client-1", "AU", "NSW",
		engine.CycleIDMonthly, engine.DateTypeIDFixedDay, intPtr(15),
		"consultant-1", goLive, 2, 4)
	p.Status = status
	if err := mem.InsertPayroll(context.Background(), p); err != nil {
		t.Fatalf("seeding payroll: %v", err)
	}
	return p
}

func strPtr(s string) *string { return &s }

// =============================================================================
// CREATE VERSION
// =============================================================================

func TestCreateVersion_ClonesAndSupersedesInOneStep(t *testing.T) {
	// GIVEN: An active v1 payroll
	// WHEN: Creating a version with a new name and cycle
	// THEN: v2 is Implementation and current; v1 is superseded

	ctx := context.Background()
	m, mem, _ := newTestManager()
	v1 := seedPayroll(t, mem, engine.StatusActive, date(2026, time.January, 1))

	cycle := engine.CycleIDFortnightly
	v2, err := m.CreateVersion(ctx, v1.ID, engine.VersionChanges{
		Name:    strPtr("Acme Fortnightly"),
		CycleID: &cycle,
	}, "client moving to fortnightly pay", "ops")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v2.VersionNumber != 2 {
		t.Errorf("expected version 2, got %d", v2.VersionNumber)
	}
	if v2.Status != engine.StatusImplementation {
		t.Errorf("expected Implementation, got %s", v2.Status)
	}
	if v2.Name != "Acme Fortnightly" || v2.CycleID != engine.CycleIDFortnightly {
		t.Errorf("changes not applied: name=%q cycle=%s", v2.Name, v2.CycleID)
	}
	if v2.ParentPayrollID == nil || *v2.ParentPayrollID != v1.ID {
		t.Errorf("expected parent %s, got %v", v1.ID, v2.ParentPayrollID)
	}
	// Unchanged fields carry over from the source.
	if v2.DateTypeID != v1.DateTypeID || v2.ClientID != v1.ClientID {
		t.Errorf("unchanged fields did not carry over")
	}

	stored1, err := mem.GetPayroll(ctx, v1.ID)
	if err != nil || stored1 == nil {
		t.Fatalf("reading v1: %v", err)
	}
	if stored1.SupersededDate == nil {
		t.Error("expected v1 to be superseded")
	}

	current, err := m.GetCurrent(ctx, v1.FamilyRootID)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != v2.ID {
		t.Errorf("expected current %s, got %s", v2.ID, current.ID)
	}
}

func TestCreateVersion_SupersededSource_Fails(t *testing.T) {
	// GIVEN: v1 already superseded by v2
	// WHEN: Creating another version from v1
	// THEN: ErrNotCurrent; the chain does not fork

	ctx := context.Background()
	m, mem, _ := newTestManager()
	v1 := seedPayroll(t, mem, engine.StatusActive, date(2026, time.January, 1))

	if _, err := m.CreateVersionSimple(ctx, v1.ID, date(2026, time.June, 1), "ops"); err != nil {
		t.Fatalf("first version: %v", err)
	}

	_, err := m.CreateVersionSimple(ctx, v1.ID, date(2026, time.July, 1), "ops")
	if !errors.Is(err, engine.ErrNotCurrent) {
		t.Fatalf("expected ErrNotCurrent, got %v", err)
	}

	family, _ := mem.ListFamily(ctx, v1.FamilyRootID)
	if len(family) != 2 {
		t.Errorf("expected 2 versions after failed fork, got %d", len(family))
	}
}

func TestCreateVersion_UnknownPayroll_Fails(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: Creating a version for a missing id
	// THEN: ErrPayrollNotFound

	m, _, _ := newTestManager()
	_, err := m.CreateVersionSimple(context.Background(), "no-such-id", date(2026, time.June, 1), "ops")
	if !errors.Is(err, engine.ErrPayrollNotFound) {
		t.Fatalf("expected ErrPayrollNotFound, got %v", err)
	}
}

func TestCreateVersion_EmitsComplianceEvent(t *testing.T) {
	// GIVEN: A manager with a recording emitter
	// WHEN: A version is created
	// THEN: One createPayrollVersion event is recorded with success=true

	m, mem, emitter := newTestManager()
	v1 := seedPayroll(t, mem, engine.StatusActive, date(2026, time.January, 1))

	if _, err := m.CreateVersionSimple(context.Background(), v1.ID, date(2026, time.June, 1), "ops"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := emitter.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Action != "createPayrollVersion" || !ev.Success || ev.UserID != "ops" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestVersionChanges_TouchesSchedule(t *testing.T) {
	// GIVEN: Change sets with and without schedule-affecting fields
	// THEN: TouchesSchedule flags only the former

	cycle := engine.CycleIDWeekly
	if !(engine.VersionChanges{CycleID: &cycle}).TouchesSchedule() {
		t.Error("cycle change should touch the schedule")
	}
	if (engine.VersionChanges{Name: strPtr("renamed")}).TouchesSchedule() {
		t.Error("name change should not touch the schedule")
	}
}

// =============================================================================
// ACTIVATION
// =============================================================================

func TestActivate_DueImplementation_BecomesActive(t *testing.T) {
	// GIVEN: An Implementation payroll with go-live in the past
	// WHEN: Activating as of today
	// THEN: Status flips to Active, action "activated"

	ctx := context.Background()
	m, mem, _ := newTestManager()
	p := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.February, 1))

	action, err := m.Activate(ctx, p.ID, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != engine.ActionActivated {
		t.Errorf("expected %s, got %s", engine.ActionActivated, action)
	}

	stored, _ := mem.GetPayroll(ctx, p.ID)
	if stored.Status != engine.StatusActive {
		t.Errorf("expected Active, got %s", stored.Status)
	}
}

func TestActivate_NotDue_Fails(t *testing.T) {
	// GIVEN: An Implementation payroll with go-live in the future
	// WHEN: Activating before that date
	// THEN: ErrNotDue; status unchanged

	ctx := context.Background()
	m, mem, _ := newTestManager()
	p := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.June, 1))

	_, err := m.Activate(ctx, p.ID, date(2026, time.March, 1))
	if !errors.Is(err, engine.ErrNotDue) {
		t.Fatalf("expected ErrNotDue, got %v", err)
	}

	stored, _ := mem.GetPayroll(ctx, p.ID)
	if stored.Status != engine.StatusImplementation {
		t.Errorf("status changed on failed activation: %s", stored.Status)
	}
}

func TestActivate_AlreadyActive_IsRecordedNoOp(t *testing.T) {
	// GIVEN: An Active payroll
	// WHEN: Activating again (an overlapping batch run)
	// THEN: No error, action "already_active"

	m, mem, _ := newTestManager()
	p := seedPayroll(t, mem, engine.StatusActive, date(2026, time.January, 1))

	action, err := m.Activate(context.Background(), p.ID, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != engine.ActionAlreadyActive {
		t.Errorf("expected %s, got %s", engine.ActionAlreadyActive, action)
	}
}

func TestActivate_Inactive_Fails(t *testing.T) {
	// GIVEN: An Inactive (terminal) payroll
	// WHEN: Activating
	// THEN: ErrNotActivatable

	m, mem, _ := newTestManager()
	p := seedPayroll(t, mem, engine.StatusInactive, date(2026, time.January, 1))

	_, err := m.Activate(context.Background(), p.ID, date(2026, time.March, 1))
	if !errors.Is(err, engine.ErrNotActivatable) {
		t.Fatalf("expected ErrNotActivatable, got %v", err)
	}
}

func TestActivate_DemotesActiveSibling(t *testing.T) {
	// GIVEN: v1 Active, v2 Implementation and due
	// WHEN: Activating v2
	// THEN: v1 is demoted to Inactive in the same step, action
	//       "activated_superseding_previous"

	ctx := context.Background()
	m, mem, _ := newTestManager()
	v1 := seedPayroll(t, mem, engine.StatusActive, date(2026, time.January, 1))

	v2, err := m.CreateVersionSimple(ctx, v1.ID, date(2026, time.February, 15), "ops")
	if err != nil {
		t.Fatalf("creating v2: %v", err)
	}

	// CreateVersion superseded v1; reset it to the pre-cutover shape so the
	// activation does the demotion itself.
	stored1, _ := mem.GetPayroll(ctx, v1.ID)
	stored1.SupersededDate = nil
	if err := mem.UpdatePayroll(ctx, *stored1); err != nil {
		t.Fatalf("resetting v1: %v", err)
	}

	action, err := m.Activate(ctx, v2.ID, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != engine.ActionSuperseded {
		t.Errorf("expected %s, got %s", engine.ActionSuperseded, action)
	}

	demoted, _ := mem.GetPayroll(ctx, v1.ID)
	if demoted.Status != engine.StatusInactive {
		t.Errorf("expected v1 Inactive, got %s", demoted.Status)
	}
	if demoted.SupersededDate == nil {
		t.Error("expected v1 superseded date to be set")
	}

	current, err := m.GetCurrent(ctx, v1.FamilyRootID)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != v2.ID {
		t.Errorf("expected current %s, got %s", v2.ID, current.ID)
	}
}

func TestActivate_SupersededVersion_Fails(t *testing.T) {
	// GIVEN: v1 superseded by v2 before its go-live, v2 already Active
	// WHEN: Activating the stale v1
	// THEN: NotCurrentError; v2 stays Active and the family keeps
	//       exactly one current row

	ctx := context.Background()
	m, mem, _ := newTestManager()
	v1 := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.January, 15))

	v2, err := m.CreateVersionSimple(ctx, v1.ID, date(2026, time.February, 1), "ops")
	if err != nil {
		t.Fatalf("creating v2: %v", err)
	}
	if _, err := m.Activate(ctx, v2.ID, date(2026, time.February, 1)); err != nil {
		t.Fatalf("activating v2: %v", err)
	}

	// v1 is still Implementation with a due go-live, but it was
	// superseded. Activating it must not touch the family.
	_, err = m.Activate(ctx, v1.ID, date(2026, time.March, 1))
	if !errors.Is(err, engine.ErrNotCurrent) {
		t.Fatalf("expected ErrNotCurrent, got %v", err)
	}
	var ncErr *engine.NotCurrentError
	if !errors.As(err, &ncErr) || ncErr.PayrollID != v1.ID {
		t.Errorf("expected NotCurrentError for %s, got %v", v1.ID, err)
	}

	stored2, _ := mem.GetPayroll(ctx, v2.ID)
	if stored2.Status != engine.StatusActive {
		t.Errorf("expected v2 to stay Active, got %s", stored2.Status)
	}
	current, err := m.GetCurrent(ctx, v1.FamilyRootID)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != v2.ID {
		t.Errorf("expected current %s, got %s", v2.ID, current.ID)
	}
}

// assertOneCurrent fails unless the family has exactly one current row,
// the one with wantID.
func assertOneCurrent(t *testing.T, mem *store.Memory, rootID, wantID engine.PayrollID) {
	t.Helper()
	family, err := mem.ListFamily(context.Background(), rootID)
	if err != nil {
		t.Fatalf("listing family: %v", err)
	}
	var current []engine.PayrollID
	for _, p := range family {
		if p.IsCurrent() {
			current = append(current, p.ID)
		}
	}
	if len(current) != 1 || current[0] != wantID {
		t.Fatalf("expected exactly one current row (%s), got %v", wantID, current)
	}
}

func TestVersionLifecycle_InterleavedStepsKeepOneCurrent(t *testing.T) {
	// GIVEN: A family driven through mixed version and activation steps
	// WHEN: Checking after every step, including an activation attempt
	//       on a version superseded before go-live
	// THEN: The family holds exactly one current row throughout

	ctx := context.Background()
	m, mem, _ := newTestManager()
	v1 := seedPayroll(t, mem, engine.StatusImplementation, date(2026, time.January, 1))
	root := v1.FamilyRootID
	assertOneCurrent(t, mem, root, v1.ID)

	// Supersede v1 before it ever goes live.
	v2, err := m.CreateVersionSimple(ctx, v1.ID, date(2026, time.February, 1), "ops")
	if err != nil {
		t.Fatalf("creating v2: %v", err)
	}
	assertOneCurrent(t, mem, root, v2.ID)

	if _, err := m.Activate(ctx, v2.ID, date(2026, time.February, 1)); err != nil {
		t.Fatalf("activating v2: %v", err)
	}
	assertOneCurrent(t, mem, root, v2.ID)

	v3, err := m.CreateVersionSimple(ctx, v2.ID, date(2026, time.April, 1), "ops")
	if err != nil {
		t.Fatalf("creating v3: %v", err)
	}
	assertOneCurrent(t, mem, root, v3.ID)

	// The stale v1 is due and still Implementation; it must be rejected
	// without disturbing the chain.
	if _, err := m.Activate(ctx, v1.ID, date(2026, time.April, 1)); !errors.Is(err, engine.ErrNotCurrent) {
		t.Fatalf("expected ErrNotCurrent for stale v1, got %v", err)
	}
	assertOneCurrent(t, mem, root, v3.ID)

	// Branching off the superseded v2 is equally rejected.
	if _, err := m.CreateVersionSimple(ctx, v2.ID, date(2026, time.May, 1), "ops"); !errors.Is(err, engine.ErrNotCurrent) {
		t.Fatalf("expected ErrNotCurrent branching off v2, got %v", err)
	}
	assertOneCurrent(t, mem, root, v3.ID)

	if _, err := m.Activate(ctx, v3.ID, date(2026, time.April, 1)); err != nil {
		t.Fatalf("activating v3: %v", err)
	}
	assertOneCurrent(t, mem, root, v3.ID)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestGetCurrent_UnknownFamily_Fails(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: Reading the current version of a missing family
	// THEN: ErrPayrollNotFound

	m, _, _ := newTestManager()
	_, err := m.GetCurrent(context.Background(), "no-such-family")
	if !errors.Is(err, engine.ErrPayrollNotFound) {
		t.Fatalf("expected ErrPayrollNotFound, got %v", err)
	}
}

func TestGetCurrent_FullySupersededFamily_Fails(t *testing.T) {
	// GIVEN: A family whose only version is Inactive
	// WHEN: Reading the current version
	// THEN: ErrNoCurrentVersion, distinct from not-found

	ctx := context.Background()
	m, mem, _ := newTestManager()
	p := seedPayroll(t, mem, engine.StatusInactive, date(2026, time.January, 1))

	_, err := m.GetCurrent(ctx, p.FamilyRootID)
	if !errors.Is(err, engine.ErrNoCurrentVersion) {
		t.Fatalf("expected ErrNoCurrentVersion, got %v", err)
	}
}

func TestGetCurrent_TwoCurrentRows_IsFatalIntegrity(t *testing.T) {
	// GIVEN: A family corrupted to hold two current rows (injected behind
	//        the store's conflict check by marking the duplicate Inactive
	//        first, then flipping it back)
	// WHEN: Reading the current version
	// THEN: A loud IntegrityError, never a silent repair

	ctx := context.Background()
	m, mem, _ := newTestManager()
	v1 := seedPayroll(t, mem, engine.StatusActive, date(2026, time.January, 1))

	dup := v1
	dup.ID = engine.PayrollID(engine.NewID())
	dup.VersionNumber = 2
	dup.Status = engine.StatusInactive
	if err := mem.InsertPayroll(ctx, dup); err != nil {
		t.Fatalf("inserting duplicate: %v", err)
	}
	dup.Status = engine.StatusActive
	if err := mem.UpdatePayroll(ctx, dup); err != nil {
		t.Fatalf("corrupting duplicate: %v", err)
	}

	_, err := m.GetCurrent(ctx, v1.FamilyRootID)
	if !engine.IsFatalIntegrity(err) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func TestGetHistory_OrdersByVersionAndFlagsCurrent(t *testing.T) {
	// GIVEN: A three-version family
	// WHEN: Reading history
	// THEN: Versions ascend 1..3 and only v3 is current

	ctx := context.Background()
	m, mem, _ := newTestManager()
	v1 := seedPayroll(t, mem, engine.StatusActive, date(2026, time.January, 1))

	v2, err := m.CreateVersionSimple(ctx, v1.ID, date(2026, time.April, 1), "ops")
	if err != nil {
		t.Fatalf("creating v2: %v", err)
	}
	if _, err := m.CreateVersionSimple(ctx, v2.ID, date(2026, time.July, 1), "ops"); err != nil {
		t.Fatalf("creating v3: %v", err)
	}

	history, err := m.GetHistory(ctx, v1.FamilyRootID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	for i, entry := range history {
		if entry.Payroll.VersionNumber != i+1 {
			t.Errorf("entry %d: expected version %d, got %d", i, i+1, entry.Payroll.VersionNumber)
		}
		wantCurrent := i == 2
		if entry.IsCurrent != wantCurrent {
			t.Errorf("entry %d: IsCurrent = %v, want %v", i, entry.IsCurrent, wantCurrent)
		}
	}
}

func TestInsertPayroll_SecondCurrentRow_Conflicts(t *testing.T) {
	// GIVEN: A family with a current version
	// WHEN: Inserting another current row for the same family
	// THEN: ErrVersionConflict

	ctx := context.Background()
	mem := store.NewMemory()
	v1 := seedPayroll(t, mem, engine.StatusActive, date(2026, time.January, 1))

	dup := v1
	dup.ID = engine.PayrollID(engine.NewID())
	dup.VersionNumber = 2
	err := mem.InsertPayroll(ctx, dup)
	if !errors.Is(err, engine.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}
