// Package store provides in-memory implementations of the engine's
// persistence interfaces, for testing and demos.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tigearis/payroll-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	payrolls    map[engine.PayrollID]engine.Payroll
	dates       map[engine.PayrollID][]engine.PayrollDate
	dateIndex   map[engine.PayrollDateID]engine.PayrollDate
	assignments map[engine.PayrollDateID]engine.PayrollAssignment
	audits      map[engine.PayrollDateID][]engine.AssignmentAudit
	holidays    map[engine.HolidayID]engine.Holiday
	rules       map[string]engine.AdjustmentRule
	ruleOrder   []string
}

func NewMemory() *Memory {
	return &Memory{
		payrolls:    make(map[engine.PayrollID]engine.Payroll),
		dates:       make(map[engine.PayrollID][]engine.PayrollDate),
		dateIndex:   make(map[engine.PayrollDateID]engine.PayrollDate),
		assignments: make(map[engine.PayrollDateID]engine.PayrollAssignment),
		audits:      make(map[engine.PayrollDateID][]engine.AssignmentAudit),
		holidays:    make(map[engine.HolidayID]engine.Holiday),
		rules:       make(map[string]engine.AdjustmentRule),
	}
}

// =============================================================================
// PAYROLL STORE
// =============================================================================

func (m *Memory) InsertPayroll(_ context.Context, p engine.Payroll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertPayrollLocked(p)
}

func (m *Memory) insertPayrollLocked(p engine.Payroll) error {
	if p.IsCurrent() {
		for _, existing := range m.payrolls {
			if existing.FamilyRootID == p.FamilyRootID && existing.ID != p.ID && existing.IsCurrent() {
				return engine.ErrVersionConflict
			}
		}
	}
	m.payrolls[p.ID] = p
	return nil
}

func (m *Memory) UpdatePayroll(_ context.Context, p engine.Payroll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payrolls[p.ID]; !ok {
		return engine.ErrPayrollNotFound
	}
	m.payrolls[p.ID] = p
	return nil
}

func (m *Memory) GetPayroll(_ context.Context, id engine.PayrollID) (*engine.Payroll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payrolls[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListFamily(_ context.Context, familyRootID engine.PayrollID) ([]engine.Payroll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var family []engine.Payroll
	for _, p := range m.payrolls {
		if p.FamilyRootID == familyRootID {
			family = append(family, p)
		}
	}
	sort.Slice(family, func(i, j int) bool {
		return family[i].VersionNumber < family[j].VersionNumber
	})
	return family, nil
}

func (m *Memory) ListDueForActivation(_ context.Context, asOf engine.Date) ([]engine.Payroll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var due []engine.Payroll
	for _, p := range m.payrolls {
		if p.Status == engine.StatusImplementation && p.SupersededDate == nil && p.GoLiveDate.BeforeOrEqual(asOf) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

// WithPayrollTx serializes the function under the store lock. There is
// no rollback; the engine validates before its first write, and tests
// that need rollback semantics use the sqlite store.
func (m *Memory) WithPayrollTx(ctx context.Context, fn func(engine.PayrollStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&lockedMemory{m})
}

// lockedMemory exposes the store to a transaction callback without
// re-acquiring the mutex.
type lockedMemory struct {
	m *Memory
}

func (l *lockedMemory) InsertPayroll(_ context.Context, p engine.Payroll) error {
	return l.m.insertPayrollLocked(p)
}

func (l *lockedMemory) UpdatePayroll(_ context.Context, p engine.Payroll) error {
	if _, ok := l.m.payrolls[p.ID]; !ok {
		return engine.ErrPayrollNotFound
	}
	l.m.payrolls[p.ID] = p
	return nil
}

func (l *lockedMemory) GetPayroll(_ context.Context, id engine.PayrollID) (*engine.Payroll, error) {
	p, ok := l.m.payrolls[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (l *lockedMemory) ListFamily(_ context.Context, familyRootID engine.PayrollID) ([]engine.Payroll, error) {
	var family []engine.Payroll
	for _, p := range l.m.payrolls {
		if p.FamilyRootID == familyRootID {
			family = append(family, p)
		}
	}
	sort.Slice(family, func(i, j int) bool {
		return family[i].VersionNumber < family[j].VersionNumber
	})
	return family, nil
}

func (l *lockedMemory) ListDueForActivation(_ context.Context, asOf engine.Date) ([]engine.Payroll, error) {
	var due []engine.Payroll
	for _, p := range l.m.payrolls {
		if p.Status == engine.StatusImplementation && p.SupersededDate == nil && p.GoLiveDate.BeforeOrEqual(asOf) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (l *lockedMemory) WithPayrollTx(ctx context.Context, fn func(engine.PayrollStore) error) error {
	return fn(l)
}

// =============================================================================
// DATE STORE
// =============================================================================

func (m *Memory) ReplaceDates(_ context.Context, payrollID engine.PayrollID, dates []engine.PayrollDate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, old := range m.dates[payrollID] {
		delete(m.dateIndex, old.ID)
	}
	replaced := make([]engine.PayrollDate, len(dates))
	copy(replaced, dates)
	sort.Slice(replaced, func(i, j int) bool {
		return replaced[i].OriginalEFTDate.Before(replaced[j].OriginalEFTDate)
	})
	m.dates[payrollID] = replaced
	for _, d := range replaced {
		m.dateIndex[d.ID] = d
	}
	return nil
}

func (m *Memory) ListDates(_ context.Context, payrollID engine.PayrollID) ([]engine.PayrollDate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.PayrollDate, len(m.dates[payrollID]))
	copy(out, m.dates[payrollID])
	return out, nil
}

func (m *Memory) GetDate(_ context.Context, id engine.PayrollDateID) (*engine.PayrollDate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dateIndex[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// =============================================================================
// ASSIGNMENT STORE
// =============================================================================

func (m *Memory) SaveAssignment(_ context.Context, a engine.PayrollAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.PayrollDateID] = a
	return nil
}

func (m *Memory) GetAssignmentByDate(_ context.Context, dateID engine.PayrollDateID) (*engine.PayrollAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[dateID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) UpdateAssignment(_ context.Context, a engine.PayrollAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[a.PayrollDateID]; !ok {
		return engine.ErrAssignmentNotFound
	}
	m.assignments[a.PayrollDateID] = a
	return nil
}

func (m *Memory) AppendAssignmentAudit(_ context.Context, audit engine.AssignmentAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[audit.PayrollDateID] = append(m.audits[audit.PayrollDateID], audit)
	return nil
}

func (m *Memory) ListAssignmentAudits(_ context.Context, dateID engine.PayrollDateID) ([]engine.AssignmentAudit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.AssignmentAudit, len(m.audits[dateID]))
	copy(out, m.audits[dateID])
	return out, nil
}

func (m *Memory) WithAssignmentTx(ctx context.Context, fn func(engine.AssignmentStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&lockedAssignments{m})
}

type lockedAssignments struct {
	m *Memory
}

func (l *lockedAssignments) SaveAssignment(_ context.Context, a engine.PayrollAssignment) error {
	l.m.assignments[a.PayrollDateID] = a
	return nil
}

func (l *lockedAssignments) GetAssignmentByDate(_ context.Context, dateID engine.PayrollDateID) (*engine.PayrollAssignment, error) {
	a, ok := l.m.assignments[dateID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (l *lockedAssignments) UpdateAssignment(_ context.Context, a engine.PayrollAssignment) error {
	if _, ok := l.m.assignments[a.PayrollDateID]; !ok {
		return engine.ErrAssignmentNotFound
	}
	l.m.assignments[a.PayrollDateID] = a
	return nil
}

func (l *lockedAssignments) AppendAssignmentAudit(_ context.Context, audit engine.AssignmentAudit) error {
	l.m.audits[audit.PayrollDateID] = append(l.m.audits[audit.PayrollDateID], audit)
	return nil
}

func (l *lockedAssignments) ListAssignmentAudits(_ context.Context, dateID engine.PayrollDateID) ([]engine.AssignmentAudit, error) {
	out := make([]engine.AssignmentAudit, len(l.m.audits[dateID]))
	copy(out, l.m.audits[dateID])
	return out, nil
}

func (l *lockedAssignments) WithAssignmentTx(ctx context.Context, fn func(engine.AssignmentStore) error) error {
	return fn(l)
}

// =============================================================================
// HOLIDAY + RULE STORES
// =============================================================================

func (m *Memory) SaveHoliday(_ context.Context, h engine.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id engine.HolidayID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holidays, id)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context, countryCode string) ([]engine.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.Holiday
	for _, h := range m.holidays {
		if countryCode == "" || h.CountryCode == countryCode {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveRule(_ context.Context, r engine.AdjustmentRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(r.CycleID) + "/" + string(r.DateTypeID)
	if _, ok := m.rules[key]; !ok {
		m.ruleOrder = append(m.ruleOrder, key)
	}
	m.rules[key] = r
	return nil
}

func (m *Memory) ListRules(_ context.Context) ([]engine.AdjustmentRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.AdjustmentRule, 0, len(m.ruleOrder))
	for _, key := range m.ruleOrder {
		out = append(out, m.rules[key])
	}
	return out, nil
}
