/*
version.go - Version chain manager

PURPOSE:
  Maintains the append-only chain of payroll versions. Each family is
  rooted at an original payroll; editing material fields clones the
  current version into version N+1 and supersedes the source, so history
  is never rewritten.

STATE MACHINE (per version):
  Implementation -> Active -> Inactive (terminal)
  Implementation -> superseded before go-live is also legal.

INVARIANT:
  Within a family, at most one row has SupersededDate == nil and
  Status != Inactive. "Current" is derived from those fields, never
  stored as a separate pointer. The two writes of a supersession happen
  in one store transaction; concurrent supersessions of the same family
  must lose with ErrVersionConflict, not both succeed.

FAILURE SEMANTICS:
  A read that observes two current rows is a fatal data-integrity error.
  It is surfaced loudly (IntegrityError), never silently repaired, since
  auto-repair could mask real corruption.

SEE ALSO:
  - activation.go: Batch promotion of due versions
  - store.go: PayrollStore transaction contract
*/
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// VERSION CHANGES
// =============================================================================

// VersionChanges is the set of material fields a new version may alter.
// Nil fields keep the source version's value.
type VersionChanges struct {
	Name                    *string
	GoLiveDate              *Date
	CycleID                 *CycleID
	DateTypeID              *DateTypeID
	DateValue               *int
	PrimaryConsultantID     *ConsultantID
	BackupConsultantID      *ConsultantID
	ManagerID               *ConsultantID
	ProcessingDaysBeforeEFT *int
	ProcessingTime          *int
}

// TouchesSchedule reports whether the changes alter date generation
// parameters, requiring the new version's dates to be regenerated.
func (c VersionChanges) TouchesSchedule() bool {
	return c.CycleID != nil || c.DateTypeID != nil || c.DateValue != nil ||
		c.ProcessingDaysBeforeEFT != nil
}

func (c VersionChanges) apply(p *Payroll) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.GoLiveDate != nil {
		p.GoLiveDate = *c.GoLiveDate
	}
	if c.CycleID != nil {
		p.CycleID = *c.CycleID
	}
	if c.DateTypeID != nil {
		p.DateTypeID = *c.DateTypeID
	}
	if c.DateValue != nil {
		v := *c.DateValue
		p.DateValue = &v
	}
	if c.PrimaryConsultantID != nil {
		p.PrimaryConsultantID = *c.PrimaryConsultantID
	}
	if c.BackupConsultantID != nil {
		v := *c.BackupConsultantID
		p.BackupConsultantID = &v
	}
	if c.ManagerID != nil {
		v := *c.ManagerID
		p.ManagerID = &v
	}
	if c.ProcessingDaysBeforeEFT != nil {
		p.ProcessingDaysBeforeEFT = *c.ProcessingDaysBeforeEFT
	}
	if c.ProcessingTime != nil {
		p.ProcessingTime = *c.ProcessingTime
	}
}

// =============================================================================
// MANAGER
// =============================================================================

type Manager struct {
	Store   PayrollStore
	Emitter Emitter

	// Now is injectable for tests; defaults to the wall clock.
	Now func() time.Time
}

func NewManager(store PayrollStore, emitter Emitter) *Manager {
	return &Manager{Store: store, Emitter: emitter, Now: func() time.Time { return time.Now().UTC() }}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

// CreateVersion clones the current version of a family into version N+1,
// applying changes and superseding the source in one transaction.
func (m *Manager) CreateVersion(ctx context.Context, payrollID PayrollID, changes VersionChanges, reason, actor string) (*Payroll, error) {
	var created Payroll

	err := m.Store.WithPayrollTx(ctx, func(s PayrollStore) error {
		src, err := s.GetPayroll(ctx, payrollID)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("create version %s: %w", payrollID, ErrPayrollNotFound)
		}
		// Re-read inside the transaction: a concurrent CreateVersion that
		// committed first leaves the source superseded, and this call
		// must fail rather than fork the chain.
		if !src.IsCurrent() {
			return &NotCurrentError{PayrollID: src.ID, FamilyRootID: src.FamilyRootID}
		}

		now := m.now()
		superseded := DateOf(now)

		next := *src
		next.ID = PayrollID(NewID())
		next.ParentPayrollID = &src.ID
		next.VersionNumber = src.VersionNumber + 1
		next.VersionReason = reason
		next.Status = StatusImplementation
		next.SupersededDate = nil
		next.CreatedAt = now
		next.UpdatedAt = now
		changes.apply(&next)

		src.SupersededDate = &superseded
		src.UpdatedAt = now
		if err := s.UpdatePayroll(ctx, *src); err != nil {
			return err
		}
		if err := s.InsertPayroll(ctx, next); err != nil {
			return err
		}

		created = next
		return nil
	})

	emit(ctx, m.Emitter, Event{
		Action:       "createPayrollVersion",
		ResourceType: ResourcePayroll,
		ResourceID:   string(payrollID),
		UserID:       actor,
		Success:      err == nil,
		Metadata:     map[string]string{"reason": reason},
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateVersionSimple is CreateVersion with the default change-set: only
// a new go-live date.
func (m *Manager) CreateVersionSimple(ctx context.Context, payrollID PayrollID, goLive Date, actor string) (*Payroll, error) {
	return m.CreateVersion(ctx, payrollID, VersionChanges{GoLiveDate: &goLive}, "scheduled version", actor)
}

// =============================================================================
// ACTIVATION
// =============================================================================

// ActivationAction records what Activate actually did.
type ActivationAction string

const (
	ActionActivated     ActivationAction = "activated"
	ActionSuperseded    ActivationAction = "activated_superseding_previous"
	ActionAlreadyActive ActivationAction = "already_active"
)

// Activate promotes an Implementation payroll whose go-live date has
// arrived. If a sibling version is Active it is demoted to Inactive in
// the same transaction. Re-activating an Active payroll is a no-op, so
// overlapping batch runs are safe.
func (m *Manager) Activate(ctx context.Context, payrollID PayrollID, asOf Date) (ActivationAction, error) {
	action := ActionActivated

	err := m.Store.WithPayrollTx(ctx, func(s PayrollStore) error {
		p, err := s.GetPayroll(ctx, payrollID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("activate %s: %w", payrollID, ErrPayrollNotFound)
		}
		switch p.Status {
		case StatusActive:
			action = ActionAlreadyActive
			return nil
		case StatusInactive:
			return fmt.Errorf("activate %s: status %s: %w", payrollID, p.Status, ErrNotActivatable)
		}
		// An Implementation row superseded before go-live is terminal.
		// Activating it would demote the real current version and leave
		// the family with no current row.
		if !p.IsCurrent() {
			return &NotCurrentError{PayrollID: p.ID, FamilyRootID: p.FamilyRootID}
		}
		if p.GoLiveDate.After(asOf) {
			return &NotDueError{PayrollID: p.ID, GoLiveDate: p.GoLiveDate, AsOf: asOf}
		}

		now := m.now()
		family, err := s.ListFamily(ctx, p.FamilyRootID)
		if err != nil {
			return err
		}
		for _, sibling := range family {
			if sibling.ID == p.ID || sibling.Status != StatusActive {
				continue
			}
			sibling.Status = StatusInactive
			if sibling.SupersededDate == nil {
				d := DateOf(now)
				sibling.SupersededDate = &d
			}
			sibling.UpdatedAt = now
			if err := s.UpdatePayroll(ctx, sibling); err != nil {
				return err
			}
			action = ActionSuperseded
		}

		p.Status = StatusActive
		p.UpdatedAt = now
		return s.UpdatePayroll(ctx, *p)
	})

	emit(ctx, m.Emitter, Event{
		Action:       "activatePayrollVersion",
		ResourceType: ResourcePayroll,
		ResourceID:   string(payrollID),
		UserID:       "system",
		Success:      err == nil,
		Metadata:     map[string]string{"asOf": asOf.String(), "action": string(action)},
	})
	if err != nil {
		return "", err
	}
	return action, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// GetCurrent returns the unique current version of a family. Zero
// matches means the family is fully superseded (ErrNoCurrentVersion);
// more than one is a fatal integrity violation.
func (m *Manager) GetCurrent(ctx context.Context, familyRootID PayrollID) (*Payroll, error) {
	family, err := m.Store.ListFamily(ctx, familyRootID)
	if err != nil {
		return nil, err
	}
	if len(family) == 0 {
		return nil, fmt.Errorf("family %s: %w", familyRootID, ErrPayrollNotFound)
	}

	var current []Payroll
	for _, p := range family {
		if p.IsCurrent() {
			current = append(current, p)
		}
	}
	switch len(current) {
	case 1:
		c := current[0]
		return &c, nil
	case 0:
		return nil, fmt.Errorf("family %s: %w", familyRootID, ErrNoCurrentVersion)
	default:
		return nil, &IntegrityError{FamilyRootID: familyRootID, CurrentCount: len(current)}
	}
}

// VersionEntry is one row of a family's history.
type VersionEntry struct {
	Payroll   Payroll
	IsCurrent bool
}

// GetHistory returns every version of a family ordered by version number
// ascending, each flagged IsCurrent.
func (m *Manager) GetHistory(ctx context.Context, familyRootID PayrollID) ([]VersionEntry, error) {
	family, err := m.Store.ListFamily(ctx, familyRootID)
	if err != nil {
		return nil, err
	}
	if len(family) == 0 {
		return nil, fmt.Errorf("family %s: %w", familyRootID, ErrPayrollNotFound)
	}

	sort.Slice(family, func(i, j int) bool {
		return family[i].VersionNumber < family[j].VersionNumber
	})

	entries := make([]VersionEntry, len(family))
	currentCount := 0
	for i, p := range family {
		entries[i] = VersionEntry{Payroll: p, IsCurrent: p.IsCurrent()}
		if p.IsCurrent() {
			currentCount++
		}
	}
	if currentCount > 1 {
		return nil, &IntegrityError{FamilyRootID: familyRootID, CurrentCount: currentCount}
	}
	return entries, nil
}

// NewPayroll builds version 1 of a new family.
func NewPayroll(name string, clientID ClientID, countryCode, region string, cycleID CycleID, dateTypeID DateTypeID, dateValue *int, primary ConsultantID, goLive Date, processingDays, processingTime int) Payroll {
	id := PayrollID(NewID())
	now := time.Now().UTC()
	return Payroll{
		ID:                      id,
		FamilyRootID:            id,
		VersionNumber:           1,
		Name:                    name,
		ClientID:                clientID,
		CountryCode:             countryCode,
		Region:                  region,
		CycleID:                 cycleID,
		DateTypeID:              dateTypeID,
		DateValue:               dateValue,
		Status:                  StatusImplementation,
		GoLiveDate:              goLive,
		PrimaryConsultantID:     primary,
		ProcessingDaysBeforeEFT: processingDays,
		ProcessingTime:          processingTime,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}
