/*
Package engine provides the core payroll versioning and EFT date engine.

PURPOSE:
  This package contains the domain types and algorithms for a multi-client
  payroll service: computing holiday-adjusted EFT (electronic funds
  transfer) dates, maintaining append-only chains of payroll versions,
  activating versions as go-live dates arrive, and tracking which
  consultant owns each generated payroll date.

KEY CONCEPTS IN THIS FILE (types.go):
  - Payroll: The versioned entity. Versions form a "family" linked by
    ParentPayrollID back to a root; exactly one version per family is
    current at any time.
  - PayrollDate: A generated (original, adjusted, processing) date triple.
  - PayrollAssignment / AssignmentAudit: Consultant ownership of a date
    and the immutable trail of every reassignment.
  - PayrollCycle / PayrollDateType: Static reference data describing
    cadence and date-calculation strategy.

DESIGN PRINCIPLES:
  1. Immutability: Versions are superseded, never edited; audit rows are
     append-only.
  2. Derived state: "current" is computed from SupersededDate/Status, not
     stored as a separate pointer that can drift.
  3. Type safety: Strong ID types prevent mixing payroll/date/consultant ids.

SEE ALSO:
  - version.go: Version chain manager
  - generator.go: EFT date generation
  - calendar.go: Business-day and holiday logic
*/
package engine

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PayrollID string
type PayrollDateID string
type AssignmentID string
type ClientID string
type ConsultantID string
type CycleID string
type DateTypeID string
type HolidayID string

// NewID returns a random identifier. Deterministic ids (payroll dates)
// use DateID instead.
func NewID() string { return uuid.NewString() }

// DateID derives a stable id for a generated payroll date from its
// payroll and original EFT date. Regeneration with unchanged inputs must
// produce byte-identical rows, so date ids cannot be random.
func DateID(payrollID PayrollID, original Date) PayrollDateID {
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(payrollID)+"/"+original.String()))
	return PayrollDateID(u.String())
}

// =============================================================================
// STATIC REFERENCE DATA - Cycles and date types
// =============================================================================

type CycleName string

const (
	CycleWeekly      CycleName = "weekly"
	CycleFortnightly CycleName = "fortnightly"
	CycleMonthly     CycleName = "monthly"
	CycleQuarterly   CycleName = "quarterly"
)

type PayrollCycle struct {
	ID          CycleID
	Name        CycleName
	Description string
}

type DateTypeName string

const (
	// DateTypeFixedDay pays on the DateValue-th calendar day of the
	// period, clamped to the month end for short months.
	DateTypeFixedDay DateTypeName = "fixed_day"

	// DateTypeLastWorkingDay pays on the last business day of the month.
	// Already guaranteed to be a business day, so its adjustment rule is
	// no_adjustment.
	DateTypeLastWorkingDay DateTypeName = "last_working_day"

	// DateTypeFirstWorkingDay pays on the first business day of the month.
	DateTypeFirstWorkingDay DateTypeName = "first_working_day"

	// DateTypeWeekday anchors weekly/fortnightly cycles to a day of week
	// (DateValue: 0=Sunday .. 6=Saturday).
	DateTypeWeekday DateTypeName = "weekday"
)

type PayrollDateType struct {
	ID          DateTypeID
	Name        DateTypeName
	Description string
}

// Reference holds the static cycle and date-type catalogs. These change
// with releases, not at runtime, so they live in code rather than the
// relational store.
type Reference struct {
	cycles    map[CycleID]PayrollCycle
	dateTypes map[DateTypeID]PayrollDateType
}

func NewReference(cycles []PayrollCycle, dateTypes []PayrollDateType) *Reference {
	r := &Reference{
		cycles:    make(map[CycleID]PayrollCycle),
		dateTypes: make(map[DateTypeID]PayrollDateType),
	}
	for _, c := range cycles {
		r.cycles[c.ID] = c
	}
	for _, dt := range dateTypes {
		r.dateTypes[dt.ID] = dt
	}
	return r
}

func (r *Reference) Cycle(id CycleID) (PayrollCycle, error) {
	c, ok := r.cycles[id]
	if !ok {
		return PayrollCycle{}, &UnknownReferenceError{Kind: "cycle", ID: string(id)}
	}
	return c, nil
}

func (r *Reference) DateType(id DateTypeID) (PayrollDateType, error) {
	dt, ok := r.dateTypes[id]
	if !ok {
		return PayrollDateType{}, &UnknownReferenceError{Kind: "date type", ID: string(id)}
	}
	return dt, nil
}

func (r *Reference) Cycles() []PayrollCycle {
	out := make([]PayrollCycle, 0, len(r.cycles))
	for _, c := range r.cycles {
		out = append(out, c)
	}
	return out
}

func (r *Reference) DateTypes() []PayrollDateType {
	out := make([]PayrollDateType, 0, len(r.dateTypes))
	for _, dt := range r.dateTypes {
		out = append(out, dt)
	}
	return out
}

// Well-known reference ids used by DefaultReference and the demo data.
const (
	CycleIDWeekly      CycleID = "cycle-weekly"
	CycleIDFortnightly CycleID = "cycle-fortnightly"
	CycleIDMonthly     CycleID = "cycle-monthly"
	CycleIDQuarterly   CycleID = "cycle-quarterly"

	DateTypeIDFixedDay        DateTypeID = "dt-fixed-day"
	DateTypeIDLastWorkingDay  DateTypeID = "dt-last-working-day"
	DateTypeIDFirstWorkingDay DateTypeID = "dt-first-working-day"
	DateTypeIDWeekday         DateTypeID = "dt-weekday"
)

// DefaultReference returns the standard cycle/date-type catalog.
func DefaultReference() *Reference {
	return NewReference(
		[]PayrollCycle{
			{ID: CycleIDWeekly, Name: CycleWeekly, Description: "Every 7 days"},
			{ID: CycleIDFortnightly, Name: CycleFortnightly, Description: "Every 14 days"},
			{ID: CycleIDMonthly, Name: CycleMonthly, Description: "Once per calendar month"},
			{ID: CycleIDQuarterly, Name: CycleQuarterly, Description: "Every 3 months"},
		},
		[]PayrollDateType{
			{ID: DateTypeIDFixedDay, Name: DateTypeFixedDay, Description: "Fixed day of month (clamped)"},
			{ID: DateTypeIDLastWorkingDay, Name: DateTypeLastWorkingDay, Description: "Last business day of month"},
			{ID: DateTypeIDFirstWorkingDay, Name: DateTypeFirstWorkingDay, Description: "First business day of month"},
			{ID: DateTypeIDWeekday, Name: DateTypeWeekday, Description: "Day-of-week anchor for weekly cycles"},
		},
	)
}

// =============================================================================
// PAYROLL - The versioned entity
// =============================================================================

type PayrollStatus string

const (
	StatusImplementation PayrollStatus = "Implementation"
	StatusActive         PayrollStatus = "Active"
	StatusInactive       PayrollStatus = "Inactive"
)

// Payroll is one version within a version family. Version 1 has no
// parent and FamilyRootID equal to its own ID.
type Payroll struct {
	ID              PayrollID
	FamilyRootID    PayrollID
	ParentPayrollID *PayrollID
	VersionNumber   int
	VersionReason   string

	Name        string
	ClientID    ClientID
	CountryCode string // client jurisdiction for calendar lookups
	Region      string // optional sub-jurisdiction

	CycleID    CycleID
	DateTypeID DateTypeID
	DateValue  *int // meaning depends on date type (day of month, weekday)

	Status         PayrollStatus
	GoLiveDate     Date
	SupersededDate *Date

	PrimaryConsultantID ConsultantID
	BackupConsultantID  *ConsultantID
	ManagerID           *ConsultantID

	ProcessingDaysBeforeEFT int
	ProcessingTime          int // estimated hours to process one run

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCurrent reports whether this row is the current version of its
// family: not superseded and not inactive.
func (p Payroll) IsCurrent() bool {
	return p.SupersededDate == nil && p.Status != StatusInactive
}

// =============================================================================
// PAYROLL DATE - Generated (original, adjusted, processing) triple
// =============================================================================

type PayrollDate struct {
	ID        PayrollDateID
	PayrollID PayrollID

	OriginalEFTDate Date
	AdjustedEFTDate Date
	ProcessingDate  Date

	Notes     string
	CreatedAt time.Time
}

// =============================================================================
// ASSIGNMENT - Consultant ownership of a payroll date
// =============================================================================

// PayrollAssignment records which consultant is responsible for a
// generated payroll date. At most one assignment exists per date; changes
// go through reassignment, never deletion.
type PayrollAssignment struct {
	ID            AssignmentID
	PayrollDateID PayrollDateID
	ConsultantID  ConsultantID
	IsBackup      bool

	// OriginalConsultantID is set on first reassignment and preserved
	// thereafter, so the date's original owner survives any number of
	// handoffs.
	OriginalConsultantID *ConsultantID

	AssignedBy string
	AssignedAt time.Time
}

// AssignmentAudit is one append-only row per reassignment event.
type AssignmentAudit struct {
	ID               string
	PayrollDateID    PayrollDateID
	FromConsultantID *ConsultantID
	ToConsultantID   ConsultantID
	ChangeReason     string
	ChangedBy        string
	CreatedAt        time.Time
}
