/*
store.go - Persistence interfaces for the payroll engine

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite, PostgreSQL, or in-memory
  storage.

KEY INTERFACES:
  PayrollStore:    Version rows with transactional two-row writes
  DateStore:       Generated payroll dates (replaced wholesale, not edited)
  AssignmentStore: Consultant assignments and their append-only audit trail
  HolidayStore:    Holiday reference data (admin-maintained)
  RuleStore:       Adjustment rule configuration rows

VERSION INVARIANT:
  Implementations must reject a write that would leave a family with two
  current rows (superseded_date IS NULL and status != Inactive). SQLite
  enforces this with a partial unique index; the in-memory store checks
  on insert. Violations surface as ErrVersionConflict.

AUDIT SEMANTICS:
  Assignment audit rows are append-only. No Update, no Delete. Ever.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - engine/store/memory.go: In-memory for testing

SEE ALSO:
  - version.go: Uses PayrollStore transactions
  - assignment.go: Uses AssignmentStore transactions
*/
package engine

import "context"

// =============================================================================
// PAYROLL STORE - Version rows
// =============================================================================

type PayrollStore interface {
	// InsertPayroll persists a new version row. Returns an error wrapping
	// ErrVersionConflict if the family would gain a second current row.
	InsertPayroll(ctx context.Context, p Payroll) error

	// UpdatePayroll rewrites an existing row (supersession, status flips).
	UpdatePayroll(ctx context.Context, p Payroll) error

	GetPayroll(ctx context.Context, id PayrollID) (*Payroll, error)

	// ListFamily returns every version in a family, ordered by
	// VersionNumber ascending.
	ListFamily(ctx context.Context, familyRootID PayrollID) ([]Payroll, error)

	// ListDueForActivation returns current Implementation payrolls whose
	// go-live date is on or before asOf. Superseded rows are excluded;
	// a superseded Implementation version is terminal.
	ListDueForActivation(ctx context.Context, asOf Date) ([]Payroll, error)

	// WithPayrollTx executes fn atomically. A reader under snapshot
	// isolation must never observe a family mid-supersession.
	WithPayrollTx(ctx context.Context, fn func(PayrollStore) error) error
}

// =============================================================================
// DATE STORE - Generated dates
// =============================================================================

type DateStore interface {
	// ReplaceDates swaps the payroll's generated dates atomically. Dates
	// are regenerated, never edited in place.
	ReplaceDates(ctx context.Context, payrollID PayrollID, dates []PayrollDate) error

	ListDates(ctx context.Context, payrollID PayrollID) ([]PayrollDate, error)

	GetDate(ctx context.Context, id PayrollDateID) (*PayrollDate, error)
}

// =============================================================================
// ASSIGNMENT STORE - Consultant ownership + audit trail
// =============================================================================

type AssignmentStore interface {
	// SaveAssignment inserts an assignment. At most one assignment exists
	// per payroll date.
	SaveAssignment(ctx context.Context, a PayrollAssignment) error

	GetAssignmentByDate(ctx context.Context, dateID PayrollDateID) (*PayrollAssignment, error)

	UpdateAssignment(ctx context.Context, a PayrollAssignment) error

	// AppendAssignmentAudit records a reassignment. Append-only.
	AppendAssignmentAudit(ctx context.Context, audit AssignmentAudit) error

	ListAssignmentAudits(ctx context.Context, dateID PayrollDateID) ([]AssignmentAudit, error)

	// WithAssignmentTx executes fn atomically for one reassignment item.
	WithAssignmentTx(ctx context.Context, fn func(AssignmentStore) error) error
}

// =============================================================================
// REFERENCE DATA STORES
// =============================================================================

type HolidayStore interface {
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id HolidayID) error

	// ListHolidays returns holidays for a country, or all holidays when
	// countryCode is empty.
	ListHolidays(ctx context.Context, countryCode string) ([]Holiday, error)
}

type RuleStore interface {
	SaveRule(ctx context.Context, r AdjustmentRule) error
	ListRules(ctx context.Context) ([]AdjustmentRule, error)
}
