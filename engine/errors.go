/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify errors with the helpers at the bottom rather than
  matching strings.

ERROR CATEGORIES:
  1. Configuration errors - missing rules/calendars; caller-correctable,
     never retried.
  2. Concurrency errors - version conflicts, stale assignments; retry
     only after re-reading current state.
  3. Fatal integrity errors - duplicate current versions observed on
     read; escalated, never silently repaired.

USAGE:
  if errors.Is(err, engine.ErrNoRule) { ... }
  if engine.IsFatalIntegrity(err) { alert(...) }

SEE ALSO:
  - version.go: Produces version conflict and integrity errors
  - assignment.go: Produces per-item stale assignment errors
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoRule is returned when no adjustment rule exists for a
	// (cycle, date type) pair. Generating dates without a rule would
	// silently pick a payment-date policy, so this is a hard failure.
	ErrNoRule = errors.New("no adjustment rule for cycle/date type pair")

	// ErrUnknownCalendar is returned when no holiday data exists for a
	// country. Callers degrade to weekend-only adjustment rather than
	// blocking payroll generation.
	ErrUnknownCalendar = errors.New("unknown holiday calendar")

	// ErrUnknownRuleCode is returned when a rule configuration carries a
	// code outside the closed policy set.
	ErrUnknownRuleCode = errors.New("unknown adjustment rule code")

	// ErrDuplicateRule is returned when two rules claim the same
	// (cycle, date type) pair.
	ErrDuplicateRule = errors.New("duplicate adjustment rule for pair")

	// ErrNoBusinessDay is returned when a business-day search exhausts
	// its bound. Indicates corrupt holiday data (an unbroken run of
	// non-business days longer than two years).
	ErrNoBusinessDay = errors.New("no business day within search bound")

	// ErrMissingDateValue is returned when a payroll's date type needs a
	// DateValue (fixed day, weekday anchor) and none is set.
	ErrMissingDateValue = errors.New("payroll has no date value for its date type")

	// ErrPayrollNotFound is returned when a referenced payroll doesn't exist.
	ErrPayrollNotFound = errors.New("payroll not found")

	// ErrNotCurrent is returned when a version operation targets a
	// payroll that is no longer the current version of its family.
	ErrNotCurrent = errors.New("payroll is not the current version")

	// ErrNoCurrentVersion is returned when a family has no current
	// version (all rows superseded or inactive).
	ErrNoCurrentVersion = errors.New("family has no current version")

	// ErrVersionConflict is returned when a concurrent writer won the
	// race to supersede a version. Retry only after re-reading state.
	ErrVersionConflict = errors.New("version conflict")

	// ErrIntegrity is returned when a read observes more than one current
	// version in a family. This is fatal; retry cannot fix it.
	ErrIntegrity = errors.New("version family integrity violation")

	// ErrNotDue is returned when activating a payroll whose go-live date
	// is still in the future.
	ErrNotDue = errors.New("payroll go-live date not reached")

	// ErrNotActivatable is returned when activating a payroll that is
	// neither Implementation nor already Active (i.e. Inactive).
	ErrNotActivatable = errors.New("payroll cannot be activated")

	// ErrAssignmentNotFound is returned when a payroll date has no
	// assignment to reassign.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrStaleAssignment is returned when a reassignment's expected
	// consultant no longer matches the stored assignment.
	ErrStaleAssignment = errors.New("assignment changed since read")
)

// =============================================================================
// STRUCTURED ERRORS - Carry enough context to diagnose without logs
// =============================================================================

// NoRuleError identifies the unmatched pair.
type NoRuleError struct {
	CycleID    CycleID
	DateTypeID DateTypeID
}

func (e *NoRuleError) Error() string {
	return fmt.Sprintf("no adjustment rule for cycle %q / date type %q", e.CycleID, e.DateTypeID)
}

func (e *NoRuleError) Unwrap() error { return ErrNoRule }

// UnknownCalendarError identifies the country with no holiday data.
type UnknownCalendarError struct {
	CountryCode string
}

func (e *UnknownCalendarError) Error() string {
	return fmt.Sprintf("no holiday calendar for country %q", e.CountryCode)
}

func (e *UnknownCalendarError) Unwrap() error { return ErrUnknownCalendar }

// UnknownReferenceError identifies an unknown cycle or date type id.
type UnknownReferenceError struct {
	Kind string // "cycle" or "date type"
	ID   string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

// NotCurrentError identifies the stale version and its family.
type NotCurrentError struct {
	PayrollID    PayrollID
	FamilyRootID PayrollID
}

func (e *NotCurrentError) Error() string {
	return fmt.Sprintf("payroll %s is not the current version of family %s", e.PayrollID, e.FamilyRootID)
}

func (e *NotCurrentError) Unwrap() error { return ErrNotCurrent }

// IntegrityError reports a family observed with multiple current rows.
type IntegrityError struct {
	FamilyRootID PayrollID
	CurrentCount int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("family %s has %d current versions, expected exactly one", e.FamilyRootID, e.CurrentCount)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// NotDueError carries the dates an operator needs to see.
type NotDueError struct {
	PayrollID  PayrollID
	GoLiveDate Date
	AsOf       Date
}

func (e *NotDueError) Error() string {
	return fmt.Sprintf("payroll %s go-live %s is after %s", e.PayrollID, e.GoLiveDate, e.AsOf)
}

func (e *NotDueError) Unwrap() error { return ErrNotDue }

// StaleAssignmentError reports an optimistic-concurrency conflict on a
// single reassignment item.
type StaleAssignmentError struct {
	PayrollDateID       PayrollDateID
	ExpectedConsultant  ConsultantID
	CurrentConsultantID ConsultantID
}

func (e *StaleAssignmentError) Error() string {
	return fmt.Sprintf("assignment for date %s is held by %s, not %s",
		e.PayrollDateID, e.CurrentConsultantID, e.ExpectedConsultant)
}

func (e *StaleAssignmentError) Unwrap() error { return ErrStaleAssignment }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed after the caller
// re-reads current state. Blind fixed-delay retries are never correct
// for these.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrStaleAssignment)
}

// IsClientError returns true if the error is due to correctable input or
// configuration.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoRule) ||
		errors.Is(err, ErrUnknownRuleCode) ||
		errors.Is(err, ErrMissingDateValue) ||
		errors.Is(err, ErrNotCurrent) ||
		errors.Is(err, ErrNotDue) ||
		errors.Is(err, ErrNotActivatable)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPayrollNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrNoCurrentVersion)
}

// IsFatalIntegrity returns true for data-integrity violations that must
// be escalated, not retried or repaired in place.
func IsFatalIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}
