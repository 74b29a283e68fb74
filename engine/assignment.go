/*
assignment.go - Consultant assignment and bulk reassignment

PURPOSE:
  Tracks which consultant is responsible for each generated payroll date
  and processes bulk reassignments ("commit changes") with an immutable
  audit trail. Assignment rows move with reassignment; they are never
  deleted, only superseded via new audit rows.

OPTIMISTIC CONCURRENCY:
  A reassignment item names the consultant it expects to replace. If the
  stored assignment has moved on since the caller read it, that item
  fails with a per-item conflict and the rest of the batch proceeds.
  Partial success is a valid, expected outcome for bulk reassignment.

SEE ALSO:
  - store.go: AssignmentStore transaction contract
  - compliance.go: Event emission per item
*/
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// CHANGES AND RESULTS
// =============================================================================

// AssignmentChange is one item of a bulk reassignment.
type AssignmentChange struct {
	PayrollDateID    PayrollDateID
	FromConsultantID ConsultantID
	ToConsultantID   ConsultantID
	Reason           string
	Date             Date // the payroll date being handed off, for operator context
}

// AssignmentError is a per-item failure. The batch continues past it.
type AssignmentError struct {
	PayrollDateID     PayrollDateID
	Code              string // "not_found" or "stale_consultant"
	Message           string
	CurrentConsultant *ConsultantID
}

// CommitResult separates successes from failures so callers cannot
// mistake a partial failure for full success.
type CommitResult struct {
	Affected []PayrollAssignment
	Errors   []AssignmentError
}

// =============================================================================
// ENGINE
// =============================================================================

type AssignmentEngine struct {
	Store   AssignmentStore
	Emitter Emitter

	Now func() time.Time
}

func NewAssignmentEngine(store AssignmentStore, emitter Emitter) *AssignmentEngine {
	return &AssignmentEngine{Store: store, Emitter: emitter, Now: func() time.Time { return time.Now().UTC() }}
}

func (e *AssignmentEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// AssignDates creates the initial assignment for each generated date,
// pointing at the payroll's primary consultant. Dates that already have
// an assignment are left alone, so regeneration never clobbers a manual
// reassignment.
func (e *AssignmentEngine) AssignDates(ctx context.Context, payroll Payroll, dates []PayrollDate, assignedBy string) ([]PayrollAssignment, error) {
	var created []PayrollAssignment
	now := e.now()

	for _, d := range dates {
		existing, err := e.Store.GetAssignmentByDate(ctx, d.ID)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		a := PayrollAssignment{
			ID:            AssignmentID(NewID()),
			PayrollDateID: d.ID,
			ConsultantID:  payroll.PrimaryConsultantID,
			AssignedBy:    assignedBy,
			AssignedAt:    now,
		}
		if err := e.Store.SaveAssignment(ctx, a); err != nil {
			return created, err
		}
		created = append(created, a)
	}
	return created, nil
}

// CommitAssignments applies a batch of reassignments. Each item is
// atomic (assignment update + audit row in one transaction); the batch
// is partial, never all-or-nothing.
func (e *AssignmentEngine) CommitAssignments(ctx context.Context, changes []AssignmentChange, changedBy string) (CommitResult, error) {
	var result CommitResult

	for _, change := range changes {
		updated, itemErr := e.commitOne(ctx, change, changedBy)

		emit(ctx, e.Emitter, Event{
			Action:       "commitPayrollAssignment",
			ResourceType: ResourcePayrollAssignment,
			ResourceID:   string(change.PayrollDateID),
			UserID:       changedBy,
			Success:      itemErr == nil,
			Metadata: map[string]string{
				"from": string(change.FromConsultantID),
				"to":   string(change.ToConsultantID),
			},
		})

		if itemErr != nil {
			result.Errors = append(result.Errors, toAssignmentError(change, itemErr))
			continue
		}
		result.Affected = append(result.Affected, *updated)
	}
	return result, nil
}

func (e *AssignmentEngine) commitOne(ctx context.Context, change AssignmentChange, changedBy string) (*PayrollAssignment, error) {
	var updated PayrollAssignment

	err := e.Store.WithAssignmentTx(ctx, func(s AssignmentStore) error {
		a, err := s.GetAssignmentByDate(ctx, change.PayrollDateID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("date %s: %w", change.PayrollDateID, ErrAssignmentNotFound)
		}
		if a.ConsultantID != change.FromConsultantID {
			return &StaleAssignmentError{
				PayrollDateID:       change.PayrollDateID,
				ExpectedConsultant:  change.FromConsultantID,
				CurrentConsultantID: a.ConsultantID,
			}
		}

		now := e.now()
		from := a.ConsultantID
		if a.OriginalConsultantID == nil {
			orig := a.ConsultantID
			a.OriginalConsultantID = &orig
		}
		a.ConsultantID = change.ToConsultantID
		a.AssignedBy = changedBy
		a.AssignedAt = now
		if err := s.UpdateAssignment(ctx, *a); err != nil {
			return err
		}

		audit := AssignmentAudit{
			ID:               NewID(),
			PayrollDateID:    change.PayrollDateID,
			FromConsultantID: &from,
			ToConsultantID:   change.ToConsultantID,
			ChangeReason:     change.Reason,
			ChangedBy:        changedBy,
			CreatedAt:        now,
		}
		if err := s.AppendAssignmentAudit(ctx, audit); err != nil {
			return err
		}

		updated = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func toAssignmentError(change AssignmentChange, err error) AssignmentError {
	var stale *StaleAssignmentError
	if errors.As(err, &stale) {
		current := stale.CurrentConsultantID
		return AssignmentError{
			PayrollDateID:     change.PayrollDateID,
			Code:              "stale_consultant",
			Message:           stale.Error(),
			CurrentConsultant: &current,
		}
	}
	code := "error"
	if errors.Is(err, ErrAssignmentNotFound) {
		code = "not_found"
	}
	return AssignmentError{
		PayrollDateID: change.PayrollDateID,
		Code:          code,
		Message:       err.Error(),
	}
}
