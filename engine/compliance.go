/*
compliance.go - Outbound audit event emission

PURPOSE:
  Every state-mutating engine operation emits a compliance event
  describing what happened, to whom, and whether it succeeded. The
  emitter itself is an external collaborator; the engine only defines the
  contract and the delivery discipline.

DELIVERY DISCIPLINE:
  Emission is best-effort: a logging failure must never roll back the
  business transaction it describes. The engine retries a failed
  emission exactly once, then drops the event with a logged warning.

SEE ALSO:
  - store/sqlite/sqlite.go: compliance_log sink used by the server
  - version.go, activation.go, assignment.go: Emit call sites
*/
package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

// =============================================================================
// EVENT
// =============================================================================

const (
	ResourcePayroll           = "payroll"
	ResourcePayrollAssignment = "payrollAssignment"
)

type Event struct {
	Action       string
	ResourceType string
	ResourceID   string
	UserID       string
	Success      bool
	Metadata     map[string]string
	OccurredAt   time.Time
}

// Emitter receives compliance events. Implementations decide where they
// land (database table, external audit service).
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

// =============================================================================
// EMITTER IMPLEMENTATIONS
// =============================================================================

// NopEmitter discards events. Used when compliance logging is disabled.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }

// RetryEmitter wraps another emitter with the engine's delivery
// discipline: one retry, then drop with a warning. Emit never returns an
// error to the caller.
type RetryEmitter struct {
	Inner Emitter
}

func (r RetryEmitter) Emit(ctx context.Context, ev Event) error {
	if r.Inner == nil {
		return nil
	}
	if err := r.Inner.Emit(ctx, ev); err == nil {
		return nil
	}
	if err := r.Inner.Emit(ctx, ev); err != nil {
		log.Printf("[Compliance] Dropping event %s/%s after retry: %v", ev.ResourceType, ev.Action, err)
	}
	return nil
}

// MemoryEmitter collects events for tests.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []Event
}

func (m *MemoryEmitter) Emit(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryEmitter) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// emit is the nil-safe helper used by engine components.
func emit(ctx context.Context, e Emitter, ev Event) {
	if e == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	RetryEmitter{Inner: e}.Emit(ctx, ev)
}
