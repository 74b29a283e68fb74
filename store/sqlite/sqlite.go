/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements every persistence interface of the engine (PayrollStore,
  DateStore, AssignmentStore, HolidayStore, RuleStore) plus the
  compliance event sink. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

VERSION INVARIANT ENFORCEMENT:
  The one-current-version-per-family invariant is a partial unique
  index, not application code:

    CREATE UNIQUE INDEX idx_payrolls_one_current
      ON payrolls(family_root_id)
      WHERE superseded_date IS NULL AND status != 'Inactive'

  Two concurrent CreateVersion calls against the same family race to
  insert a second current row; the loser hits the index and surfaces
  engine.ErrVersionConflict. Retry is only correct after re-reading
  state, so the engine never retries internally.

KEY TABLES:
  payrolls:            Version rows (superseded, never deleted)
  payroll_dates:       Generated EFT date triples, unique per (payroll, original)
  payroll_assignments: One consultant per payroll date
  assignment_audit:    Append-only reassignment trail
  holidays:            Admin-maintained reference data
  adjustment_rules:    (cycle, date type) -> policy, unique per pair
  compliance_log:      Outbound audit events
  activation_runs:     Scheduler run records

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not
  block during activation batches.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tigearis/payroll-engine/engine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Payroll versions. Rows are superseded, never deleted.
	CREATE TABLE IF NOT EXISTS payrolls (
		id TEXT PRIMARY KEY,
		family_root_id TEXT NOT NULL,
		parent_payroll_id TEXT,
		version_number INTEGER NOT NULL,
		version_reason TEXT,
		name TEXT NOT NULL,
		client_id TEXT NOT NULL,
		country_code TEXT NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		cycle_id TEXT NOT NULL,
		date_type_id TEXT NOT NULL,
		date_value INTEGER,
		status TEXT NOT NULL,
		go_live_date TEXT NOT NULL,
		superseded_date TEXT,
		primary_consultant_id TEXT NOT NULL,
		backup_consultant_id TEXT,
		manager_id TEXT,
		processing_days_before_eft INTEGER NOT NULL DEFAULT 0,
		processing_time INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(family_root_id, version_number)
	);

	-- CRITICAL: at most one current version per family. A current row
	-- is one that is not superseded and not Inactive.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payrolls_one_current
		ON payrolls(family_root_id)
		WHERE superseded_date IS NULL AND status != 'Inactive';

	CREATE INDEX IF NOT EXISTS idx_payrolls_family
		ON payrolls(family_root_id, version_number);
	CREATE INDEX IF NOT EXISTS idx_payrolls_due
		ON payrolls(status, go_live_date);

	-- Generated EFT date triples. Regenerated wholesale, never edited.
	CREATE TABLE IF NOT EXISTS payroll_dates (
		id TEXT PRIMARY KEY,
		payroll_id TEXT NOT NULL,
		original_eft_date TEXT NOT NULL,
		adjusted_eft_date TEXT NOT NULL,
		processing_date TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(payroll_id, original_eft_date)
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_dates_payroll
		ON payroll_dates(payroll_id, original_eft_date);

	-- One assignment per payroll date.
	CREATE TABLE IF NOT EXISTS payroll_assignments (
		id TEXT PRIMARY KEY,
		payroll_date_id TEXT NOT NULL UNIQUE,
		consultant_id TEXT NOT NULL,
		is_backup BOOLEAN NOT NULL DEFAULT FALSE,
		original_consultant_id TEXT,
		assigned_by TEXT NOT NULL,
		assigned_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_consultant
		ON payroll_assignments(consultant_id);

	-- Append-only reassignment trail. No UPDATE, no DELETE. Ever.
	CREATE TABLE IF NOT EXISTS assignment_audit (
		id TEXT PRIMARY KEY,
		payroll_date_id TEXT NOT NULL,
		from_consultant_id TEXT,
		to_consultant_id TEXT NOT NULL,
		change_reason TEXT,
		changed_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignment_audit_date
		ON assignment_audit(payroll_date_id, created_at);

	-- Holiday reference data. Admin-maintained; the engine only reads.
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		country_code TEXT NOT NULL,
		regions_json TEXT,
		date TEXT NOT NULL,
		local_name TEXT,
		name TEXT NOT NULL,
		is_fixed BOOLEAN NOT NULL DEFAULT FALSE,
		is_global BOOLEAN NOT NULL DEFAULT FALSE,
		launch_year INTEGER NOT NULL DEFAULT 0,
		types_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_country_date
		ON holidays(country_code, date);

	-- Adjustment rule configuration, unique per (cycle, date type).
	CREATE TABLE IF NOT EXISTS adjustment_rules (
		id TEXT PRIMARY KEY,
		cycle_id TEXT NOT NULL,
		date_type_id TEXT NOT NULL,
		rule_code TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(cycle_id, date_type_id)
	);

	-- Outbound compliance events.
	CREATE TABLE IF NOT EXISTS compliance_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		user_id TEXT,
		success BOOLEAN NOT NULL,
		metadata_json TEXT,
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_compliance_resource
		ON compliance_log(resource_type, resource_id);

	-- Activation scheduler run records.
	CREATE TABLE IF NOT EXISTS activation_runs (
		id TEXT PRIMARY KEY,
		as_of TEXT NOT NULL,
		status TEXT NOT NULL,
		activated INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_activation_runs_as_of
		ON activation_runs(as_of);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// =============================================================================
// PAYROLL STORE (engine.PayrollStore interface)
// =============================================================================

const payrollColumns = `id, family_root_id, parent_payroll_id, version_number, version_reason,
	name, client_id, country_code, region, cycle_id, date_type_id, date_value,
	status, go_live_date, superseded_date, primary_consultant_id, backup_consultant_id,
	manager_id, processing_days_before_eft, processing_time, created_at, updated_at`

func (s *Store) InsertPayroll(ctx context.Context, p engine.Payroll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertPayroll(ctx, s.db, p)
}

func insertPayroll(ctx context.Context, q dbtx, p engine.Payroll) error {
	query := `
		INSERT INTO payrolls (` + payrollColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query, payrollArgs(p)...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("insert payroll %s: %w", p.ID, engine.ErrVersionConflict)
		}
		return fmt.Errorf("failed to insert payroll: %w", err)
	}
	return nil
}

func updatePayroll(ctx context.Context, q dbtx, p engine.Payroll) error {
	query := `
		UPDATE payrolls SET
			family_root_id = ?, parent_payroll_id = ?, version_number = ?, version_reason = ?,
			name = ?, client_id = ?, country_code = ?, region = ?, cycle_id = ?, date_type_id = ?,
			date_value = ?, status = ?, go_live_date = ?, superseded_date = ?,
			primary_consultant_id = ?, backup_consultant_id = ?, manager_id = ?,
			processing_days_before_eft = ?, processing_time = ?, created_at = ?, updated_at = ?
		WHERE id = ?
	`
	args := payrollArgs(p)
	// Move id from first position to the WHERE clause.
	args = append(args[1:], args[0])

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("update payroll %s: %w", p.ID, engine.ErrVersionConflict)
		}
		return fmt.Errorf("failed to update payroll: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return engine.ErrPayrollNotFound
	}
	return nil
}

func payrollArgs(p engine.Payroll) []any {
	return []any{
		string(p.ID),
		string(p.FamilyRootID),
		nullableID((*string)(p.ParentPayrollID)),
		p.VersionNumber,
		p.VersionReason,
		p.Name,
		string(p.ClientID),
		p.CountryCode,
		p.Region,
		string(p.CycleID),
		string(p.DateTypeID),
		nullableInt(p.DateValue),
		string(p.Status),
		p.GoLiveDate.String(),
		nullableDate(p.SupersededDate),
		string(p.PrimaryConsultantID),
		nullableID((*string)(p.BackupConsultantID)),
		nullableID((*string)(p.ManagerID)),
		p.ProcessingDaysBeforeEFT,
		p.ProcessingTime,
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Store) UpdatePayroll(ctx context.Context, p engine.Payroll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updatePayroll(ctx, s.db, p)
}

func (s *Store) GetPayroll(ctx context.Context, id engine.PayrollID) (*engine.Payroll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPayroll(ctx, s.db, id)
}

func getPayroll(ctx context.Context, q dbtx, id engine.PayrollID) (*engine.Payroll, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+payrollColumns+` FROM payrolls WHERE id = ?`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	p, err := scanPayroll(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListFamily(ctx context.Context, familyRootID engine.PayrollID) ([]engine.Payroll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listFamily(ctx, s.db, familyRootID)
}

func listFamily(ctx context.Context, q dbtx, familyRootID engine.PayrollID) ([]engine.Payroll, error) {
	return queryPayrolls(ctx, q,
		`SELECT `+payrollColumns+` FROM payrolls WHERE family_root_id = ? ORDER BY version_number ASC`,
		string(familyRootID))
}

func (s *Store) ListDueForActivation(ctx context.Context, asOf engine.Date) ([]engine.Payroll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDue(ctx, s.db, asOf)
}

func listDue(ctx context.Context, q dbtx, asOf engine.Date) ([]engine.Payroll, error) {
	return queryPayrolls(ctx, q,
		`SELECT `+payrollColumns+` FROM payrolls WHERE status = ? AND go_live_date <= ? AND superseded_date IS NULL ORDER BY go_live_date ASC, id ASC`,
		string(engine.StatusImplementation), asOf.String())
}

func queryPayrolls(ctx context.Context, q dbtx, query string, args ...any) ([]engine.Payroll, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payrolls: %w", err)
	}
	defer rows.Close()

	var payrolls []engine.Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		payrolls = append(payrolls, p)
	}
	return payrolls, rows.Err()
}

func scanPayroll(rows *sql.Rows) (engine.Payroll, error) {
	var (
		p             engine.Payroll
		parentID      sql.NullString
		versionReason sql.NullString
		dateValue     sql.NullInt64
		goLive        string
		superseded    sql.NullString
		backup        sql.NullString
		manager       sql.NullString
		createdAt     string
		updatedAt     string
		id, rootID    string
		clientID      string
		cycleID       string
		dateTypeID    string
		status        string
		primaryID     string
	)

	err := rows.Scan(
		&id, &rootID, &parentID, &p.VersionNumber, &versionReason,
		&p.Name, &clientID, &p.CountryCode, &p.Region, &cycleID, &dateTypeID, &dateValue,
		&status, &goLive, &superseded, &primaryID, &backup,
		&manager, &p.ProcessingDaysBeforeEFT, &p.ProcessingTime, &createdAt, &updatedAt,
	)
	if err != nil {
		return p, fmt.Errorf("failed to scan payroll: %w", err)
	}

	p.ID = engine.PayrollID(id)
	p.FamilyRootID = engine.PayrollID(rootID)
	p.ClientID = engine.ClientID(clientID)
	p.CycleID = engine.CycleID(cycleID)
	p.DateTypeID = engine.DateTypeID(dateTypeID)
	p.Status = engine.PayrollStatus(status)
	p.PrimaryConsultantID = engine.ConsultantID(primaryID)
	p.VersionReason = versionReason.String
	if parentID.Valid {
		v := engine.PayrollID(parentID.String)
		p.ParentPayrollID = &v
	}
	if dateValue.Valid {
		v := int(dateValue.Int64)
		p.DateValue = &v
	}
	if backup.Valid {
		v := engine.ConsultantID(backup.String)
		p.BackupConsultantID = &v
	}
	if manager.Valid {
		v := engine.ConsultantID(manager.String)
		p.ManagerID = &v
	}
	if p.GoLiveDate, err = engine.ParseDate(goLive); err != nil {
		return p, fmt.Errorf("failed to parse go-live date: %w", err)
	}
	if superseded.Valid {
		d, err := engine.ParseDate(superseded.String)
		if err != nil {
			return p, fmt.Errorf("failed to parse superseded date: %w", err)
		}
		p.SupersededDate = &d
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// WithPayrollTx executes a function within a database transaction.
func (s *Store) WithPayrollTx(ctx context.Context, fn func(engine.PayrollStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&payrollTx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// payrollTx runs payroll operations against an open transaction. The
// parent store's mutex is already held; no methods re-lock.
type payrollTx struct {
	tx *sql.Tx
}

func (t *payrollTx) InsertPayroll(ctx context.Context, p engine.Payroll) error {
	return insertPayroll(ctx, t.tx, p)
}

func (t *payrollTx) UpdatePayroll(ctx context.Context, p engine.Payroll) error {
	return updatePayroll(ctx, t.tx, p)
}

func (t *payrollTx) GetPayroll(ctx context.Context, id engine.PayrollID) (*engine.Payroll, error) {
	return getPayroll(ctx, t.tx, id)
}

func (t *payrollTx) ListFamily(ctx context.Context, familyRootID engine.PayrollID) ([]engine.Payroll, error) {
	return listFamily(ctx, t.tx, familyRootID)
}

func (t *payrollTx) ListDueForActivation(ctx context.Context, asOf engine.Date) ([]engine.Payroll, error) {
	return listDue(ctx, t.tx, asOf)
}

func (t *payrollTx) WithPayrollTx(ctx context.Context, fn func(engine.PayrollStore) error) error {
	return fn(t)
}

// =============================================================================
// DATE STORE (engine.DateStore interface)
// =============================================================================

// ReplaceDates swaps a payroll's entire schedule atomically. Partial
// writes are never visible.
func (s *Store) ReplaceDates(ctx context.Context, payrollID engine.PayrollID, dates []engine.PayrollDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx,
		"DELETE FROM payroll_dates WHERE payroll_id = ?", string(payrollID)); err != nil {
		return fmt.Errorf("failed to clear payroll dates: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range dates {
		createdAt := now
		if !d.CreatedAt.IsZero() {
			createdAt = d.CreatedAt.UTC().Format(time.RFC3339)
		}
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO payroll_dates (id, payroll_id, original_eft_date, adjusted_eft_date, processing_date, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(d.ID), string(payrollID),
			d.OriginalEFTDate.String(), d.AdjustedEFTDate.String(), d.ProcessingDate.String(),
			d.Notes, createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payroll date: %w", err)
		}
	}
	return sqlTx.Commit()
}

func (s *Store) ListDates(ctx context.Context, payrollID engine.PayrollID) ([]engine.PayrollDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payroll_id, original_eft_date, adjusted_eft_date, processing_date, notes, created_at
		FROM payroll_dates WHERE payroll_id = ? ORDER BY original_eft_date ASC`,
		string(payrollID))
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll dates: %w", err)
	}
	defer rows.Close()

	var dates []engine.PayrollDate
	for rows.Next() {
		d, err := scanDate(rows)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *Store) GetDate(ctx context.Context, id engine.PayrollDateID) (*engine.PayrollDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payroll_id, original_eft_date, adjusted_eft_date, processing_date, notes, created_at
		FROM payroll_dates WHERE id = ?`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll date: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	d, err := scanDate(rows)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDate(rows *sql.Rows) (engine.PayrollDate, error) {
	var (
		d                              engine.PayrollDate
		id, payrollID                  string
		original, adjusted, processing string
		notes                          sql.NullString
		createdAt                      string
	)
	if err := rows.Scan(&id, &payrollID, &original, &adjusted, &processing, &notes, &createdAt); err != nil {
		return d, fmt.Errorf("failed to scan payroll date: %w", err)
	}
	d.ID = engine.PayrollDateID(id)
	d.PayrollID = engine.PayrollID(payrollID)
	var err error
	if d.OriginalEFTDate, err = engine.ParseDate(original); err != nil {
		return d, err
	}
	if d.AdjustedEFTDate, err = engine.ParseDate(adjusted); err != nil {
		return d, err
	}
	if d.ProcessingDate, err = engine.ParseDate(processing); err != nil {
		return d, err
	}
	d.Notes = notes.String
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return d, nil
}

// =============================================================================
// ASSIGNMENT STORE (engine.AssignmentStore interface)
// =============================================================================

func (s *Store) SaveAssignment(ctx context.Context, a engine.PayrollAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAssignment(ctx, s.db, a)
}

func saveAssignment(ctx context.Context, q dbtx, a engine.PayrollAssignment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO payroll_assignments (id, payroll_date_id, consultant_id, is_backup, original_consultant_id, assigned_by, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(a.ID), string(a.PayrollDateID), string(a.ConsultantID), a.IsBackup,
		nullableID((*string)(a.OriginalConsultantID)), a.AssignedBy,
		a.AssignedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("date %s already assigned: %w", a.PayrollDateID, engine.ErrStaleAssignment)
		}
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignmentByDate(ctx context.Context, dateID engine.PayrollDateID) (*engine.PayrollAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAssignmentByDate(ctx, s.db, dateID)
}

func getAssignmentByDate(ctx context.Context, q dbtx, dateID engine.PayrollDateID) (*engine.PayrollAssignment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, payroll_date_id, consultant_id, is_backup, original_consultant_id, assigned_by, assigned_at
		FROM payroll_assignments WHERE payroll_date_id = ?`, string(dateID))
	if err != nil {
		return nil, fmt.Errorf("failed to query assignment: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var (
		a          engine.PayrollAssignment
		id, dID    string
		consultant string
		original   sql.NullString
		assignedAt string
	)
	if err := rows.Scan(&id, &dID, &consultant, &a.IsBackup, &original, &a.AssignedBy, &assignedAt); err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	a.ID = engine.AssignmentID(id)
	a.PayrollDateID = engine.PayrollDateID(dID)
	a.ConsultantID = engine.ConsultantID(consultant)
	if original.Valid {
		v := engine.ConsultantID(original.String)
		a.OriginalConsultantID = &v
	}
	a.AssignedAt, _ = time.Parse(time.RFC3339, assignedAt)
	return &a, nil
}

func (s *Store) UpdateAssignment(ctx context.Context, a engine.PayrollAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateAssignment(ctx, s.db, a)
}

func updateAssignment(ctx context.Context, q dbtx, a engine.PayrollAssignment) error {
	res, err := q.ExecContext(ctx, `
		UPDATE payroll_assignments SET
			consultant_id = ?, is_backup = ?, original_consultant_id = ?, assigned_by = ?, assigned_at = ?
		WHERE payroll_date_id = ?`,
		string(a.ConsultantID), a.IsBackup,
		nullableID((*string)(a.OriginalConsultantID)), a.AssignedBy,
		a.AssignedAt.UTC().Format(time.RFC3339),
		string(a.PayrollDateID),
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return engine.ErrAssignmentNotFound
	}
	return nil
}

func (s *Store) AppendAssignmentAudit(ctx context.Context, audit engine.AssignmentAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, audit)
}

func appendAudit(ctx context.Context, q dbtx, audit engine.AssignmentAudit) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO assignment_audit (id, payroll_date_id, from_consultant_id, to_consultant_id, change_reason, changed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		audit.ID, string(audit.PayrollDateID),
		nullableID((*string)(audit.FromConsultantID)), string(audit.ToConsultantID),
		audit.ChangeReason, audit.ChangedBy,
		audit.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append assignment audit: %w", err)
	}
	return nil
}

func (s *Store) ListAssignmentAudits(ctx context.Context, dateID engine.PayrollDateID) ([]engine.AssignmentAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAudits(ctx, s.db, dateID)
}

func listAudits(ctx context.Context, q dbtx, dateID engine.PayrollDateID) ([]engine.AssignmentAudit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, payroll_date_id, from_consultant_id, to_consultant_id, change_reason, changed_by, created_at
		FROM assignment_audit WHERE payroll_date_id = ? ORDER BY created_at ASC, id ASC`,
		string(dateID))
	if err != nil {
		return nil, fmt.Errorf("failed to query assignment audits: %w", err)
	}
	defer rows.Close()

	var audits []engine.AssignmentAudit
	for rows.Next() {
		var (
			a         engine.AssignmentAudit
			dID       string
			from      sql.NullString
			to        string
			reason    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&a.ID, &dID, &from, &to, &reason, &a.ChangedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment audit: %w", err)
		}
		a.PayrollDateID = engine.PayrollDateID(dID)
		if from.Valid {
			v := engine.ConsultantID(from.String)
			a.FromConsultantID = &v
		}
		a.ToConsultantID = engine.ConsultantID(to)
		a.ChangeReason = reason.String
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

// WithAssignmentTx executes a per-item reassignment atomically.
func (s *Store) WithAssignmentTx(ctx context.Context, fn func(engine.AssignmentStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&assignmentTx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type assignmentTx struct {
	tx *sql.Tx
}

func (t *assignmentTx) SaveAssignment(ctx context.Context, a engine.PayrollAssignment) error {
	return saveAssignment(ctx, t.tx, a)
}

func (t *assignmentTx) GetAssignmentByDate(ctx context.Context, dateID engine.PayrollDateID) (*engine.PayrollAssignment, error) {
	return getAssignmentByDate(ctx, t.tx, dateID)
}

func (t *assignmentTx) UpdateAssignment(ctx context.Context, a engine.PayrollAssignment) error {
	return updateAssignment(ctx, t.tx, a)
}

func (t *assignmentTx) AppendAssignmentAudit(ctx context.Context, audit engine.AssignmentAudit) error {
	return appendAudit(ctx, t.tx, audit)
}

func (t *assignmentTx) ListAssignmentAudits(ctx context.Context, dateID engine.PayrollDateID) ([]engine.AssignmentAudit, error) {
	return listAudits(ctx, t.tx, dateID)
}

func (t *assignmentTx) WithAssignmentTx(ctx context.Context, fn func(engine.AssignmentStore) error) error {
	return fn(t)
}

// =============================================================================
// HOLIDAY STORE (engine.HolidayStore interface)
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, h engine.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	regionsJSON, _ := json.Marshal(h.Regions)
	typesJSON, _ := json.Marshal(h.Types)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, country_code, regions_json, date, local_name, name, is_fixed, is_global, launch_year, types_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			country_code = excluded.country_code,
			regions_json = excluded.regions_json,
			date = excluded.date,
			local_name = excluded.local_name,
			name = excluded.name,
			is_fixed = excluded.is_fixed,
			is_global = excluded.is_global,
			launch_year = excluded.launch_year,
			types_json = excluded.types_json`,
		string(h.ID), h.CountryCode, string(regionsJSON), h.Date.String(),
		h.LocalName, h.Name, h.IsFixed, h.IsGlobal, h.LaunchYear, string(typesJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) DeleteHoliday(ctx context.Context, id engine.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", string(id))
	return err
}

func (s *Store) ListHolidays(ctx context.Context, countryCode string) ([]engine.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, country_code, regions_json, date, local_name, name, is_fixed, is_global, launch_year, types_json FROM holidays`
	args := []any{}
	if countryCode != "" {
		query += ` WHERE country_code = ?`
		args = append(args, countryCode)
	}
	query += ` ORDER BY date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []engine.Holiday
	for rows.Next() {
		var (
			h           engine.Holiday
			id          string
			regionsJSON sql.NullString
			date        string
			localName   sql.NullString
			typesJSON   sql.NullString
		)
		if err := rows.Scan(&id, &h.CountryCode, &regionsJSON, &date, &localName, &h.Name, &h.IsFixed, &h.IsGlobal, &h.LaunchYear, &typesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.ID = engine.HolidayID(id)
		h.LocalName = localName.String
		if h.Date, err = engine.ParseDate(date); err != nil {
			return nil, err
		}
		if regionsJSON.Valid && regionsJSON.String != "" {
			json.Unmarshal([]byte(regionsJSON.String), &h.Regions)
		}
		if typesJSON.Valid && typesJSON.String != "" {
			json.Unmarshal([]byte(typesJSON.String), &h.Types)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// RULE STORE (engine.RuleStore interface)
// =============================================================================

func (s *Store) SaveRule(ctx context.Context, r engine.AdjustmentRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO adjustment_rules (id, cycle_id, date_type_id, rule_code, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cycle_id, date_type_id) DO UPDATE SET
			rule_code = excluded.rule_code,
			description = excluded.description`,
		r.ID, string(r.CycleID), string(r.DateTypeID), string(r.Code), r.Description,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save adjustment rule: %w", err)
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context) ([]engine.AdjustmentRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_id, date_type_id, rule_code, description FROM adjustment_rules ORDER BY cycle_id, date_type_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustment rules: %w", err)
	}
	defer rows.Close()

	var rules []engine.AdjustmentRule
	for rows.Next() {
		var (
			r           engine.AdjustmentRule
			cycleID     string
			dateTypeID  string
			code        string
			description sql.NullString
		)
		if err := rows.Scan(&r.ID, &cycleID, &dateTypeID, &code, &description); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment rule: %w", err)
		}
		parsed, err := engine.ParseRuleCode(code)
		if err != nil {
			return nil, fmt.Errorf("rule %s has code %q: %w", r.ID, code, err)
		}
		r.CycleID = engine.CycleID(cycleID)
		r.DateTypeID = engine.DateTypeID(dateTypeID)
		r.Code = parsed
		r.Description = description.String
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// =============================================================================
// COMPLIANCE SINK (engine.Emitter interface)
// =============================================================================

// Emit persists a compliance event. The engine wraps this in its retry
// discipline; a failure here never rolls back business writes.
func (s *Store) Emit(ctx context.Context, ev engine.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadataJSON, _ := json.Marshal(ev.Metadata)
	occurredAt := ev.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compliance_log (action, resource_type, resource_id, user_id, success, metadata_json, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Action, ev.ResourceType, ev.ResourceID, ev.UserID, ev.Success,
		string(metadataJSON), occurredAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write compliance event: %w", err)
	}
	return nil
}

// ComplianceEntry is a persisted compliance event row.
type ComplianceEntry struct {
	ID           int64
	Action       string
	ResourceType string
	ResourceID   string
	UserID       string
	Success      bool
	Metadata     map[string]string
	OccurredAt   time.Time
}

// ListComplianceEntries returns events for a resource, oldest first.
func (s *Store) ListComplianceEntries(ctx context.Context, resourceType, resourceID string) ([]ComplianceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, resource_type, resource_id, user_id, success, metadata_json, occurred_at
		FROM compliance_log WHERE resource_type = ? AND resource_id = ? ORDER BY id ASC`,
		resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance log: %w", err)
	}
	defer rows.Close()

	var entries []ComplianceEntry
	for rows.Next() {
		var (
			e            ComplianceEntry
			userID       sql.NullString
			metadataJSON sql.NullString
			occurredAt   string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.ResourceType, &e.ResourceID, &userID, &e.Success, &metadataJSON, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan compliance entry: %w", err)
		}
		e.UserID = userID.String
		if metadataJSON.Valid && metadataJSON.String != "" {
			json.Unmarshal([]byte(metadataJSON.String), &e.Metadata)
		}
		e.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// ACTIVATION RUNS - Scheduler bookkeeping
// =============================================================================

// ActivationRun records one scheduler pass over due payrolls.
type ActivationRun struct {
	ID          string
	AsOf        engine.Date
	Status      string // "running", "completed", "failed"
	Activated   int
	Failed      int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// SaveActivationRun inserts or updates a run record.
func (s *Store) SaveActivationRun(ctx context.Context, run ActivationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activation_runs (id, as_of, status, activated, failed, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			activated = excluded.activated,
			failed = excluded.failed,
			error = excluded.error,
			completed_at = excluded.completed_at`,
		run.ID, run.AsOf.String(), run.Status, run.Activated, run.Failed, run.Error,
		run.StartedAt.UTC().Format(time.RFC3339), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save activation run: %w", err)
	}
	return nil
}

// ListActivationRuns returns the most recent runs, newest first.
func (s *Store) ListActivationRuns(ctx context.Context, limit int) ([]ActivationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, as_of, status, activated, failed, error, started_at, completed_at
		FROM activation_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activation runs: %w", err)
	}
	defer rows.Close()

	var runs []ActivationRun
	for rows.Next() {
		var (
			run         ActivationRun
			asOf        string
			errMsg      sql.NullString
			startedAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(&run.ID, &asOf, &run.Status, &run.Activated, &run.Failed, &errMsg, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activation run: %w", err)
		}
		if run.AsOf, err = engine.ParseDate(asOf); err != nil {
			return nil, err
		}
		run.Error = errMsg.String
		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Reset clears every table. Demo and test use only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"payroll_dates", "payroll_assignments", "assignment_audit",
		"payrolls", "holidays", "adjustment_rules", "compliance_log",
		"activation_runs",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullableID(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullableDate(d *engine.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
