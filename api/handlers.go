/*
handlers.go - HTTP API handlers for the payroll versioning engine

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Payrolls:
    POST   /api/payrolls                      Create payroll (version 1)
    GET    /api/payrolls/{id}                 Get one version
    POST   /api/payrolls/{id}/versions        Create a new version
    POST   /api/payrolls/{id}/versions/simple Create version (go-live only)
    POST   /api/payrolls/{id}/dates/generate  Generate EFT dates
    GET    /api/payrolls/{id}/dates           List generated dates

  Families:
    GET    /api/families/{rootId}/current     Current version
    GET    /api/families/{rootId}/history     Full version history

  Activation:
    POST   /api/activations/run               Batch-activate due payrolls
    GET    /api/activations/runs              List scheduler runs

  Assignments:
    POST   /api/assignments/commit            Bulk reassignment
    GET    /api/assignments/{dateId}/audits   Append-only audit trail

  Holidays:
    GET/POST /api/holidays, DELETE /api/holidays/{id}
    POST   /api/holidays/defaults             Seed country defaults

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (all store interfaces plus compliance sink)
  - Manager / ActivationEngine / AssignmentEngine: Domain logic
  - Reference: Static cycle and date-type catalog

  The holiday calendar and rule resolver are rebuilt from the store per
  generation request. Both data sets are tiny and admin-editable; a
  rebuild is cheaper than cache invalidation.

ERROR HANDLING:
  Domain errors map to HTTP status via their classification:
  - 400: Client errors (no rule, missing date value, not current)
  - 404: Missing payrolls, assignments, current versions
  - 409: Version conflicts and stale assignments (retry after re-read)
  - 500: Internal and integrity errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tigearis/payroll-engine/engine"
	"github.com/tigearis/payroll-engine/factory"
	"github.com/tigearis/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Manager     *engine.Manager
	Activation  *engine.ActivationEngine
	Assignments *engine.AssignmentEngine
	Reference   *engine.Reference

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store. Compliance
// events land in the store's compliance_log with one retry.
func NewHandler(store *sqlite.Store) *Handler {
	emitter := engine.RetryEmitter{Inner: store}
	manager := engine.NewManager(store, emitter)
	return &Handler{
		Store:       store,
		Manager:     manager,
		Activation:  engine.NewActivationEngine(store, manager),
		Assignments: engine.NewAssignmentEngine(store, emitter),
		Reference:   engine.DefaultReference(),
	}
}

// generator builds a date generator from the store's current holidays
// and rules. Falls back to the default rule set when none are stored.
func (h *Handler) generator(r *http.Request) (*engine.Generator, error) {
	ctx := r.Context()

	holidays, err := h.Store.ListHolidays(ctx, "")
	if err != nil {
		return nil, err
	}
	rules, err := h.Store.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		rules = factory.DefaultRules()
	}
	resolver, err := engine.NewResolver(rules)
	if err != nil {
		return nil, err
	}
	return engine.NewGenerator(engine.NewHolidayCalendar(holidays), resolver, h.Reference), nil
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// CreatePayroll creates version 1 of a new payroll family.
func (h *Handler) CreatePayroll(w http.ResponseWriter, r *http.Request) {
	var req CreatePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.ClientID == "" || req.CountryCode == "" {
		writeError(w, http.StatusBadRequest, "name, client_id and country_code are required", nil)
		return
	}

	cycleID, ok := h.cycleIDByName(req.Cycle)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown cycle: "+req.Cycle, nil)
		return
	}
	dateTypeID, ok := h.dateTypeIDByName(req.DateType)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown date type: "+req.DateType, nil)
		return
	}
	goLive, err := engine.ParseDate(req.GoLiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid go_live_date format (use YYYY-MM-DD)", err)
		return
	}

	payroll := engine.NewPayroll(
		req.Name,
		engine.ClientID(req.ClientID),
		req.CountryCode,
		req.Region,
		cycleID,
		dateTypeID,
		req.DateValue,
		engine.ConsultantID(req.PrimaryConsultantID),
		goLive,
		req.ProcessingDaysBeforeEFT,
		req.ProcessingTime,
	)

	if err := h.Store.InsertPayroll(r.Context(), payroll); err != nil {
		writeDomainError(w, "Failed to create payroll", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPayrollDTO(payroll))
}

// GetPayroll returns a single payroll version.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	id := engine.PayrollID(chi.URLParam(r, "id"))

	payroll, err := h.Store.GetPayroll(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payroll", err)
		return
	}
	if payroll == nil {
		writeError(w, http.StatusNotFound, "Payroll not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollDTO(*payroll))
}

// CreateVersion supersedes the current version with a changed successor.
func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id := engine.PayrollID(chi.URLParam(r, "id"))

	var req CreateVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	changes, err := h.toVersionChanges(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid version changes", err)
		return
	}

	next, err := h.Manager.CreateVersion(r.Context(), id, changes, req.Reason, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to create version", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPayrollDTO(*next))
}

// CreateVersionSimple supersedes with only a new go-live date.
func (h *Handler) CreateVersionSimple(w http.ResponseWriter, r *http.Request) {
	id := engine.PayrollID(chi.URLParam(r, "id"))

	var req CreateVersionSimpleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	goLive, err := engine.ParseDate(req.GoLiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid go_live_date format (use YYYY-MM-DD)", err)
		return
	}

	next, err := h.Manager.CreateVersionSimple(r.Context(), id, goLive, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to create version", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPayrollDTO(*next))
}

func (h *Handler) toVersionChanges(req CreateVersionRequest) (engine.VersionChanges, error) {
	changes := engine.VersionChanges{
		Name:                    req.Name,
		DateValue:               req.DateValue,
		ProcessingDaysBeforeEFT: req.ProcessingDaysBeforeEFT,
		ProcessingTime:          req.ProcessingTime,
	}
	if req.GoLiveDate != nil {
		d, err := engine.ParseDate(*req.GoLiveDate)
		if err != nil {
			return changes, err
		}
		changes.GoLiveDate = &d
	}
	if req.Cycle != nil {
		cycleID, ok := h.cycleIDByName(*req.Cycle)
		if !ok {
			return changes, &engine.UnknownReferenceError{Kind: "cycle", ID: *req.Cycle}
		}
		changes.CycleID = &cycleID
	}
	if req.DateType != nil {
		dateTypeID, ok := h.dateTypeIDByName(*req.DateType)
		if !ok {
			return changes, &engine.UnknownReferenceError{Kind: "date type", ID: *req.DateType}
		}
		changes.DateTypeID = &dateTypeID
	}
	if req.PrimaryConsultantID != nil {
		v := engine.ConsultantID(*req.PrimaryConsultantID)
		changes.PrimaryConsultantID = &v
	}
	if req.BackupConsultantID != nil {
		v := engine.ConsultantID(*req.BackupConsultantID)
		changes.BackupConsultantID = &v
	}
	if req.ManagerID != nil {
		v := engine.ConsultantID(*req.ManagerID)
		changes.ManagerID = &v
	}
	return changes, nil
}

// =============================================================================
// DATE HANDLERS
// =============================================================================

// GenerateDates computes and persists the payroll's EFT schedule, then
// assigns the primary consultant to any date without an owner.
func (h *Handler) GenerateDates(w http.ResponseWriter, r *http.Request) {
	id := engine.PayrollID(chi.URLParam(r, "id"))

	var req GenerateDatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}
	maxDates := 52
	if req.MaxDates != nil {
		maxDates = *req.MaxDates
	}

	payroll, err := h.Store.GetPayroll(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payroll", err)
		return
	}
	if payroll == nil {
		writeError(w, http.StatusNotFound, "Payroll not found", nil)
		return
	}

	gen, err := h.generator(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load calendar configuration", err)
		return
	}

	dates, err := gen.Generate(*payroll, start, end, maxDates)
	if err != nil {
		writeDomainError(w, "Failed to generate dates", err)
		return
	}

	if err := h.Store.ReplaceDates(r.Context(), id, dates); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save dates", err)
		return
	}

	assignedBy := req.AssignedBy
	if assignedBy == "" {
		assignedBy = "system"
	}
	if _, err := h.Assignments.AssignDates(r.Context(), *payroll, dates, assignedBy); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to assign dates", err)
		return
	}

	dtos := make([]PayrollDateDTO, len(dates))
	for i, d := range dates {
		dtos[i] = toPayrollDateDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListDates returns a payroll's generated dates, oldest first.
func (h *Handler) ListDates(w http.ResponseWriter, r *http.Request) {
	id := engine.PayrollID(chi.URLParam(r, "id"))

	dates, err := h.Store.ListDates(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list dates", err)
		return
	}

	dtos := make([]PayrollDateDTO, len(dates))
	for i, d := range dates {
		dtos[i] = toPayrollDateDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// FAMILY HANDLERS
// =============================================================================

// GetCurrent returns the family's single current version.
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	rootID := engine.PayrollID(chi.URLParam(r, "rootId"))

	current, err := h.Manager.GetCurrent(r.Context(), rootID)
	if err != nil {
		writeDomainError(w, "Failed to get current version", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollDTO(*current))
}

// GetHistory returns every version of a family, oldest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	rootID := engine.PayrollID(chi.URLParam(r, "rootId"))

	entries, err := h.Manager.GetHistory(r.Context(), rootID)
	if err != nil {
		writeDomainError(w, "Failed to get history", err)
		return
	}

	dtos := make([]VersionEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = VersionEntryDTO{Payroll: toPayrollDTO(e.Payroll), IsCurrent: e.IsCurrent}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ACTIVATION HANDLERS
// =============================================================================

// RunActivation batch-activates all due Implementation payrolls.
func (h *Handler) RunActivation(w http.ResponseWriter, r *http.Request) {
	var req ActivationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	asOf := engine.Today()
	if req.AsOf != "" {
		var err error
		asOf, err = engine.ParseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
	}

	report, err := h.Activation.ActivateDue(r.Context(), asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Activation scan failed", err)
		return
	}

	// Record the manual run alongside scheduler runs.
	now := time.Now().UTC()
	run := sqlite.ActivationRun{
		ID:          engine.NewID(),
		AsOf:        asOf,
		Status:      "completed",
		Activated:   len(report.Results),
		Failed:      len(report.Failures),
		StartedAt:   now,
		CompletedAt: &now,
	}
	if err := h.Store.SaveActivationRun(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record activation run", err)
		return
	}

	writeJSON(w, http.StatusOK, toActivationReportDTO(report))
}

// ListActivationRuns returns recent activation runs, newest first.
func (h *Handler) ListActivationRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListActivationRuns(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list activation runs", err)
		return
	}

	dtos := make([]ActivationRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = ActivationRunDTO{
			ID:        run.ID,
			AsOf:      run.AsOf.String(),
			Status:    run.Status,
			Activated: run.Activated,
			Failed:    run.Failed,
			Error:     run.Error,
			StartedAt: run.StartedAt.Format(time.RFC3339),
		}
		if run.CompletedAt != nil {
			dtos[i].CompletedAt = run.CompletedAt.Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// CommitAssignments applies a bulk reassignment. Partial failures come
// back in the errors array with HTTP 200; the batch never aborts.
func (h *Handler) CommitAssignments(w http.ResponseWriter, r *http.Request) {
	var req CommitAssignmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Changes) == 0 {
		writeError(w, http.StatusBadRequest, "changes must not be empty", nil)
		return
	}

	changes := make([]engine.AssignmentChange, len(req.Changes))
	for i, c := range req.Changes {
		change := engine.AssignmentChange{
			PayrollDateID:    engine.PayrollDateID(c.PayrollDateID),
			FromConsultantID: engine.ConsultantID(c.FromConsultantID),
			ToConsultantID:   engine.ConsultantID(c.ToConsultantID),
			Reason:           c.Reason,
		}
		if c.Date != "" {
			d, err := engine.ParseDate(c.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
				return
			}
			change.Date = d
		}
		changes[i] = change
	}

	result, err := h.Assignments.CommitAssignments(r.Context(), changes, req.ChangedBy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to commit assignments", err)
		return
	}

	dto := CommitResultDTO{
		Affected: make([]AssignmentDTO, 0, len(result.Affected)),
		Errors:   make([]AssignmentErrorDTO, 0, len(result.Errors)),
	}
	for _, a := range result.Affected {
		dto.Affected = append(dto.Affected, toAssignmentDTO(a))
	}
	for _, e := range result.Errors {
		aeDTO := AssignmentErrorDTO{
			PayrollDateID: string(e.PayrollDateID),
			Code:          e.Code,
			Message:       e.Message,
		}
		if e.CurrentConsultant != nil {
			aeDTO.CurrentConsultant = string(*e.CurrentConsultant)
		}
		dto.Errors = append(dto.Errors, aeDTO)
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListAssignmentAudits returns the append-only trail for one date.
func (h *Handler) ListAssignmentAudits(w http.ResponseWriter, r *http.Request) {
	dateID := engine.PayrollDateID(chi.URLParam(r, "dateId"))

	audits, err := h.Store.ListAssignmentAudits(r.Context(), dateID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list audits", err)
		return
	}

	dtos := make([]AssignmentAuditDTO, len(audits))
	for i, a := range audits {
		dtos[i] = AssignmentAuditDTO{
			ID:             a.ID,
			PayrollDateID:  string(a.PayrollDateID),
			ToConsultantID: string(a.ToConsultantID),
			ChangeReason:   a.ChangeReason,
			ChangedBy:      a.ChangedBy,
			CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		}
		if a.FromConsultantID != nil {
			dtos[i].FromConsultantID = string(*a.FromConsultantID)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays, optionally filtered by country.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")

	holidays, err := h.Store.ListHolidays(r.Context(), country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, holiday := range holidays {
		dtos[i] = toHolidayDTO(holiday)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday creates or updates a holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CountryCode == "" {
		writeError(w, http.StatusBadRequest, "country_code is required", nil)
		return
	}
	date, err := engine.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	id := req.ID
	if id == "" {
		id = req.CountryCode + "-" + req.Date
	}
	holiday := engine.Holiday{
		ID:          engine.HolidayID(id),
		CountryCode: req.CountryCode,
		Regions:     req.Regions,
		Date:        date,
		Name:        req.Name,
		LocalName:   req.LocalName,
		IsFixed:     req.IsFixed,
		IsGlobal:    req.IsGlobal,
		LaunchYear:  req.LaunchYear,
		Types:       req.Types,
	}

	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := engine.HolidayID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddDefaultHolidays seeds a country's standard holiday set.
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	var req DefaultHolidaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	year := req.Year
	if year == 0 {
		year = engine.Today().Year()
	}

	holidays, ok := DefaultHolidays(req.CountryCode, year)
	if !ok {
		writeError(w, http.StatusBadRequest, "No default holiday set for country: "+req.CountryCode, nil)
		return
	}

	for _, holiday := range holidays {
		if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
			return
		}
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, holiday := range holidays {
		dtos[i] = toHolidayDTO(holiday)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// ListRules returns the active adjustment rule set. Reads the stored
// configuration, falling back to the built-in defaults.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}
	if len(rules) == 0 {
		rules = factory.DefaultRules()
	}

	doc, err := factory.ToRuleJSON(rules)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to convert rules", err)
		return
	}

	dtos := make([]RuleDTO, len(doc.Rules))
	for i, rj := range doc.Rules {
		dtos[i] = RuleDTO{
			ID:          rj.ID,
			Cycle:       rj.Cycle,
			DateType:    rj.DateType,
			Rule:        rj.Rule,
			Description: rj.Description,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) cycleIDByName(name string) (engine.CycleID, bool) {
	for _, c := range h.Reference.Cycles() {
		if string(c.Name) == name {
			return c.ID, true
		}
	}
	return "", false
}

func (h *Handler) dateTypeIDByName(name string) (engine.DateTypeID, bool) {
	for _, dt := range h.Reference.DateTypes() {
		if string(dt.Name) == name {
			return dt.ID, true
		}
	}
	return "", false
}

// writeDomainError maps a domain error to its HTTP status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsRetryable(err):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
