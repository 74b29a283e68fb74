/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Payroll:
    PayrollDTO, CreatePayrollRequest, CreateVersionRequest

  Dates:
    PayrollDateDTO, GenerateDatesRequest

  Activation:
    ActivationReportDTO, ActivationRunDTO

  Assignments:
    CommitAssignmentsRequest, CommitResultDTO, AssignmentAuditDTO

  Holidays:
    HolidayDTO, CreateHolidayRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: RuleJSON type
*/
package api

import (
	"time"

	"github.com/tigearis/payroll-engine/engine"
)

// =============================================================================
// PAYROLL TYPES
// =============================================================================

// PayrollDTO represents one payroll version in API responses.
type PayrollDTO struct {
	ID              string `json:"id"`
	FamilyRootID    string `json:"family_root_id"`
	ParentPayrollID string `json:"parent_payroll_id,omitempty"`
	VersionNumber   int    `json:"version_number"`
	VersionReason   string `json:"version_reason,omitempty"`

	Name        string `json:"name"`
	ClientID    string `json:"client_id"`
	CountryCode string `json:"country_code"`
	Region      string `json:"region,omitempty"`

	Cycle     string `json:"cycle"`
	DateType  string `json:"date_type"`
	DateValue *int   `json:"date_value,omitempty"`

	Status         string `json:"status"`
	GoLiveDate     string `json:"go_live_date"`
	SupersededDate string `json:"superseded_date,omitempty"`
	IsCurrent      bool   `json:"is_current"`

	PrimaryConsultantID string `json:"primary_consultant_id"`
	BackupConsultantID  string `json:"backup_consultant_id,omitempty"`
	ManagerID           string `json:"manager_id,omitempty"`

	ProcessingDaysBeforeEFT int `json:"processing_days_before_eft"`
	ProcessingTime          int `json:"processing_time"`

	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// CreatePayrollRequest creates version 1 of a new family.
type CreatePayrollRequest struct {
	Name                    string `json:"name"`
	ClientID                string `json:"client_id"`
	CountryCode             string `json:"country_code"`
	Region                  string `json:"region,omitempty"`
	Cycle                   string `json:"cycle"`
	DateType                string `json:"date_type"`
	DateValue               *int   `json:"date_value,omitempty"`
	PrimaryConsultantID     string `json:"primary_consultant_id"`
	GoLiveDate              string `json:"go_live_date"`
	ProcessingDaysBeforeEFT int    `json:"processing_days_before_eft"`
	ProcessingTime          int    `json:"processing_time"`
}

// CreateVersionRequest supersedes the current version with a changed one.
// Omitted fields keep the source version's value.
type CreateVersionRequest struct {
	Reason                  string  `json:"reason"`
	Actor                   string  `json:"actor"`
	Name                    *string `json:"name,omitempty"`
	GoLiveDate              *string `json:"go_live_date,omitempty"`
	Cycle                   *string `json:"cycle,omitempty"`
	DateType                *string `json:"date_type,omitempty"`
	DateValue               *int    `json:"date_value,omitempty"`
	PrimaryConsultantID     *string `json:"primary_consultant_id,omitempty"`
	BackupConsultantID      *string `json:"backup_consultant_id,omitempty"`
	ManagerID               *string `json:"manager_id,omitempty"`
	ProcessingDaysBeforeEFT *int    `json:"processing_days_before_eft,omitempty"`
	ProcessingTime          *int    `json:"processing_time,omitempty"`
}

// CreateVersionSimpleRequest is the default change-set: only a new
// go-live date.
type CreateVersionSimpleRequest struct {
	GoLiveDate string `json:"go_live_date"`
	Actor      string `json:"actor"`
}

// VersionEntryDTO is one row of a family's history.
type VersionEntryDTO struct {
	Payroll   PayrollDTO `json:"payroll"`
	IsCurrent bool       `json:"is_current"`
}

// =============================================================================
// DATE TYPES
// =============================================================================

// PayrollDateDTO represents one generated EFT date triple.
type PayrollDateDTO struct {
	ID              string `json:"id"`
	PayrollID       string `json:"payroll_id"`
	OriginalEFTDate string `json:"original_eft_date"`
	AdjustedEFTDate string `json:"adjusted_eft_date"`
	ProcessingDate  string `json:"processing_date"`
	Notes           string `json:"notes,omitempty"`
}

// GenerateDatesRequest asks for EFT dates over a window. MaxDates is a
// pointer so an explicit 0 (empty schedule) is distinct from absent
// (default cap).
type GenerateDatesRequest struct {
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	MaxDates   *int   `json:"max_dates,omitempty"`
	AssignedBy string `json:"assigned_by,omitempty"`
}

// =============================================================================
// ACTIVATION TYPES
// =============================================================================

// ActivationRequest triggers a batch activation pass.
type ActivationRequest struct {
	AsOf string `json:"as_of,omitempty"` // defaults to today
}

// ActivationResultDTO is one successfully processed payroll.
type ActivationResultDTO struct {
	PayrollID     string `json:"payroll_id"`
	VersionNumber int    `json:"version_number"`
	ActionTaken   string `json:"action_taken"`
	ExecutedAt    string `json:"executed_at"`
}

// ActivationFailureDTO is one payroll the batch could not activate.
type ActivationFailureDTO struct {
	PayrollID string `json:"payroll_id"`
	Error     string `json:"error"`
}

// ActivationReportDTO is the outcome of one batch pass.
type ActivationReportDTO struct {
	AsOf     string                 `json:"as_of"`
	Results  []ActivationResultDTO  `json:"results"`
	Failures []ActivationFailureDTO `json:"failures"`
}

// ActivationRunDTO is one recorded scheduler pass.
type ActivationRunDTO struct {
	ID          string `json:"id"`
	AsOf        string `json:"as_of"`
	Status      string `json:"status"`
	Activated   int    `json:"activated"`
	Failed      int    `json:"failed"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// =============================================================================
// ASSIGNMENT TYPES
// =============================================================================

// AssignmentChangeDTO is one item of a bulk reassignment.
type AssignmentChangeDTO struct {
	PayrollDateID    string `json:"payroll_date_id"`
	FromConsultantID string `json:"from_consultant_id"`
	ToConsultantID   string `json:"to_consultant_id"`
	Reason           string `json:"reason,omitempty"`
	Date             string `json:"date,omitempty"`
}

// CommitAssignmentsRequest is a bulk reassignment submission.
type CommitAssignmentsRequest struct {
	ChangedBy string                `json:"changed_by"`
	Changes   []AssignmentChangeDTO `json:"changes"`
}

// AssignmentDTO represents one consultant-to-date assignment.
type AssignmentDTO struct {
	ID                   string `json:"id"`
	PayrollDateID        string `json:"payroll_date_id"`
	ConsultantID         string `json:"consultant_id"`
	IsBackup             bool   `json:"is_backup"`
	OriginalConsultantID string `json:"original_consultant_id,omitempty"`
	AssignedBy           string `json:"assigned_by"`
	AssignedAt           string `json:"assigned_at"`
}

// AssignmentErrorDTO is one per-item failure within a bulk commit.
type AssignmentErrorDTO struct {
	PayrollDateID     string `json:"payroll_date_id"`
	Code              string `json:"code"`
	Message           string `json:"message"`
	CurrentConsultant string `json:"current_consultant,omitempty"`
}

// CommitResultDTO separates successes from failures so clients cannot
// mistake a partial failure for full success.
type CommitResultDTO struct {
	Affected []AssignmentDTO      `json:"affected"`
	Errors   []AssignmentErrorDTO `json:"errors"`
}

// AssignmentAuditDTO is one append-only reassignment record.
type AssignmentAuditDTO struct {
	ID               string `json:"id"`
	PayrollDateID    string `json:"payroll_date_id"`
	FromConsultantID string `json:"from_consultant_id,omitempty"`
	ToConsultantID   string `json:"to_consultant_id"`
	ChangeReason     string `json:"change_reason,omitempty"`
	ChangedBy        string `json:"changed_by"`
	CreatedAt        string `json:"created_at"`
}

// =============================================================================
// HOLIDAY TYPES
// =============================================================================

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID          string   `json:"id"`
	CountryCode string   `json:"country_code"`
	Regions     []string `json:"regions,omitempty"`
	Date        string   `json:"date"`
	Name        string   `json:"name"`
	LocalName   string   `json:"local_name,omitempty"`
	IsFixed     bool     `json:"is_fixed"`
	IsGlobal    bool     `json:"is_global"`
	LaunchYear  int      `json:"launch_year,omitempty"`
	Types       []string `json:"types,omitempty"`
}

// CreateHolidayRequest creates or updates a holiday.
type CreateHolidayRequest struct {
	ID          string   `json:"id,omitempty"`
	CountryCode string   `json:"country_code"`
	Regions     []string `json:"regions,omitempty"`
	Date        string   `json:"date"`
	Name        string   `json:"name"`
	LocalName   string   `json:"local_name,omitempty"`
	IsFixed     bool     `json:"is_fixed,omitempty"`
	IsGlobal    bool     `json:"is_global,omitempty"`
	LaunchYear  int      `json:"launch_year,omitempty"`
	Types       []string `json:"types,omitempty"`
}

// DefaultHolidaysRequest seeds a country's standard holiday set.
type DefaultHolidaysRequest struct {
	CountryCode string `json:"country_code"`
	Year        int    `json:"year,omitempty"`
}

// =============================================================================
// RULE TYPES
// =============================================================================

// RuleDTO represents an adjustment rule in API responses.
type RuleDTO struct {
	ID          string `json:"id"`
	Cycle       string `json:"cycle"`
	DateType    string `json:"date_type"`
	Rule        string `json:"rule"`
	Description string `json:"description,omitempty"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toPayrollDTO(p engine.Payroll) PayrollDTO {
	dto := PayrollDTO{
		ID:                      string(p.ID),
		FamilyRootID:            string(p.FamilyRootID),
		VersionNumber:           p.VersionNumber,
		VersionReason:           p.VersionReason,
		Name:                    p.Name,
		ClientID:                string(p.ClientID),
		CountryCode:             p.CountryCode,
		Region:                  p.Region,
		DateValue:               p.DateValue,
		Status:                  string(p.Status),
		GoLiveDate:              p.GoLiveDate.String(),
		IsCurrent:               p.IsCurrent(),
		PrimaryConsultantID:     string(p.PrimaryConsultantID),
		ProcessingDaysBeforeEFT: p.ProcessingDaysBeforeEFT,
		ProcessingTime:          p.ProcessingTime,
		CreatedAt:               p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               p.UpdatedAt.Format(time.RFC3339),
	}
	if p.ParentPayrollID != nil {
		dto.ParentPayrollID = string(*p.ParentPayrollID)
	}
	if p.SupersededDate != nil {
		dto.SupersededDate = p.SupersededDate.String()
	}
	if p.BackupConsultantID != nil {
		dto.BackupConsultantID = string(*p.BackupConsultantID)
	}
	if p.ManagerID != nil {
		dto.ManagerID = string(*p.ManagerID)
	}

	ref := engine.DefaultReference()
	if c, err := ref.Cycle(p.CycleID); err == nil {
		dto.Cycle = string(c.Name)
	} else {
		dto.Cycle = string(p.CycleID)
	}
	if dt, err := ref.DateType(p.DateTypeID); err == nil {
		dto.DateType = string(dt.Name)
	} else {
		dto.DateType = string(p.DateTypeID)
	}
	return dto
}

func toPayrollDateDTO(d engine.PayrollDate) PayrollDateDTO {
	return PayrollDateDTO{
		ID:              string(d.ID),
		PayrollID:       string(d.PayrollID),
		OriginalEFTDate: d.OriginalEFTDate.String(),
		AdjustedEFTDate: d.AdjustedEFTDate.String(),
		ProcessingDate:  d.ProcessingDate.String(),
		Notes:           d.Notes,
	}
}

func toAssignmentDTO(a engine.PayrollAssignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:            string(a.ID),
		PayrollDateID: string(a.PayrollDateID),
		ConsultantID:  string(a.ConsultantID),
		IsBackup:      a.IsBackup,
		AssignedBy:    a.AssignedBy,
		AssignedAt:    a.AssignedAt.Format(time.RFC3339),
	}
	if a.OriginalConsultantID != nil {
		dto.OriginalConsultantID = string(*a.OriginalConsultantID)
	}
	return dto
}

func toHolidayDTO(h engine.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:          string(h.ID),
		CountryCode: h.CountryCode,
		Regions:     h.Regions,
		Date:        h.Date.String(),
		Name:        h.Name,
		LocalName:   h.LocalName,
		IsFixed:     h.IsFixed,
		IsGlobal:    h.IsGlobal,
		LaunchYear:  h.LaunchYear,
		Types:       h.Types,
	}
}

func toActivationReportDTO(report engine.ActivationReport) ActivationReportDTO {
	dto := ActivationReportDTO{
		AsOf:     report.AsOf.String(),
		Results:  make([]ActivationResultDTO, 0, len(report.Results)),
		Failures: make([]ActivationFailureDTO, 0, len(report.Failures)),
	}
	for _, res := range report.Results {
		dto.Results = append(dto.Results, ActivationResultDTO{
			PayrollID:     string(res.PayrollID),
			VersionNumber: res.VersionNumber,
			ActionTaken:   string(res.ActionTaken),
			ExecutedAt:    res.ExecutedAt.Format(time.RFC3339),
		})
	}
	for _, f := range report.Failures {
		dto.Failures = append(dto.Failures, ActivationFailureDTO{
			PayrollID: string(f.PayrollID),
			Error:     f.Err.Error(),
		})
	}
	return dto
}
