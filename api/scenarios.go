/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates holidays, adjustment
	rules, and payroll families that demonstrate specific features.

AVAILABLE SCENARIOS:

	au-monthly:        AU monthly payroll with holiday adjustments
	us-biweekly:       US fortnightly payroll anchored to Friday
	version-lifecycle: A family mid-migration with a pending version

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed country holiday calendars and the default rule set
 3. Create payroll families
 4. Generate EFT dates and initial assignments

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "au-monthly"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: AddDefaultHolidays handler
  - factory/rules.go: Default rule set
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tigearis/payroll-engine/engine"
	"github.com/tigearis/payroll-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "au-monthly",
		Name:        "AU Monthly Payroll",
		Description: "Monthly fixed-day payroll in NSW with public holiday adjustments",
	},
	{
		ID:          "us-biweekly",
		Name:        "US Biweekly Payroll",
		Description: "Fortnightly payroll anchored to Friday with US federal holidays",
	},
	{
		ID:          "version-lifecycle",
		Name:        "Version Lifecycle",
		Description: "A payroll family with an active version and a pending cycle change",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "au-monthly":
		err = h.loadAUMonthlyScenario(ctx)
	case "us-biweekly":
		err = h.loadUSBiweeklyScenario(ctx)
	case "version-lifecycle":
		err = h.loadVersionLifecycleScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data without loading a scenario.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedReference loads the default rule set plus one country's holidays.
func (h *Handler) seedReference(ctx context.Context, country string, year int) error {
	for _, rule := range factory.DefaultRules() {
		if err := h.Store.SaveRule(ctx, rule); err != nil {
			return err
		}
	}

	holidays, ok := DefaultHolidays(country, year)
	if !ok {
		return fmt.Errorf("no default holiday set for %s", country)
	}
	for _, holiday := range holidays {
		if err := h.Store.SaveHoliday(ctx, holiday); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadAUMonthlyScenario(ctx context.Context) error {
	year := engine.Today().Year()
	if err := h.seedReference(ctx, "AU", year); err != nil {
		return err
	}

	day := 15
	payroll := engine.NewPayroll(
		"Acme Mining Monthly",
		"client-acme",
		"AU", "NSW",
		engine.CycleIDMonthly, engine.DateTypeIDFixedDay, &day,
		"consultant-harper",
		engine.NewDate(year, time.January, 1),
		2, 16,
	)
	payroll.Status = engine.StatusActive
	if err := h.Store.InsertPayroll(ctx, payroll); err != nil {
		return err
	}

	return h.generateAndAssign(ctx, payroll,
		engine.NewDate(year, time.January, 1),
		engine.NewDate(year, time.December, 31))
}

func (h *Handler) loadUSBiweeklyScenario(ctx context.Context) error {
	year := engine.Today().Year()
	if err := h.seedReference(ctx, "US", year); err != nil {
		return err
	}

	friday := int(time.Friday)
	payroll := engine.NewPayroll(
		"Globex Biweekly",
		"client-globex",
		"US", "",
		engine.CycleIDFortnightly, engine.DateTypeIDWeekday, &friday,
		"consultant-morgan",
		engine.NewDate(year, time.January, 2),
		3, 12,
	)
	payroll.Status = engine.StatusActive
	if err := h.Store.InsertPayroll(ctx, payroll); err != nil {
		return err
	}

	return h.generateAndAssign(ctx, payroll,
		engine.NewDate(year, time.January, 2),
		engine.NewDate(year, time.June, 30))
}

func (h *Handler) loadVersionLifecycleScenario(ctx context.Context) error {
	year := engine.Today().Year()
	if err := h.seedReference(ctx, "AU", year); err != nil {
		return err
	}

	payroll := engine.NewPayroll(
		"Initech Monthly",
		"client-initech",
		"AU", "VIC",
		engine.CycleIDMonthly, engine.DateTypeIDLastWorkingDay, nil,
		"consultant-kim",
		engine.NewDate(year, time.January, 1),
		2, 14,
	)
	payroll.Status = engine.StatusActive
	if err := h.Store.InsertPayroll(ctx, payroll); err != nil {
		return err
	}

	// A pending cycle change waiting for its go-live date.
	cycle := engine.CycleIDFortnightly
	dateType := engine.DateTypeIDWeekday
	thursday := int(time.Thursday)
	_, err := h.Manager.CreateVersion(ctx, payroll.ID, engine.VersionChanges{
		CycleID:    &cycle,
		DateTypeID: &dateType,
		DateValue:  &thursday,
		GoLiveDate: ptrDate(engine.NewDate(year+1, time.January, 1)),
	}, "client moving to fortnightly pay", "demo")
	if err != nil {
		return err
	}

	return h.generateAndAssign(ctx, payroll,
		engine.NewDate(year, time.January, 1),
		engine.NewDate(year, time.December, 31))
}

func (h *Handler) generateAndAssign(ctx context.Context, payroll engine.Payroll, start, end engine.Date) error {
	holidays, err := h.Store.ListHolidays(ctx, "")
	if err != nil {
		return err
	}
	rules, err := h.Store.ListRules(ctx)
	if err != nil {
		return err
	}
	resolver, err := engine.NewResolver(rules)
	if err != nil {
		return err
	}
	gen := engine.NewGenerator(engine.NewHolidayCalendar(holidays), resolver, h.Reference)

	dates, err := gen.Generate(payroll, start, end, 52)
	if err != nil {
		return err
	}
	if err := h.Store.ReplaceDates(ctx, payroll.ID, dates); err != nil {
		return err
	}
	_, err = h.Assignments.AssignDates(ctx, payroll, dates, "scenario")
	return err
}

func ptrDate(d engine.Date) *engine.Date { return &d }

// =============================================================================
// DEFAULT HOLIDAY SETS
// =============================================================================

// DefaultHolidays returns a country's standard public holiday set for a
// year. Observed dates are approximations for demo purposes; production
// calendars are admin-maintained via the holiday endpoints.
func DefaultHolidays(countryCode string, year int) ([]engine.Holiday, bool) {
	switch countryCode {
	case "AU":
		return []engine.Holiday{
			auHoliday(year, time.January, 1, "New Year's Day", true, nil),
			auHoliday(year, time.January, 26, "Australia Day", true, nil),
			auHoliday(year, time.April, 25, "Anzac Day", true, nil),
			auHoliday(year, time.June, 8, "King's Birthday", false, []string{"NSW", "VIC", "QLD", "SA", "TAS", "ACT", "NT"}),
			auHoliday(year, time.October, 5, "Labour Day", false, []string{"NSW", "ACT", "SA"}),
			auHoliday(year, time.December, 25, "Christmas Day", true, nil),
			auHoliday(year, time.December, 26, "Boxing Day", true, nil),
		}, true

	case "US":
		return []engine.Holiday{
			usHoliday(year, time.January, 1, "New Year's Day", true),
			usHoliday(year, time.July, 4, "Independence Day", true),
			usHoliday(year, time.November, 11, "Veterans Day", true),
			usHoliday(year, time.December, 25, "Christmas Day", true),
			usHoliday(year, time.November, 27, "Thanksgiving Day", false),
			usHoliday(year, time.September, 1, "Labor Day", false),
			usHoliday(year, time.May, 25, "Memorial Day", false),
		}, true

	case "GB":
		return []engine.Holiday{
			gbHoliday(year, time.January, 1, "New Year's Day", true),
			gbHoliday(year, time.December, 25, "Christmas Day", true),
			gbHoliday(year, time.December, 26, "Boxing Day", true),
			gbHoliday(year, time.May, 4, "Early May Bank Holiday", false),
			gbHoliday(year, time.August, 31, "Summer Bank Holiday", false),
		}, true

	default:
		return nil, false
	}
}

func auHoliday(year int, month time.Month, day int, name string, fixed bool, regions []string) engine.Holiday {
	return engine.Holiday{
		ID:          engine.HolidayID(fmt.Sprintf("AU-%d-%02d-%02d", year, month, day)),
		CountryCode: "AU",
		Regions:     regions,
		Date:        engine.NewDate(year, month, day),
		Name:        name,
		IsFixed:     fixed,
		IsGlobal:    len(regions) == 0,
		Types:       []string{"public"},
	}
}

func usHoliday(year int, month time.Month, day int, name string, fixed bool) engine.Holiday {
	return engine.Holiday{
		ID:          engine.HolidayID(fmt.Sprintf("US-%d-%02d-%02d", year, month, day)),
		CountryCode: "US",
		Date:        engine.NewDate(year, month, day),
		Name:        name,
		IsFixed:     fixed,
		IsGlobal:    true,
		Types:       []string{"federal"},
	}
}

func gbHoliday(year int, month time.Month, day int, name string, fixed bool) engine.Holiday {
	return engine.Holiday{
		ID:          engine.HolidayID(fmt.Sprintf("GB-%d-%02d-%02d", year, month, day)),
		CountryCode: "GB",
		Date:        engine.NewDate(year, month, day),
		Name:        name,
		IsFixed:     fixed,
		IsGlobal:    true,
		Types:       []string{"bank"},
	}
}
