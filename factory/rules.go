/*
Package factory provides JSON to Go configuration conversion.

PURPOSE:
  Converts JSON adjustment-rule and holiday definitions into engine
  structs. This enables configuration without code changes - operations
  staff can define rules and holiday calendars in JSON, and the factory
  creates the proper Go structs.

WHY JSON?
  - Non-developers can modify rules
  - Easy integration with admin UI
  - Version control for rule definitions
  - Database storage of rule configs

JSON SCHEMA (rules):
  {
    "rules": [
      {
        "id": "rule-weekly-fixed",
        "cycle": "weekly",
        "date_type": "fixed_day",
        "rule": "strict_previous",
        "description": "Weekly fixed-day payrolls pay early, never late"
      }
    ]
  }

JSON SCHEMA (holidays):
  {
    "holidays": [
      {
        "id": "au-new-year-2026",
        "country": "AU",
        "regions": ["NSW"],
        "date": "2026-01-01",
        "name": "New Year's Day",
        "fixed": true,
        "global": true
      }
    ]
  }

KEY FEATURES:
  - Validates rule codes at load time, not at generation time
  - Rejects duplicate (cycle, date type) pairs
  - Ships a default rule set matching standard payout policy

USAGE:
  rules, err := factory.ParseRules(jsonString)
  resolver, err := engine.NewResolver(rules)

  // Or start from the defaults
  resolver, err := engine.NewResolver(factory.DefaultRules())

SEE ALSO:
  - engine/rules.go: AdjustmentRule and Resolver definitions
  - engine/calendar.go: Holiday definition
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/tigearis/payroll-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the JSON representation of one adjustment rule.
type RuleJSON struct {
	ID          string `json:"id"`
	Cycle       string `json:"cycle"`
	DateType    string `json:"date_type"`
	Rule        string `json:"rule"`
	Description string `json:"description,omitempty"`
}

// RuleSetJSON is the top-level rule configuration document.
type RuleSetJSON struct {
	Rules []RuleJSON `json:"rules"`
}

// HolidayJSON is the JSON representation of one holiday.
type HolidayJSON struct {
	ID         string   `json:"id"`
	Country    string   `json:"country"`
	Regions    []string `json:"regions,omitempty"`
	Date       string   `json:"date"`
	Name       string   `json:"name"`
	LocalName  string   `json:"local_name,omitempty"`
	Fixed      bool     `json:"fixed,omitempty"`
	Global     bool     `json:"global,omitempty"`
	LaunchYear int      `json:"launch_year,omitempty"`
	Types      []string `json:"types,omitempty"`
}

// HolidaySetJSON is the top-level holiday configuration document.
type HolidaySetJSON struct {
	Holidays []HolidayJSON `json:"holidays"`
}

// =============================================================================
// RULE PARSING
// =============================================================================

// ParseRules parses a JSON rule set into adjustment rules. Unknown rule
// codes and unknown cycle or date type names fail here, at load time.
func ParseRules(jsonStr string) ([]engine.AdjustmentRule, error) {
	var doc RuleSetJSON
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule JSON: %w", err)
	}

	ref := engine.DefaultReference()
	rules := make([]engine.AdjustmentRule, 0, len(doc.Rules))
	for i, rj := range doc.Rules {
		code, err := engine.ParseRuleCode(rj.Rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rj.ID, err)
		}
		cycle, err := cycleByName(ref, rj.Cycle)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rj.ID, err)
		}
		dateType, err := dateTypeByName(ref, rj.DateType)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rj.ID, err)
		}

		id := rj.ID
		if id == "" {
			id = fmt.Sprintf("rule-%s-%s", rj.Cycle, rj.DateType)
		}
		rules = append(rules, engine.AdjustmentRule{
			ID:          id,
			CycleID:     cycle.ID,
			DateTypeID:  dateType.ID,
			Code:        code,
			Description: rj.Description,
		})
	}
	return rules, nil
}

func cycleByName(ref *engine.Reference, name string) (engine.PayrollCycle, error) {
	for _, c := range ref.Cycles() {
		if string(c.Name) == name {
			return c, nil
		}
	}
	return engine.PayrollCycle{}, fmt.Errorf("unknown cycle %q", name)
}

func dateTypeByName(ref *engine.Reference, name string) (engine.PayrollDateType, error) {
	for _, dt := range ref.DateTypes() {
		if string(dt.Name) == name {
			return dt, nil
		}
	}
	return engine.PayrollDateType{}, fmt.Errorf("unknown date type %q", name)
}

// DefaultRules returns the standard rule set: fixed-day payrolls move to
// the previous business day (funds land early, never late), working-day
// date types already resolve to business days and keep strict-previous
// as a safety net, and weekday cycles take the nearest business day.
func DefaultRules() []engine.AdjustmentRule {
	type pair struct {
		cycle    engine.CycleID
		dateType engine.DateTypeID
		code     engine.RuleCode
	}
	pairs := []pair{
		{engine.CycleIDWeekly, engine.DateTypeIDWeekday, engine.RuleNearest},
		{engine.CycleIDFortnightly, engine.DateTypeIDWeekday, engine.RuleNearest},
		{engine.CycleIDMonthly, engine.DateTypeIDFixedDay, engine.RuleStrictPrevious},
		{engine.CycleIDMonthly, engine.DateTypeIDLastWorkingDay, engine.RuleStrictPrevious},
		{engine.CycleIDMonthly, engine.DateTypeIDFirstWorkingDay, engine.RuleStrictNext},
		{engine.CycleIDQuarterly, engine.DateTypeIDFixedDay, engine.RuleStrictPrevious},
		{engine.CycleIDQuarterly, engine.DateTypeIDLastWorkingDay, engine.RuleStrictPrevious},
		{engine.CycleIDQuarterly, engine.DateTypeIDFirstWorkingDay, engine.RuleStrictNext},
	}

	rules := make([]engine.AdjustmentRule, 0, len(pairs))
	for _, p := range pairs {
		rules = append(rules, engine.AdjustmentRule{
			ID:         fmt.Sprintf("rule-%s-%s", p.cycle, p.dateType),
			CycleID:    p.cycle,
			DateTypeID: p.dateType,
			Code:       p.code,
		})
	}
	return rules
}

// =============================================================================
// HOLIDAY PARSING
// =============================================================================

// ParseHolidays parses a JSON holiday set into engine holidays.
func ParseHolidays(jsonStr string) ([]engine.Holiday, error) {
	var doc HolidaySetJSON
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse holiday JSON: %w", err)
	}

	holidays := make([]engine.Holiday, 0, len(doc.Holidays))
	for i, hj := range doc.Holidays {
		if hj.Country == "" {
			return nil, fmt.Errorf("holiday %d (%s): country is required", i, hj.ID)
		}
		date, err := engine.ParseDate(hj.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %d (%s): %w", i, hj.ID, err)
		}
		id := hj.ID
		if id == "" {
			id = fmt.Sprintf("%s-%s", hj.Country, hj.Date)
		}
		holidays = append(holidays, engine.Holiday{
			ID:          engine.HolidayID(id),
			CountryCode: hj.Country,
			Regions:     hj.Regions,
			Date:        date,
			Name:        hj.Name,
			LocalName:   hj.LocalName,
			IsFixed:     hj.Fixed,
			IsGlobal:    hj.Global,
			LaunchYear:  hj.LaunchYear,
			Types:       hj.Types,
		})
	}
	return holidays, nil
}

// ToRuleJSON converts adjustment rules back to their JSON representation.
func ToRuleJSON(rules []engine.AdjustmentRule) (RuleSetJSON, error) {
	ref := engine.DefaultReference()
	doc := RuleSetJSON{Rules: make([]RuleJSON, 0, len(rules))}
	for _, r := range rules {
		cycle, err := ref.Cycle(r.CycleID)
		if err != nil {
			return doc, err
		}
		dateType, err := ref.DateType(r.DateTypeID)
		if err != nil {
			return doc, err
		}
		doc.Rules = append(doc.Rules, RuleJSON{
			ID:          r.ID,
			Cycle:       string(cycle.Name),
			DateType:    string(dateType.Name),
			Rule:        string(r.Code),
			Description: r.Description,
		})
	}
	return doc, nil
}
