package factory_test

import (
	"testing"
	"time"

	"github.com/tigearis/payroll-engine/engine"
	"github.com/tigearis/payroll-engine/factory"
)

// =============================================================================
// RULE PARSING
// =============================================================================

func TestParseRules_ValidDocument(t *testing.T) {
	// GIVEN: A rule document with one explicit id and one omitted
	// WHEN: Parsing
	// THEN: Names resolve to reference ids; the missing id is derived

	jsonStr := `{
		"rules": [
			{"id": "rule-custom", "cycle": "monthly", "date_type": "fixed_day", "rule": "strict_previous", "description": "pay early"},
			{"cycle": "weekly", "date_type": "weekday", "rule": "nearest_business_day"}
		]
	}`

	rules, err := factory.ParseRules(jsonStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	if rules[0].ID != "rule-custom" || rules[0].CycleID != engine.CycleIDMonthly ||
		rules[0].DateTypeID != engine.DateTypeIDFixedDay || rules[0].Code != engine.RuleStrictPrevious {
		t.Errorf("unexpected first rule: %+v", rules[0])
	}
	if rules[1].ID != "rule-weekly-weekday" {
		t.Errorf("expected derived id rule-weekly-weekday, got %s", rules[1].ID)
	}
}

func TestParseRules_UnknownRuleCode_FailsAtLoadTime(t *testing.T) {
	jsonStr := `{"rules": [{"cycle": "monthly", "date_type": "fixed_day", "rule": "closest"}]}`
	if _, err := factory.ParseRules(jsonStr); err == nil {
		t.Fatal("expected an error for an unknown rule code")
	}
}

func TestParseRules_UnknownCycle_FailsAtLoadTime(t *testing.T) {
	jsonStr := `{"rules": [{"cycle": "biweekly", "date_type": "fixed_day", "rule": "strict_previous"}]}`
	if _, err := factory.ParseRules(jsonStr); err == nil {
		t.Fatal("expected an error for an unknown cycle name")
	}
}

func TestParseRules_UnknownDateType_FailsAtLoadTime(t *testing.T) {
	jsonStr := `{"rules": [{"cycle": "monthly", "date_type": "middle_day", "rule": "strict_previous"}]}`
	if _, err := factory.ParseRules(jsonStr); err == nil {
		t.Fatal("expected an error for an unknown date type name")
	}
}

func TestParseRules_MalformedJSON_Fails(t *testing.T) {
	if _, err := factory.ParseRules(`{"rules": [`); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestDefaultRules_BuildResolverCoveringEveryMonthlyPair(t *testing.T) {
	// GIVEN: The shipped default rule set
	// WHEN: Building a resolver
	// THEN: It resolves every standard (cycle, date type) pairing

	resolver, err := engine.NewResolver(factory.DefaultRules())
	if err != nil {
		t.Fatalf("defaults should build a resolver: %v", err)
	}

	pairs := []struct {
		cycle    engine.CycleID
		dateType engine.DateTypeID
		want     engine.RuleCode
	}{
		{engine.CycleIDWeekly, engine.DateTypeIDWeekday, engine.RuleNearest},
		{engine.CycleIDFortnightly, engine.DateTypeIDWeekday, engine.RuleNearest},
		{engine.CycleIDMonthly, engine.DateTypeIDFixedDay, engine.RuleStrictPrevious},
		{engine.CycleIDMonthly, engine.DateTypeIDLastWorkingDay, engine.RuleStrictPrevious},
		{engine.CycleIDMonthly, engine.DateTypeIDFirstWorkingDay, engine.RuleStrictNext},
		{engine.CycleIDQuarterly, engine.DateTypeIDFixedDay, engine.RuleStrictPrevious},
		{engine.CycleIDQuarterly, engine.DateTypeIDLastWorkingDay, engine.RuleStrictPrevious},
		{engine.CycleIDQuarterly, engine.DateTypeIDFirstWorkingDay, engine.RuleStrictNext},
	}
	for _, p := range pairs {
		rule, err := resolver.Resolve(p.cycle, p.dateType)
		if err != nil {
			t.Errorf("%s/%s: %v", p.cycle, p.dateType, err)
			continue
		}
		if rule.Code != p.want {
			t.Errorf("%s/%s: expected %s, got %s", p.cycle, p.dateType, p.want, rule.Code)
		}
	}
}

// =============================================================================
// HOLIDAY PARSING
// =============================================================================

func TestParseHolidays_ValidDocument(t *testing.T) {
	// GIVEN: A holiday document with regional scoping and a missing id
	// WHEN: Parsing
	// THEN: Fields map through and the id derives from country and date

	jsonStr := `{
		"holidays": [
			{"id": "au-cup-2026", "country": "AU", "regions": ["VIC"], "date": "2026-11-03", "name": "Melbourne Cup"},
			{"country": "AU", "date": "2026-12-25", "name": "Christmas Day", "fixed": true, "global": true}
		]
	}`

	holidays, err := factory.ParseHolidays(jsonStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holidays) != 2 {
		t.Fatalf("expected 2 holidays, got %d", len(holidays))
	}

	cup := holidays[0]
	if cup.ID != "au-cup-2026" || cup.CountryCode != "AU" || len(cup.Regions) != 1 || cup.Regions[0] != "VIC" {
		t.Errorf("unexpected first holiday: %+v", cup)
	}
	if !cup.Date.Equal(engine.NewDate(2026, time.November, 3)) {
		t.Errorf("expected 2026-11-03, got %s", cup.Date)
	}

	xmas := holidays[1]
	if xmas.ID != "AU-2026-12-25" {
		t.Errorf("expected derived id AU-2026-12-25, got %s", xmas.ID)
	}
	if !xmas.IsFixed || !xmas.IsGlobal {
		t.Errorf("expected fixed and global flags, got %+v", xmas)
	}
}

func TestParseHolidays_MissingCountry_Fails(t *testing.T) {
	jsonStr := `{"holidays": [{"date": "2026-01-01", "name": "New Year"}]}`
	if _, err := factory.ParseHolidays(jsonStr); err == nil {
		t.Fatal("expected an error for a holiday without a country")
	}
}

func TestParseHolidays_BadDate_Fails(t *testing.T) {
	jsonStr := `{"holidays": [{"country": "AU", "date": "03/11/2026", "name": "Cup"}]}`
	if _, err := factory.ParseHolidays(jsonStr); err == nil {
		t.Fatal("expected an error for a malformed date")
	}
}

// =============================================================================
// ROUND-TRIP
// =============================================================================

func TestToRuleJSON_RendersReferenceNames(t *testing.T) {
	// GIVEN: The default rules
	// WHEN: Converting back to JSON form
	// THEN: Ids become display names an admin UI can show

	doc, err := factory.ToRuleJSON(factory.DefaultRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Rules) != len(factory.DefaultRules()) {
		t.Fatalf("expected %d rules, got %d", len(factory.DefaultRules()), len(doc.Rules))
	}
	first := doc.Rules[0]
	if first.Cycle != "weekly" || first.DateType != "weekday" || first.Rule != "nearest_business_day" {
		t.Errorf("unexpected first rule: %+v", first)
	}
}

func TestToRuleJSON_UnknownCycleID_Fails(t *testing.T) {
	rules := []engine.AdjustmentRule{{ID: "x", CycleID: "cycle-bogus", DateTypeID: engine.DateTypeIDFixedDay, Code: engine.RuleStrictNext}}
	if _, err := factory.ToRuleJSON(rules); err == nil {
		t.Fatal("expected an error for an unknown cycle id")
	}
}
