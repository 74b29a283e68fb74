package engine_test

import (
	"errors"
	"testing"

	"github.com/tigearis/payroll-engine/engine"
)

// =============================================================================
// RULE CODE PARSING
// =============================================================================

func TestParseRuleCode_AcceptsClosedSet(t *testing.T) {
	for _, s := range []string{"strict_previous", "strict_next", "nearest_business_day", "no_adjustment"} {
		code, err := engine.ParseRuleCode(s)
		if err != nil {
			t.Errorf("%s: unexpected error %v", s, err)
		}
		if string(code) != s {
			t.Errorf("%s: got %s", s, code)
		}
	}
}

func TestParseRuleCode_RejectsUnknownCodes(t *testing.T) {
	for _, s := range []string{"", "next", "STRICT_PREVIOUS", "nearest"} {
		if _, err := engine.ParseRuleCode(s); !errors.Is(err, engine.ErrUnknownRuleCode) {
			t.Errorf("%q: expected ErrUnknownRuleCode, got %v", s, err)
		}
	}
}

// =============================================================================
// RESOLVER
// =============================================================================

func TestResolver_ExactPairLookup(t *testing.T) {
	// GIVEN: A resolver with the standard rule set
	// WHEN: Resolving a configured pair
	// THEN: The exact rule comes back

	resolver, err := engine.NewResolver(testRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rule, err := resolver.Resolve(engine.CycleIDMonthly, engine.DateTypeIDFixedDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Code != engine.RuleStrictPrevious {
		t.Errorf("expected strict_previous, got %s", rule.Code)
	}
}

func TestResolver_MissingPair_IsHardFailure(t *testing.T) {
	// GIVEN: A resolver without a weekly/fixed-day rule
	// WHEN: Resolving that pair
	// THEN: ErrNoRule with the pair identified; no fallback

	resolver, err := engine.NewResolver(testRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = resolver.Resolve(engine.CycleIDWeekly, engine.DateTypeIDFixedDay)
	if !errors.Is(err, engine.ErrNoRule) {
		t.Fatalf("expected ErrNoRule, got %v", err)
	}
	var nre *engine.NoRuleError
	if !errors.As(err, &nre) || nre.CycleID != engine.CycleIDWeekly {
		t.Errorf("expected the pair in the error, got %v", err)
	}
}

func TestNewResolver_DuplicatePair_IsConfigurationError(t *testing.T) {
	// GIVEN: Two rules claiming the same pair
	// WHEN: Building the resolver
	// THEN: ErrDuplicateRule, not last-writer-wins

	rules := []engine.AdjustmentRule{
		{ID: "a", CycleID: engine.CycleIDMonthly, DateTypeID: engine.DateTypeIDFixedDay, Code: engine.RuleStrictPrevious},
		{ID: "b", CycleID: engine.CycleIDMonthly, DateTypeID: engine.DateTypeIDFixedDay, Code: engine.RuleStrictNext},
	}
	if _, err := engine.NewResolver(rules); !errors.Is(err, engine.ErrDuplicateRule) {
		t.Fatalf("expected ErrDuplicateRule, got %v", err)
	}
}

func TestResolver_RulesPreservesLoadOrder(t *testing.T) {
	resolver, err := engine.NewResolver(testRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rules := resolver.Rules()
	if len(rules) != len(testRules()) {
		t.Fatalf("expected %d rules, got %d", len(testRules()), len(rules))
	}
	for i, want := range testRules() {
		if rules[i].ID != want.ID {
			t.Errorf("rule %d: expected %s, got %s", i, want.ID, rules[i].ID)
		}
	}
}
