/*
rules.go - Adjustment rule resolution

PURPOSE:
  Maps a (payroll cycle, payroll date type) pair to the policy describing
  how a computed EFT date shifts when it lands on a weekend or holiday.

KEY CONCEPTS:
  RuleCode:
    A closed set of adjustment policies. Rule configurations are parsed
    into this enum exactly once at load time (see factory/rules.go);
    nothing downstream interprets strings per date.

  Resolver:
    Exact-pair lookup. There is deliberately no fallback or default rule:
    a payroll whose pair has no rule cannot generate dates, because
    silently picking an adjustment policy would corrupt a payment date.

SEE ALSO:
  - generator.go: Applies the resolved policy
  - factory/rules.go: JSON configuration to []AdjustmentRule
*/
package engine

// =============================================================================
// RULE CODE - Closed set of adjustment policies
// =============================================================================

type RuleCode string

const (
	// RuleStrictPrevious shifts to the previous business day.
	RuleStrictPrevious RuleCode = "strict_previous"

	// RuleStrictNext shifts to the next business day.
	RuleStrictNext RuleCode = "strict_next"

	// RuleNearest shifts to whichever of previous/next business day is
	// closer. True ties in day-distance favor the previous day.
	RuleNearest RuleCode = "nearest_business_day"

	// RuleNoAdjustment leaves the date alone. Used for date types that
	// already guarantee a business day (last working day).
	RuleNoAdjustment RuleCode = "no_adjustment"
)

// ParseRuleCode converts configuration text into the closed enum.
func ParseRuleCode(s string) (RuleCode, error) {
	switch RuleCode(s) {
	case RuleStrictPrevious, RuleStrictNext, RuleNearest, RuleNoAdjustment:
		return RuleCode(s), nil
	}
	return "", ErrUnknownRuleCode
}

// =============================================================================
// ADJUSTMENT RULE
// =============================================================================

// AdjustmentRule binds a policy to a (cycle, date type) pair. Unique per
// pair.
type AdjustmentRule struct {
	ID          string
	CycleID     CycleID
	DateTypeID  DateTypeID
	Code        RuleCode
	Description string
}

// =============================================================================
// RESOLVER - Exact (cycle, date type) lookup
// =============================================================================

type ruleKey struct {
	CycleID    CycleID
	DateTypeID DateTypeID
}

type Resolver struct {
	rules map[ruleKey]AdjustmentRule
	order []ruleKey
}

// NewResolver builds a resolver from loaded rules. Duplicate pairs are a
// configuration error, not a last-writer-wins.
func NewResolver(rules []AdjustmentRule) (*Resolver, error) {
	r := &Resolver{rules: make(map[ruleKey]AdjustmentRule)}
	for _, rule := range rules {
		k := ruleKey{CycleID: rule.CycleID, DateTypeID: rule.DateTypeID}
		if _, exists := r.rules[k]; exists {
			return nil, ErrDuplicateRule
		}
		r.rules[k] = rule
		r.order = append(r.order, k)
	}
	return r, nil
}

// Resolve returns the rule for the exact pair, or an error wrapping
// ErrNoRule. Callers must treat this as a hard failure.
func (r *Resolver) Resolve(cycleID CycleID, dateTypeID DateTypeID) (AdjustmentRule, error) {
	rule, ok := r.rules[ruleKey{CycleID: cycleID, DateTypeID: dateTypeID}]
	if !ok {
		return AdjustmentRule{}, &NoRuleError{CycleID: cycleID, DateTypeID: dateTypeID}
	}
	return rule, nil
}

// Rules returns all rules in load order.
func (r *Resolver) Rules() []AdjustmentRule {
	out := make([]AdjustmentRule, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.rules[k])
	}
	return out
}
