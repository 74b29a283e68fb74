/*
generator.go - EFT date generation

PURPOSE:
  Produces the ordered sequence of (original, adjusted, processing) date
  triples for a payroll over a date range:

    1. Resolve the adjustment rule for the payroll's (cycle, date type);
       fail fast when none exists.
    2. Produce raw originalEftDate values from the cycle cadence.
    3. Shift each raw date onto a business day per the resolved policy.
    4. Walk the adjusted date backward processingDaysBeforeEft business
       days to get the processing date.

DETERMINISM:
  Generation is pure: the same payroll, range and calendar data produce
  byte-identical output (stable ids included), so a version edit can
  safely regenerate by replacing the old rows.

CALENDAR DEGRADATION:
  A jurisdiction with no holiday data must not block generation. On
  ErrUnknownCalendar every calendar query for that payroll falls back to
  weekend-only adjustment.

SEE ALSO:
  - rules.go: Adjustment policies
  - calendar.go: Business-day lookups
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// GENERATOR
// =============================================================================

type Generator struct {
	Calendar  Calendar
	Resolver  *Resolver
	Reference *Reference
}

func NewGenerator(cal Calendar, resolver *Resolver, ref *Reference) *Generator {
	return &Generator{Calendar: cal, Resolver: resolver, Reference: ref}
}

// Generate returns the payroll's dates in [start, end], ordered by
// original EFT date, deduplicated, capped at maxDates entries.
// maxDates <= 0 yields an empty result, not an error.
func (g *Generator) Generate(payroll Payroll, start, end Date, maxDates int) ([]PayrollDate, error) {
	rule, err := g.Resolver.Resolve(payroll.CycleID, payroll.DateTypeID)
	if err != nil {
		return nil, err
	}
	cycle, err := g.Reference.Cycle(payroll.CycleID)
	if err != nil {
		return nil, err
	}
	dateType, err := g.Reference.DateType(payroll.DateTypeID)
	if err != nil {
		return nil, err
	}
	if maxDates <= 0 || end.Before(start) {
		return []PayrollDate{}, nil
	}

	view := newCalendarView(g.Calendar, payroll.CountryCode, payroll.Region)

	raw, err := rawSequence(payroll, cycle.Name, dateType.Name, start, end, maxDates, view)
	if err != nil {
		return nil, err
	}

	dates := make([]PayrollDate, 0, len(raw))
	seen := make(map[Date]bool, len(raw))
	for _, original := range raw {
		if seen[original] {
			continue
		}
		seen[original] = true

		adjusted, err := adjustDate(rule.Code, original, view)
		if err != nil {
			return nil, err
		}
		processing, err := view.businessDaysBefore(adjusted, payroll.ProcessingDaysBeforeEFT)
		if err != nil {
			return nil, err
		}

		dates = append(dates, PayrollDate{
			ID:              DateID(payroll.ID, original),
			PayrollID:       payroll.ID,
			OriginalEFTDate: original,
			AdjustedEFTDate: adjusted,
			ProcessingDate:  processing,
		})
	}
	return dates, nil
}

// =============================================================================
// RAW CADENCE SEQUENCES
// =============================================================================

func rawSequence(p Payroll, cycle CycleName, dateType DateTypeName, start, end Date, maxDates int, view *calendarView) ([]Date, error) {
	switch cycle {
	case CycleWeekly:
		return weekdaySequence(p, start, end, maxDates, 7)
	case CycleFortnightly:
		return weekdaySequence(p, start, end, maxDates, 14)
	case CycleMonthly:
		return monthlySequence(p, dateType, start, end, maxDates, 1, view)
	case CycleQuarterly:
		return monthlySequence(p, dateType, start, end, maxDates, 3, view)
	}
	return nil, fmt.Errorf("unsupported cycle %q", cycle)
}

// weekdaySequence produces every stepDays-th occurrence of the payroll's
// anchor weekday. The anchor weekday comes from DateValue when set
// (0=Sunday .. 6=Saturday), otherwise from the go-live date. Fortnightly
// cycles keep their phase anchored to the go-live date so a regenerated
// range never flips which week pays.
func weekdaySequence(p Payroll, start, end Date, maxDates, stepDays int) ([]Date, error) {
	weekday := p.GoLiveDate.Weekday()
	if p.DateValue != nil {
		v := *p.DateValue
		if v < 0 || v > 6 {
			return nil, fmt.Errorf("date value %d is not a weekday (0-6): %w", v, ErrMissingDateValue)
		}
		weekday = time.Weekday(v)
	}

	// First occurrence of the anchor weekday on or after start.
	cur := start
	for cur.Weekday() != weekday {
		cur = cur.AddDays(1)
	}

	// Align fortnightly phase to the go-live date.
	if stepDays == 14 {
		anchor := p.GoLiveDate
		for anchor.Weekday() != weekday {
			anchor = anchor.AddDays(1)
		}
		if delta := DaysBetween(anchor, cur); ((delta % 14) + 14) % 14 != 0 {
			cur = cur.AddDays(7)
		}
	}

	var out []Date
	for cur.BeforeOrEqual(end) && len(out) < maxDates {
		out = append(out, cur)
		cur = cur.AddDays(stepDays)
	}
	return out, nil
}

// monthlySequence produces one date per stepMonths months, positioned by
// the date type. Quarterly cycles keep their phase anchored to the
// go-live month.
func monthlySequence(p Payroll, dateType DateTypeName, start, end Date, maxDates, stepMonths int, view *calendarView) ([]Date, error) {
	cursor := FirstOfMonth(start.Year(), start.Month())
	if stepMonths > 1 {
		anchor := FirstOfMonth(p.GoLiveDate.Year(), p.GoLiveDate.Month())
		months := (cursor.Year()-anchor.Year())*12 + int(cursor.Month()-anchor.Month())
		if rem := ((months % stepMonths) + stepMonths) % stepMonths; rem != 0 {
			cursor = cursor.AddMonths(stepMonths - rem)
		}
	}

	var out []Date
	for cursor.BeforeOrEqual(end) && len(out) < maxDates {
		candidate, err := monthlyCandidate(p, dateType, cursor.Year(), cursor.Month(), view)
		if err != nil {
			return nil, err
		}
		if candidate.AfterOrEqual(start) && candidate.BeforeOrEqual(end) {
			out = append(out, candidate)
		}
		cursor = cursor.AddMonths(stepMonths)
	}
	return out, nil
}

func monthlyCandidate(p Payroll, dateType DateTypeName, year int, month time.Month, view *calendarView) (Date, error) {
	switch dateType {
	case DateTypeFixedDay:
		if p.DateValue == nil {
			return Date{}, ErrMissingDateValue
		}
		return ClampDayOfMonth(year, month, *p.DateValue), nil
	case DateTypeLastWorkingDay:
		last := LastOfMonth(year, month)
		ok, err := view.isBusinessDay(last)
		if err != nil {
			return Date{}, err
		}
		if ok {
			return last, nil
		}
		return view.previousBusinessDay(last)
	case DateTypeFirstWorkingDay:
		first := FirstOfMonth(year, month)
		ok, err := view.isBusinessDay(first)
		if err != nil {
			return Date{}, err
		}
		if ok {
			return first, nil
		}
		return view.nextBusinessDay(first)
	}
	return Date{}, fmt.Errorf("date type %q is not valid for monthly cycles", dateType)
}

// =============================================================================
// ADJUSTMENT POLICIES
// =============================================================================

func adjustDate(code RuleCode, d Date, view *calendarView) (Date, error) {
	switch code {
	case RuleNoAdjustment:
		return d, nil
	case RuleStrictPrevious:
		ok, err := view.isBusinessDay(d)
		if err != nil || ok {
			return d, err
		}
		return view.previousBusinessDay(d)
	case RuleStrictNext:
		ok, err := view.isBusinessDay(d)
		if err != nil || ok {
			return d, err
		}
		return view.nextBusinessDay(d)
	case RuleNearest:
		ok, err := view.isBusinessDay(d)
		if err != nil || ok {
			return d, err
		}
		prev, err := view.previousBusinessDay(d)
		if err != nil {
			return Date{}, err
		}
		next, err := view.nextBusinessDay(d)
		if err != nil {
			return Date{}, err
		}
		// Tie in day-distance favors the earlier date.
		if DaysBetween(d, next) < DaysBetween(prev, d) {
			return next, nil
		}
		return prev, nil
	}
	return Date{}, fmt.Errorf("rule code %q: %w", code, ErrUnknownRuleCode)
}

// =============================================================================
// CALENDAR VIEW - Per-payroll jurisdiction with degradation
// =============================================================================

// calendarView binds a Calendar to one payroll's jurisdiction. The first
// ErrUnknownCalendar switches the whole view to weekend-only lookups so
// a payroll is adjusted consistently within a single generation run.
type calendarView struct {
	cal      Calendar
	country  string
	region   string
	degraded bool
}

func newCalendarView(cal Calendar, country, region string) *calendarView {
	if cal == nil {
		return &calendarView{cal: WeekendCalendar{}, degraded: true}
	}
	return &calendarView{cal: cal, country: country, region: region}
}

func (v *calendarView) isBusinessDay(d Date) (bool, error) {
	if !v.degraded {
		ok, err := v.cal.IsBusinessDay(d, v.country, v.region)
		if err == nil {
			return ok, nil
		}
		if !isUnknownCalendar(err) {
			return false, err
		}
		v.degraded = true
	}
	return WeekendCalendar{}.IsBusinessDay(d, v.country, v.region)
}

func (v *calendarView) nextBusinessDay(d Date) (Date, error) {
	if !v.degraded {
		next, err := v.cal.NextBusinessDay(d, v.country, v.region)
		if err == nil {
			return next, nil
		}
		if !isUnknownCalendar(err) {
			return Date{}, err
		}
		v.degraded = true
	}
	return WeekendCalendar{}.NextBusinessDay(d, v.country, v.region)
}

func (v *calendarView) previousBusinessDay(d Date) (Date, error) {
	if !v.degraded {
		prev, err := v.cal.PreviousBusinessDay(d, v.country, v.region)
		if err == nil {
			return prev, nil
		}
		if !isUnknownCalendar(err) {
			return Date{}, err
		}
		v.degraded = true
	}
	return WeekendCalendar{}.PreviousBusinessDay(d, v.country, v.region)
}

// businessDaysBefore walks n business days backward from d. n == 0
// returns d unchanged.
func (v *calendarView) businessDaysBefore(d Date, n int) (Date, error) {
	cur := d
	for i := 0; i < n; i++ {
		prev, err := v.previousBusinessDay(cur)
		if err != nil {
			return Date{}, err
		}
		cur = prev
	}
	return cur, nil
}

func isUnknownCalendar(err error) bool {
	return errors.Is(err, ErrUnknownCalendar)
}
