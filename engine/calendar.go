/*
calendar.go - Business-day and holiday logic

PURPOSE:
  Answers one question for the rest of the engine: is this date a
  business day in this jurisdiction? Holidays are immutable reference
  data maintained by administrators; this file only reads them.

KEY CONCEPTS:
  Holiday:
    A dated record for a country, optionally scoped to regions. Fixed
    holidays recur on the same month/day every year; others match a
    single calendar date. LaunchYear bounds when a holiday first applies.

  Calendar:
    IsBusinessDay / NextBusinessDay / PreviousBusinessDay, all keyed by
    (country, region). Unknown countries return ErrUnknownCalendar so
    callers can degrade to weekend-only adjustment instead of blocking
    payroll generation on missing reference data.

  WeekendCalendar:
    The degraded mode: Saturday/Sunday only, never errors.

SEE ALSO:
  - generator.go: Applies adjustment policies against a Calendar
  - store.go: HolidayStore persistence interface
*/
package engine

import (
	"time"
)

// =============================================================================
// HOLIDAY - Immutable reference data
// =============================================================================

type Holiday struct {
	ID          HolidayID
	CountryCode string
	Regions     []string // empty = country-wide
	Date        Date
	LocalName   string
	Name        string
	IsFixed     bool // recurs on the same month/day every year
	IsGlobal    bool // applies regardless of the Regions list
	LaunchYear  int  // 0 = has always applied
	Types       []string
}

// AppliesTo reports whether the holiday makes the given date a
// non-business day for the requested country/region.
func (h Holiday) AppliesTo(d Date, countryCode, region string) bool {
	if h.CountryCode != countryCode {
		return false
	}
	if h.LaunchYear > 0 && d.Year() < h.LaunchYear {
		return false
	}
	if h.IsFixed {
		if h.Date.Month() != d.Month() || h.Date.Day() != d.Day() {
			return false
		}
	} else if !h.Date.Equal(d) {
		return false
	}
	if len(h.Regions) > 0 && !h.IsGlobal {
		for _, r := range h.Regions {
			if r == region {
				return true
			}
		}
		return false
	}
	return true
}

// =============================================================================
// CALENDAR - Business-day contract
// =============================================================================

// maxBusinessDaySearch bounds next/previous business day walks. Two
// years of consecutive non-business days means corrupt holiday data.
const maxBusinessDaySearch = 2 * 366

type Calendar interface {
	// IsBusinessDay reports whether the date is a working day in the
	// country (and region, when regional holidays exist). Returns
	// ErrUnknownCalendar when no holiday data is known for the country.
	IsBusinessDay(d Date, countryCode, region string) (bool, error)

	// NextBusinessDay returns the first business day strictly after d.
	NextBusinessDay(d Date, countryCode, region string) (Date, error)

	// PreviousBusinessDay returns the first business day strictly before d.
	PreviousBusinessDay(d Date, countryCode, region string) (Date, error)
}

// =============================================================================
// HOLIDAY CALENDAR - Calendar backed by holiday reference data
// =============================================================================

// HolidayCalendar implements Calendar over an in-memory holiday set,
// typically loaded from the HolidayStore. The weekend set is
// configurable per deployment; the default is Saturday/Sunday.
type HolidayCalendar struct {
	byCountry map[string][]Holiday
	weekend   map[time.Weekday]bool
}

type CalendarOption func(*HolidayCalendar)

// WithWeekend replaces the default Saturday/Sunday weekend set.
func WithWeekend(days ...time.Weekday) CalendarOption {
	return func(c *HolidayCalendar) {
		c.weekend = make(map[time.Weekday]bool)
		for _, d := range days {
			c.weekend[d] = true
		}
	}
}

func NewHolidayCalendar(holidays []Holiday, opts ...CalendarOption) *HolidayCalendar {
	c := &HolidayCalendar{
		byCountry: make(map[string][]Holiday),
		weekend: map[time.Weekday]bool{
			time.Saturday: true,
			time.Sunday:   true,
		},
	}
	for _, h := range holidays {
		c.byCountry[h.CountryCode] = append(c.byCountry[h.CountryCode], h)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HolidayCalendar) IsBusinessDay(d Date, countryCode, region string) (bool, error) {
	holidays, ok := c.byCountry[countryCode]
	if !ok {
		return false, &UnknownCalendarError{CountryCode: countryCode}
	}
	if c.weekend[d.Weekday()] {
		return false, nil
	}
	for _, h := range holidays {
		if h.AppliesTo(d, countryCode, region) {
			return false, nil
		}
	}
	return true, nil
}

func (c *HolidayCalendar) NextBusinessDay(d Date, countryCode, region string) (Date, error) {
	return c.walk(d, 1, countryCode, region)
}

func (c *HolidayCalendar) PreviousBusinessDay(d Date, countryCode, region string) (Date, error) {
	return c.walk(d, -1, countryCode, region)
}

func (c *HolidayCalendar) walk(d Date, step int, countryCode, region string) (Date, error) {
	cur := d
	for i := 0; i < maxBusinessDaySearch; i++ {
		cur = cur.AddDays(step)
		ok, err := c.IsBusinessDay(cur, countryCode, region)
		if err != nil {
			return Date{}, err
		}
		if ok {
			return cur, nil
		}
	}
	return Date{}, ErrNoBusinessDay
}

// =============================================================================
// WEEKEND CALENDAR - Degraded mode when holiday data is missing
// =============================================================================

// WeekendCalendar treats only Saturday/Sunday as non-business days and
// knows every country. It is the fallback when a HolidayCalendar returns
// ErrUnknownCalendar.
type WeekendCalendar struct{}

func (WeekendCalendar) IsBusinessDay(d Date, _, _ string) (bool, error) {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday, nil
}

func (WeekendCalendar) NextBusinessDay(d Date, _, _ string) (Date, error) {
	cur := d.AddDays(1)
	for wd := cur.Weekday(); wd == time.Saturday || wd == time.Sunday; wd = cur.Weekday() {
		cur = cur.AddDays(1)
	}
	return cur, nil
}

func (WeekendCalendar) PreviousBusinessDay(d Date, _, _ string) (Date, error) {
	cur := d.AddDays(-1)
	for wd := cur.Weekday(); wd == time.Saturday || wd == time.Sunday; wd = cur.Weekday() {
		cur = cur.AddDays(-1)
	}
	return cur, nil
}
