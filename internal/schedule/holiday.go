// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package schedule

import (
	"strings"
	"time"
)

// holidayCalendar answers "is this a public holiday" for a set of
// countries, computing each year's dates on first use. Nationwide
// holidays only; regional ones are out.
type holidayCalendar struct {
	countries []string
	years     map[int]map[string]bool // year -> "01-02" day set
}

func newHolidayCalendar(countries []string) *holidayCalendar {
	normalized := make([]string, 0, len(countries))
	for _, c := range countries {
		normalized = append(normalized, strings.ToUpper(c))
	}
	return &holidayCalendar{
		countries: normalized,
		years:     make(map[int]map[string]bool),
	}
}

// isHoliday reports whether the day is a holiday in any configured
// country. Callers serialize access (the engine holds its lock).
func (h *holidayCalendar) isHoliday(day time.Time) bool {
	year := day.Year()
	days, ok := h.years[year]
	if !ok {
		days = h.computeYear(year)
		h.years[year] = days
	}
	return days[day.Format("01-02")]
}

func (h *holidayCalendar) computeYear(year int) map[string]bool {
	days := make(map[string]bool)
	add := func(t time.Time) { days[t.Format("01-02")] = true }
	date := func(month time.Month, d int) time.Time {
		return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	}
	easter := easterSunday(year)

	for _, country := range h.countries {
		switch country {
		case "US":
			add(date(time.January, 1))
			add(nthWeekday(year, time.January, time.Monday, 3))  // MLK Day
			add(nthWeekday(year, time.February, time.Monday, 3)) // Presidents' Day
			add(lastWeekday(year, time.May, time.Monday))        // Memorial Day
			add(date(time.June, 19))
			add(date(time.July, 4))
			add(nthWeekday(year, time.September, time.Monday, 1))  // Labor Day
			add(nthWeekday(year, time.November, time.Thursday, 4)) // Thanksgiving
			add(date(time.December, 25))

		case "CA":
			add(date(time.January, 1))
			add(easter.AddDate(0, 0, -2)) // Good Friday
			add(mondayBefore(date(time.May, 25)))
			add(date(time.July, 1))
			add(nthWeekday(year, time.September, time.Monday, 1)) // Labour Day
			add(nthWeekday(year, time.October, time.Monday, 2))   // Thanksgiving
			add(date(time.December, 25))
			add(date(time.December, 26))

		case "GB":
			add(date(time.January, 1))
			add(easter.AddDate(0, 0, -2)) // Good Friday
			add(easter.AddDate(0, 0, 1))  // Easter Monday
			add(nthWeekday(year, time.May, time.Monday, 1))
			add(lastWeekday(year, time.May, time.Monday))
			add(lastWeekday(year, time.August, time.Monday))
			add(date(time.December, 25))
			add(date(time.December, 26))

		case "DE":
			add(date(time.January, 1))
			add(easter.AddDate(0, 0, -2)) // Karfreitag
			add(easter.AddDate(0, 0, 1))  // Ostermontag
			add(date(time.May, 1))
			add(easter.AddDate(0, 0, 39)) // Christi Himmelfahrt
			add(easter.AddDate(0, 0, 50)) // Pfingstmontag
			add(date(time.October, 3))
			add(date(time.December, 25))
			add(date(time.December, 26))
		}
	}
	return days
}

// nthWeekday returns the nth occurrence of a weekday in a month.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the final occurrence of a weekday in a month.
func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(t.Weekday()) - int(wd) + 7) % 7
	return t.AddDate(0, 0, -offset)
}

// mondayBefore returns the Monday strictly before the given date.
func mondayBefore(t time.Time) time.Time {
	offset := (int(t.Weekday()) - int(time.Monday) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return t.AddDate(0, 0, -offset)
}

// easterSunday computes Gregorian Easter via the anonymous computus.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
