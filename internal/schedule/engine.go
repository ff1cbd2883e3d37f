// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

// Package schedule decides what the frame shows at any moment: the
// slideshow, a clock face, or a black screen. Each day is covered by a
// contiguous event list chosen per date (explicit date overrides, then
// weekend/holiday, then weekday), and a manual override can force a mode
// until the schedule would naturally change away from it.
package schedule

import (
	"sync"
	"time"

	"github.com/photoloop/photoloop/internal/config"
	"github.com/photoloop/photoloop/internal/logging"
)

// Mode is what the display should render.
type Mode string

// Display modes.
const (
	ModeSlideshow Mode = "slideshow"
	ModeClock     Mode = "clock"
	ModeBlack     Mode = "black"
)

// maxOverrideScan bounds the search for an override's natural expiry.
const maxOverrideScan = 7 * 24 * time.Hour

// event is a parsed schedule span: [start, end) in minutes since
// midnight, end 1440 meaning end of day.
type event struct {
	start, end int
	mode       Mode
}

// Engine evaluates the schedule. All methods take the evaluation time
// explicitly so tests and the orchestrator share one clock.
type Engine struct {
	mu       sync.Mutex
	enabled  bool
	weekday  []event
	weekend  []event
	dates    map[string][]event
	holidays *holidayCalendar
	override *override
}

type override struct {
	mode    Mode
	expires time.Time
}

// NewEngine parses the schedule configuration. Call after Validate; a
// malformed event slips through as a skipped span.
func NewEngine(cfg config.ScheduleConfig) *Engine {
	e := &Engine{
		enabled: cfg.Enabled,
		weekday: parseEvents(cfg.Weekday),
		weekend: parseEvents(cfg.Weekend),
		dates:   make(map[string][]event, len(cfg.Dates)),
	}
	for day, events := range cfg.Dates {
		e.dates[day] = parseEvents(events)
	}
	if cfg.HolidaysUseWeekend && len(cfg.HolidayCountries) > 0 {
		e.holidays = newHolidayCalendar(cfg.HolidayCountries)
	}
	return e
}

// Reload swaps in a new schedule configuration, keeping any active
// override.
func (e *Engine) Reload(cfg config.ScheduleConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = cfg.Enabled
	e.weekday = parseEvents(cfg.Weekday)
	e.weekend = parseEvents(cfg.Weekend)
	e.dates = make(map[string][]event, len(cfg.Dates))
	for day, events := range cfg.Dates {
		e.dates[day] = parseEvents(events)
	}
	e.holidays = nil
	if cfg.HolidaysUseWeekend && len(cfg.HolidayCountries) > 0 {
		e.holidays = newHolidayCalendar(cfg.HolidayCountries)
	}
}

func parseEvents(events []config.EventConfig) []event {
	parsed := make([]event, 0, len(events))
	for _, ev := range events {
		start, err := config.ParseClock(ev.Start, false)
		if err != nil {
			logging.Warn().Str("start", ev.Start).Err(err).Msg("skipping unparseable schedule event")
			continue
		}
		end, err := config.ParseClock(ev.End, true)
		if err != nil {
			logging.Warn().Str("end", ev.End).Err(err).Msg("skipping unparseable schedule event")
			continue
		}
		parsed = append(parsed, event{start: start, end: end, mode: Mode(ev.Mode)})
	}
	return parsed
}

// Mode returns the display mode for the given moment, honoring any
// active override. A lapsed override is cleared as a side effect.
func (e *Engine) Mode(now time.Time) Mode {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.override != nil {
		if now.Before(e.override.expires) {
			return e.override.mode
		}
		e.override = nil
	}
	return e.scheduledMode(now)
}

// scheduledMode evaluates the plain schedule. Lock must be held.
func (e *Engine) scheduledMode(now time.Time) Mode {
	if !e.enabled {
		return ModeSlideshow
	}
	minutes := now.Hour()*60 + now.Minute()
	for _, ev := range e.eventsFor(now) {
		if minutes >= ev.start && minutes < ev.end {
			return ev.mode
		}
	}
	// Uncovered time exists only in malformed configs; going dark is the
	// safe answer.
	return ModeBlack
}

// eventsFor picks the event list governing a calendar day: an exact date
// entry, then a recurring month-day entry, then the weekend list on
// weekends and treated holidays, then the weekday list.
func (e *Engine) eventsFor(day time.Time) []event {
	if events, ok := e.dates[day.Format("2006-01-02")]; ok {
		return events
	}
	if events, ok := e.dates[day.Format("01-02")]; ok {
		return events
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return e.weekend
	}
	if e.holidays != nil && e.holidays.isHoliday(day) {
		return e.weekend
	}
	return e.weekday
}

// Override forces a display mode starting now. It expires at the next
// schedule transition into a different mode, so "force slideshow" in the
// evening lapses at the normal nighttime cutoff rather than lasting
// forever. The scan is capped at seven days for schedules that never
// leave the forced mode.
func (e *Engine) Override(mode Mode, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	expires, _ := e.nextModeChange(now, mode)
	e.override = &override{mode: mode, expires: expires}
	logging.Info().Str("mode", string(mode)).Time("expires", expires).Msg("display mode override set")
}

// ClearOverride returns control to the schedule immediately.
func (e *Engine) ClearOverride() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.override = nil
}

// OverrideActive reports whether an override currently governs.
func (e *Engine) OverrideActive(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.override != nil && now.Before(e.override.expires)
}

// CurrentOverride returns the active override's mode and expiry. ok is
// false when the schedule is in control.
func (e *Engine) CurrentOverride(now time.Time) (Mode, time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.override == nil || !now.Before(e.override.expires) {
		return "", time.Time{}, false
	}
	return e.override.mode, e.override.expires, true
}

// nextModeChange finds the first event-start after now whose mode
// differs from the given mode, returning the boundary and the mode it
// switches to. Lock must be held.
func (e *Engine) nextModeChange(now time.Time, from Mode) (time.Time, Mode) {
	deadline := now.Add(maxOverrideScan)
	if !e.enabled {
		return deadline, from
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for !day.After(deadline) {
		for _, ev := range e.eventsFor(day) {
			start := day.Add(time.Duration(ev.start) * time.Minute)
			if !start.After(now) || ev.mode == from {
				continue
			}
			if start.After(deadline) {
				return deadline, from
			}
			return start, ev.mode
		}
		day = day.AddDate(0, 0, 1)
	}
	return deadline, from
}

// NextTransition returns when the effective mode next changes and what
// it changes to: the override expiry if one is active, otherwise the
// next event boundary with a different mode. ok is false when nothing
// changes within the scan window.
func (e *Engine) NextTransition(now time.Time) (time.Time, Mode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.override != nil && now.Before(e.override.expires) {
		return e.override.expires, e.scheduledMode(e.override.expires), true
	}
	if !e.enabled {
		return time.Time{}, "", false
	}
	next, mode := e.nextModeChange(now, e.scheduledMode(now))
	if next.Equal(now.Add(maxOverrideScan)) {
		return time.Time{}, "", false
	}
	return next, mode, true
}
