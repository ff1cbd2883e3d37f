// PhotoLoop - Digital Photo Frame Engine
// Copyright 2026 PhotoLoop Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/photoloop/photoloop

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// supportedHolidayCountries is the set the schedule engine can compute
// holidays for.
var supportedHolidayCountries = map[string]bool{
	"US": true,
	"CA": true,
	"GB": true,
	"DE": true,
}

// Validate checks that the configuration is complete and in range.
// Violations are policy-validation errors surfaced to the caller of
// Load(); nothing else in the process sees an invalid config.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	return c.validateAnimation()
}

// validateSources checks per-type required fields and name uniqueness.
func (c *Config) validateSources() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate source name %q", i, s.Name)
		}
		seen[s.Name] = true

		switch s.Type {
		case "remote_album":
			if s.URL == "" {
				return fmt.Errorf("sources[%d] (%s): url is required for remote_album sources", i, s.Name)
			}
			if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
				return fmt.Errorf("sources[%d] (%s): url must be http(s)", i, s.Name)
			}
		case "local":
			if s.Path == "" {
				return fmt.Errorf("sources[%d] (%s): path is required for local sources", i, s.Name)
			}
		}
	}
	return nil
}

// validateSchedule parses every event list and checks day coverage.
func (c *Config) validateSchedule() error {
	for _, country := range c.Schedule.HolidayCountries {
		if !supportedHolidayCountries[strings.ToUpper(country)] {
			return fmt.Errorf("schedule: unsupported holiday country %q", country)
		}
	}

	if !c.Schedule.Enabled {
		return nil
	}
	if err := validateEventList("weekday", c.Schedule.Weekday); err != nil {
		return err
	}
	if err := validateEventList("weekend", c.Schedule.Weekend); err != nil {
		return err
	}
	for day, events := range c.Schedule.Dates {
		if err := validateEventList("dates."+day, events); err != nil {
			return err
		}
	}
	return nil
}

// validateEventList checks that events parse, do not overlap, and cover
// [00:00, 24:00).
func validateEventList(name string, events []EventConfig) error {
	if len(events) == 0 {
		return fmt.Errorf("schedule.%s: at least one event is required", name)
	}

	type span struct{ start, end int }
	spans := make([]span, 0, len(events))
	for i, e := range events {
		start, err := ParseClock(e.Start, false)
		if err != nil {
			return fmt.Errorf("schedule.%s[%d]: start: %w", name, i, err)
		}
		end, err := ParseClock(e.End, true)
		if err != nil {
			return fmt.Errorf("schedule.%s[%d]: end: %w", name, i, err)
		}
		if end <= start {
			return fmt.Errorf("schedule.%s[%d]: end %q not after start %q (overnight events must be split at midnight)", name, i, e.End, e.Start)
		}
		spans = append(spans, span{start, end})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	if spans[0].start != 0 {
		return fmt.Errorf("schedule.%s: day must start at 00:00", name)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].start != spans[i-1].end {
			return fmt.Errorf("schedule.%s: gap or overlap at %s", name, FormatClock(spans[i].start))
		}
	}
	if spans[len(spans)-1].end != 24*60 {
		return fmt.Errorf("schedule.%s: day must end at 24:00", name)
	}
	return nil
}

// validateAnimation checks the zoom range orientation.
func (c *Config) validateAnimation() error {
	if c.Animation.ZoomMax < c.Animation.ZoomMin {
		return fmt.Errorf("animation: zoom_max %.2f below zoom_min %.2f", c.Animation.ZoomMax, c.Animation.ZoomMin)
	}
	return nil
}

// ParseClock parses "HH:MM" into minutes since midnight. "24:00" is
// accepted as end-of-day when allowEOD is set.
func ParseClock(s string, allowEOD bool) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	if allowEOD && h == 24 && m == 0 {
		return 24 * 60, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
