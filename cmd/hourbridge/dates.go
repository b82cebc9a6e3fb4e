package main

import (
	"fmt"
	"time"

	"github.com/tj/go-naturaldate"

	"github.com/christopherklint97/hourbridge/internal/worklog"
)

// parseDay accepts a calendar date or a phrase like "yesterday" or
// "last monday", resolved against now.
func parseDay(s string, now time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation(worklog.DayLayout, s, now.Location()); err == nil {
		return t, nil
	}

	t, err := naturaldate.Parse(s, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
}

// dayRange parses the --start/--end pair. An empty end means the start day
// only.
func dayRange(start, end string, now time.Time) (time.Time, time.Time, []string, error) {
	s, err := parseDay(start, now)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	e := s
	if end != "" {
		if e, err = parseDay(end, now); err != nil {
			return time.Time{}, time.Time{}, nil, err
		}
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("end %s is before start %s",
			e.Format(worklog.DayLayout), s.Format(worklog.DayLayout))
	}
	return s, e, worklog.SelectedDays(s, e), nil
}
