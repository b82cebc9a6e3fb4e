// Package calendar reads an iCalendar feed as an alternative tracker source.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/hourbridge/internal/worklog"
)

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening calendar file: %w", err)
	}
	return f, nil
}

// Records reads events from a URL or file path and returns the ones that
// start on a day between start and end, inclusive. The summary becomes the
// description and the first category becomes the tracker project. Every
// record gets the given billable flag since calendars carry none.
func Records(ctx context.Context, source string, start, end time.Time, billable bool) ([]worklog.RawRecord, error) {
	r, err := open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	windowStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
	windowEnd := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)

	dec := ical.NewDecoder(r)
	var records []worklog.RawRecord

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			evStart, err := event.DateTimeStart(time.Local)
			if err != nil {
				continue // skip malformed events
			}
			evEnd, err := event.DateTimeEnd(time.Local)
			if err != nil || evEnd.Before(evStart) {
				continue
			}
			if evStart.Before(windowStart) || !evStart.Before(windowEnd) {
				continue
			}

			rec := worklog.RawRecord{
				IsBillable: billable,
				Start:      evStart,
				End:        evEnd,
			}
			if summary, _ := event.Props.Text(ical.PropSummary); summary != "" {
				rec.Description = worklog.StringPtr(summary)
			}
			if cats := categories(event); len(cats) > 0 {
				rec.Project = worklog.StringPtr(cats[0])
				rec.Tags = cats
			}
			records = append(records, rec)
		}
	}

	return records, nil
}

func categories(event ical.Event) []string {
	prop := event.Props.Get(ical.PropCategories)
	if prop == nil {
		return nil
	}
	var cats []string
	for _, c := range strings.Split(prop.Value, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	return cats
}
