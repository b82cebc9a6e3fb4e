// Package reconcile resolves work-log entries to ledger projects and tasks,
// validates day files against the ledger catalog and uploads valid entries.
package reconcile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/hourbridge/internal/daydoc"
)

// EntryReport is the validation result of one document in a day file.
type EntryReport struct {
	Index       int
	Description string
	Duration    time.Duration
	Classification
}

// FileReport is the validation result of one day. ParseErr is set when the
// file could not be read as entries at all; the file is then left untouched
// and counts as a single error.
type FileReport struct {
	Day      string
	Found    bool
	Entries  []EntryReport
	ParseErr error
}

func (r *FileReport) Errors() int {
	if r.ParseErr != nil {
		return 1
	}
	n := 0
	for _, e := range r.Entries {
		if !e.Valid() {
			n++
		}
	}
	return n
}

type Engine struct {
	resolver *Resolver
	days     *daydoc.Store
	logger   *slog.Logger
}

func NewEngine(resolver *Resolver, days *daydoc.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{resolver: resolver, days: days, logger: logger}
}

// ValidateFile classifies every entry of the day and writes resolved ledger
// ids back into the day file. Only project_id and task_id of valid entries
// are touched. A day without a file has nothing to validate.
//
// The returned error is reserved for I/O failures; resolution problems and
// unreadable documents are reported through FileReport.
func (e *Engine) ValidateFile(day string) (*FileReport, error) {
	report := &FileReport{Day: day}

	found, err := e.days.Transform(day, false, func(d *daydoc.Document) error {
		c := e.resolver.Classify(&d.Entry)
		if c.Valid() {
			d.SetProjectID(c.ProjectID)
			d.SetTaskID(c.TaskID)
		} else {
			e.logger.Debug("entry not valid", "day", day, "entry", d.Index, "status", c.Status.String())
		}

		report.Entries = append(report.Entries, EntryReport{
			Index:          d.Index,
			Description:    d.Entry.Notes(),
			Duration:       d.Entry.Duration(),
			Classification: c,
		})
		return nil
	})
	report.Found = found

	var parseErr *daydoc.ParseError
	if errors.As(err, &parseErr) {
		e.logger.Warn("day file is not readable, left unchanged", "day", day, "error", parseErr)
		report.Entries = nil
		report.ParseErr = parseErr
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", day, err)
	}

	e.logger.Debug("validated day", "day", day, "entries", len(report.Entries), "errors", report.Errors())
	return report, nil
}
