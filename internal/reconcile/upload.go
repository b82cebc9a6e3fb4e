package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/christopherklint97/hourbridge/internal/daydoc"
	"github.com/christopherklint97/hourbridge/internal/worklog"
)

// Submission is a single time entry sent to the ledger.
type Submission struct {
	ProjectID int64
	TaskID    int64
	SpentDate string
	Hours     float64
	Notes     string
}

type Submitter interface {
	Submit(ctx context.Context, s Submission) error
}

type SubmitFunc func(ctx context.Context, s Submission) error

func (f SubmitFunc) Submit(ctx context.Context, s Submission) error {
	return f(ctx, s)
}

// Recorder keeps a history of upload outcomes next to the day files.
type Recorder interface {
	RecordOutcome(runID, day string, o Outcome) error
}

type UploadStatus int

const (
	UploadDone UploadStatus = iota
	UploadSkippedInvalid
	UploadSkippedNotBillable
	UploadSkippedAlreadyUploaded
	UploadFailed
)

func (s UploadStatus) String() string {
	switch s {
	case UploadDone:
		return "uploaded"
	case UploadSkippedInvalid:
		return "entry invalid, skipping"
	case UploadSkippedNotBillable:
		return "not billable, skipping"
	case UploadSkippedAlreadyUploaded:
		return "already uploaded, skipping"
	case UploadFailed:
		return "error uploading, skipping"
	default:
		return "unknown"
	}
}

type Outcome struct {
	Index          int
	Status         UploadStatus
	Classification Classification
	Hours          float64
	Notes          string
	Err            error
}

type UploadReport struct {
	RunID    string
	Day      string
	Found    bool
	Outcomes []Outcome
}

func (r *UploadReport) Count(status UploadStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Gate decides which entries of a day go to the ledger and marks the ones
// that made it. An entry is only submitted when it is valid, billable and
// not uploaded before, so running a day twice never submits twice.
type Gate struct {
	resolver  *Resolver
	days      *daydoc.Store
	submitter Submitter
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewGate returns a Gate. recorder may be nil.
func NewGate(resolver *Resolver, days *daydoc.Store, submitter Submitter, recorder Recorder, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gate{
		resolver:  resolver,
		days:      days,
		submitter: submitter,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// UploadDay submits the eligible entries of day and rewrites the day file
// with the ids it resolved and the upload marks it set. A day file that
// cannot be read as entries is left untouched and returned as a
// *daydoc.ParseError before anything is submitted.
//
// The upload marks reach the day file in one rewrite after the last
// submission. If that rewrite fails, or the process dies before it, the
// submitted entries stay unmarked and the next run submits them again. Each
// outcome is handed to the recorder as soon as it is known, so the journal
// still shows which entries went out.
func (g *Gate) UploadDay(ctx context.Context, day string) (*UploadReport, error) {
	report := &UploadReport{RunID: uuid.NewString(), Day: day}

	found, err := g.days.Transform(day, true, func(d *daydoc.Document) error {
		o := g.uploadEntry(ctx, day, d)
		report.Outcomes = append(report.Outcomes, o)

		if g.recorder != nil {
			if err := g.recorder.RecordOutcome(report.RunID, day, o); err != nil {
				g.logger.Warn("recording upload outcome", "day", day, "entry", d.Index, "error", err)
			}
		}
		return nil
	})
	report.Found = found
	if err != nil {
		if n := report.Count(UploadDone); n > 0 {
			g.logger.Error("entries submitted but day file not updated", "day", day, "run", report.RunID, "submitted", n, "error", err)
		}
		return report, fmt.Errorf("uploading %s: %w", day, err)
	}

	g.logger.Info("uploaded day", "day", day, "run", report.RunID,
		"uploaded", report.Count(UploadDone), "failed", report.Count(UploadFailed))
	return report, nil
}

func (g *Gate) uploadEntry(ctx context.Context, day string, d *daydoc.Document) Outcome {
	entry := &d.Entry
	o := Outcome{
		Index: d.Index,
		Hours: worklog.Hours(entry.Duration()),
		Notes: entry.Notes(),
	}

	o.Classification = g.resolver.Classify(entry)
	if !o.Classification.Valid() {
		o.Status = UploadSkippedInvalid
		o.Err = o.Classification.Status.Err()
		return o
	}
	d.SetProjectID(o.Classification.ProjectID)
	d.SetTaskID(o.Classification.TaskID)

	if !entry.IsBillable {
		o.Status = UploadSkippedNotBillable
		return o
	}
	if entry.Uploaded() {
		o.Status = UploadSkippedAlreadyUploaded
		return o
	}

	err := g.submitter.Submit(ctx, Submission{
		ProjectID: o.Classification.ProjectID,
		TaskID:    o.Classification.TaskID,
		SpentDate: day,
		Hours:     o.Hours,
		Notes:     o.Notes,
	})
	if err != nil {
		g.logger.Error("ledger submission failed", "day", day, "entry", d.Index, "error", err)
		o.Status = UploadFailed
		o.Err = err
		return o
	}

	d.SetUploadedAt(worklog.NewTimestamp(g.now().Truncate(time.Second)))
	o.Status = UploadDone
	return o
}
