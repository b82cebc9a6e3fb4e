package worklog

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Timestamp is a point in time that keeps its UTC offset when written to a
// day document.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return Timestamp{Time: t}, nil
}

func (t Timestamp) String() string {
	return t.Format(time.RFC3339)
}

func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timestamp must be a scalar", value.Line)
	}
	parsed, err := ParseTimestamp(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = parsed
	return nil
}

type Interval struct {
	Start Timestamp `yaml:"s"`
	End   Timestamp `yaml:"e"`
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: NewTimestamp(start), End: NewTimestamp(end)}
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start.Time)
}

func (i Interval) Valid() bool {
	return !i.End.Before(i.Start.Time)
}

// TrackerData is the tracker-side classification an entry was collapsed on.
// It is never changed after the entry is created.
type TrackerData struct {
	Client   *string `yaml:"client"`
	Project  *string `yaml:"project"`
	Task     *string `yaml:"task"`
	Billable *bool   `yaml:"billable"`
}

// LedgerData links an entry to a ledger project and task. UploadedAt is only
// set after the ledger confirmed a submission.
type LedgerData struct {
	ProjectID  *int64     `yaml:"project_id"`
	TaskName   *string    `yaml:"task_name"`
	TaskID     *int64     `yaml:"task_id"`
	UploadedAt *Timestamp `yaml:"uploaded_at"`
}

type Entry struct {
	ProjectCode *string     `yaml:"project_code"`
	Description *string     `yaml:"description"`
	IsBillable  bool        `yaml:"is_billable"`
	TimeEntries []Interval  `yaml:"time_entries"`
	Tracker     TrackerData `yaml:"tracker"`
	Ledger      LedgerData  `yaml:"ledger"`
}

// Duration sums every interval. Overlapping intervals are added, not merged.
func (e *Entry) Duration() time.Duration {
	return TotalDuration(e.TimeEntries)
}

func (e *Entry) Uploaded() bool {
	return e.Ledger.UploadedAt != nil
}

// Notes is the text sent to the ledger with the entry.
func (e *Entry) Notes() string {
	if e.Description == nil {
		return ""
	}
	return *e.Description
}

// RawRecord is a single interval as reported by a tracker source.
type RawRecord struct {
	Client      *string
	Project     *string
	Task        *string
	Description *string
	IsBillable  bool
	Start       time.Time
	End         time.Time
	Tags        []string
}

func StringPtr(s string) *string {
	return &s
}

func Int64Ptr(v int64) *int64 {
	return &v
}

func BoolPtr(v bool) *bool {
	return &v
}
