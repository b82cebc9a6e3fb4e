package toggl

import (
	"time"

	"github.com/christopherklint97/hourbridge/internal/worklog"
)

type Credentials struct {
	APIToken    string
	WorkspaceID string
	UserAgent   string
}

// ReportEntry is one row of the detailed report.
type ReportEntry struct {
	ID          int64     `json:"id"`
	Client      *string   `json:"client"`
	Project     *string   `json:"project"`
	Task        *string   `json:"task"`
	Description *string   `json:"description"`
	IsBillable  bool      `json:"is_billable"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Tags        []string  `json:"tags"`
}

type detailsPage struct {
	TotalCount int           `json:"total_count"`
	PerPage    int           `json:"per_page"`
	Data       []ReportEntry `json:"data"`
}

func (e ReportEntry) Record() worklog.RawRecord {
	return worklog.RawRecord{
		Client:      e.Client,
		Project:     e.Project,
		Task:        e.Task,
		Description: e.Description,
		IsBillable:  e.IsBillable,
		Start:       e.Start,
		End:         e.End,
		Tags:        e.Tags,
	}
}
