package reconcile

import (
	"github.com/christopherklint97/hourbridge/internal/worklog"
)

type Status int

const (
	StatusValid Status = iota
	StatusMissingProject
	StatusMissingTask
	StatusInvalidProject
	StatusInvalidTask
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusMissingProject:
		return "missing project"
	case StatusMissingTask:
		return "missing task"
	case StatusInvalidProject:
		return "invalid project"
	case StatusInvalidTask:
		return "invalid task"
	default:
		return "unknown"
	}
}

// Err returns the error matching the status, or nil for StatusValid.
func (s Status) Err() error {
	switch s {
	case StatusMissingProject:
		return ErrMissingLedgerProject
	case StatusMissingTask:
		return ErrMissingLedgerTask
	case StatusInvalidProject:
		return ErrInvalidLedgerProject
	case StatusInvalidTask:
		return ErrInvalidLedgerTask
	default:
		return nil
	}
}

// Classification is the outcome of resolving and checking one entry. The ids
// are only meaningful as far as resolution got.
type Classification struct {
	Status    Status
	ProjectID int64
	TaskID    int64
}

func (c Classification) Valid() bool {
	return c.Status == StatusValid
}

// Classify resolves e against the mapping and checks the result against the
// catalog. The project is checked before the task is resolved so a stale
// project id is reported as such rather than as a missing task.
func (r *Resolver) Classify(e *worklog.Entry) Classification {
	var c Classification

	projectID, err := r.ResolveProject(e)
	if err != nil {
		c.Status = StatusMissingProject
		return c
	}
	c.ProjectID = projectID

	if !r.catalog.ProjectKnown(projectID) {
		c.Status = StatusInvalidProject
		return c
	}

	taskID, err := r.ResolveTask(e, projectID)
	if err != nil {
		c.Status = StatusMissingTask
		return c
	}
	c.TaskID = taskID

	if !r.catalog.TaskBelongsToProject(projectID, taskID) {
		c.Status = StatusInvalidTask
		return c
	}

	c.Status = StatusValid
	return c
}
