package reconcile

import (
	"errors"

	"github.com/christopherklint97/hourbridge/internal/catalog"
	"github.com/christopherklint97/hourbridge/internal/mapping"
	"github.com/christopherklint97/hourbridge/internal/worklog"
)

var (
	// ErrMissingLedgerProject means no ledger project could be determined.
	ErrMissingLedgerProject = errors.New("ledger project missing")
	// ErrMissingLedgerTask means no ledger task could be determined.
	ErrMissingLedgerTask = errors.New("ledger task missing")
	// ErrInvalidLedgerProject means the project id is set but not in the catalog.
	ErrInvalidLedgerProject = errors.New("ledger project not in catalog")
	// ErrInvalidLedgerTask means the task id does not belong to the project.
	ErrInvalidLedgerTask = errors.New("ledger task not in project")
)

// Resolver turns tracker-side codes and descriptions into ledger ids. Values
// already present on an entry always win.
type Resolver struct {
	mapping *mapping.Mapping
	catalog *catalog.Catalog
}

func NewResolver(m *mapping.Mapping, c *catalog.Catalog) *Resolver {
	return &Resolver{mapping: m, catalog: c}
}

func (r *Resolver) ResolveProject(e *worklog.Entry) (int64, error) {
	if e.Ledger.ProjectID != nil {
		return *e.Ledger.ProjectID, nil
	}

	if p, ok := r.codedProject(e); ok {
		return p.Ledger.Project, nil
	}
	return 0, ErrMissingLedgerProject
}

// codedProject returns the mapping of the entry's project code, or else of
// the first code found in its description.
func (r *Resolver) codedProject(e *worklog.Entry) (mapping.Project, bool) {
	if e.ProjectCode != nil {
		if p, ok := r.mapping.Project(*e.ProjectCode); ok {
			return p, true
		}
	}
	if code, ok := r.mapping.ProjectInDescription(e.Description); ok {
		return r.mapping.Project(code)
	}
	return mapping.Project{}, false
}

func (r *Resolver) ResolveTask(e *worklog.Entry, projectID int64) (int64, error) {
	if e.Ledger.TaskID != nil {
		return *e.Ledger.TaskID, nil
	}

	name := r.taskName(e, projectID)
	if name == "" {
		return 0, ErrMissingLedgerTask
	}

	id, ok := r.catalog.TaskIDByName(projectID, name)
	if !ok {
		return 0, ErrMissingLedgerTask
	}
	return id, nil
}

// taskName picks the explicit task name, then a tracker task override, then
// a default task. The code that named projectID on the entry is asked first;
// every other code targeting projectID fills in what it leaves open.
func (r *Resolver) taskName(e *worklog.Entry, projectID int64) string {
	if e.Ledger.TaskName != nil && *e.Ledger.TaskName != "" {
		return *e.Ledger.TaskName
	}

	var candidates []mapping.Project
	if p, ok := r.codedProject(e); ok && p.Ledger.Project == projectID {
		candidates = append(candidates, p)
	}
	if p, ok := r.mapping.ForLedgerProject(projectID); ok {
		candidates = append(candidates, p)
	}

	if e.Tracker.Task != nil {
		for _, p := range candidates {
			if name := p.TaskMapping[*e.Tracker.Task]; name != "" {
				return name
			}
		}
	}
	for _, p := range candidates {
		if p.Ledger.DefaultTask != "" {
			return p.Ledger.DefaultTask
		}
	}
	return ""
}
