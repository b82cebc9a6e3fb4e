// Package catalog indexes a snapshot of the ledger's projects and tasks.
//
// A Catalog is built once from a list of projects and never updated in
// place; refreshing the snapshot means building a new Catalog.
package catalog

type Client struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type Task struct {
	Name       string `yaml:"name"`
	LinkActive *bool  `yaml:"link_active,omitempty"`
}

// Project is one document of the catalog cache file.
type Project struct {
	ID     int64          `yaml:"id"`
	Name   string         `yaml:"name"`
	Active bool           `yaml:"active"`
	Client Client         `yaml:"client"`
	Code   *string        `yaml:"code"`
	Tasks  map[int64]Task `yaml:"tasks"`
}

type Catalog struct {
	tasksByName map[int64]map[string]int64
	taskIDs     map[int64]map[int64]struct{}
}

func New(projects []Project) *Catalog {
	c := &Catalog{
		tasksByName: make(map[int64]map[string]int64, len(projects)),
		taskIDs:     make(map[int64]map[int64]struct{}, len(projects)),
	}

	for _, p := range projects {
		byName := make(map[string]int64, len(p.Tasks))
		ids := make(map[int64]struct{}, len(p.Tasks))
		for id, task := range p.Tasks {
			byName[task.Name] = id
			ids[id] = struct{}{}
		}
		c.tasksByName[p.ID] = byName
		c.taskIDs[p.ID] = ids
	}

	return c
}

func (c *Catalog) TaskIDByName(projectID int64, name string) (int64, bool) {
	id, ok := c.tasksByName[projectID][name]
	return id, ok
}

func (c *Catalog) ProjectKnown(projectID int64) bool {
	_, ok := c.tasksByName[projectID]
	return ok
}

func (c *Catalog) TaskBelongsToProject(projectID, taskID int64) bool {
	_, ok := c.taskIDs[projectID][taskID]
	return ok
}

func (c *Catalog) Len() int {
	return len(c.tasksByName)
}
