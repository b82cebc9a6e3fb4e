// Package mapping loads the static project mapping that ties short project
// codes to ledger projects and tasks.
package mapping

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type LedgerTarget struct {
	Project     int64  `yaml:"project"`
	DefaultTask string `yaml:"default_task"`
}

// Project is the mapping for a single project code. TaskMapping maps a
// tracker task name to a ledger task name.
type Project struct {
	Ledger      LedgerTarget      `yaml:"ledger"`
	TaskMapping map[string]string `yaml:"task_mapping"`
}

// Mapping is immutable once built.
type Mapping struct {
	projects map[string]Project
	codes    []string
	pattern  *regexp.Regexp
}

func New(projects map[string]Project) *Mapping {
	m := &Mapping{projects: make(map[string]Project, len(projects))}
	for code, p := range projects {
		m.projects[code] = p
		m.codes = append(m.codes, code)
	}
	sort.Strings(m.codes)

	if len(m.codes) == 0 {
		return m
	}

	// Longer codes go first so that "AB" never wins over "ABC" at the same
	// position.
	alternatives := make([]string, len(m.codes))
	copy(alternatives, m.codes)
	sort.SliceStable(alternatives, func(i, j int) bool {
		return len(alternatives[i]) > len(alternatives[j])
	})
	for i, code := range alternatives {
		alternatives[i] = regexp.QuoteMeta(code)
	}
	m.pattern = regexp.MustCompile(`\b(` + strings.Join(alternatives, "|") + `)(?:-\d+)?\b`)

	return m
}

func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project mapping: %w", err)
	}

	projects := make(map[string]Project)
	if err := yaml.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("parsing project mapping %s: %w", path, err)
	}

	return New(projects), nil
}

func (m *Mapping) Len() int {
	return len(m.codes)
}

func (m *Mapping) Project(code string) (Project, bool) {
	p, ok := m.projects[code]
	return p, ok
}

// ForLedgerProject merges every code that targets the given ledger project
// id. Codes are visited in order: the first non-empty default task and the
// first override of each tracker task win.
func (m *Mapping) ForLedgerProject(id int64) (Project, bool) {
	merged := Project{Ledger: LedgerTarget{Project: id}, TaskMapping: map[string]string{}}
	found := false
	for _, code := range m.codes {
		p := m.projects[code]
		if p.Ledger.Project != id {
			continue
		}
		found = true
		if merged.Ledger.DefaultTask == "" {
			merged.Ledger.DefaultTask = p.Ledger.DefaultTask
		}
		for tracker, ledger := range p.TaskMapping {
			if _, ok := merged.TaskMapping[tracker]; !ok && ledger != "" {
				merged.TaskMapping[tracker] = ledger
			}
		}
	}
	if !found {
		return Project{}, false
	}
	return merged, true
}

// ProjectInDescription returns the leftmost project code that appears in
// description as a whole token, optionally followed by a dash and a number
// (e.g. "TEST" or "TEST-123").
func (m *Mapping) ProjectInDescription(description *string) (string, bool) {
	if m.pattern == nil || description == nil {
		return "", false
	}
	match := m.pattern.FindStringSubmatch(*description)
	if match == nil {
		return "", false
	}
	return match[1], true
}
