package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadFile reads the multi-document catalog cache written by SaveFile.
func LoadFile(path string) ([]Project, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("ledger cache %s not found, refresh it with 'hourbridge ledger-cache': %w", path, err)
		}
		return nil, fmt.Errorf("opening ledger cache: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

func Decode(r io.Reader) ([]Project, error) {
	dec := yaml.NewDecoder(r)
	var projects []Project
	for {
		var p Project
		err := dec.Decode(&p)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing ledger cache document %d: %w", len(projects), err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Sort orders projects active first, then by name.
func Sort(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Active != projects[j].Active {
			return projects[i].Active
		}
		return projects[i].Name < projects[j].Name
	})
}

// SaveFile writes projects as a multi-document YAML stream. The file is
// replaced atomically so a failed refresh never leaves a truncated cache.
func SaveFile(path string, projects []Project) error {
	sorted := make([]Project, len(projects))
	copy(sorted, projects)
	Sort(sorted)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, p := range sorted {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encoding project %d: %w", p.ID, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding ledger cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := writeSynced(tmp, buf.Bytes()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing temp ledger cache: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming ledger cache: %w", err)
	}

	return nil
}

// writeSynced writes data to path and flushes it to disk before returning.
func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
