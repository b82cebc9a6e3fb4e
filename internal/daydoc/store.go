package daydoc

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/christopherklint97/hourbridge/internal/worklog"
)

const Ext = ".yml"

type Store struct {
	dir    string
	logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: dir, logger: logger}
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns <dir>/<YYYY-MM-DD>.yml for day.
func (s *Store) Path(day string) string {
	return filepath.Join(s.dir, day+Ext)
}

func (s *Store) Exists(day string) bool {
	info, err := os.Stat(s.Path(day))
	return err == nil && info.Mode().IsRegular()
}

// Read loads the entries of a day without modifying the file. Returns nil,
// nil if the day has no file.
func (s *Store) Read(day string) ([]worklog.Entry, error) {
	path := s.Path(day)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening day file: %w", err)
	}
	defer f.Close()

	docs, err := Decode(path, f)
	if err != nil {
		return nil, err
	}

	entries := make([]worklog.Entry, len(docs))
	for i, d := range docs {
		entries[i] = d.Entry
	}
	return entries, nil
}

// Transform runs fn over every document of the day file and rewrites the
// file atomically. Every document is parsed before fn sees any of them, so a
// broken file never gets partially processed. The file is replaced only when
// a document changed or always is set; otherwise it is left byte-for-byte
// as it was.
//
// found is false when the day has no file; fn is not called in that case.
func (s *Store) Transform(day string, always bool, fn func(*Document) error) (found bool, err error) {
	path := s.Path(day)
	if !s.Exists(day) {
		return false, nil
	}

	u, err := OpenUpdate(path)
	if err != nil {
		return true, err
	}
	defer u.Close()

	docs, err := Decode(path, u.Input())
	if err != nil {
		return true, err
	}

	changed := false
	for _, d := range docs {
		if err := fn(d); err != nil {
			return true, err
		}
		changed = changed || d.Changed()
	}

	if !changed && !always {
		s.logger.Debug("day file unchanged", "day", day, "documents", len(docs))
		return true, nil
	}

	if err := Encode(u.Output(), docs); err != nil {
		return true, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := u.Commit(); err != nil {
		return true, err
	}

	s.logger.Debug("day file rewritten", "day", day, "documents", len(docs), "changed", changed)
	return true, nil
}

// WriteResult lists which days got a new file and which were left alone
// because a file already existed.
type WriteResult struct {
	Written []string
	Skipped []string
}

// WriteDays creates a file for every day that does not have one yet. An
// existing day file may hold manual edits, so new data for it is dropped.
func (s *Store) WriteDays(days map[string][]worklog.Entry) (*WriteResult, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	result := &WriteResult{}
	for _, day := range worklog.SortedDays(days) {
		if s.Exists(day) {
			s.logger.Warn("day file exists, skipping", "day", day, "path", s.Path(day))
			result.Skipped = append(result.Skipped, day)
			continue
		}

		var buf bytes.Buffer
		if err := EncodeEntries(&buf, days[day]); err != nil {
			return result, fmt.Errorf("encoding %s: %w", day, err)
		}
		if err := WriteNew(s.Path(day), buf.Bytes()); err != nil {
			return result, fmt.Errorf("writing %s: %w", day, err)
		}

		s.logger.Info("wrote day file", "day", day, "entries", len(days[day]))
		result.Written = append(result.Written, day)
	}

	return result, nil
}
