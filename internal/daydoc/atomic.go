package daydoc

import (
	"fmt"
	"io"
	"os"
)

// Update is a read-modify-write of a single file. The original is read from
// Input and the replacement is streamed to a sibling temp file through
// Output. Commit swaps the temp file in; Close without Commit discards it and
// leaves the original untouched.
//
// Update does no locking. Callers must not run two updates of the same file
// at once.
type Update struct {
	path      string
	tmpPath   string
	in        *os.File
	out       *os.File
	committed bool
	closed    bool
}

func OpenUpdate(path string) (*Update, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	info, err := in.Stat()
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	tmpPath := path + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("creating temp file for %s: %w", path, err)
	}

	return &Update{path: path, tmpPath: tmpPath, in: in, out: out}, nil
}

func (u *Update) Input() io.Reader {
	return u.in
}

func (u *Update) Output() io.Writer {
	return u.out
}

// Commit flushes the temp file to disk and renames it over the original.
func (u *Update) Commit() error {
	if u.closed {
		return fmt.Errorf("update of %s already closed", u.path)
	}
	u.closed = true
	u.in.Close()

	if err := u.out.Sync(); err != nil {
		u.out.Close()
		os.Remove(u.tmpPath)
		return fmt.Errorf("syncing %s: %w", u.tmpPath, err)
	}
	if err := u.out.Close(); err != nil {
		os.Remove(u.tmpPath)
		return fmt.Errorf("closing %s: %w", u.tmpPath, err)
	}
	if err := os.Rename(u.tmpPath, u.path); err != nil {
		os.Remove(u.tmpPath)
		return fmt.Errorf("replacing %s: %w", u.path, err)
	}

	u.committed = true
	return nil
}

// Close discards the update unless it was committed. It is safe to defer
// Close right after OpenUpdate.
func (u *Update) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	u.in.Close()
	u.out.Close()
	if err := os.Remove(u.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", u.tmpPath, err)
	}
	return nil
}

func (u *Update) Committed() bool {
	return u.committed
}

// WriteNew writes data to path through a temp file and rename. It refuses to
// replace an existing file.
func WriteNew(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, os.ErrExist)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}

	return nil
}
