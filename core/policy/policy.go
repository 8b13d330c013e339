// Package policy holds the admin authorization list.
package policy

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FileAllowlist authorizes identities listed one per line in a file. The
// file is read on every check so edits apply without a restart.
type FileAllowlist struct {
	path string
}

// NewFileAllowlist creates an allowlist backed by path.
func NewFileAllowlist(path string) *FileAllowlist {
	return &FileAllowlist{path: path}
}

func (a *FileAllowlist) Path() string { return a.path }

// Allowed reports whether id is listed. A missing file authorizes nobody and
// is not an error. On read errors nobody is authorized and the error is
// returned for logging.
func (a *FileAllowlist) Allowed(id int64) (bool, error) {
	ids, err := a.Load()
	if err != nil {
		return false, err
	}
	return ids[id], nil
}

// Load reads the current set of authorized identities. Blank and
// non-numeric lines are skipped.
func (a *FileAllowlist) Load() (map[int64]bool, error) {
	f, err := os.Open(a.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[int64]bool{}, nil
		}
		return map[int64]bool{}, fmt.Errorf("read auth file: %w", err)
	}
	defer f.Close()

	ids := make(map[int64]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !isDigits(line) {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = true
	}
	if err := sc.Err(); err != nil {
		return map[int64]bool{}, fmt.Errorf("read auth file: %w", err)
	}
	return ids, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
