// Package citylist keeps the city names offered by inline autocompletion,
// reloading them when the backing file changes.
package citylist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// List is a hot-reloaded list of city names, one per line in a file.
type List struct {
	path     string
	interval time.Duration
	logger   *slog.Logger

	cities atomic.Pointer[[]string]

	mu      sync.Mutex
	modTime time.Time
}

// New loads the list at path. A missing file gives an empty list and a
// warning; autocompletion is disabled until the file appears.
func New(path string, interval time.Duration, logger *slog.Logger) *List {
	l := &List{
		path:     path,
		interval: interval,
		logger:   logger,
	}
	empty := []string{}
	l.cities.Store(&empty)

	if err := l.Reload(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("cities file not found, autocompletion disabled", "path", path)
		} else {
			logger.Error("load cities failed", "path", path, "error", err)
		}
	}
	return l
}

// Cities returns the current list. Callers must not modify it.
func (l *List) Cities() []string {
	return *l.cities.Load()
}

// Match returns up to limit cities starting with prefix, ignoring case,
// in file order.
func (l *List) Match(prefix string, limit int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return nil
	}
	var out []string
	for _, c := range l.Cities() {
		if strings.HasPrefix(strings.ToLower(c), prefix) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Reload reads the file and swaps the list in one step.
func (l *List) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reloadLocked()
}

func (l *List) reloadLocked() error {
	f, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat cities file: %w", err)
	}

	var cities []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if c := strings.TrimSpace(sc.Text()); c != "" {
			cities = append(cities, c)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read cities file: %w", err)
	}

	l.cities.Store(&cities)
	l.modTime = info.ModTime()
	return nil
}

// Run polls the file's modification time until ctx is cancelled and
// reloads on change. It blocks, so call it in a goroutine.
func (l *List) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.poll()
		}
	}
}

func (l *List) poll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := fileModTime(l.path)

	// Skip if file doesn't exist (may be mid-save) or unchanged.
	if current.IsZero() || current.Equal(l.modTime) {
		return
	}

	if err := l.reloadLocked(); err != nil {
		l.logger.Error("reload cities failed", "path", l.path, "error", err)
		return
	}
	l.logger.Info("cities reloaded", "path", l.path, "count", len(l.Cities()))
}

// fileModTime returns the file's modification time, or zero if it can't be read.
func fileModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
