package polls

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is the durable mapping from poll id to originating chat id. The
// whole mapping is kept in memory and rewritten to disk on every mutation;
// one mutex serializes all access so concurrent writers cannot lose updates.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	polls map[string]int64
	// write is swapped in tests to simulate disk failures.
	write func(path string, polls map[string]int64) error
}

// Open loads the registry at path. A missing, unreadable or corrupt file
// yields an empty registry; the problem is logged, never returned.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   path,
		logger: logger,
		polls:  make(map[string]int64),
		write:  writeFile,
	}

	loaded, err := readFile(path)
	if err != nil {
		logger.Error("load polls failed, starting empty", "path", path, "error", err)
		return s
	}
	s.polls = loaded
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Put records pollID as belonging to chatID and persists the registry. On
// write failure the in-memory entry is rolled back and the error returned.
func (s *Store) Put(pollID string, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.polls[pollID]
	s.polls[pollID] = chatID
	if err := s.write(s.path, s.polls); err != nil {
		if existed {
			s.polls[pollID] = prev
		} else {
			delete(s.polls, pollID)
		}
		return fmt.Errorf("save poll %s: %w", pollID, err)
	}
	return nil
}

// Lookup returns the chat a poll was started in.
func (s *Store) Lookup(pollID string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chatID, ok := s.polls[pollID]
	return chatID, ok
}

// Remove evicts pollID. The entry is dropped from memory even when the
// write fails, so the returned error only reports that disk is stale.
// Removing an unknown poll is a no-op.
func (s *Store) Remove(pollID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[pollID]; !ok {
		return nil
	}
	delete(s.polls, pollID)
	if err := s.write(s.path, s.polls); err != nil {
		return fmt.Errorf("remove poll %s: %w", pollID, err)
	}
	return nil
}

// Len returns the number of open polls.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.polls)
}

// Snapshot returns a copy of the mapping.
func (s *Store) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.polls))
	for k, v := range s.polls {
		out[k] = v
	}
	return out
}

func readFile(path string) (map[string]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]int64), nil
		}
		return nil, fmt.Errorf("read polls file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return make(map[string]int64), nil
	}

	polls := make(map[string]int64)
	if err := json.Unmarshal(data, &polls); err != nil {
		return nil, fmt.Errorf("parse polls file: %w", err)
	}
	return polls, nil
}

func writeFile(path string, polls map[string]int64) (retErr error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create polls dir: %w", err)
	}

	tmp := path + ".tmp"
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp)
		}
	}()

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open temp polls file: %w", err)
	}

	if err := json.NewEncoder(f).Encode(polls); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp polls file: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("fsync temp polls file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp polls file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp polls file: %w", err)
	}

	return nil
}
