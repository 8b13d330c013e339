// Package journal records one line per handled bot interaction.
package journal

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record describes one handled event.
type Record struct {
	Time         time.Time
	Version      string
	Kind         string
	ActorID      int64
	Username     string
	Name         string
	LanguageCode string
	ChatID       int64
	ChatType     string
	ChatTitle    string
	MessageID    int64
	Content      string
	Outcome      string
	Error        string
	Duration     time.Duration
}

// Sink accepts interaction records. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(rec Record) error
}

// FileSink appends records to a file as key=value lines.
type FileSink struct {
	mu      sync.Mutex
	f       *os.File
	handler slog.Handler
}

// OpenFile opens path for appending, creating it if needed.
func OpenFile(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return &FileSink{f: f, handler: h}, nil
}

func (s *FileSink) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return fmt.Errorf("journal closed")
	}

	r := slog.NewRecord(rec.Time, slog.LevelInfo, "interaction", 0)
	r.AddAttrs(
		slog.String("version", rec.Version),
		slog.String("kind", rec.Kind),
		slog.Int64("actor_id", rec.ActorID),
		slog.String("username", orNA(rec.Username)),
		slog.String("name", rec.Name),
		slog.String("lang", orNA(rec.LanguageCode)),
	)
	if rec.ChatID != 0 {
		r.AddAttrs(
			slog.Int64("chat_id", rec.ChatID),
			slog.String("chat_type", rec.ChatType),
		)
		if rec.ChatTitle != "" {
			r.AddAttrs(slog.String("chat_title", rec.ChatTitle))
		}
	}
	if rec.MessageID != 0 {
		r.AddAttrs(slog.Int64("message_id", rec.MessageID))
	}
	r.AddAttrs(
		slog.String("content", rec.Content),
		slog.String("outcome", rec.Outcome),
	)
	if rec.Error != "" {
		r.AddAttrs(slog.String("error", rec.Error))
	}
	r.AddAttrs(slog.String("duration", fmt.Sprintf("%.2fms", float64(rec.Duration)/float64(time.Millisecond))))

	if err := s.handler.Handle(context.Background(), r); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Close closes the underlying file. Appends after Close fail.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// Tail returns up to n trailing lines of the file at path. A missing file
// yields an error satisfying errors.Is(err, fs.ErrNotExist).
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ring, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
