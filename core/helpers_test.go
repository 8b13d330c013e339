package core

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jdelaire/skybot/core/journal"
)

// --- test helpers ---

type spyNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (s *spyNotifier) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}
func (s *spyNotifier) SendPoll(context.Context, PollRequest) (SentPoll, error) {
	return SentPoll{}, nil
}
func (s *spyNotifier) StopPoll(context.Context, int64, int64) error   { return nil }
func (s *spyNotifier) SendPhoto(context.Context, Photo) error         { return nil }
func (s *spyNotifier) LeaveChat(context.Context, int64) error         { return nil }
func (s *spyNotifier) AnswerInline(context.Context, InlineAnswer) error { return nil }

func (s *spyNotifier) lastText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1].Text
}
func (s *spyNotifier) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type memSink struct {
	mu      sync.Mutex
	records []journal.Record
	err     error
}

func (m *memSink) Append(rec journal.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}

func (m *memSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type staticAuth map[int64]bool

func (a staticAuth) Allowed(id int64) (bool, error) { return a[id], nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func messageEvent(chatType ChatType, text string) Event {
	return Event{
		UpdateID: time.Now().UnixNano(),
		Kind:     KindMessage,
		Message: &Message{
			ID:   7,
			From: &User{ID: 1, Username: "alice", FirstName: "Alice"},
			Chat: Chat{ID: 100, Type: chatType},
			Date: time.Now(),
			Text: text,
		},
	}
}

func inlineEvent(query string) Event {
	return Event{
		Kind:        KindInlineQuery,
		InlineQuery: &InlineQuery{ID: "q1", From: User{ID: 1}, Query: query},
	}
}

func pollEvent(id string, closed bool) Event {
	return Event{
		Kind: KindPoll,
		Poll: &Poll{ID: id, IsClosed: closed},
	}
}

// recorder returns a handler that appends name to calls.
func recorder(calls *[]string, name string) Handler {
	return func(context.Context, *Event) error {
		*calls = append(*calls, name)
		return nil
	}
}
