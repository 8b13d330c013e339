package polls

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jdelaire/skybot/core"
)

type spyMessenger struct {
	mu       sync.Mutex
	sent     []core.Notification
	polls    []core.PollRequest
	stopped  []int64
	left     []int64
	nextPoll int
	leaveErr error
	sendErr  error
}

func (s *spyMessenger) Send(_ context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.sendErr
}

func (s *spyMessenger) SendPoll(_ context.Context, p core.PollRequest) (core.SentPoll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPoll++
	s.polls = append(s.polls, p)
	return core.SentPoll{PollID: fmt.Sprintf("poll-%d", s.nextPoll), MessageID: int64(s.nextPoll)}, nil
}

func (s *spyMessenger) StopPoll(_ context.Context, _ int64, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, messageID)
	return nil
}

func (s *spyMessenger) LeaveChat(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.left = append(s.left, chatID)
	return s.leaveErr
}

func (s *spyMessenger) counts() (sent, left int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent), len(s.left)
}

var groupChat = core.Chat{ID: -100, Type: core.ChatSupergroup, Title: "friends"}

func newTestWorkflow(t *testing.T) (*Workflow, *Store, *spyMessenger) {
	t.Helper()
	store := Open(filepath.Join(t.TempDir(), "active_polls.json"), testLogger())
	spy := &spyMessenger{}
	return NewWorkflow(store, spy, 0, testLogger()), store, spy
}

func closedPoll(id string, yes, no int) core.Poll {
	return core.Poll{
		ID:       id,
		Question: Question,
		IsClosed: true,
		Options: []core.PollOption{
			{Text: OptionYes, VoterCount: yes},
			{Text: OptionNo, VoterCount: no},
		},
	}
}

func TestStartRejectsPrivateChat(t *testing.T) {
	w, store, spy := newTestWorkflow(t)

	_, err := w.Start(context.Background(), core.Chat{ID: 5, Type: core.ChatPrivate})
	if !errors.Is(err, ErrNotGroupChat) {
		t.Fatalf("err = %v, want ErrNotGroupChat", err)
	}
	if len(spy.polls) != 0 || store.Len() != 0 {
		t.Error("no poll should be created in a private chat")
	}
}

func TestStartRecordsPoll(t *testing.T) {
	w, store, spy := newTestWorkflow(t)

	vote, err := w.Start(context.Background(), groupChat)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if len(spy.polls) != 1 {
		t.Fatalf("polls sent = %d, want 1", len(spy.polls))
	}
	req := spy.polls[0]
	if req.Anonymous {
		t.Error("poll must not be anonymous")
	}
	if strings.Join(req.Options, ",") != "Yes,No" {
		t.Errorf("options = %v", req.Options)
	}
	if req.OpenPeriod != DefaultOpenPeriod {
		t.Errorf("open period = %s, want %s", req.OpenPeriod, DefaultOpenPeriod)
	}

	chatID, ok := store.Lookup(vote.PollID)
	if !ok || chatID != groupChat.ID {
		t.Errorf("registry Lookup = (%d, %v), want (%d, true)", chatID, ok, groupChat.ID)
	}
	if store.Len() != 1 {
		t.Errorf("registry size = %d, want 1", store.Len())
	}
}

func TestStartPersistenceFailureAborts(t *testing.T) {
	w, store, spy := newTestWorkflow(t)
	store.write = func(string, map[string]int64) error { return errors.New("read-only fs") }

	if _, err := w.Start(context.Background(), groupChat); err == nil {
		t.Fatal("Start should fail when the poll cannot be persisted")
	}
	if len(spy.stopped) != 1 {
		t.Errorf("stopped polls = %d, want 1", len(spy.stopped))
	}
	if store.Len() != 0 {
		t.Error("registry should stay empty")
	}
}

func TestResolveIgnoresOpenPoll(t *testing.T) {
	w, store, spy := newTestWorkflow(t)
	vote, _ := w.Start(context.Background(), groupChat)

	p := closedPoll(vote.PollID, 4, 0)
	p.IsClosed = false
	res, err := w.Resolve(context.Background(), p)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Decision != DecisionNone {
		t.Errorf("decision = %s, want none", res.Decision)
	}
	if sent, _ := spy.counts(); sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
	if store.Len() != 1 {
		t.Error("open poll must stay registered")
	}
}

func TestResolveUnknownPollIsNoop(t *testing.T) {
	w, _, spy := newTestWorkflow(t)

	res, err := w.Resolve(context.Background(), closedPoll("unrelated", 9, 0))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Decision != DecisionNone {
		t.Errorf("decision = %s, want none", res.Decision)
	}
	if sent, left := spy.counts(); sent != 0 || left != 0 {
		t.Errorf("sent=%d left=%d, want 0,0", sent, left)
	}
}

func TestResolveMajorityLeaves(t *testing.T) {
	w, store, spy := newTestWorkflow(t)
	vote, _ := w.Start(context.Background(), groupChat)

	res, err := w.Resolve(context.Background(), closedPoll(vote.PollID, 5, 2))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Decision != DecisionLeave || res.Yes != 5 || res.No != 2 {
		t.Errorf("result = %+v", res)
	}
	sent, left := spy.counts()
	if sent != 1 || left != 1 {
		t.Fatalf("sent=%d left=%d, want 1,1", sent, left)
	}
	if spy.left[0] != groupChat.ID {
		t.Errorf("left chat %d, want %d", spy.left[0], groupChat.ID)
	}
	if !strings.Contains(spy.sent[0].Text, "leave the group") {
		t.Errorf("announcement = %q", spy.sent[0].Text)
	}
	if store.Len() != 0 {
		t.Error("record should be evicted")
	}
}

func TestResolveTieStays(t *testing.T) {
	w, store, spy := newTestWorkflow(t)
	vote, _ := w.Start(context.Background(), groupChat)

	res, err := w.Resolve(context.Background(), closedPoll(vote.PollID, 3, 3))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Decision != DecisionStay {
		t.Errorf("decision = %s, want stay", res.Decision)
	}
	sent, left := spy.counts()
	if sent != 1 || left != 0 {
		t.Errorf("sent=%d left=%d, want 1,0", sent, left)
	}
	if !strings.Contains(spy.sent[0].Text, "I'm staying") {
		t.Errorf("announcement = %q", spy.sent[0].Text)
	}
	if store.Len() != 0 {
		t.Error("record should be evicted")
	}
}

func TestResolveTwiceIsIdempotent(t *testing.T) {
	w, store, spy := newTestWorkflow(t)
	vote, _ := w.Start(context.Background(), groupChat)
	p := closedPoll(vote.PollID, 1, 0)

	first, _ := w.Resolve(context.Background(), p)
	second, _ := w.Resolve(context.Background(), p)

	if first.Decision != DecisionLeave {
		t.Errorf("first decision = %s, want leave", first.Decision)
	}
	if second.Decision != DecisionNone {
		t.Errorf("second decision = %s, want none", second.Decision)
	}
	sent, left := spy.counts()
	if sent != 1 || left != 1 {
		t.Errorf("sent=%d left=%d, want 1,1", sent, left)
	}
	if store.Len() != 0 {
		t.Error("registry should be empty")
	}
}

func TestResolveConcurrentDuplicates(t *testing.T) {
	w, _, spy := newTestWorkflow(t)
	vote, _ := w.Start(context.Background(), groupChat)
	p := closedPoll(vote.PollID, 2, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Resolve(context.Background(), p)
		}()
	}
	wg.Wait()

	sent, left := spy.counts()
	if sent != 1 || left != 1 {
		t.Errorf("sent=%d left=%d, want exactly one announcement and one leave", sent, left)
	}
}

func TestResolveAfterRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active_polls.json")
	spy := &spyMessenger{}
	vote, err := NewWorkflow(Open(path, testLogger()), spy, time.Hour, testLogger()).
		Start(context.Background(), groupChat)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// New process: fresh store and workflow over the same file.
	restarted := NewWorkflow(Open(path, testLogger()), spy, time.Hour, testLogger())
	res, err := restarted.Resolve(context.Background(), closedPoll(vote.PollID, 2, 0))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.ChatID != groupChat.ID {
		t.Errorf("resolved chat = %d, want %d", res.ChatID, groupChat.ID)
	}
	if len(spy.left) != 1 || spy.left[0] != groupChat.ID {
		t.Errorf("left = %v", spy.left)
	}
}

func TestLeaveFailureStillEvicts(t *testing.T) {
	w, store, spy := newTestWorkflow(t)
	spy.leaveErr = errors.New("forbidden")
	vote, _ := w.Start(context.Background(), groupChat)

	_, err := w.Resolve(context.Background(), closedPoll(vote.PollID, 3, 0))
	if err == nil || !strings.Contains(err.Error(), "forbidden") {
		t.Errorf("err = %v, want leave failure", err)
	}
	if store.Len() != 0 {
		t.Error("record must be evicted even when leaving fails")
	}
	if _, left := spy.counts(); left != 1 {
		t.Errorf("leave attempts = %d, want 1 (no retry)", left)
	}
}

func TestAnnouncementFailureStillLeaves(t *testing.T) {
	w, store, spy := newTestWorkflow(t)
	spy.sendErr = errors.New("network down")
	vote, _ := w.Start(context.Background(), groupChat)

	_, err := w.Resolve(context.Background(), closedPoll(vote.PollID, 3, 1))
	if err == nil {
		t.Error("expected announcement error")
	}
	if _, left := spy.counts(); left != 1 {
		t.Errorf("leave attempts = %d, want 1", left)
	}
	if store.Len() != 0 {
		t.Error("record should be evicted")
	}
}

func TestTally(t *testing.T) {
	tests := []struct {
		name    string
		options []core.PollOption
		yes, no int
	}{
		{"both", []core.PollOption{{Text: "Yes", VoterCount: 5}, {Text: "No", VoterCount: 2}}, 5, 2},
		{"missing no", []core.PollOption{{Text: "Yes", VoterCount: 1}}, 1, 0},
		{"unrelated labels", []core.PollOption{{Text: "Maybe", VoterCount: 7}}, 0, 0},
		{"empty", nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yes, no := Tally(tt.options)
			if yes != tt.yes || no != tt.no {
				t.Errorf("Tally = (%d, %d), want (%d, %d)", yes, no, tt.yes, tt.no)
			}
		})
	}
}

func TestOpenPeriodLimitWarning(t *testing.T) {
	tests := []struct {
		name   string
		period time.Duration
		warn   bool
	}{
		{"default", 0, true},
		{"over limit", MaxOpenPeriod + time.Second, true},
		{"at limit", MaxOpenPeriod, false},
		{"short", 5 * time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			store := Open(filepath.Join(t.TempDir(), "active_polls.json"), testLogger())
			NewWorkflow(store, &spyMessenger{}, tt.period, logger)

			got := strings.Contains(buf.String(), "exceeds the documented platform limit")
			if got != tt.warn {
				t.Errorf("warned = %v, want %v; log: %q", got, tt.warn, buf.String())
			}
		})
	}
}
