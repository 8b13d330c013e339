package ops_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/jdelaire/skybot/core"
	"github.com/jdelaire/skybot/internal/weather"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type spyNotifier struct {
	mu      sync.Mutex
	sent    []core.Notification
	photos  []core.Photo
	answers []core.InlineAnswer
	polls   []core.PollRequest
	stopped []int64
	left    []int64

	sendErr  error
	photoErr error
}

func (s *spyNotifier) Send(_ context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *spyNotifier) SendPoll(_ context.Context, p core.PollRequest) (core.SentPoll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls = append(s.polls, p)
	return core.SentPoll{PollID: "poll-1", MessageID: 55}, nil
}

func (s *spyNotifier) StopPoll(_ context.Context, _ int64, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, messageID)
	return nil
}

func (s *spyNotifier) SendPhoto(_ context.Context, p core.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.photoErr != nil {
		return s.photoErr
	}
	s.photos = append(s.photos, p)
	return nil
}

func (s *spyNotifier) LeaveChat(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.left = append(s.left, chatID)
	return nil
}

func (s *spyNotifier) AnswerInline(_ context.Context, a core.InlineAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, a)
	return nil
}

func (s *spyNotifier) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	for i, n := range s.sent {
		out[i] = n.Text
	}
	return out
}

// fakeWeather knows a fixed set of cities; coordinates resolve to "Here".
type fakeWeather struct {
	mu      sync.Mutex
	known   map[string]*weather.Current
	calls   []string
	fail    error
	noCoord bool
}

func newFakeWeather(cities ...string) *fakeWeather {
	f := &fakeWeather{known: map[string]*weather.Current{}}
	for _, c := range cities {
		f.known[strings.ToLower(c)] = &weather.Current{City: c, Country: "XX", Condition: "Clear sky", Temp: 20, Offset: 7200}
	}
	return f
}

func (f *fakeWeather) Current(_ context.Context, q weather.Query) (*weather.Current, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q.String())
	if f.fail != nil {
		return nil, f.fail
	}
	if q.HasCoords {
		if f.noCoord {
			return nil, weather.ErrNotFound
		}
		return &weather.Current{City: "Here", Country: "XX", Condition: "Rain", Temp: 11}, nil
	}
	if cur, ok := f.known[strings.ToLower(q.City)]; ok {
		return cur, nil
	}
	return nil, weather.ErrNotFound
}

func (f *fakeWeather) Forecast(_ context.Context, q weather.Query) (*weather.Forecast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "forecast:"+q.String())
	if f.fail != nil {
		return nil, f.fail
	}
	if q.HasCoords {
		return &weather.Forecast{City: "Here", Country: "XX"}, nil
	}
	if cur, ok := f.known[strings.ToLower(q.City)]; ok {
		return &weather.Forecast{City: cur.City, Country: cur.Country}, nil
	}
	return nil, weather.ErrNotFound
}

func messageEvent(chatType core.ChatType, text string) *core.Event {
	return &core.Event{
		Kind: core.KindMessage,
		Message: &core.Message{
			ID:   7,
			From: &core.User{ID: 1, FirstName: "Ada"},
			Chat: core.Chat{ID: 100, Type: chatType},
			Text: text,
		},
	}
}

func inlineEvent(query string, loc *core.Location) *core.Event {
	return &core.Event{
		Kind:        core.KindInlineQuery,
		InlineQuery: &core.InlineQuery{ID: "iq-1", From: core.User{ID: 1}, Query: query, Location: loc},
	}
}

type staticCities []string

func (s staticCities) Match(prefix string, limit int) []string {
	var out []string
	for _, c := range s {
		if strings.HasPrefix(strings.ToLower(c), strings.ToLower(prefix)) && len(out) < limit {
			out = append(out, c)
		}
	}
	return out
}
