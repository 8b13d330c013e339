package telegram_receiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"

	"github.com/jdelaire/skybot/core"
)

const longPollTimeout = 30

// AllowedUpdates are the update kinds requested from Telegram.
var AllowedUpdates = []string{"message", "inline_query", "poll", "chat_member"}

// UpdateSource delivers raw updates. *telego.Bot implements it.
type UpdateSource interface {
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, options ...telego.LongPollingOption) (<-chan telego.Update, error)
}

// Receiver long-polls Telegram and hands converted events to handler.
type Receiver struct {
	source  UpdateSource
	handler core.EventHandler
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Telegram receiver.
func New(source UpdateSource, handler core.EventHandler, logger *slog.Logger) *Receiver {
	return &Receiver{
		source:  source,
		handler: handler,
		logger:  logger,
		now:     time.Now,
	}
}

// Start begins the long-poll loop. Blocks until ctx is cancelled or the
// update stream ends.
func (r *Receiver) Start(ctx context.Context) error {
	updates, err := r.source.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        longPollTimeout,
		AllowedUpdates: AllowedUpdates,
	})
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}
	r.logger.Info("telegram receiver started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("telegram receiver stopped")
			return nil
		case u, ok := <-updates:
			if !ok {
				r.logger.Info("telegram receiver stopped")
				return nil
			}
			ev, ok := Convert(u, r.now())
			if !ok {
				r.logger.Debug("skipping unsupported update", "update_id", u.UpdateID)
				continue
			}
			r.handler(ev)
		}
	}
}

// Convert maps a Telegram update onto a core event. It reports false for
// update kinds the bot does not handle.
func Convert(u telego.Update, receivedAt time.Time) (core.Event, bool) {
	ev := core.Event{UpdateID: int64(u.UpdateID), ReceivedAt: receivedAt}

	switch {
	case u.Message != nil:
		ev.Kind = core.KindMessage
		ev.Message = convertMessage(u.Message)
	case u.InlineQuery != nil:
		ev.Kind = core.KindInlineQuery
		ev.InlineQuery = &core.InlineQuery{
			ID:       u.InlineQuery.ID,
			From:     convertUser(u.InlineQuery.From),
			Query:    u.InlineQuery.Query,
			Location: convertLocation(u.InlineQuery.Location),
		}
	case u.Poll != nil:
		ev.Kind = core.KindPoll
		ev.Poll = convertPoll(u.Poll)
	case u.ChatMember != nil:
		m := u.ChatMember
		ev.Kind = core.KindMemberUpdate
		ev.Member = &core.MemberUpdate{
			Chat:      convertChat(m.Chat),
			From:      convertUser(m.From),
			Date:      time.Unix(m.Date, 0),
			OldStatus: memberStatus(m.OldChatMember),
			NewStatus: memberStatus(m.NewChatMember),
		}
		if m.NewChatMember != nil {
			ev.Member.Member = convertUser(m.NewChatMember.MemberUser())
		}
	default:
		return core.Event{}, false
	}
	return ev, true
}

func convertMessage(m *telego.Message) *core.Message {
	msg := &core.Message{
		ID:       int64(m.MessageID),
		Chat:     convertChat(m.Chat),
		Date:     time.Unix(m.Date, 0),
		Text:     m.Text,
		Caption:  m.Caption,
		Location: convertLocation(m.Location),
	}
	if m.From != nil {
		u := convertUser(*m.From)
		msg.From = &u
	}
	for _, u := range m.NewChatMembers {
		msg.NewChatMembers = append(msg.NewChatMembers, convertUser(u))
	}
	return msg
}

func convertPoll(p *telego.Poll) *core.Poll {
	poll := &core.Poll{ID: p.ID, Question: p.Question, IsClosed: p.IsClosed}
	for _, o := range p.Options {
		poll.Options = append(poll.Options, core.PollOption{Text: o.Text, VoterCount: o.VoterCount})
	}
	return poll
}

func convertUser(u telego.User) core.User {
	return core.User{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
	}
}

func convertChat(c telego.Chat) core.Chat {
	return core.Chat{ID: c.ID, Type: core.ChatType(c.Type), Title: c.Title}
}

func convertLocation(l *telego.Location) *core.Location {
	if l == nil {
		return nil
	}
	return &core.Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

// memberStatus reports restricted users who are not in the chat as left.
func memberStatus(m telego.ChatMember) string {
	if m == nil {
		return ""
	}
	if r, ok := m.(*telego.ChatMemberRestricted); ok && !r.IsMember {
		return core.StatusLeft
	}
	return m.MemberStatus()
}
