package telegram_notifier

import (
	"context"
	"fmt"
	"os"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/jdelaire/skybot/core"
)

// Bot is the slice of the Telegram Bot API the notifier calls. *telego.Bot
// implements it.
type Bot interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendPoll(ctx context.Context, params *telego.SendPollParams) (*telego.Message, error)
	StopPoll(ctx context.Context, params *telego.StopPollParams) (*telego.Poll, error)
	SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error)
	LeaveChat(ctx context.Context, params *telego.LeaveChatParams) error
	AnswerInlineQuery(ctx context.Context, params *telego.AnswerInlineQueryParams) error
}

// Notifier sends notifications via the Telegram Bot API.
type Notifier struct {
	bot Bot
}

var _ core.Notifier = (*Notifier)(nil)

// New creates a Telegram notifier.
func New(bot Bot) *Notifier {
	return &Notifier{bot: bot}
}

func (n *Notifier) Name() string { return "telegram" }

func (n *Notifier) Send(ctx context.Context, notif core.Notification) error {
	if _, err := n.bot.SendMessage(ctx, MessageParams(notif)); err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}

func (n *Notifier) SendPoll(ctx context.Context, p core.PollRequest) (core.SentPoll, error) {
	msg, err := n.bot.SendPoll(ctx, PollParams(p))
	if err != nil {
		return core.SentPoll{}, fmt.Errorf("telegram send poll: %w", err)
	}
	if msg.Poll == nil {
		return core.SentPoll{}, fmt.Errorf("telegram send poll: response has no poll")
	}
	return core.SentPoll{PollID: msg.Poll.ID, MessageID: int64(msg.MessageID)}, nil
}

func (n *Notifier) StopPoll(ctx context.Context, chatID, messageID int64) error {
	_, err := n.bot.StopPoll(ctx, &telego.StopPollParams{
		ChatID:    tu.ID(chatID),
		MessageID: int(messageID),
	})
	if err != nil {
		return fmt.Errorf("telegram stop poll: %w", err)
	}
	return nil
}

func (n *Notifier) SendPhoto(ctx context.Context, p core.Photo) error {
	f, err := os.Open(p.Path)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	_, err = n.bot.SendPhoto(ctx, &telego.SendPhotoParams{
		ChatID:  tu.ID(p.ChatID),
		Photo:   tu.File(f),
		Caption: p.Caption,
	})
	if err != nil {
		return fmt.Errorf("telegram send photo: %w", err)
	}
	return nil
}

func (n *Notifier) LeaveChat(ctx context.Context, chatID int64) error {
	if err := n.bot.LeaveChat(ctx, &telego.LeaveChatParams{ChatID: tu.ID(chatID)}); err != nil {
		return fmt.Errorf("telegram leave chat: %w", err)
	}
	return nil
}

func (n *Notifier) AnswerInline(ctx context.Context, a core.InlineAnswer) error {
	if err := n.bot.AnswerInlineQuery(ctx, InlineParams(a)); err != nil {
		return fmt.Errorf("telegram answer inline query: %w", err)
	}
	return nil
}

// MessageParams builds sendMessage parameters for a notification.
func MessageParams(notif core.Notification) *telego.SendMessageParams {
	params := &telego.SendMessageParams{
		ChatID:    tu.ID(notif.ChatID),
		Text:      notif.Text,
		ParseMode: notif.ParseMode,
	}
	if notif.ReplyTo != 0 {
		params.ReplyParameters = &telego.ReplyParameters{
			MessageID:                int(notif.ReplyTo),
			AllowSendingWithoutReply: true,
		}
	}
	switch {
	case notif.LocationButton != "":
		params.ReplyMarkup = &telego.ReplyKeyboardMarkup{
			Keyboard: [][]telego.KeyboardButton{
				{{Text: notif.LocationButton, RequestLocation: true}},
			},
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
	case notif.RemoveKeyboard:
		params.ReplyMarkup = &telego.ReplyKeyboardRemove{RemoveKeyboard: true}
	}
	return params
}

// PollParams builds sendPoll parameters for a regular poll.
func PollParams(p core.PollRequest) *telego.SendPollParams {
	anonymous := p.Anonymous
	params := &telego.SendPollParams{
		ChatID:      tu.ID(p.ChatID),
		Question:    p.Question,
		IsAnonymous: &anonymous,
		Type:        "regular",
		OpenPeriod:  int(p.OpenPeriod.Seconds()),
	}
	for _, o := range p.Options {
		params.Options = append(params.Options, telego.InputPollOption{Text: o})
	}
	return params
}

// InlineParams builds answerInlineQuery parameters with article results.
func InlineParams(a core.InlineAnswer) *telego.AnswerInlineQueryParams {
	params := &telego.AnswerInlineQueryParams{
		InlineQueryID: a.QueryID,
		CacheTime:     int(a.CacheTime.Seconds()),
		Results:       make([]telego.InlineQueryResult, 0, len(a.Results)),
	}
	for _, r := range a.Results {
		params.Results = append(params.Results, &telego.InlineQueryResultArticle{
			Type:        telego.ResultTypeArticle,
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			InputMessageContent: &telego.InputTextMessageContent{
				MessageText: r.Text,
				ParseMode:   r.ParseMode,
			},
		})
	}
	return params
}
