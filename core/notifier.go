package core

import "context"

// Notifier is the outbound half of the messaging platform.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendPoll(ctx context.Context, p PollRequest) (SentPoll, error)
	StopPoll(ctx context.Context, chatID, messageID int64) error
	SendPhoto(ctx context.Context, p Photo) error
	LeaveChat(ctx context.Context, chatID int64) error
	AnswerInline(ctx context.Context, a InlineAnswer) error
}
