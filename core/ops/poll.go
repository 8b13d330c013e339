package ops

import (
	"context"
	"errors"

	"github.com/jdelaire/skybot/core"
	"github.com/jdelaire/skybot/internal/polls"
)

// PollDelete starts a vote on removing the bot from the current group.
type PollDelete struct {
	Workflow *polls.Workflow
	Notifier core.Notifier
}

func (p *PollDelete) Name() string        { return "poll_delete" }
func (p *PollDelete) Description() string { return "Start a vote on removing the bot from this group" }

// Handle is the router handler for /poll_delete.
func (p *PollDelete) Handle(ctx context.Context, ev *core.Event) error {
	chat, ok := ev.Chat()
	if !ok {
		return nil
	}
	_, err := p.Workflow.Start(ctx, chat)
	if errors.Is(err, polls.ErrNotGroupChat) {
		return p.Notifier.Send(ctx, core.Notification{
			ChatID: chat.ID,
			Text:   "This command can only be used in groups.",
		})
	}
	return err
}

// ResolvePoll settles deletion votes when the platform reports them closed.
// Polls the bot did not start are ignored by the workflow.
func ResolvePoll(workflow *polls.Workflow) core.Handler {
	return func(ctx context.Context, ev *core.Event) error {
		if ev.Poll == nil {
			return nil
		}
		_, err := workflow.Resolve(ctx, *ev.Poll)
		return err
	}
}
