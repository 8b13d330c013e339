package ops

import (
	"context"
	"errors"
	"fmt"

	"github.com/jdelaire/skybot/core"
)

// WelcomeMember greets a user whose membership update moved them into the chat.
func WelcomeMember(notifier core.Notifier) core.Handler {
	return func(ctx context.Context, ev *core.Event) error {
		if ev.Member == nil {
			return nil
		}
		return notifier.Send(ctx, core.Notification{
			ChatID: ev.Member.Chat.ID,
			Text:   fmt.Sprintf("Welcome to the group, %s!", ev.Member.Member.FirstName),
		})
	}
}

// WelcomeNewMembers greets every user listed in a "new members" service message.
func WelcomeNewMembers(notifier core.Notifier) core.Handler {
	return func(ctx context.Context, ev *core.Event) error {
		if ev.Message == nil {
			return nil
		}
		var errs []error
		for _, u := range ev.Message.NewChatMembers {
			err := notifier.Send(ctx, core.Notification{
				ChatID: ev.Message.Chat.ID,
				Text:   fmt.Sprintf("Welcome, %s!", u.FirstName),
			})
			if err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
