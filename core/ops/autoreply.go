package ops

import (
	"context"
	"strings"

	"github.com/jdelaire/skybot/core"
)

// Rule answers messages containing Keyword.
type Rule struct {
	Keyword string
	Reply   string
}

// DefaultAutoReplies are checked in order; the first match wins.
var DefaultAutoReplies = []Rule{
	{Keyword: "hello", Reply: "Hi there! How can I assist you?"},
	{Keyword: "pricing", Reply: "Our pricing details can be found on our website: example.com/pricing"},
	{Keyword: "support", Reply: "You can contact support at support@example.com"},
}

// AutoReply quotes the message with the reply of the first rule whose
// keyword appears in the text, case-insensitively.
func AutoReply(rules []Rule, notifier core.Notifier) core.Handler {
	return func(ctx context.Context, ev *core.Event) error {
		if ev.Message == nil {
			return nil
		}
		text := strings.ToLower(ev.Message.Text)
		for _, r := range rules {
			if strings.Contains(text, strings.ToLower(r.Keyword)) {
				return notifier.Send(ctx, core.Notification{
					ChatID:  ev.Message.Chat.ID,
					Text:    r.Reply,
					ReplyTo: ev.Message.ID,
				})
			}
		}
		return nil
	}
}
