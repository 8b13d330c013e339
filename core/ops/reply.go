package ops

import (
	"context"
	"log/slog"

	"github.com/jdelaire/skybot/core"
)

// ShareLocationLabel is the label of the share-location keyboard button.
const ShareLocationLabel = "📍 Share Location"

// Reply adapts an Op into a router handler that answers in the originating
// chat. Errors from Execute are returned so the dispatcher can report them.
func Reply(op Op, notifier core.Notifier, logger *slog.Logger) core.Handler {
	return func(ctx context.Context, ev *core.Event) error {
		chat, ok := ev.Chat()
		if !ok {
			return nil
		}
		_, args := ev.Command()

		if lp, ok := op.(LocationPrompter); ok && args == "" {
			return notifier.Send(ctx, core.Notification{
				ChatID:         chat.ID,
				Text:           lp.LocationPrompt(),
				LocationButton: ShareLocationLabel,
			})
		}

		text, err := op.Execute(ctx, args)
		if err != nil {
			return err
		}
		if text == "" {
			logger.Debug("op produced no output", "op", op.Name())
			return nil
		}
		return notifier.Send(ctx, core.Notification{
			ChatID:    chat.ID,
			Text:      text,
			ParseMode: ParseModeOf(op),
		})
	}
}
