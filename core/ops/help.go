package ops

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/jdelaire/skybot/core"
)

// StartOp greets the user.
type StartOp struct{}

func (s *StartOp) Name() string        { return "start" }
func (s *StartOp) Description() string { return "Start the bot" }

func (s *StartOp) Execute(_ context.Context, _ string) (string, error) {
	return "Hello! I'm your Telegram bot. How can I help you today?", nil
}

// Usage is an optional interface for commands taking arguments, returning
// the argument synopsis shown by /help (e.g. "[city]").
type Usage interface {
	Usage() string
}

// HelpOp lists all registered commands, preceded by inline-mode usage.
type HelpOp struct {
	Registry *Registry
	// BotName is shown in the inline example; "YourBotName" when empty.
	BotName string
}

func (h *HelpOp) Name() string        { return "help" }
func (h *HelpOp) Description() string { return "Show this help message" }
func (h *HelpOp) ParseMode() string   { return core.ParseModeHTML }

func (h *HelpOp) Execute(_ context.Context, _ string) (string, error) {
	bot := h.BotName
	if bot == "" {
		bot = "YourBotName"
	}

	var b strings.Builder
	b.WriteString("<b>Inline Mode</b>\n")
	fmt.Fprintf(&b, "You can use this bot in any chat by typing its username and a city name "+
		"(e.g., <code>@%s London</code>) to quickly get the weather.\n\n", html.EscapeString(bot))

	all := h.Registry.List()
	if len(all) == 0 {
		b.WriteString("No commands available.")
		return b.String(), nil
	}

	b.WriteString("<b>Available Commands:</b>")
	for _, cmd := range all {
		name := "/" + cmd.Name()
		if u, ok := cmd.(Usage); ok {
			name += " " + u.Usage()
		}
		line := fmt.Sprintf("\n%s - %s", name, cmd.Description())
		if AccessOf(cmd) == AccessAdmin {
			line += " (admin)"
		}
		b.WriteString(html.EscapeString(line))
	}
	return b.String(), nil
}
