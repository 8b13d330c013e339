package core

import "strings"

// Filter is a pure predicate over an event. Filters must not have side
// effects; the router may evaluate them any number of times.
type Filter func(ev *Event) bool

// Any accepts every event.
func Any(*Event) bool { return true }

// And accepts when all filters accept.
func And(filters ...Filter) Filter {
	return func(ev *Event) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}

func Not(f Filter) Filter {
	return func(ev *Event) bool { return !f(ev) }
}

// Command accepts message events carrying one of the named commands without
// a bot mention. Use CommandFor when the bot's username is known.
func Command(names ...string) Filter {
	return CommandFor("", names...)
}

// CommandFor accepts message events carrying one of the named commands,
// either bare or addressed to bot as "/command@bot". Commands addressed to
// any other bot are rejected. The username is compared case-insensitively.
func CommandFor(bot string, names ...string) Filter {
	bot = strings.ToLower(strings.TrimPrefix(bot, "@"))
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimPrefix(n, "/"))] = true
	}
	return func(ev *Event) bool {
		if ev.Kind != KindMessage || ev.Message == nil {
			return false
		}
		cmd, mention, _ := parseCommand(ev.Message.Text)
		if cmd == "" || !want[cmd] {
			return false
		}
		return mention == "" || (bot != "" && mention == bot)
	}
}

// ChatTypeIn accepts events whose chat has one of the given types. Events
// without a chat are rejected.
func ChatTypeIn(types ...ChatType) Filter {
	return func(ev *Event) bool {
		chat, ok := ev.Chat()
		if !ok {
			return false
		}
		for _, t := range types {
			if chat.Type == t {
				return true
			}
		}
		return false
	}
}

// MessagesOnly applies f to message events and accepts every other kind.
// It is meant for group guards that restrict messages only.
func MessagesOnly(f Filter) Filter {
	return func(ev *Event) bool {
		if ev.Kind != KindMessage {
			return true
		}
		return f(ev)
	}
}

func HasText(ev *Event) bool {
	return ev.Message != nil && ev.Message.Text != ""
}

func HasLocation(ev *Event) bool {
	return ev.Message != nil && ev.Message.Location != nil
}

func HasNewChatMembers(ev *Event) bool {
	return ev.Message != nil && len(ev.Message.NewChatMembers) > 0
}

// PollClosed accepts poll updates reporting a closed poll.
func PollClosed(ev *Event) bool {
	return ev.Poll != nil && ev.Poll.IsClosed
}

// MemberJoined accepts membership updates moving a user from outside the
// chat to inside it.
func MemberJoined(ev *Event) bool {
	if ev.Member == nil {
		return false
	}
	return !isMemberStatus(ev.Member.OldStatus) && isMemberStatus(ev.Member.NewStatus)
}

// InlineQueryPresent accepts inline queries with a non-empty query or a
// location attached.
func InlineQueryPresent(ev *Event) bool {
	q := ev.InlineQuery
	return q != nil && (strings.TrimSpace(q.Query) != "" || q.Location != nil)
}

func isMemberStatus(status string) bool {
	switch status {
	case StatusCreator, StatusAdministrator, StatusMember, StatusRestricted:
		return true
	}
	return false
}

// parseCommand extracts the command name, the lowercased bot mention and
// the arguments from a message. It handles "/command", "/command args", and
// "/command@botname args".
func parseCommand(text string) (cmd, mention, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", ""
	}

	text = text[1:] // strip leading "/"
	parts := strings.SplitN(text, " ", 2)
	cmd = parts[0]
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	if at := strings.Index(cmd, "@"); at != -1 {
		cmd, mention = cmd[:at], cmd[at+1:]
	}

	return strings.ToLower(cmd), strings.ToLower(mention), args
}
