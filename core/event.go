package core

import (
	"strings"
	"time"
)

// EventKind tags which payload of an Event is set.
type EventKind int

const (
	KindMessage EventKind = iota
	KindInlineQuery
	KindPoll
	KindMemberUpdate
)

func (k EventKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindInlineQuery:
		return "inline_query"
	case KindPoll:
		return "poll"
	case KindMemberUpdate:
		return "chat_member"
	default:
		return "unknown"
	}
}

// ChatType is the platform chat type.
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatChannel    ChatType = "channel"
)

// IsMultiParty reports whether more than two parties can take part in the chat.
func (t ChatType) IsMultiParty() bool {
	return t == ChatGroup || t == ChatSupergroup
}

type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type Chat struct {
	ID    int64
	Type  ChatType
	Title string
}

type Location struct {
	Latitude  float64
	Longitude float64
}

// Message is an incoming chat message.
type Message struct {
	ID             int64
	From           *User
	Chat           Chat
	Date           time.Time
	Text           string
	Caption        string
	Location       *Location
	NewChatMembers []User
}

// InlineQuery is a query typed after the bot's username in any chat.
type InlineQuery struct {
	ID       string
	From     User
	Query    string
	Location *Location
}

type PollOption struct {
	Text       string
	VoterCount int
}

// Poll is a snapshot of a poll's state delivered by the platform.
type Poll struct {
	ID       string
	Question string
	Options  []PollOption
	IsClosed bool
}

// Member statuses reported in membership updates.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
	StatusMember        = "member"
	StatusRestricted    = "restricted"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
)

// MemberUpdate is a change of one user's membership in a chat.
type MemberUpdate struct {
	Chat      Chat
	From      User
	Date      time.Time
	Member    User
	OldStatus string
	NewStatus string
}

// Event is a single inbound notification from the platform. Exactly one
// payload pointer matching Kind is set. Events are not mutated after receipt.
type Event struct {
	UpdateID    int64
	Kind        EventKind
	ReceivedAt  time.Time
	Message     *Message
	InlineQuery *InlineQuery
	Poll        *Poll
	Member      *MemberUpdate
}

// Actor returns the user that caused the event, or nil when the variant has none.
func (e *Event) Actor() *User {
	switch e.Kind {
	case KindMessage:
		if e.Message != nil {
			return e.Message.From
		}
	case KindInlineQuery:
		if e.InlineQuery != nil {
			u := e.InlineQuery.From
			return &u
		}
	case KindMemberUpdate:
		if e.Member != nil {
			u := e.Member.From
			return &u
		}
	}
	return nil
}

// Chat returns the originating chat when the variant carries one.
func (e *Event) Chat() (Chat, bool) {
	switch e.Kind {
	case KindMessage:
		if e.Message != nil {
			return e.Message.Chat, true
		}
	case KindMemberUpdate:
		if e.Member != nil {
			return e.Member.Chat, true
		}
	}
	return Chat{}, false
}

// Summary returns a human-readable content summary: text, then caption, then
// inline query, falling back to the kind tag.
func (e *Event) Summary() string {
	switch {
	case e.Message != nil && e.Message.Text != "":
		return e.Message.Text
	case e.Message != nil && e.Message.Caption != "":
		return e.Message.Caption
	case e.InlineQuery != nil && e.InlineQuery.Query != "":
		return e.InlineQuery.Query
	}
	return e.Kind.String()
}

// Time returns when the event was created on the platform, or when it was
// received if the variant carries no date.
func (e *Event) Time() time.Time {
	switch {
	case e.Message != nil && !e.Message.Date.IsZero():
		return e.Message.Date
	case e.Member != nil && !e.Member.Date.IsZero():
		return e.Member.Date
	}
	return e.ReceivedAt
}

// Command returns the command name and arguments of a message event, or
// empty strings when the event is not a command.
func (e *Event) Command() (cmd, args string) {
	if e.Kind != KindMessage || e.Message == nil {
		return "", ""
	}
	cmd, _, args = parseCommand(e.Message.Text)
	return cmd, args
}

// EventHandler consumes inbound events.
type EventHandler func(ev Event)
