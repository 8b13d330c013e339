package core

import "time"

const ParseModeHTML = "HTML"

// Notification is an outbound text message.
type Notification struct {
	ChatID    int64
	Text      string
	ParseMode string
	// ReplyTo quotes the given message id when non-zero.
	ReplyTo int64
	// LocationButton, when set, attaches a one-time keyboard with a single
	// share-location button carrying this label.
	LocationButton string
	RemoveKeyboard bool
}

// PollRequest describes a vote to open in a chat.
type PollRequest struct {
	ChatID     int64
	Question   string
	Options    []string
	Anonymous  bool
	OpenPeriod time.Duration
}

// SentPoll identifies a poll created on the platform.
type SentPoll struct {
	PollID    string
	MessageID int64
}

type Photo struct {
	ChatID  int64
	Path    string
	Caption string
}

// InlineResult is a single article offered in reply to an inline query.
type InlineResult struct {
	ID          string
	Title       string
	Description string
	Text        string
	ParseMode   string
}

type InlineAnswer struct {
	QueryID   string
	Results   []InlineResult
	CacheTime time.Duration
}
