// Package polls runs the vote that decides whether the bot leaves a group.
//
// A vote moves NoVote → VoteOpen when Start creates the platform poll and
// records it in the Store, and VoteOpen → Resolved when the platform reports
// the poll closed. The Store is the only link between the two: a closure for
// a poll that is not recorded is ignored, which also makes repeated closure
// callbacks harmless once the first one evicted the record.
package polls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jdelaire/skybot/core"
)

const (
	Question  = "Delete the bot from the group?"
	OptionYes = "Yes"
	OptionNo  = "No"

	// DefaultOpenPeriod is longer than MaxOpenPeriod. The platform documents
	// open_period as 5 to 600 seconds and may reject or clamp longer values;
	// the six hour window is kept for compatibility with existing deployments.
	DefaultOpenPeriod = 6 * time.Hour

	// MaxOpenPeriod is the longest open_period the Bot API documents.
	MaxOpenPeriod = 600 * time.Second
)

// ErrNotGroupChat is returned when a vote is requested outside a group.
var ErrNotGroupChat = errors.New("deletion vote requires a group chat")

// Messenger is the slice of the platform the workflow talks to.
type Messenger interface {
	Send(ctx context.Context, n core.Notification) error
	SendPoll(ctx context.Context, p core.PollRequest) (core.SentPoll, error)
	StopPoll(ctx context.Context, chatID, messageID int64) error
	LeaveChat(ctx context.Context, chatID int64) error
}

// Vote is an open deletion vote.
type Vote struct {
	PollID    string
	ChatID    int64
	MessageID int64
}

// Decision is the outcome of a resolved vote.
type Decision int

const (
	// DecisionNone means the callback was not actionable.
	DecisionNone Decision = iota
	DecisionStay
	DecisionLeave
)

func (d Decision) String() string {
	switch d {
	case DecisionStay:
		return "stay"
	case DecisionLeave:
		return "leave"
	default:
		return "none"
	}
}

// Result describes what Resolve did with a poll callback.
type Result struct {
	PollID   string
	ChatID   int64
	Yes      int
	No       int
	Decision Decision
}

// Workflow starts deletion votes and acts on their closure.
type Workflow struct {
	store      *Store
	messenger  Messenger
	openPeriod time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewWorkflow creates a workflow. A non-positive openPeriod selects
// DefaultOpenPeriod.
func NewWorkflow(store *Store, messenger Messenger, openPeriod time.Duration, logger *slog.Logger) *Workflow {
	if openPeriod <= 0 {
		openPeriod = DefaultOpenPeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	if openPeriod > MaxOpenPeriod {
		logger.Warn("poll open period exceeds the documented platform limit",
			"open_period", openPeriod, "limit", MaxOpenPeriod)
	}
	return &Workflow{
		store:      store,
		messenger:  messenger,
		openPeriod: openPeriod,
		logger:     logger,
		inFlight:   make(map[string]bool),
	}
}

// Start opens a non-anonymous Yes/No vote in chat and records it. The vote
// is only reported as started once the record is on disk; if persisting
// fails the platform poll is stopped and the error returned.
func (w *Workflow) Start(ctx context.Context, chat core.Chat) (Vote, error) {
	if !chat.Type.IsMultiParty() {
		return Vote{}, ErrNotGroupChat
	}

	sent, err := w.messenger.SendPoll(ctx, core.PollRequest{
		ChatID:     chat.ID,
		Question:   Question,
		Options:    []string{OptionYes, OptionNo},
		Anonymous:  false,
		OpenPeriod: w.openPeriod,
	})
	if err != nil {
		return Vote{}, fmt.Errorf("send poll: %w", err)
	}

	if err := w.store.Put(sent.PollID, chat.ID); err != nil {
		if serr := w.messenger.StopPoll(ctx, chat.ID, sent.MessageID); serr != nil {
			err = errors.Join(err, fmt.Errorf("stop unrecorded poll: %w", serr))
		}
		return Vote{}, err
	}

	w.logger.Info("started deletion poll", "poll_id", sent.PollID, "chat_id", chat.ID)
	return Vote{PollID: sent.PollID, ChatID: chat.ID, MessageID: sent.MessageID}, nil
}

// Resolve handles a poll-state callback. Open polls, unknown polls and
// duplicates of a closure already being processed are ignored. For a closed,
// recorded poll it announces the tally, leaves the chat on a strict Yes
// majority, and evicts the record whatever happened before. Announcement and
// leave failures are not retried; they are returned joined together.
func (w *Workflow) Resolve(ctx context.Context, poll core.Poll) (Result, error) {
	res := Result{PollID: poll.ID}
	if !poll.IsClosed {
		return res, nil
	}

	chatID, ok := w.claim(poll.ID)
	if !ok {
		return res, nil
	}
	defer w.release(poll.ID)

	res.ChatID = chatID
	res.Yes, res.No = Tally(poll.Options)
	res.Decision = DecisionStay
	if res.Yes > res.No {
		res.Decision = DecisionLeave
	}

	var errs []error
	if err := w.messenger.Send(ctx, core.Notification{
		ChatID:    chatID,
		Text:      Announcement(res.Yes, res.No, res.Decision),
		ParseMode: core.ParseModeHTML,
	}); err != nil {
		errs = append(errs, fmt.Errorf("send results to chat %d: %w", chatID, err))
	}

	if res.Decision == DecisionLeave {
		if err := w.messenger.LeaveChat(ctx, chatID); err != nil {
			errs = append(errs, fmt.Errorf("leave chat %d: %w", chatID, err))
		} else {
			w.logger.Info("left chat after deletion poll", "poll_id", poll.ID, "chat_id", chatID)
		}
	}

	if err := w.store.Remove(poll.ID); err != nil {
		errs = append(errs, err)
	}

	w.logger.Info("deletion poll resolved", "poll_id", poll.ID, "chat_id", chatID,
		"yes", res.Yes, "no", res.No, "decision", res.Decision.String())
	return res, errors.Join(errs...)
}

// claim marks pollID as being resolved and returns its chat. It fails when
// the poll is unknown or another closure for it is in progress.
func (w *Workflow) claim(pollID string) (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight[pollID] {
		return 0, false
	}
	chatID, ok := w.store.Lookup(pollID)
	if !ok {
		return 0, false
	}
	w.inFlight[pollID] = true
	return chatID, true
}

func (w *Workflow) release(pollID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, pollID)
}

// Tally sums voter counts of the Yes and No options.
func Tally(options []core.PollOption) (yes, no int) {
	for _, o := range options {
		switch o.Text {
		case OptionYes:
			yes += o.VoterCount
		case OptionNo:
			no += o.VoterCount
		}
	}
	return yes, no
}

// Announcement formats the result message for a resolved vote.
func Announcement(yes, no int, d Decision) string {
	var b strings.Builder
	b.WriteString("📊 <b>Deletion Poll Results:</b>\n\n")
	fmt.Fprintf(&b, "✅ Yes: %d\n", yes)
	fmt.Fprintf(&b, "❌ No: %d\n\n", no)
	if d == DecisionLeave {
		b.WriteString("The majority voted <b>Yes</b>. I will now leave the group. Goodbye! 👋")
	} else {
		b.WriteString("The majority voted <b>No</b>. I'm staying! 😊")
	}
	return b.String()
}
