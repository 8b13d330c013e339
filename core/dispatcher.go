package core

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

const (
	defaultMaxConcurrent = 8
	pendingPerWorker     = 32
	respondTimeout       = 10 * time.Second
)

// Dispatcher runs every inbound event through the global middleware chain
// and the router. Events sharing a chat, poll or inline user are processed
// one at a time in arrival order; unrelated events run concurrently up to a
// fixed limit. Handler errors and panics stop here and never reach the
// caller.
type Dispatcher struct {
	router   *Router
	chain    Middleware
	notifier Notifier
	logger   *slog.Logger
	sem      chan struct{} // running handlers
	pending  chan struct{} // submitted, not yet finished
	keys     *keyedQueue
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Middleware wraps the router in the
// order given, the first being outermost. A non-positive maxConcurrent
// selects the default.
func NewDispatcher(router *Router, notifier Notifier, logger *slog.Logger, maxConcurrent int, mw ...Middleware) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Dispatcher{
		router:   router,
		chain:    Chain(mw...),
		notifier: notifier,
		logger:   logger,
		sem:      make(chan struct{}, maxConcurrent),
		pending:  make(chan struct{}, maxConcurrent*pendingPerWorker),
		keys:     newKeyedQueue(),
	}
}

// Handle processes ev to completion and returns the outcome. It waits for
// earlier events with the same serial key but does not take a worker slot.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) Outcome {
	turn, done := d.keys.Enqueue(serialKey(&ev))
	defer done()
	<-turn
	return d.handle(ctx, &ev)
}

// Submit queues ev behind earlier events with the same serial key and
// returns. A worker slot is taken only once ev reaches the head of its
// queue, so a burst in one chat holds at most one slot. Submit blocks while
// too many events are pending and gives up when ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, ev Event) {
	select {
	case d.pending <- struct{}{}:
	case <-ctx.Done():
		d.logger.Warn("event dropped on shutdown", "update_id", ev.UpdateID)
		return
	}

	turn, done := d.keys.Enqueue(serialKey(&ev))
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.pending }()
		defer done()

		<-turn
		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			d.logger.Warn("event dropped on shutdown", "update_id", ev.UpdateID)
			return
		}
		defer func() { <-d.sem }()
		d.handle(ctx, &ev)
	}()
}

func (d *Dispatcher) handle(ctx context.Context, ev *Event) Outcome {
	out, err := d.dispatch(ctx, ev)
	if err != nil {
		d.logger.Error("handler failed", "kind", ev.Kind.String(), "content", ev.Summary(), "error", err)
		d.respondFailure(ctx, ev, err)
	}
	return out
}

// Wait blocks until all submitted events are processed.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, ev *Event) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = OutcomeHandled, fmt.Errorf("panic: %v", r)
		}
	}()
	return d.chain(ctx, ev, d.router.Dispatch)
}

// respondFailure tells the chat a message event failed. Other kinds have
// no chat to answer in and are only logged.
func (d *Dispatcher) respondFailure(ctx context.Context, ev *Event, err error) {
	if ev.Kind != KindMessage || ev.Message == nil {
		return
	}

	text := "Sorry, something went wrong."
	if cmd, _ := ev.Command(); cmd != "" {
		text = fmt.Sprintf("Error running /%s: %s", cmd, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), respondTimeout)
	defer cancel()

	chatID := ev.Message.Chat.ID
	if err := d.notifier.Send(ctx, Notification{ChatID: chatID, Text: text}); err != nil {
		d.logger.Error("failed to send response", "chat_id", chatID, "error", err)
	}
}

// serialKey names the resource an event mutates: its chat, its poll, or for
// inline queries the asking user.
func serialKey(ev *Event) string {
	switch ev.Kind {
	case KindPoll:
		if ev.Poll != nil {
			return "poll:" + ev.Poll.ID
		}
	case KindInlineQuery:
		if ev.InlineQuery != nil {
			return "user:" + strconv.FormatInt(ev.InlineQuery.From.ID, 10)
		}
	default:
		if chat, ok := ev.Chat(); ok {
			return "chat:" + strconv.FormatInt(chat.ID, 10)
		}
	}
	return "update:" + strconv.FormatInt(ev.UpdateID, 10)
}

// keyedQueue orders work per key. Each Enqueue call waits for the previous
// call on the same key to finish; keys with nothing queued are forgotten.
type keyedQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

var closedTurn = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func newKeyedQueue() *keyedQueue {
	return &keyedQueue{tails: make(map[string]chan struct{})}
}

// Enqueue appends a caller to the queue for key. The returned channel is
// closed when it is the caller's turn; done must be called exactly once,
// after the work finishes, to hand the turn to the next caller.
func (k *keyedQueue) Enqueue(key string) (turn <-chan struct{}, done func()) {
	mine := make(chan struct{})

	k.mu.Lock()
	prev, ok := k.tails[key]
	if !ok {
		prev = closedTurn
	}
	k.tails[key] = mine
	k.mu.Unlock()

	return prev, func() {
		k.mu.Lock()
		if k.tails[key] == mine {
			delete(k.tails, key)
		}
		k.mu.Unlock()
		close(mine)
	}
}

func (k *keyedQueue) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.tails)
}
