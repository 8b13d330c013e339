package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdelaire/skybot/core/journal"
)

// NotAuthorizedText is the notice sent when AdminGate rejects an event.
const NotAuthorizedText = "You are not authorized to use this command."

// Next invokes the rest of the chain.
type Next func(ctx context.Context, ev *Event) (Outcome, error)

// Middleware wraps handler invocation. It either calls next or answers the
// event itself.
type Middleware func(ctx context.Context, ev *Event, next Next) (Outcome, error)

// Chain composes middleware into one. The first middleware is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, ev *Event, next Next) (Outcome, error) {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw, inner := mws[i], h
			h = func(ctx context.Context, ev *Event) (Outcome, error) {
				return mw(ctx, ev, inner)
			}
		}
		return h(ctx, ev)
	}
}

// Authorizer decides whether an identity may use restricted handlers.
type Authorizer interface {
	Allowed(id int64) (bool, error)
}

// InteractionLogging appends one journal record per event that has an actor.
// The record is written after next returns, also when next fails or panics.
// Sink failures are logged and never affect the outcome.
func InteractionLogging(sink journal.Sink, version string, logger *slog.Logger) Middleware {
	return func(ctx context.Context, ev *Event, next Next) (out Outcome, err error) {
		actor := ev.Actor()
		if actor == nil {
			return next(ctx, ev)
		}

		start := time.Now()
		rec := journal.Record{
			Time:         start,
			Version:      version,
			Kind:         ev.Kind.String(),
			ActorID:      actor.ID,
			Username:     actor.Username,
			Name:         actor.FullName(),
			LanguageCode: actor.LanguageCode,
			Content:      ev.Summary(),
		}
		if chat, ok := ev.Chat(); ok {
			rec.ChatID = chat.ID
			rec.ChatType = string(chat.Type)
			rec.ChatTitle = chat.Title
		}
		if ev.Message != nil {
			rec.MessageID = ev.Message.ID
		}

		completed := false
		defer func() {
			rec.Duration = time.Since(start)
			rec.Outcome = "panic"
			if completed {
				rec.Outcome = out.String()
			}
			if err != nil {
				rec.Error = err.Error()
			}
			if werr := sink.Append(rec); werr != nil {
				logger.Error("interaction log append failed", "error", werr)
			}
		}()

		out, err = next(ctx, ev)
		completed = true
		return out, err
	}
}

// AdminGate lets an event through only when its actor is currently on the
// authorization list. The list is consulted on every call.
func AdminGate(auth Authorizer, notifier Notifier, logger *slog.Logger) Middleware {
	return func(ctx context.Context, ev *Event, next Next) (Outcome, error) {
		actor := ev.Actor()
		if actor != nil {
			ok, err := auth.Allowed(actor.ID)
			if err != nil {
				logger.Error("read authorization list", "error", err)
			}
			if ok {
				return next(ctx, ev)
			}
		}

		var userID int64
		if actor != nil {
			userID = actor.ID
		}
		logger.Warn("unauthorized access attempt", "user_id", userID, "content", ev.Summary())

		chat, ok := ev.Chat()
		if !ok {
			return OutcomeRejected, nil
		}
		if err := notifier.Send(ctx, Notification{ChatID: chat.ID, Text: NotAuthorizedText}); err != nil {
			logger.Error("failed to send response", "chat_id", chat.ID, "error", err)
		}
		return OutcomeRejected, nil
	}
}
