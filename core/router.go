package core

import (
	"context"
	"fmt"
	"sync"
)

// Outcome reports what the router did with an event.
type Outcome int

const (
	// OutcomeDropped means no handler accepted the event. Not an error.
	OutcomeDropped Outcome = iota
	OutcomeHandled
	// OutcomeFallback means no descriptor matched and the kind's fallback ran.
	OutcomeFallback
	// OutcomeRejected means a middleware answered instead of the handler.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDropped:
		return "dropped"
	case OutcomeHandled:
		return "handled"
	case OutcomeFallback:
		return "fallback"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Handler is the terminal function for a matched event.
type Handler func(ctx context.Context, ev *Event) error

// Descriptor is one (filter, handler) entry of a group.
type Descriptor struct {
	Name        string
	Kind        EventKind
	Filter      Filter
	Handler     Handler
	Middlewares []Middleware
}

// Group is an ordered set of descriptors behind a shared guard.
type Group struct {
	name        string
	guard       Filter
	middlewares []Middleware
	descriptors []Descriptor
	frozen      *bool
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Use attaches middleware to every descriptor of the group. The first
// registered middleware is outermost.
func (g *Group) Use(mw ...Middleware) *Group {
	g.mustNotBeFrozen()
	g.middlewares = append(g.middlewares, mw...)
	return g
}

// Handle appends a descriptor for events of the given kind. A nil filter
// accepts every event of that kind.
func (g *Group) Handle(kind EventKind, name string, f Filter, h Handler, mw ...Middleware) *Group {
	g.mustNotBeFrozen()
	if f == nil {
		f = Any
	}
	g.descriptors = append(g.descriptors, Descriptor{
		Name:        name,
		Kind:        kind,
		Filter:      f,
		Handler:     h,
		Middlewares: mw,
	})
	return g
}

func (g *Group) Message(name string, f Filter, h Handler, mw ...Middleware) *Group {
	return g.Handle(KindMessage, name, f, h, mw...)
}

func (g *Group) InlineQuery(name string, f Filter, h Handler, mw ...Middleware) *Group {
	return g.Handle(KindInlineQuery, name, f, h, mw...)
}

func (g *Group) Poll(name string, f Filter, h Handler, mw ...Middleware) *Group {
	return g.Handle(KindPoll, name, f, h, mw...)
}

func (g *Group) MemberUpdate(name string, f Filter, h Handler, mw ...Middleware) *Group {
	return g.Handle(KindMemberUpdate, name, f, h, mw...)
}

func (g *Group) mustNotBeFrozen() {
	if *g.frozen {
		panic(fmt.Sprintf("router: group %q modified after first dispatch", g.name))
	}
}

// match returns the first descriptor accepting ev. Group-level and
// descriptor-level middleware are not consulted.
func (g *Group) match(ev *Event) (Descriptor, bool) {
	if !g.guard(ev) {
		return Descriptor{}, false
	}
	for _, d := range g.descriptors {
		if d.Kind == ev.Kind && d.Filter(ev) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Router selects at most one handler per event from an ordered list of
// groups. It is built once at startup and frozen on first dispatch.
type Router struct {
	groups    []*Group
	fallbacks map[EventKind]Handler
	frozen    bool
	freeze    sync.Once
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{fallbacks: make(map[EventKind]Handler)}
}

// Group appends a new handler group. A nil guard accepts every event.
func (r *Router) Group(name string, guard Filter) *Group {
	if r.frozen {
		panic(fmt.Sprintf("router: group %q added after first dispatch", name))
	}
	if guard == nil {
		guard = Any
	}
	g := &Group{name: name, guard: guard, frozen: &r.frozen}
	r.groups = append(r.groups, g)
	return g
}

// Fallback sets the handler run when no descriptor matches an event of kind.
func (r *Router) Fallback(kind EventKind, h Handler) {
	if r.frozen {
		panic("router: fallback set after first dispatch")
	}
	r.fallbacks[kind] = h
}

// Groups returns the registered groups in order.
func (r *Router) Groups() []*Group {
	out := make([]*Group, len(r.groups))
	copy(out, r.groups)
	return out
}

// Match reports which group and descriptor would handle ev.
func (r *Router) Match(ev *Event) (*Group, Descriptor, bool) {
	for _, g := range r.groups {
		if d, ok := g.match(ev); ok {
			return g, d, true
		}
	}
	return nil, Descriptor{}, false
}

// Dispatch runs the first matching handler, wrapped in its group and
// descriptor middleware. Unmatched events run the kind's fallback if one is
// set and are otherwise dropped.
func (r *Router) Dispatch(ctx context.Context, ev *Event) (Outcome, error) {
	r.freeze.Do(func() { r.frozen = true })

	g, d, ok := r.Match(ev)
	if !ok {
		if fb := r.fallbacks[ev.Kind]; fb != nil {
			return OutcomeFallback, fb(ctx, ev)
		}
		return OutcomeDropped, nil
	}

	mws := make([]Middleware, 0, len(g.middlewares)+len(d.Middlewares))
	mws = append(mws, g.middlewares...)
	mws = append(mws, d.Middlewares...)

	return Chain(mws...)(ctx, ev, terminal(d.Handler))
}

func terminal(h Handler) Next {
	return func(ctx context.Context, ev *Event) (Outcome, error) {
		return OutcomeHandled, h(ctx, ev)
	}
}
