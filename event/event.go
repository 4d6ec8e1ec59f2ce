package event

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/ircmesh/logging"
	"github.com/hupe1980/ircmesh/task"
)

// eventKey is the payload key carrying the normalized event name.
const eventKey = "__event__"

// Payload carries the named parameters an event was triggered with. Handlers
// should tolerate keys they don't know about.
type Payload map[string]any

// Event returns the normalized name of the event this payload belongs to, or
// "" if the payload was not produced by a trigger.
func (p Payload) Event() string {
	name, _ := p[eventKey].(string)
	return name
}

// clone returns a shallow copy so a trigger never aliases caller state.
func (p Payload) clone() Payload {
	cp := make(Payload, len(p)+1)
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Handler processes one occurrence of an event. Handlers run concurrently
// with each other on the registry's supervisor; a returned error is logged
// and never affects sibling handlers or future triggers.
type Handler func(ctx context.Context, payload Payload) error

// Normalize canonicalizes an event name: leading/trailing whitespace is
// ignored and matching is case insensitive, so " bEgIn " and "BEGIN" denote
// the same event.
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Mode selects how WaitFor combines multiple events.
type Mode string

const (
	// ModeFirst resolves as soon as any one of the listed events fires and
	// cancels the remaining waits.
	ModeFirst Mode = "first"
	// ModeAll resolves once every listed event has fired at least once.
	ModeAll Mode = "all"
)

// Options holds dependency overrides passed to NewRegistry().
type Options struct {
	// Logger receives handler failures.
	Logger logging.Logger
	// Supervisor runs scheduled handlers. A private one is created if nil.
	Supervisor *task.Supervisor
}

// Registry maps event names to ordered handler lists and wakes waiters when
// events fire. The zero set of handlers is valid for any name: triggering an
// unknown event is a no-op and waiting on one blocks until it first fires.
//
// The mutex guards both the handler lists and the waiter sets. Trigger's
// lock hold is the commit point: handlers registered and waiters suspended
// strictly before it are included, later ones are not.
type Registry struct {
	logger logging.Logger
	sup    *task.Supervisor

	mu       sync.Mutex
	handlers map[string][]Handler
	waiters  map[string][]chan string
}

// NewRegistry constructs a Registry with optional overrides.
func NewRegistry(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Supervisor == nil {
		opts.Supervisor = task.NewSupervisor(func(o *task.Options) { o.Logger = opts.Logger })
	}

	return &Registry{
		logger:   opts.Logger,
		sup:      opts.Supervisor,
		handlers: make(map[string][]Handler),
		waiters:  make(map[string][]chan string),
	}
}

// Supervisor returns the supervisor running this registry's handlers.
func (r *Registry) Supervisor() *task.Supervisor { return r.sup }

// On registers a handler for an event and returns the handler unchanged, so
// registrations can be chained or stored by the caller. Handlers fire in
// registration order of scheduling; there is no ordering guarantee between
// sibling handlers of one trigger at runtime.
func (r *Registry) On(event string, handler Handler) Handler {
	name := Normalize(event)

	r.mu.Lock()
	r.handlers[name] = append(r.handlers[name], handler)
	r.mu.Unlock()

	return handler
}

// HandlerCount reports how many handlers are registered for an event.
func (r *Registry) HandlerCount(event string) int {
	name := Normalize(event)

	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.handlers[name])
}

// Trigger fires an event. It snapshots the currently registered handlers
// (later registrations do not retroactively receive this trigger), schedules
// each one on the supervisor, and only then pulses the event's waiters so
// that every waiter suspended before the commit point resumes exactly once.
//
// Trigger returns before handlers necessarily finish; the returned task
// resolves once all handlers scheduled by this trigger have completed.
func (r *Registry) Trigger(ctx context.Context, event string, payload Payload) *task.Task {
	start := time.Now()
	name := Normalize(event)

	p := payload.clone()
	p[eventKey] = name

	// Commit point: snapshot handlers and claim the current waiter set
	// under one lock hold.
	r.mu.Lock()
	handlers := make([]Handler, len(r.handlers[name]))
	copy(handlers, r.handlers[name])
	pending := r.waiters[name]
	delete(r.waiters, name)
	r.mu.Unlock()

	tasks := make([]*task.Task, 0, len(handlers))
	for _, handler := range handlers {
		h := handler
		tasks = append(tasks, r.sup.Spawn(ctx, "handle "+name, func(ctx context.Context) error {
			if err := h(ctx, p); err != nil {
				r.logger.Error("event handler failed", "event", name, "error", err)
			}
			return nil
		}))
	}

	// Wake waiters only after every handler has been scheduled.
	for _, ch := range pending {
		ch <- name
	}

	if cl, ok := r.logger.(*logging.ClientLogger); ok {
		cl.LogDispatch(name, len(handlers), time.Since(start))
	}

	return r.sup.Join(ctx, "join "+name, tasks...)
}

// WaitChan registers a waiter synchronously and returns the channel the next
// trigger of the event will deliver the normalized name on. Wait is built on
// it; use it directly when the wait must be in place before the caller
// performs the action that fires the event.
func (r *Registry) WaitChan(event string) <-chan string {
	name := Normalize(event)
	ch := make(chan string, 1)

	r.mu.Lock()
	r.waiters[name] = append(r.waiters[name], ch)
	r.mu.Unlock()

	return ch
}

// Wait suspends until the event next fires and returns the normalized event
// name. Waiting on a name nothing ever triggers blocks until ctx is
// cancelled; that is not an error condition of the registry.
func (r *Registry) Wait(ctx context.Context, event string) (string, error) {
	name := Normalize(event)
	ch := make(chan string, 1)

	r.mu.Lock()
	r.waiters[name] = append(r.waiters[name], ch)
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		r.removeWaiter(name, ch)
		return "", ctx.Err()
	case got := <-ch:
		return got, nil
	}
}

// removeWaiter drops a cancelled waiter. If a concurrent trigger already
// claimed the channel this is a harmless no-op.
func (r *Registry) removeWaiter(name string, ch chan string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := r.waiters[name]
	for i, c := range pending {
		if c == ch {
			r.waiters[name] = append(pending[:i:i], pending[i+1:]...)
			break
		}
	}
	if len(r.waiters[name]) == 0 {
		delete(r.waiters, name)
	}
}

// WaitFor waits on several events at once. In ModeFirst it returns the first
// event that fires and cancels the pending waits on the rest. In ModeAll it
// returns once every event has fired at least once, with results in input
// order rather than completion order. An empty event list resolves
// immediately.
func (r *Registry) WaitFor(ctx context.Context, events []string, mode Mode) ([]string, error) {
	if len(events) == 0 {
		return nil, nil
	}

	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = Normalize(ev)
	}

	switch mode {
	case ModeFirst:
		waitCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		winner := make(chan string, len(names))
		errs := make(chan error, len(names))
		for _, name := range names {
			go func(name string) {
				got, err := r.Wait(waitCtx, name)
				if err != nil {
					errs <- err
					return
				}
				winner <- got
			}(name)
		}

		var firstErr error
		for range names {
			select {
			case got := <-winner:
				return []string{got}, nil
			case err := <-errs:
				firstErr = err
			}
		}
		return nil, firstErr

	case ModeAll:
		errs := make(chan error, len(names))
		for _, name := range names {
			go func(name string) {
				_, err := r.Wait(ctx, name)
				errs <- err
			}(name)
		}

		for range names {
			if err := <-errs; err != nil {
				return nil, err
			}
		}
		return names, nil

	default:
		return nil, &UnknownModeError{Mode: mode}
	}
}
