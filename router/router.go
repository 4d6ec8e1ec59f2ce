// Package router dispatches PRIVMSG traffic to functions by regular
// expression. It is a thin convenience layer for bots that react to chat
// commands:
//
//	r := router.New(client)
//
//	r.Route(regexp.MustCompile(`^say (?P<words>.+)$`), func(ctx context.Context, m router.Match) error {
//	    return client.Send(ctx, "PRIVMSG", serialize.Params{
//	        "target":  m.Reply(),
//	        "message": m.Fields["words"],
//	    })
//	})
//
// Named capture groups become Match.Fields entries. Routes are tried in
// registration order and only the first match runs.
package router

import (
	"context"
	"regexp"
	"sync"

	"github.com/hupe1980/ircmesh"
	"github.com/hupe1980/ircmesh/event"
	"github.com/hupe1980/ircmesh/logging"
)

// Match carries one matched PRIVMSG into a route function.
type Match struct {
	// Nick is the sender's nickname.
	Nick string
	// Target is where the message was delivered: a channel name, or the
	// client's own nick for a private message.
	Target string
	// Message is the full message text the pattern matched.
	Message string
	// Fields holds the values of the pattern's named capture groups.
	Fields map[string]string
}

// Reply returns the conventional reply target: the channel the message was
// seen on, or the sender for a private message.
func (m Match) Reply() string {
	if len(m.Target) > 0 {
		switch m.Target[0] {
		case '#', '&', '+', '!':
			return m.Target
		}
	}
	return m.Nick
}

// RouteFunc handles one matched message.
type RouteFunc func(ctx context.Context, m Match) error

type route struct {
	pattern *regexp.Regexp
	fn      RouteFunc
}

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger receives route failures.
	Logger logging.Logger
}

// Router listens for PRIVMSG events on a client and runs the first route
// whose pattern matches the message text. Public methods are safe for
// concurrent use.
type Router struct {
	logger logging.Logger

	mu     sync.Mutex
	routes []route
}

// New constructs a Router and registers it as a PRIVMSG handler on the
// client.
func New(client *ircmesh.Client, optFns ...func(o *Options)) *Router {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Router{logger: opts.Logger}
	client.On("PRIVMSG", r.Handle)
	return r
}

// Route registers fn to run on messages matching pattern and returns fn
// unchanged. Earlier registrations take precedence when several patterns
// match.
func (r *Router) Route(pattern *regexp.Regexp, fn RouteFunc) RouteFunc {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes = append(r.routes, route{pattern: pattern, fn: fn})
	return fn
}

// Handle is the event handler entry point. It is exported so callers using
// their own registry wiring can attach it manually.
func (r *Router) Handle(ctx context.Context, payload event.Payload) error {
	nick, _ := payload["nick"].(string)
	target, _ := payload["target"].(string)
	message, _ := payload["message"].(string)

	r.mu.Lock()
	routes := make([]route, len(r.routes))
	copy(routes, r.routes)
	r.mu.Unlock()

	for _, rt := range routes {
		match := rt.pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}

		fields := make(map[string]string)
		for i, name := range rt.pattern.SubexpNames() {
			if name != "" && i < len(match) {
				fields[name] = match[i]
			}
		}

		if err := rt.fn(ctx, Match{Nick: nick, Target: target, Message: message, Fields: fields}); err != nil {
			r.logger.Error("route failed", "pattern", rt.pattern.String(), "error", err)
		}
		return nil
	}
	return nil
}
