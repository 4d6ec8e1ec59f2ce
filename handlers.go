package ircmesh

import (
	"context"

	"github.com/hupe1980/ircmesh/irc"
	"github.com/hupe1980/ircmesh/task"
)

// NextHandler advances the message handler chain with a possibly modified
// line. Calling it past the last handler is a safe no-op.
type NextHandler func(ctx context.Context, line []byte) error

// MessageHandler is one link of the inbound processing chain. A handler may
// call next zero, one or more times, before, after or instead of its own
// logic, and may pass a different line downstream.
type MessageHandler func(ctx context.Context, next NextHandler, client *Client, line []byte) error

// StackProcess runs a handler chain over one inbound line as a supervised
// task. The chain is built right to left: handlers[0] receives a next that
// invokes handlers[1], and so on. An empty chain resolves immediately.
//
// The line is copied before the task starts, so callers may reuse the
// backing slice.
func StackProcess(ctx context.Context, sup *task.Supervisor, handlers []MessageHandler, client *Client, line []byte) *task.Task {
	queue := make([]MessageHandler, len(handlers))
	copy(queue, handlers)

	dup := make([]byte, len(line))
	copy(dup, line)

	var next NextHandler
	next = func(ctx context.Context, line []byte) error {
		if len(queue) == 0 {
			return nil
		}
		h := queue[0]
		queue = queue[1:]
		return h(ctx, next, client, line)
	}

	return sup.Spawn(ctx, "process message", func(ctx context.Context) error {
		return next(ctx, dup)
	})
}

// RFC2812Handler returns the default message handler: it unpacks each line
// per the rfc2812 grammar and triggers the matching event. Lines that fail
// to parse are logged at debug level and skipped, never fatal. The line is
// always passed through to the next handler.
func RFC2812Handler() MessageHandler {
	return func(ctx context.Context, next NextHandler, client *Client, line []byte) error {
		name, payload, err := irc.Unpack(string(line))
		if err != nil {
			client.logger.Debug("failed to parse line", "line", string(line), "error", err)
		} else {
			client.Trigger(ctx, name, payload)
		}
		return next(ctx, line)
	}
}
