// Package ircmesh provides an event-driven client engine for line-oriented
// (IRC-style) text protocols. It maintains one connection to a remote host,
// frames the raw byte stream into discrete messages, dispatches them to
// application-registered handlers, and serializes outgoing commands against
// protocol templates. Most applications interact with this package by:
//  1. Creating a Client via NewClient() (optionally overriding the dialer,
//     serializer and logger)
//  2. Registering event handlers with On() and, if needed, extra message
//     handlers or command templates
//  3. Calling Connect() and driving the protocol with Send(), Wait() and
//     WaitFor()
//
// The façade delegates framing to wire.Conn, dispatch to event.Registry and
// output formatting to serialize.Serializer while keeping setup and usage
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a TLS config and a
// structured logger.
package ircmesh

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/hupe1980/ircmesh/event"
	"github.com/hupe1980/ircmesh/irc"
	"github.com/hupe1980/ircmesh/logging"
	"github.com/hupe1980/ircmesh/serialize"
	"github.com/hupe1980/ircmesh/task"
	"github.com/hupe1980/ircmesh/wire"
)

// Synthetic events every client triggers regardless of protocol vocabulary.
const (
	// EventClientConnect fires after a session becomes current.
	EventClientConnect = "client_connect"
	// EventClientDisconnect fires exactly once per real session loss.
	EventClientDisconnect = "client_disconnect"
)

// Options configures a Client.
type Options struct {
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
	// Serializer formats outgoing commands. A fresh instance preloaded with
	// the rfc2812 templates is created if nil. Serializers are plain values
	// passed by reference; sharing one between clients is the caller's
	// deliberate choice, never an ambient global.
	Serializer *serialize.Serializer
	// Dialer establishes the transport. Defaults to plain TCP against the
	// client address, or TLS when TLSConfig is set.
	Dialer wire.Dialer
	// TLSConfig selects TLS for the default dialer. Ignored when Dialer is
	// set explicitly.
	TLSConfig *tls.Config
	// SkipDefaultHandlers leaves the message handler chain empty instead of
	// installing the rfc2812 handler.
	SkipDefaultHandlers bool
}

// WithLogger sets the client logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithSerializer supplies an explicitly constructed serializer.
func WithSerializer(s *serialize.Serializer) func(o *Options) {
	return func(o *Options) { o.Serializer = s }
}

// WithDialer supplies a custom transport dialer (e.g. wire.WebSocketDialer).
func WithDialer(d wire.Dialer) func(o *Options) {
	return func(o *Options) { o.Dialer = d }
}

// WithTLSConfig enables TLS on the default TCP dialer.
func WithTLSConfig(cfg *tls.Config) func(o *Options) {
	return func(o *Options) { o.TLSConfig = cfg }
}

// WithoutDefaultHandlers starts the client with an empty message handler
// chain.
func WithoutDefaultHandlers() func(o *Options) {
	return func(o *Options) { o.SkipDefaultHandlers = true }
}

// Client is the connection orchestrator: it owns at most one current wire
// session at a time and composes the supervisor, event registry, serializer
// and message handler chain. Public methods are safe for concurrent use.
type Client struct {
	addr       string
	logger     logging.Logger
	sup        *task.Supervisor
	events     *event.Registry
	serializer *serialize.Serializer
	dialer     wire.Dialer

	mu       sync.Mutex
	conn     *wire.Conn
	handlers []MessageHandler
}

// NewClient constructs a Client for the given "host:port" address with
// optional overrides.
func NewClient(addr string, optFns ...func(o *Options)) (*Client, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Serializer == nil {
		opts.Serializer = serialize.NewSerializer()
		if err := irc.RegisterDefaults(opts.Serializer); err != nil {
			return nil, fmt.Errorf("register default templates: %w", err)
		}
	}
	if opts.Dialer == nil {
		opts.Dialer = wire.NetDialer(addr, opts.TLSConfig)
	}

	sup := task.NewSupervisor(func(o *task.Options) { o.Logger = opts.Logger })

	c := &Client{
		addr:       addr,
		logger:     opts.Logger,
		sup:        sup,
		events:     event.NewRegistry(func(o *event.Options) { o.Logger = opts.Logger; o.Supervisor = sup }),
		serializer: opts.Serializer,
		dialer:     opts.Dialer,
	}
	if !opts.SkipDefaultHandlers {
		c.handlers = []MessageHandler{RFC2812Handler()}
	}
	return c, nil
}

// Addr returns the remote address the client dials.
func (c *Client) Addr() string { return c.addr }

// Serializer returns the client's command serializer, for registering
// additional templates.
func (c *Client) Serializer() *serialize.Serializer { return c.serializer }

// Supervisor returns the supervisor running the client's background work.
func (c *Client) Supervisor() *task.Supervisor { return c.sup }

// Events returns the client's event registry.
func (c *Client) Events() *event.Registry { return c.events }

// IsClosing reports whether the client has no live session.
func (c *Client) IsClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn == nil || c.conn.IsClosing()
}

// AddMessageHandler appends a handler to the inbound chain.
func (c *Client) AddMessageHandler(h MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers = append(c.handlers, h)
}

// PrependMessageHandler inserts a handler at the front of the inbound chain.
func (c *Client) PrependMessageHandler(h MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers = append([]MessageHandler{h}, c.handlers...)
}

// ClearMessageHandlers empties the inbound chain, removing the default
// rfc2812 handler as well.
func (c *Client) ClearMessageHandlers() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers = nil
}

// On registers an event handler and returns it unchanged.
func (c *Client) On(eventName string, handler event.Handler) event.Handler {
	return c.events.On(eventName, handler)
}

// Trigger fires an event; see event.Registry.Trigger for the ordering
// contract.
func (c *Client) Trigger(ctx context.Context, eventName string, payload event.Payload) *task.Task {
	return c.events.Trigger(ctx, eventName, payload)
}

// Wait suspends until the event next fires.
func (c *Client) Wait(ctx context.Context, eventName string) (string, error) {
	return c.events.Wait(ctx, eventName)
}

// WaitFor waits on several events; see event.Registry.WaitFor.
func (c *Client) WaitFor(ctx context.Context, events []string, mode event.Mode) ([]string, error) {
	return c.events.WaitFor(ctx, events, mode)
}

// Connect establishes a session and triggers "client_connect". It returns
// immediately if the client already has a live session. When several
// Connect calls race, only the first session to be assigned becomes current;
// the others tear down their freshly dialed transports silently, without a
// spurious disconnect event.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil && !c.conn.IsClosing() {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	transport, err := c.dialer(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.addr, err)
	}

	conn := wire.NewConn(transport, func(o *wire.Options) {
		o.Logger = c.logger
		o.OnMessage = c.handleMessage
		o.OnConnectionLost = c.handleConnectionLost
	})

	c.mu.Lock()
	if c.conn != nil && !c.conn.IsClosing() {
		c.mu.Unlock()
		// Lost the assignment race; this session never became current, so
		// closing it must not look like a disconnect.
		_ = conn.Close()
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	c.sup.Spawn(context.Background(), "read loop", conn.ReadLoop)
	c.logger.Info("connected", "addr", c.addr, "session_id", conn.ID())
	c.Trigger(context.Background(), EventClientConnect, event.Payload{"addr": c.addr})
	return nil
}

// Disconnect tears down the current session and returns once the
// "client_disconnect" event has fired. It returns immediately if the client
// is not connected. Calling it twice fires the event exactly once.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || conn.IsClosing() {
		return nil
	}

	// Arrange the wait first so the pulse cannot be missed.
	done := c.events.WaitChan(EventClientDisconnect)
	if err := conn.Close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// handleConnectionLost reacts to session teardown. Reports from sessions
// that are not current (superseded by a reconnect, or losers of a Connect
// race) are ignored; the current session's loss clears it and triggers
// "client_disconnect".
func (c *Client) handleConnectionLost(lost *wire.Conn, err error) {
	c.mu.Lock()
	if c.conn != lost {
		c.mu.Unlock()
		c.logger.Debug("ignoring stale session loss", "session_id", lost.ID())
		return
	}
	c.conn = nil
	c.mu.Unlock()

	payload := event.Payload{"addr": c.addr}
	if err != nil {
		payload["error"] = err
	}
	c.logger.Info("disconnected", "addr", c.addr, "session_id", lost.ID())
	c.Trigger(context.Background(), EventClientDisconnect, payload)
}

// handleMessage feeds one framed line through a snapshot of the message
// handler chain. Changes to the chain do not affect lines already in flight.
func (c *Client) handleMessage(line []byte) {
	c.mu.Lock()
	handlers := make([]MessageHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	if cl, ok := c.logger.(*logging.ClientLogger); ok {
		cl.LogLine("recv", string(line))
	}
	StackProcess(context.Background(), c.sup, handlers, c, line)
}

// Send serializes a command against the registered templates and writes the
// resulting line. Serialization errors (unknown command, missing arguments)
// propagate synchronously to the caller.
func (c *Client) Send(ctx context.Context, command string, params serialize.Params) error {
	line, err := c.serializer.Serialize(command, params)
	if err != nil {
		return err
	}
	return c.SendMessage(line)
}

// SendMessage writes a complete protocol line without template processing.
// It fails with wire.ErrNotConnected when the client has no live session.
func (c *Client) SendMessage(line string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("send %q: %w", line, wire.ErrNotConnected)
	}

	if cl, ok := c.logger.(*logging.ClientLogger); ok {
		cl.LogLine("send", line)
	}
	return conn.Write(line)
}
