package wire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/ircmesh/logging"
)

// delim is the outbound line terminator. Input additionally accepts a bare
// LF; a trailing CR is stripped when present.
var delim = []byte("\r\n")

// ErrNotConnected reports a write attempted while the session is not
// connected.
var ErrNotConnected = errors.New("not connected")

// MessageFunc receives each complete inbound line, terminator stripped. The
// slice is only valid for the duration of the call.
type MessageFunc func(line []byte)

// ConnLostFunc is invoked exactly once when the session is torn down. err is
// nil for a local close or clean remote EOF.
type ConnLostFunc func(c *Conn, err error)

// Options holds configuration overrides passed to NewConn().
type Options struct {
	// Logger receives wire-level diagnostics.
	Logger logging.Logger
	// OnMessage receives complete inbound lines.
	OnMessage MessageFunc
	// OnConnectionLost is invoked once on teardown.
	OnConnectionLost ConnLostFunc
}

// Conn frames a byte-stream transport into protocol lines. It owns the
// frame buffer for its session: a partial trailing line is retained until
// the terminator arrives or the session closes, and is never handed to the
// message callback incomplete.
type Conn struct {
	id        string
	transport Transport
	logger    logging.Logger

	onMessage MessageFunc
	onLost    ConnLostFunc

	mu    sync.Mutex
	state State
	buf   []byte

	writeMu  sync.Mutex
	lostOnce sync.Once
}

// NewConn wraps an established transport. The returned Conn is in
// StateConnected; the caller usually starts ReadLoop on a supervisor next.
func NewConn(transport Transport, optFns ...func(o *Options)) *Conn {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Conn{
		id:        uuid.New().String(),
		transport: transport,
		logger:    opts.Logger,
		onMessage: opts.OnMessage,
		onLost:    opts.OnConnectionLost,
		state:     StateConnected,
	}
}

// ID returns the session identifier.
func (c *Conn) ID() string { return c.id }

// State returns the current session state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// IsClosing reports whether the session has started or finished teardown.
func (c *Conn) IsClosing() bool {
	s := c.State()
	return s == StateClosing || s == StateClosed
}

// Feed appends a chunk to the frame buffer and emits every complete line it
// now holds, in order. The unterminated tail stays buffered.
func (c *Conn) Feed(chunk []byte) {
	c.mu.Lock()
	c.buf = append(c.buf, chunk...)

	var lines [][]byte
	for {
		idx := bytes.IndexByte(c.buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSpace(c.buf[:idx])
		c.buf = c.buf[idx+1:]
		lines = append(lines, line)
	}
	c.mu.Unlock()

	if c.onMessage == nil {
		return
	}
	for _, line := range lines {
		c.onMessage(line)
	}
}

// Write trims the line, appends the CR LF terminator and performs one atomic
// transport write. It fails with ErrNotConnected when the session is not
// connected.
func (c *Conn) Write(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.State() != StateConnected {
		return fmt.Errorf("write %q: %w", line, ErrNotConnected)
	}

	out := append([]byte(strings.TrimSpace(line)), delim...)
	if _, err := c.transport.Write(out); err != nil {
		return fmt.Errorf("write %q: %w", line, err)
	}
	return nil
}

// Close starts teardown. It is idempotent: only the first call closes the
// transport, and the connection-lost callback still fires exactly once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	c.mu.Unlock()

	err := c.transport.Close()
	c.connectionLost(nil)
	if err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}

// connectionLost performs teardown bookkeeping at most once per session, no
// matter how many times the transport reports a loss or Close is called.
func (c *Conn) connectionLost(err error) {
	c.lostOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()

		if err != nil {
			c.logger.Debug("connection lost", "session_id", c.id, "error", err)
		} else {
			c.logger.Debug("connection closed", "session_id", c.id)
		}
		if c.onLost != nil {
			c.onLost(c, err)
		}
	})
}

// ReadLoop pumps the transport into Feed until EOF, a transport error or
// ctx cancellation, then reports the loss. Clean EOF and local close are not
// errors.
func (c *Conn) ReadLoop(ctx context.Context) error {
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			c.connectionLost(nil)
			return nil
		}

		n, err := c.transport.Read(buf)
		if n > 0 {
			c.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || c.IsClosing() {
				c.connectionLost(nil)
			} else {
				c.connectionLost(err)
			}
			return nil
		}
	}
}
