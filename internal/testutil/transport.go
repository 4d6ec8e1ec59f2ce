package testutil

import (
	"bytes"
	"io"
	"sync"
)

// Transport is an in-memory stand-in for a network connection. Tests feed
// inbound bytes with Deliver and inspect outbound bytes with Written; Read
// blocks like a real socket until data arrives or the transport closes.
type Transport struct {
	mu     sync.Mutex
	cond   *sync.Cond
	inbox  bytes.Buffer
	outbox bytes.Buffer
	closed bool
}

// NewTransport returns an open Transport with empty buffers.
func NewTransport() *Transport {
	t := &Transport{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Deliver queues bytes for the next Read, as if the peer had sent them.
func (t *Transport) Deliver(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inbox.Write(data)
	t.cond.Broadcast()
}

// DeliverString queues a string for the next Read.
func (t *Transport) DeliverString(s string) { t.Deliver([]byte(s)) }

// Read blocks until delivered data is available or the transport is closed,
// then drains up to len(p) bytes. A close with the inbox empty yields io.EOF.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.inbox.Len() == 0 && !t.closed {
		t.cond.Wait()
	}
	if t.inbox.Len() == 0 {
		return 0, io.EOF
	}
	return t.inbox.Read(p)
}

// Write records outbound bytes. Writing after Close fails like a dead
// socket.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, io.ErrClosedPipe
	}
	return t.outbox.Write(p)
}

// Close marks the transport dead and wakes blocked readers. It is
// idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.cond.Broadcast()
	return nil
}

// Closed reports whether Close has been called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

// Written returns a copy of everything written so far.
func (t *Transport) Written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]byte, t.outbox.Len())
	copy(out, t.outbox.Bytes())
	return out
}

// Reset clears the outbound record between test phases.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.outbox.Reset()
}
