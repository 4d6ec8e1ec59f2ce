package wire

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/gorilla/websocket"
)

// WebSocketTransport adapts a websocket connection to the Transport
// interface, for servers exposing the protocol over IRCv3-style websocket
// endpoints. Each Write sends one text frame; Read drains incoming frames as
// a continuous byte stream so the Conn framer can split lines as usual.
type WebSocketTransport struct {
	conn   *websocket.Conn
	reader io.Reader
}

// NewWebSocketTransport wraps an already-dialed websocket connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn}
}

// Read implements Transport.
func (t *WebSocketTransport) Read(p []byte) (int, error) {
	for {
		if t.reader == nil {
			_, r, err := t.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			t.reader = r
		}

		n, err := t.reader.Read(p)
		if err == io.EOF {
			// Frame drained, move on to the next one.
			t.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write implements Transport. The full line is sent as one frame.
func (t *WebSocketTransport) Write(p []byte) (int, error) {
	if err := t.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements Transport.
func (t *WebSocketTransport) Close() error {
	return t.conn.Close()
}

// WebSocketDialer returns a Dialer for a websocket endpoint, e.g.
// "wss://irc.example.net/webirc". A nil tlsConfig uses the dialer default.
func WebSocketDialer(url string, tlsConfig *tls.Config) Dialer {
	return func(ctx context.Context) (Transport, error) {
		d := websocket.Dialer{TLSClientConfig: tlsConfig}
		conn, resp, err := d.DialContext(ctx, url, nil)
		if err != nil {
			return nil, fmt.Errorf("dial websocket %s: %w", url, err)
		}
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return NewWebSocketTransport(conn), nil
	}
}
