package wire

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
)

// Transport is the injected byte-stream abstraction a Conn frames lines
// over. Anything satisfying io.ReadWriteCloser works: a TCP or TLS socket, a
// websocket adapter, or an in-memory pipe in tests.
type Transport interface {
	io.Reader
	io.Writer
	Close() error
}

// Dialer establishes one Transport per call. The client dials a fresh
// session for every Connect.
type Dialer func(ctx context.Context) (Transport, error)

// NetDialer returns a Dialer for a plain TCP or TLS socket. A nil tlsConfig
// selects plain TCP.
func NetDialer(addr string, tlsConfig *tls.Config) Dialer {
	return func(ctx context.Context) (Transport, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		if tlsConfig == nil {
			return conn, nil
		}

		cfg := tlsConfig.Clone()
		if cfg.ServerName == "" {
			if host, _, err := net.SplitHostPort(addr); err == nil {
				cfg.ServerName = host
			}
		}
		tlsConn := tls.Client(conn, cfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("tls handshake %s: %w", addr, err)
		}
		return tlsConn, nil
	}
}
