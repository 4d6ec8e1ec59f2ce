// Package wire frames a byte-stream transport into discrete protocol lines
// and tracks the lifecycle of one session.
//
// Inbound data is split on line feeds with trailing carriage returns
// stripped, so both CRLF and bare LF terminated input is accepted; outbound
// lines are always written with the full two-byte CR LF terminator in a
// single transport write. Line length is unbounded at this layer.
//
// The package makes no transport decisions of its own: a Conn wraps whatever
// Transport it is given. NetDialer and WebSocketDialer cover the common
// cases.
package wire
