// Package irc carries the static rfc2812 vocabulary: the inbound grammar
// and field-extraction rules (Unpack), the numeric reply-code table, and the
// outbound command templates (RegisterDefaults).
//
// The engine itself is protocol-agnostic; this package is pure data plugged
// into it through the client's message handler chain and serializer. See
// https://tools.ietf.org/html/rfc2812 for the grammar.
package irc
