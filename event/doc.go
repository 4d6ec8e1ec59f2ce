// Package event implements the registry, dispatch and wait primitives the
// client is built on.
//
// Event names form an open set: protocol commands (PRIVMSG, RPL_WELCOME),
// synthetic client events (client_connect, client_disconnect) and arbitrary
// application signals all share one namespace. Names are matched case
// insensitively with surrounding whitespace ignored.
//
// # Ordering contract
//
// Trigger takes the registry lock once; that hold is the commit point.
// Handlers registered before the commit point are included in the trigger,
// later ones are not. Waiters suspended before the commit point are claimed
// by the trigger and woken exactly once, but only after every included
// handler has been handed to the supervisor. Sibling handlers of one trigger
// run concurrently with no mutual ordering.
package event
