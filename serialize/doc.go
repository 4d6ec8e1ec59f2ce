// Package serialize turns a command name plus keyword parameters into one
// outgoing protocol line, chosen from the templates registered for that
// command.
//
// A command may have several overlapping templates (overloads). Serialize
// scores every candidate against the supplied parameters: a spec missing a
// required parameter or a declared dependency is disqualified, otherwise its
// score is the number of satisfiable parameters it would consume. The
// highest score wins and ties keep the earliest registration, so more
// specific overloads should be registered first.
//
// Templates use {name} placeholders with optional formatter chains, e.g.
// "JOIN {channel:comma} {key:comma}". The built-in formatters cover list
// joining (join, comma, space), flag rendering (bool) and a no-space guard
// (nospace).
//
// Serializer instances are not safe for concurrent registration; register
// all templates during setup. Serialize itself only reads and may be called
// from any goroutine afterwards.
package serialize
