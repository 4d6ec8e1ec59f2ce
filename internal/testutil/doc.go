// Package testutil contains helpers used across tests to reduce boilerplate
// when exercising wire sessions and asserting log output: a scriptable
// in-memory transport and a recording logger. These helpers are intentionally
// minimal and are not intended for production usage.
package testutil
