package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is one captured log call.
type Entry struct {
	Level string
	Msg   string
	Args  []any
}

// RecordingLogger implements logging.Logger and captures every call for
// assertions. Safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger { return &RecordingLogger{} }

func (l *RecordingLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
}

// Debug captures a debug entry.
func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }

// Info captures an info entry.
func (l *RecordingLogger) Info(msg string, args ...any) { l.record("INFO", msg, args...) }

// Warn captures a warn entry.
func (l *RecordingLogger) Warn(msg string, args ...any) { l.record("WARN", msg, args...) }

// Error captures an error entry.
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }

// Entries returns a copy of the captured entries.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Contains reports whether any captured message contains substr.
func (l *RecordingLogger) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if strings.Contains(e.Msg, substr) {
			return true
		}
		if strings.Contains(fmt.Sprint(e.Args...), substr) {
			return true
		}
	}
	return false
}
