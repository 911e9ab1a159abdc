// Package oplog keeps the append-only history of roster and allocation events.
package oplog

import (
	"time"

	"github.com/google/uuid"
)

// InitialMessage is recorded when a log is created.
const InitialMessage = "Queue initialized"

// Entry is one recorded operation. Seq increases with every push.
type Entry struct {
	ID        uuid.UUID
	Seq       int
	Message   string
	Timestamp time.Time
}

// Log is a stack of entries. It is unbounded and never trimmed during a run.
type Log struct {
	entries []Entry
	now     func() time.Time
}

type Option func(*Log)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

func New(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.Push(InitialMessage)
	return l
}

// Push records message as the newest entry.
func (l *Log) Push(message string) Entry {
	e := Entry{
		ID:        uuid.New(),
		Seq:       len(l.entries) + 1,
		Message:   message,
		Timestamp: l.now(),
	}
	l.entries = append(l.entries, e)
	return e
}

// RecentN returns up to n entries, newest first.
func (l *Log) RecentN(n int) []Entry {
	if n <= 0 {
		return nil
	}
	n = min(n, len(l.entries))
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	return len(l.entries)
}
