// Package diag is the observability channel for soft data-quality
// findings. Producers hand human-readable entries to a Sink and never
// depend on what the sink does with them.
package diag

import (
	"log/slog"
	"sync"
	"time"
)

// Entry is one diagnostic.
type Entry struct {
	Check   string    `json:"check"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Sink accepts diagnostics.
type Sink interface {
	Report(Entry)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Entry)

func (f SinkFunc) Report(e Entry) { f(e) }

// Discard drops every entry.
var Discard Sink = SinkFunc(func(Entry) {})

// Report stamps and sends a diagnostic; a nil sink is a no-op.
func Report(s Sink, check, message string) {
	if s == nil {
		return
	}
	s.Report(Entry{Check: check, Message: message, Time: time.Now()})
}

// LogSink writes entries as warnings.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) Report(e Entry) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(e.Message, "check", e.Check)
}

// Collector keeps entries in memory.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
}

func (c *Collector) Report(e Entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

// Entries returns a copy of the collected entries.
func (c *Collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Count returns how many entries were reported for check ("" for all).
func (c *Collector) Count(check string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if check == "" {
		return len(c.entries)
	}
	n := 0
	for _, e := range c.entries {
		if e.Check == check {
			n++
		}
	}
	return n
}

// Multi fans entries out to every non-nil sink.
func Multi(sinks ...Sink) Sink {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return SinkFunc(func(e Entry) {
		for _, s := range live {
			s.Report(e)
		}
	})
}
