// Package events defines the structured messages emitted while reading and
// converting TextGrids, and the Reporter interface that receives them.
//
// Emitters never format or route messages themselves. A Reporter decides
// whether an event is logged, stored or counted.
package events

import (
	"strings"
	"sync"
)

// Severity is the importance of an event.
type Severity string

// Severity constants.
const (
	// SeverityInfo marks notes that need no action.
	SeverityInfo Severity = "info"

	// SeverityWarn marks recoverable problems; the affected word is left unchanged.
	SeverityWarn Severity = "warn"
)

// Kind classifies what happened.
type Kind string

// Event kinds.
const (
	// KindUnknownWord: the word has no scheme entry.
	KindUnknownWord Kind = "unknown_word"

	// KindMismatch: the observed phones match neither side of the scheme.
	KindMismatch Kind = "mismatch"

	// KindAlreadyConverted: the observed phones already follow the new scheme.
	KindAlreadyConverted Kind = "already_converted"

	// KindHeader: the file type or object class header is not the expected literal.
	KindHeader Kind = "header"

	// KindAlignment: words were dropped because no phone boundary matched.
	KindAlignment Kind = "alignment"

	// KindDuplicateWord: a scheme file defines the same word twice.
	KindDuplicateWord Kind = "duplicate_word"
)

// Event is a single structured report.
type Event struct {
	Severity  Severity `json:"severity"`
	Kind      Kind     `json:"kind"`
	File      string   `json:"file,omitempty"`
	Word      string   `json:"word,omitempty"`
	WordIndex int      `json:"word_index"`
	Observed  []string `json:"observed,omitempty"`
	Expected  []string `json:"expected,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// String renders the event on one line.
func (e Event) String() string {
	var sb strings.Builder
	sb.WriteString(string(e.Severity))
	sb.WriteString(" ")
	sb.WriteString(string(e.Kind))
	if e.File != "" {
		sb.WriteString(" file=")
		sb.WriteString(e.File)
	}
	if e.Word != "" {
		sb.WriteString(" word=")
		sb.WriteString(e.Word)
	}
	if len(e.Observed) > 0 {
		sb.WriteString(" observed=[")
		sb.WriteString(strings.Join(e.Observed, " "))
		sb.WriteString("]")
	}
	if len(e.Expected) > 0 {
		sb.WriteString(" expected=[")
		sb.WriteString(strings.Join(e.Expected, " "))
		sb.WriteString("]")
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// Reporter receives events. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// Discard drops every event.
var Discard Reporter = ReporterFunc(func(Event) {})

// WithFile returns a Reporter that stamps every event with file before
// forwarding it to r.
func WithFile(r Reporter, file string) Reporter {
	if r == nil {
		return Discard
	}
	return ReporterFunc(func(e Event) {
		if e.File == "" {
			e.File = file
		}
		r.Report(e)
	})
}

// Multi fans an event out to every non-nil reporter in order.
func Multi(reporters ...Reporter) Reporter {
	var rs []Reporter
	for _, r := range reporters {
		if r != nil {
			rs = append(rs, r)
		}
	}
	return ReporterFunc(func(e Event) {
		for _, r := range rs {
			r.Report(e)
		}
	})
}

// Collector keeps every event in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Report implements Reporter.
func (c *Collector) Report(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the collected events in arrival order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Count returns the number of collected events of the given kind.
func (c *Collector) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// CountSeverity returns the number of collected events with the given severity.
func (c *Collector) CountSeverity(sev Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

// Reset drops all collected events.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
