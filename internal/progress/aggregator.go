// Package progress folds worker status events into the counters shown in
// the status bar.
package progress

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"fastfinder/internal/domain"
	"fastfinder/internal/protocol"
)

// Time-to-live of the transient messages
const (
	TTLQueued     = 4 * time.Second
	TTLStarted    = 4 * time.Second
	TTLCancelling = 5 * time.Second
	TTLCancelled  = 6 * time.Second
	TTLUnknown    = 6 * time.Second
	TTLError      = 8 * time.Second
	TTLCopied     = 4 * time.Second
	TTLExported   = 6 * time.Second
	TTLDone       = 30 * time.Second
)

// MaxLabelLen bounds the current item shown when no message is active
const MaxLabelLen = 80

// ErrorPrefix marks messages that came from the worker's error stream
const ErrorPrefix = "⚠ "

// Aggregator owns the counters of one run
type Aggregator struct {
	mu       sync.Mutex
	counters domain.Counters
	now      func() time.Time
}

// New creates an aggregator using the wall clock
func New() *Aggregator {
	return NewWithClock(time.Now)
}

// NewWithClock creates an aggregator with an injectable clock
func NewWithClock(now func() time.Time) *Aggregator {
	return &Aggregator{now: now}
}

// Reset discards the counters for a new run
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.counters = domain.Counters{}
	a.mu.Unlock()
}

// Apply folds one decoded event. Records and malformed lines are ignored.
func (a *Aggregator) Apply(ev protocol.Event) {
	switch ev.Kind {
	case protocol.KindStatus:
		a.ApplyStatus(ev.Status)
	case protocol.KindError:
		a.SetMessage(ErrorPrefix+ev.Text, TTLError)
	}
}

// ApplyStatus folds a status event
func (a *Aggregator) ApplyStatus(st protocol.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c := &a.counters
	switch st.Kind {
	case protocol.StatusQueued:
		c.QueuedTotal = st.Total
		a.setMessageLocked(fmt.Sprintf("%d files queued", st.Total), TTLQueued)
	case protocol.StatusCurrent:
		if st.HasLabel {
			c.CurrentItem = st.Label
		}
	case protocol.StatusProgress:
		c.ProcessedCount = max(c.ProcessedCount, st.Processed)
		c.HitCount = max(c.HitCount, st.Hits)
		if st.HasLabel {
			c.CurrentItem = st.Label
		}
	case protocol.StatusDone:
		c.ProcessedCount = max(c.ProcessedCount, st.Processed)
		c.HitCount = max(c.HitCount, st.Hits)
		if st.HasElapsed {
			a.setMessageLocked(fmt.Sprintf("done: %.2fs", st.Elapsed), TTLDone)
		} else {
			a.setMessageLocked("done", TTLDone)
		}
	default:
		a.setMessageLocked(st.Kind, TTLUnknown)
	}
}

// SetMessage replaces the transient message
func (a *Aggregator) SetMessage(text string, ttl time.Duration) {
	a.mu.Lock()
	a.setMessageLocked(text, ttl)
	a.mu.Unlock()
}

func (a *Aggregator) setMessageLocked(text string, ttl time.Duration) {
	a.counters.Message = text
	a.counters.MessageExpiry = a.now().Add(ttl)
}

// Reconcile raises the hit count to at least the number of stored records
func (a *Aggregator) Reconcile(stored int) {
	a.mu.Lock()
	a.counters.HitCount = max(a.counters.HitCount, stored)
	a.mu.Unlock()
}

// Snapshot returns a copy of the counters
func (a *Aggregator) Snapshot() domain.Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters
}

// StatusText is the status bar message: the active transient message,
// else the shortened current item, else "Ready"
func (a *Aggregator) StatusText() string {
	return StatusText(a.Snapshot(), a.now())
}

// StatusText renders counters as the status bar message
func StatusText(c domain.Counters, now time.Time) string {
	if msg, ok := c.ActiveMessage(now); ok {
		return msg
	}
	if c.CurrentItem != "" {
		return Shorten(domain.Record{Location: c.CurrentItem}.DisplayPath(), MaxLabelLen)
	}
	return "Ready"
}

// Shorten keeps the head and tail of s around "..." so that the result
// has at most max runes
func Shorten(s string, max int) string {
	n := utf8.RuneCountInString(s)
	if n <= max {
		return s
	}
	runes := []rune(s)
	keep := max - 3
	if keep < 1 {
		keep = 1
	}
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + "..." + string(runes[n-tail:])
}

// FormatElapsed renders a duration as hh:mm:ss
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
