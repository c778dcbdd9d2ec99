package ui

import (
	"time"

	"fastfinder/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg is sent on a timer to pull fresh results from the pipeline
type tickMsg time.Time

// filterMsg applies the quick filter once typing has paused
type filterMsg struct {
	seq int
}

// pagerMsg reports the end of an ov session
type pagerMsg struct {
	err error
}

// exportDoneMsg reports a finished export
type exportDoneMsg struct {
	path string
	rows int
	err  error
}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
