package domain

import "time"

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventRunStarted      EventType = "RunStarted"
	EventRunExited       EventType = "RunExited"
	EventRunFailed       EventType = "RunFailed"
	EventStatusMessage   EventType = "StatusMessage"
	EventExportCompleted EventType = "ExportCompleted"
	EventConfigLoaded    EventType = "ConfigLoaded"
	EventConfigSaved     EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// RunStartedEvent is emitted once the worker process has been spawned
type RunStartedEvent struct {
	RunID   string
	Request SearchRequest
}

func (e RunStartedEvent) Type() EventType { return EventRunStarted }

// RunExitedEvent is emitted after the final drain of a run
type RunExitedEvent struct {
	RunID     string
	Cancelled bool
	ExitCode  int
	Records   int
	Elapsed   time.Duration
}

func (e RunExitedEvent) Type() EventType { return EventRunExited }

// RunFailedEvent is emitted when the worker could not be started
type RunFailedEvent struct {
	RunID string
	Err   error
}

func (e RunFailedEvent) Type() EventType { return EventRunFailed }

// StatusMessageEvent carries a transient status text
type StatusMessageEvent struct {
	Text string
	TTL  time.Duration
}

func (e StatusMessageEvent) Type() EventType { return EventStatusMessage }

// ExportCompletedEvent is emitted when the visible rows were written to a file
type ExportCompletedEvent struct {
	Path string
	Rows int
	Err  error
}

func (e ExportCompletedEvent) Type() EventType { return EventExportCompleted }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string // "" when defaults were used
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
