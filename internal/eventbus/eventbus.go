package eventbus

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"fastfinder/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventRunStarted      = domain.EventRunStarted
	EventRunExited       = domain.EventRunExited
	EventRunFailed       = domain.EventRunFailed
	EventStatusMessage   = domain.EventStatusMessage
	EventExportCompleted = domain.EventExportCompleted
	EventConfigLoaded    = domain.EventConfigLoaded
	EventConfigSaved     = domain.EventConfigSaved
)

// Re-export domain event types
type RunStartedEvent = domain.RunStartedEvent
type RunExitedEvent = domain.RunExitedEvent
type RunFailedEvent = domain.RunFailedEvent
type StatusMessageEvent = domain.StatusMessageEvent
type ExportCompletedEvent = domain.ExportCompletedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// New creates a new event bus
func New(logger *zap.Logger) EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
		logger:    logger.Named("eventbus"),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers without blocking
func (b *bus) Publish(event DomainEvent) {
	// status messages are too frequent to log
	if event.Type() != EventStatusMessage {
		b.logger.Debug("publishing event", zap.String("type", string(event.Type())))
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("event channel full, dropping event", zap.String("type", string(event.Type())))
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher, discarding undelivered events
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
	b.wg.Wait()
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := b.handlers[event.Type()]
			// copy so handlers run without the lock held
			handlers := make([]EventHandler, len(subs))
			for i, s := range subs {
				handlers[i] = s.handler
			}
			b.mu.RUnlock()

			for _, handler := range handlers {
				go func(h EventHandler, ev DomainEvent) {
					defer func() {
						if r := recover(); r != nil {
							b.logger.Error("event handler panic",
								zap.String("type", string(ev.Type())),
								zap.Any("panic", r),
								zap.ByteString("stack", debug.Stack()))
						}
					}()
					h(ev)
				}(handler, event)
			}

		case <-b.quit:
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}
