package eventbus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	b := New(zap.NewNop())
	defer b.Close()

	got := make(chan DomainEvent, 1)
	b.Subscribe(EventRunStarted, func(e DomainEvent) { got <- e })

	b.Publish(RunStartedEvent{RunID: "abc"})

	select {
	case e := <-got:
		ev, ok := e.(RunStartedEvent)
		require.True(t, ok)
		assert.Equal(t, "abc", ev.RunID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(nil)
	defer b.Close()

	var first, second atomic.Int32
	unsubscribe := b.Subscribe(EventStatusMessage, func(DomainEvent) { first.Add(1) })
	done := make(chan struct{}, 4)
	b.Subscribe(EventStatusMessage, func(DomainEvent) {
		second.Add(1)
		done <- struct{}{}
	})

	unsubscribe()
	b.Publish(StatusMessageEvent{Text: "x"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestHandlerPanicDoesNotStopBus(t *testing.T) {
	b := New(zap.NewNop())
	defer b.Close()

	got := make(chan struct{}, 1)
	b.Subscribe(EventRunFailed, func(DomainEvent) { panic("boom") })
	b.Subscribe(EventRunExited, func(DomainEvent) { got <- struct{}{} })

	b.Publish(RunFailedEvent{})
	b.Publish(RunExitedEvent{})

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("bus stopped after handler panic")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New(zap.NewNop())
	b.Close()
	b.Close()
}
