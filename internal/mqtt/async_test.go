package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/mash-controller/internal/logic"
)

// stalledPublisher blocks every publish until release is closed.
type stalledPublisher struct {
	release chan struct{}
	started chan struct{} // receives once per publish that began

	mu     sync.Mutex
	events []logic.EventType
	system []string
	closed bool
}

func newStalledPublisher() *stalledPublisher {
	return &stalledPublisher{release: make(chan struct{}), started: make(chan struct{}, 16)}
}

func (p *stalledPublisher) Publish(e logic.Event) error {
	p.started <- struct{}{}
	<-p.release
	p.mu.Lock()
	p.events = append(p.events, e.Type)
	p.mu.Unlock()
	return nil
}

func (p *stalledPublisher) PublishSystem(e SystemEvent) error {
	p.started <- struct{}{}
	<-p.release
	p.mu.Lock()
	p.system = append(p.system, e.Event)
	p.mu.Unlock()
	return nil
}

func (p *stalledPublisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func TestAsyncDoesNotWaitForBroker(t *testing.T) {
	inner := newStalledPublisher()
	a := NewAsync(inner, 8)

	done := make(chan error, 1)
	go func() {
		for _, et := range []logic.EventType{logic.EventProcessStarted, logic.EventStageStarted, logic.EventReset} {
			if err := a.Publish(sampleEvent(et)); err != nil {
				done <- err
				return
			}
		}
		done <- a.PublishSystem(SystemEvent{Event: "SHUTDOWN"})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publish waited on a stalled broker")
	}

	close(inner.release)
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	want := []logic.EventType{logic.EventProcessStarted, logic.EventStageStarted, logic.EventReset}
	if len(inner.events) != len(want) {
		t.Fatalf("events: got %v, want %v", inner.events, want)
	}
	for i := range want {
		if inner.events[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, inner.events[i], want[i])
		}
	}
	if len(inner.system) != 1 || inner.system[0] != "SHUTDOWN" {
		t.Errorf("system events: got %v", inner.system)
	}
	if !inner.closed {
		t.Error("close should reach the wrapped publisher")
	}
}

func TestAsyncQueueFull(t *testing.T) {
	inner := newStalledPublisher()
	a := NewAsync(inner, 1)

	if err := a.Publish(sampleEvent(logic.EventProcessStarted)); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	<-inner.started // worker is now stuck on the first message

	if err := a.Publish(sampleEvent(logic.EventStageStarted)); err != nil {
		t.Fatalf("second publish should fit the queue: %v", err)
	}
	if err := a.Publish(sampleEvent(logic.EventReset)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	close(inner.release)
	a.Close()
	if len(inner.events) != 2 {
		t.Errorf("expected the two queued events, got %v", inner.events)
	}
}

func TestAsyncPublishAfterClose(t *testing.T) {
	a := NewAsync(NewFakePublisher(), 4)
	a.Close()

	if err := a.Publish(sampleEvent(logic.EventReset)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestAsyncSwallowsInnerErrors(t *testing.T) {
	inner := NewFakePublisher()
	inner.EventErr = errors.New("broker down")
	a := NewAsync(inner, 4)

	if err := a.Publish(sampleEvent(logic.EventReset)); err != nil {
		t.Errorf("inner failure leaked to caller: %v", err)
	}
	if err := a.PublishSystem(SystemEvent{Event: "HEARTBEAT", RawPayload: []byte("{}")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Close()

	if len(inner.Events) != 0 || len(inner.SystemEvents) != 1 {
		t.Errorf("unexpected records: events=%d system=%d", len(inner.Events), len(inner.SystemEvents))
	}
}

func TestAsyncCloseGivesUpOnStalledBroker(t *testing.T) {
	inner := newStalledPublisher()
	a := NewAsync(inner, 4)
	a.Publish(sampleEvent(logic.EventReset))
	<-inner.started

	start := time.Now()
	a.closeWithin(50 * time.Millisecond)
	if waited := time.Since(start); waited > time.Second {
		t.Errorf("close waited %v", waited)
	}
	close(inner.release)
}

func TestAsyncIsConnected(t *testing.T) {
	fake := NewFakePublisher()
	a := NewAsync(fake, 1)
	defer a.Close()

	if a.IsConnected() {
		t.Error("expected disconnected")
	}
	fake.Connected = true
	if !a.IsConnected() {
		t.Error("expected connected")
	}
	if NewAsync(newStalledPublisher(), 1).IsConnected() {
		t.Error("publisher without link state should report disconnected")
	}
}

var _ Publisher = (*Async)(nil)
var _ ConnectionStatus = (*Async)(nil)
