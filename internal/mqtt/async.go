package mqtt

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/mash-controller/internal/logic"
)

// ErrQueueFull is returned when the publish queue has no room left.
var ErrQueueFull = errors.New("mqtt: publish queue full")

// ErrClosed is returned by publishes after Close.
var ErrClosed = errors.New("mqtt: publisher closed")

// closeTimeout bounds how long Close waits for queued messages.
const closeTimeout = 5 * time.Second

// Async hands publishes to a single goroutine so the caller never waits on
// the broker. Messages keep their order. Failures of the wrapped publisher
// are logged there and never reach the caller.
type Async struct {
	inner Publisher

	mu     sync.Mutex
	closed bool
	queue  chan func() error
	done   chan struct{}
}

// NewAsync starts forwarding to inner. size is the number of messages that
// may wait while inner is busy.
func NewAsync(inner Publisher, size int) *Async {
	a := &Async{
		inner: inner,
		queue: make(chan func() error, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for send := range a.queue {
		if err := send(); err != nil {
			slog.Warn("mqtt: publish failed", "error", err)
		}
	}
}

// Publish queues a process event.
func (a *Async) Publish(event logic.Event) error {
	return a.enqueue(func() error { return a.inner.Publish(event) })
}

// PublishSystem queues a system event.
func (a *Async) PublishSystem(event SystemEvent) error {
	return a.enqueue(func() error { return a.inner.PublishSystem(event) })
}

func (a *Async) enqueue(send func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- send:
		return nil
	default:
		return ErrQueueFull
	}
}

// IsConnected reports the wrapped publisher's link state, false if it
// doesn't know.
func (a *Async) IsConnected() bool {
	if cs, ok := a.inner.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close sends what is queued, waiting at most closeTimeout, then closes
// the wrapped publisher.
func (a *Async) Close() error {
	return a.closeWithin(closeTimeout)
}

func (a *Async) closeWithin(timeout time.Duration) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(timeout):
		slog.Warn("mqtt: gave up flushing publish queue", "timeout", timeout)
	}
	return a.inner.Close()
}
