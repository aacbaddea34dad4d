package mqtt

import (
	"github.com/sweeney/mash-controller/internal/logic"
)

// Message is one publish as the broker would see it.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records publishes in order. A failed publish records nothing.
type FakePublisher struct {
	Events       []logic.Event
	SystemEvents []SystemEvent
	Messages     []Message

	EventErr  error // returned by Publish
	SystemErr error // returned by PublishSystem

	Connected bool
	Closed    bool
}

// NewFakePublisher creates an empty, disconnected FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) Publish(event logic.Event) error {
	if f.EventErr != nil {
		return f.EventErr
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Messages = append(f.Messages, Message{Topic: Topic, Payload: payload})
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.SystemErr != nil {
		return f.SystemErr
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.Messages = append(f.Messages, Message{Topic: TopicSystem, Payload: payload, Retained: event.Retained})
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Payloads returns the payloads sent to topic, oldest first.
func (f *FakePublisher) Payloads(topic string) [][]byte {
	var out [][]byte
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m.Payload)
		}
	}
	return out
}

// EventTypes returns the types of recorded process events in order.
func (f *FakePublisher) EventTypes() []logic.EventType {
	types := make([]logic.EventType, len(f.Events))
	for i, e := range f.Events {
		types[i] = e.Type
	}
	return types
}
