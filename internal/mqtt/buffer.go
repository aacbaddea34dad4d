package mqtt

import "log/slog"

// outboxMsg stores a serialized MQTT message for replay after reconnection.
type outboxMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO holding messages published while the
// broker is unreachable. The oldest message is dropped when full.
// Not safe for concurrent use; caller must synchronize.
type outbox struct {
	buf      []outboxMsg
	capacity int
	head     int // next write position
	count    int
	dropped  int // messages lost since last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		buf:      make([]outboxMsg, capacity),
		capacity: capacity,
	}
}

func (o *outbox) push(msg outboxMsg) {
	if o.count == o.capacity {
		if o.dropped == 0 {
			slog.Warn("mqtt: outbox full, dropping oldest", "capacity", o.capacity)
		}
		o.dropped++
		o.buf[o.head] = msg
		o.head = (o.head + 1) % o.capacity
		return
	}
	o.buf[o.head] = msg
	o.head = (o.head + 1) % o.capacity
	o.count++
}

// drain returns queued messages oldest first and empties the outbox.
func (o *outbox) drain() []outboxMsg {
	if o.count == 0 {
		return nil
	}

	result := make([]outboxMsg, o.count)
	start := (o.head - o.count + o.capacity) % o.capacity
	for i := 0; i < o.count; i++ {
		result[i] = o.buf[(start+i)%o.capacity]
	}

	o.count = 0
	o.head = 0
	o.dropped = 0
	return result
}

func (o *outbox) len() int {
	return o.count
}
