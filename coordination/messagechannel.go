package coordination

import (
	"sync"

	"github.com/openengine/crawler/messaging"
)

// MessageChannel is the optional, never-load-bearing lazy sequence of
// human-readable status strings spec.md §3/§4.4 describes (URL being
// fetched, pause/resume transitions, skip reasons). It wraps the teacher's
// messaging.ChannelQueue, the same in-memory Producer/Consumer abstraction
// the teacher used to decouple crawl results from processing — here
// repurposed to carry operator-facing strings instead of serialized
// ParsedResults.
type MessageChannel struct {
	queue messaging.ChannelQueue
	once  sync.Once
}

// NewMessageChannel creates a MessageChannel ready to Emit and Drain.
func NewMessageChannel() *MessageChannel {
	return &MessageChannel{queue: messaging.NewChannelQueue()}
}

// Emit enqueues a status string. Emit never blocks the caller for longer
// than it takes to hand the bytes to the underlying channel; once the
// channel's buffer is full (nothing is draining it), the message is
// best-effort dropped rather than stalling a
// worker, since the channel is explicitly non-load-bearing for
// correctness.
func (m *MessageChannel) Emit(message string) {
	if m == nil {
		return
	}
	select {
	case m.queue.Bus() <- []byte(message):
	default:
	}
}

// Drain returns a receive-only channel of status strings, closed once
// Close is called and all buffered messages have been delivered.
func (m *MessageChannel) Drain() <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		events := make(chan []byte)
		go func() {
			_ = m.queue.Consume(events)
			close(events)
		}()
		for e := range events {
			out <- string(e)
		}
	}()
	return out
}

// Close releases the underlying channel. Idempotent.
func (m *MessageChannel) Close() {
	m.once.Do(m.queue.Close)
}
