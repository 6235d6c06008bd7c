package sink

import (
	"room-lab/domain/event"
	"room-lab/errors"
	"sync"
)

// ConnectionSink buffers the events addressed to one live connection.
// The broadcaster is the only producer and the connection writer the only consumer,
// which keeps delivery FIFO per connection.
type ConnectionSink struct {
	mu     sync.RWMutex
	closed bool
	events chan event.LiveEvent
	done   chan struct{}
}

func NewConnectionSink(bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		events: make(chan event.LiveEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume never blocks: a full buffer drops the event with ErrSinkFull,
// a closed sink refuses it with ErrSinkClosed.
func (s *ConnectionSink) Consume(e event.LiveEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrSinkClosed
	}
	select {
	case s.events <- e:
		return nil
	default:
		return errors.ErrSinkFull
	}
}

// Events is drained by the connection writer.
func (s *ConnectionSink) Events() <-chan event.LiveEvent { return s.events }

// Done is closed once the sink stops accepting events.
func (s *ConnectionSink) Done() <-chan struct{} { return s.done }

// Close is idempotent. The events channel itself stays open, a late producer can't panic on it.
func (s *ConnectionSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func (s *ConnectionSink) Len() int { return len(s.events) }
