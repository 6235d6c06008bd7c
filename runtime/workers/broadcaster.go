package workers

import (
	"log/slog"
	"room-lab/contract"
	"room-lab/domain/event"
	"sync/atomic"
	"time"
)

// Delivery summarizes one broadcast pass.
type Delivery struct {
	Delivered int
	Failed    int
}

// Broadcaster routes a live event to every connection bound to its room.
//
// Fan-out is synchronous and never blocks: each recipient sink accepts or refuses
// the event immediately. A refused delivery only affects that recipient and is
// never reported to the sender.
//
// Broadcaster is safe for concurrent use by multiple goroutines.
type Broadcaster struct {
	log       *slog.Logger
	directory contract.IDirectory
	censor    contract.Censor
	now       func() time.Time
	delivered atomic.Int64
	failed    atomic.Int64
}

// NewBroadcaster accepts a nil censor, messages are then sent as they are.
func NewBroadcaster(log *slog.Logger, directory contract.IDirectory, censor contract.Censor) *Broadcaster {
	return &Broadcaster{log: log, directory: directory, censor: censor, now: time.Now}
}

// Broadcast validates and stamps the event before the room snapshot is taken.
// A malformed event is rejected with ErrInvalidEvent and reaches nobody.
func (b *Broadcaster) Broadcast(e event.LiveEvent) (Delivery, error) {
	if err := event.Validate(e); err != nil {
		return Delivery{}, err
	}
	e = b.moderate(e.Stamp(b.now().UTC()))

	var delivery Delivery
	kind := e.Kind()
	for _, recipient := range b.directory.Recipients(e.RoomID()) {
		if !kind.IncludesOrigin() && recipient.ConnectionID == e.OriginConnection() {
			continue
		}
		if err := recipient.Sink.Consume(e); err != nil {
			delivery.Failed++
			b.log.Warn("Live event not delivered",
				"kind", kind, "room_id", e.RoomID(), "connection_id", recipient.ConnectionID, "error", err)
			continue
		}
		delivery.Delivered++
	}

	b.delivered.Add(int64(delivery.Delivered))
	b.failed.Add(int64(delivery.Failed))
	b.log.Debug("Live event broadcast",
		"kind", kind, "room_id", e.RoomID(), "delivered", delivery.Delivered, "failed", delivery.Failed)
	return delivery, nil
}

func (b *Broadcaster) moderate(e event.LiveEvent) event.LiveEvent {
	msg, ok := e.(event.NewMessage)
	if !ok || b.censor == nil {
		return e
	}
	censored, words := b.censor.Censor(msg.Message)
	if len(words) > 0 {
		b.log.Info("Message censored", "room_id", msg.Room, "user_id", msg.UserID, "words", len(words))
	}
	msg.Message = censored
	return msg
}

// Totals returns the deliveries counted since start.
func (b *Broadcaster) Totals() Delivery {
	return Delivery{Delivered: int(b.delivered.Load()), Failed: int(b.failed.Load())}
}
