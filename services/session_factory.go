package services

import (
	"context"
	"room-lab/contract"
	"room-lab/domain"
	"time"

	"github.com/google/uuid"
)

// SessionFactory snapshots a room into an immutable session. Sessions are never updated afterwards.
type SessionFactory struct {
	store contract.RoomStore
	now   func() time.Time
}

func NewSessionFactory(store contract.RoomStore) *SessionFactory {
	return &SessionFactory{store: store, now: time.Now}
}

// CreateSession activates the room and persists its snapshot in a single store write,
// a failure leaves the room waiting so the start can be retried.
func (f *SessionFactory) CreateSession(ctx context.Context, room domain.Room) (domain.Session, error) {
	session := domain.NewSession(domain.SessionID(uuid.NewString()), room, f.now().UTC())
	if err := f.store.StartSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}
