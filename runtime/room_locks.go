package runtime

import (
	"room-lab/domain"
	"sync"
)

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// RoomLocks hands out one mutex per room id. Operations on different rooms never contend.
// Entries are reference counted and released once nobody holds or waits for them.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[domain.RoomID]*roomLock
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[domain.RoomID]*roomLock)}
}

// Lock blocks until the room's critical section is free and returns its unlock function.
func (l *RoomLocks) Lock(roomID domain.RoomID) func() {
	l.mu.Lock()
	lock, ok := l.locks[roomID]
	if !ok {
		lock = &roomLock{}
		l.locks[roomID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}

// WithLock runs fn inside the room's critical section.
func (l *RoomLocks) WithLock(roomID domain.RoomID, fn func() error) error {
	unlock := l.Lock(roomID)
	defer unlock()
	return fn()
}

func (l *RoomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
