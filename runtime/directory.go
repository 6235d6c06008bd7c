package runtime

import (
	"room-lab/contract"
	"room-lab/domain"
	"sync"
)

type Set map[domain.ConnectionID]struct{}

type entry struct {
	binding domain.Binding
	sink    contract.EventSink
}

// Directory tracks live connections grouped by room.
// Its state is process-local and lost on restart.
type Directory struct {
	mu          sync.RWMutex
	connections map[domain.ConnectionID]entry // map connection -> binding and sink
	roomMembers map[domain.RoomID]Set         // map room to connections
}

func NewDirectory() *Directory {
	return &Directory{
		connections: make(map[domain.ConnectionID]entry),
		roomMembers: make(map[domain.RoomID]Set),
	}
}

// Bind registers a connection under its room's member set.
// A connection belongs to exactly one room: binding it again replaces the previous binding.
func (d *Directory) Bind(binding domain.Binding, sink contract.EventSink) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if previous, ok := d.connections[binding.ConnectionID]; ok {
		d.removeMember(previous.binding.RoomID, binding.ConnectionID)
	}
	d.connections[binding.ConnectionID] = entry{binding: binding, sink: sink}

	if _, ok := d.roomMembers[binding.RoomID]; !ok {
		d.roomMembers[binding.RoomID] = make(Set)
	}
	d.roomMembers[binding.RoomID][binding.ConnectionID] = struct{}{}
}

// Unbind removes the connection from whatever room it was bound to.
// Unknown connections are ignored.
func (d *Directory) Unbind(connectionID domain.ConnectionID) (domain.Binding, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.connections[connectionID]
	if !ok {
		return domain.Binding{}, false
	}
	delete(d.connections, connectionID)
	d.removeMember(e.binding.RoomID, connectionID)
	return e.binding, true
}

// removeMember must be called with the write lock held.
// Empty rooms are dropped so the map doesn't grow forever.
func (d *Directory) removeMember(roomID domain.RoomID, connectionID domain.ConnectionID) {
	members, ok := d.roomMembers[roomID]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(d.roomMembers, roomID)
	}
}

func (d *Directory) Binding(connectionID domain.ConnectionID) (domain.Binding, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.connections[connectionID]
	return e.binding, ok
}

// MembersOf returns a snapshot of the connections currently bound to the room.
func (d *Directory) MembersOf(roomID domain.RoomID) []domain.ConnectionID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members, ok := d.roomMembers[roomID]
	if !ok {
		return nil
	}
	ids := make([]domain.ConnectionID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Recipients resolves the room snapshot into sinks under a single read lock,
// so a broadcast pass sees binds and unbinds either entirely or not at all.
func (d *Directory) Recipients(roomID domain.RoomID) []contract.Recipient {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members, ok := d.roomMembers[roomID]
	if !ok {
		return nil
	}
	recipients := make([]contract.Recipient, 0, len(members))
	for id := range members {
		if e, exists := d.connections[id]; exists {
			recipients = append(recipients, contract.Recipient{ConnectionID: id, Sink: e.sink})
		}
	}
	return recipients
}

func (d *Directory) CountOf(roomID domain.RoomID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.roomMembers[roomID])
}

type DirectoryStats struct {
	Connections int
	Rooms       int
}

func (d *Directory) Stats() DirectoryStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return DirectoryStats{Connections: len(d.connections), Rooms: len(d.roomMembers)}
}
