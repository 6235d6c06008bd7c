//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"room-lab/domain"
	"room-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker for logging.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the live events addressed to one connection.
// Consume must never block the caller.
type EventSink interface {
	Consume(e event.LiveEvent) error
}

// Recipient is one entry of a room membership snapshot.
type Recipient struct {
	ConnectionID domain.ConnectionID
	Sink         EventSink
}

type IDirectory interface {
	Bind(binding domain.Binding, sink EventSink)
	Unbind(connectionID domain.ConnectionID) (domain.Binding, bool)
	Binding(connectionID domain.ConnectionID) (domain.Binding, bool)
	MembersOf(roomID domain.RoomID) []domain.ConnectionID
	Recipients(roomID domain.RoomID) []Recipient
	CountOf(roomID domain.RoomID) int
}

// RoomStore is the durable collaborator of the room registry.
// Absent records are reported with ErrNotFound, I/O failures with ErrStoreUnavailable.
type RoomStore interface {
	Insert(ctx context.Context, room domain.Room) error
	FindByID(ctx context.Context, roomID domain.RoomID) (domain.Room, error)
	FindByParticipantID(ctx context.Context, userID string) ([]domain.Room, error)
	AppendParticipant(ctx context.Context, roomID domain.RoomID, participant domain.Participant) (domain.Participant, error)
	RemoveParticipant(ctx context.Context, roomID domain.RoomID, userID string) error
	SetStatus(ctx context.Context, roomID domain.RoomID, status domain.Status) error
	InsertSession(ctx context.Context, session domain.Session) error
	// StartSession moves the room of the session to active and stores the session atomically.
	StartSession(ctx context.Context, session domain.Session) error
	FindSessionsByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Session, error)
	FindSessionsByParticipant(ctx context.Context, userID string) ([]domain.Session, error)
}

// RoomIndex provides full-text discovery of rooms by name.
type RoomIndex interface {
	Index(ctx context.Context, room domain.Room) error
	Search(ctx context.Context, query string, limit int) ([]domain.RoomID, error)
}

type IdentityVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// Censor masks forbidden words of a chat message and reports which ones were found.
type Censor interface {
	Censor(original string) (string, []string)
}
