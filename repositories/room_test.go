package repositories

import (
	"context"
	"log/slog"
	"room-lab/domain"
	"room-lab/errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newRoomRepository(t *testing.T) *RoomRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRoomRepository(db, slog.Default())
}

var at = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestRoomRepository_Insert_And_FindByID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	room := domain.NewRoom("r1", "Standup", "alice", at)

	// When a room is inserted
	req.NoError(repository.Insert(ctx, room))

	// Then it can be read back
	found, err := repository.FindByID(ctx, "r1")
	req.NoError(err)
	req.Equal(room, found)
	req.Equal(domain.StatusWaiting, found.Status)
	req.Empty(found.Participants)
}

func TestRoomRepository_Insert_Rejects_Duplicate_Name(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)

	// Given a room named Standup
	req.NoError(repository.Insert(ctx, domain.NewRoom("r1", "Standup", "alice", at)))

	// When another room takes the same name
	err := repository.Insert(ctx, domain.NewRoom("r2", "Standup", "bob", at))

	// Then it's a conflict and nothing was written
	req.ErrorIs(err, errors.ErrConflict)
	_, err = repository.FindByID(ctx, "r2")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestRoomRepository_FindByID_Unknown_Room(t *testing.T) {
	_, err := newRoomRepository(t).FindByID(context.Background(), "nope")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRoomRepository_AppendParticipant(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	req.NoError(repository.Insert(ctx, domain.NewRoom("r1", "Standup", "alice", at)))

	// When alice joins twice with different roles
	_, err := repository.AppendParticipant(ctx, "r1", domain.Participant{UserID: "alice", DisplayName: "Alice", Role: domain.RoleParticipant, JoinedAt: at})
	req.NoError(err)
	_, err = repository.AppendParticipant(ctx, "r1", domain.Participant{UserID: "bob", DisplayName: "Bob", Role: domain.RoleParticipant, JoinedAt: at})
	req.NoError(err)
	stored, err := repository.AppendParticipant(ctx, "r1", domain.Participant{UserID: "alice", DisplayName: "Alice", Role: domain.RoleModerator, JoinedAt: at.Add(time.Hour)})
	req.NoError(err)

	// Then she keeps a single entry with the latest role
	req.Equal(domain.RoleModerator, stored.Role)
	req.Equal(at, stored.JoinedAt)
	room, err := repository.FindByID(ctx, "r1")
	req.NoError(err)
	req.Len(room.Participants, 2)
	req.Equal("alice", room.Participants[0].UserID)
	req.True(room.IsModerator("alice"))
}

func TestRoomRepository_AppendParticipant_Unknown_Room(t *testing.T) {
	_, err := newRoomRepository(t).AppendParticipant(context.Background(), "nope", domain.Participant{UserID: "alice"})
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRoomRepository_FindByParticipantID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	for _, room := range []domain.Room{
		domain.NewRoom("r2", "Retro", "alice", at),
		domain.NewRoom("r1", "Standup", "alice", at),
		domain.NewRoom("r3", "Planning", "carol", at),
	} {
		req.NoError(repository.Insert(ctx, room))
	}
	for _, id := range []domain.RoomID{"r2", "r1"} {
		_, err := repository.AppendParticipant(ctx, id, domain.Participant{UserID: "alice", Role: domain.RoleModerator, JoinedAt: at})
		req.NoError(err)
	}
	_, err := repository.AppendParticipant(ctx, "r3", domain.Participant{UserID: "alicia", Role: domain.RoleParticipant, JoinedAt: at})
	req.NoError(err)

	// When listing alice's rooms
	rooms, err := repository.FindByParticipantID(ctx, "alice")

	// Then only hers are returned, ordered by id
	req.NoError(err)
	req.Len(rooms, 2)
	req.Equal(domain.RoomID("r1"), rooms[0].ID)
	req.Equal(domain.RoomID("r2"), rooms[1].ID)

	none, err := repository.FindByParticipantID(ctx, "dave")
	req.NoError(err)
	req.Empty(none)
}

func TestRoomRepository_RemoveParticipant_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	req.NoError(repository.Insert(ctx, domain.NewRoom("r1", "Standup", "alice", at)))
	_, err := repository.AppendParticipant(ctx, "r1", domain.Participant{UserID: "bob", Role: domain.RoleParticipant, JoinedAt: at})
	req.NoError(err)

	// When bob leaves twice, and someone leaves a room that doesn't exist
	req.NoError(repository.RemoveParticipant(ctx, "r1", "bob"))
	req.NoError(repository.RemoveParticipant(ctx, "r1", "bob"))
	req.NoError(repository.RemoveParticipant(ctx, "nope", "bob"))

	// Then bob is gone from the room and from his room list
	room, err := repository.FindByID(ctx, "r1")
	req.NoError(err)
	req.Empty(room.Participants)
	rooms, err := repository.FindByParticipantID(ctx, "bob")
	req.NoError(err)
	req.Empty(rooms)
}

func TestRoomRepository_SetStatus_Only_Forward(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	req.NoError(repository.Insert(ctx, domain.NewRoom("r1", "Standup", "alice", at)))

	req.NoError(repository.SetStatus(ctx, "r1", domain.StatusActive))
	req.ErrorIs(repository.SetStatus(ctx, "r1", domain.StatusWaiting), errors.ErrInvalidTransition)
	req.ErrorIs(repository.SetStatus(ctx, "nope", domain.StatusActive), errors.ErrNotFound)

	room, err := repository.FindByID(ctx, "r1")
	req.NoError(err)
	req.Equal(domain.StatusActive, room.Status)
}

func TestRoomRepository_Sessions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	room := domain.NewRoom("r1", "Standup", "alice", at)
	room.Upsert(domain.Participant{UserID: "alice", DisplayName: "Alice", Role: domain.RoleModerator, JoinedAt: at})
	room.Upsert(domain.Participant{UserID: "bob", DisplayName: "Bob", Role: domain.RoleParticipant, JoinedAt: at})
	req.NoError(repository.Insert(ctx, room))

	// Given two sessions inserted out of order
	late := domain.NewSession("s2", room, at.Add(2*time.Hour))
	early := domain.NewSession("s1", room, at.Add(time.Hour))
	req.NoError(repository.InsertSession(ctx, late))
	req.NoError(repository.InsertSession(ctx, early))
	req.ErrorIs(repository.InsertSession(ctx, early), errors.ErrConflict)

	// Then both lookups return them chronologically
	byRoom, err := repository.FindSessionsByRoom(ctx, "r1")
	req.NoError(err)
	req.Equal([]domain.Session{early, late}, byRoom)

	byUser, err := repository.FindSessionsByParticipant(ctx, "bob")
	req.NoError(err)
	req.Len(byUser, 2)
	req.Equal(domain.SessionID("s1"), byUser[0].ID)

	none, err := repository.FindSessionsByParticipant(ctx, "carol")
	req.NoError(err)
	req.Empty(none)
}

func TestRoomRepository_Closed_Store_Is_Unavailable(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository := NewRoomRepository(db, slog.Default())

	// Given the database is closed
	req.NoError(db.Close())

	// Then every call reports the store as unavailable
	_, err = repository.FindByID(context.Background(), "r1")
	req.ErrorIs(err, errors.ErrStoreUnavailable)
	err = repository.Insert(context.Background(), domain.NewRoom("r1", "Standup", "alice", at))
	req.ErrorIs(err, errors.ErrStoreUnavailable)
}

func TestRoomRepository_Cancelled_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRoomRepository(t).FindByParticipantID(ctx, "alice")
	require.ErrorIs(t, err, errors.ErrStoreUnavailable)
}

func TestRoomRepository_StartSession_Is_Atomic(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	room := domain.NewRoom("r1", "Standup", "alice", at)
	room.Upsert(domain.Participant{UserID: "alice", DisplayName: "Alice", Role: domain.RoleModerator, JoinedAt: at})
	req.NoError(repository.Insert(ctx, room))

	// Given a session id already taken
	taken := domain.NewSession("s1", room, at)
	req.NoError(repository.InsertSession(ctx, taken))

	// When the start writes a clashing session
	err := repository.StartSession(ctx, domain.NewSession("s1", room, at.Add(time.Minute)))

	// Then nothing is written and the room is still waiting
	req.ErrorIs(err, errors.ErrConflict)
	found, err := repository.FindByID(ctx, "r1")
	req.NoError(err)
	req.Equal(domain.StatusWaiting, found.Status)

	// When it is retried with a fresh session
	fresh := domain.NewSession("s2", room, at.Add(time.Hour))
	req.NoError(repository.StartSession(ctx, fresh))

	// Then the room is active with that session
	found, err = repository.FindByID(ctx, "r1")
	req.NoError(err)
	req.Equal(domain.StatusActive, found.Status)
	sessions, err := repository.FindSessionsByRoom(ctx, "r1")
	req.NoError(err)
	req.Equal([]domain.Session{taken, fresh}, sessions)

	// And a second start is refused without a new session
	req.ErrorIs(repository.StartSession(ctx, domain.NewSession("s3", room, at.Add(2*time.Hour))), errors.ErrInvalidTransition)
	sessions, err = repository.FindSessionsByRoom(ctx, "r1")
	req.NoError(err)
	req.Len(sessions, 2)

	req.ErrorIs(repository.StartSession(ctx, domain.Session{ID: "s4", RoomID: "nope"}), errors.ErrNotFound)
}

func TestRoomRepository_FindByParticipantID_Skips_Dangling_Membership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	req.NoError(repository.Insert(ctx, domain.NewRoom("r1", "Standup", "alice", at)))
	_, err := repository.AppendParticipant(ctx, "r1", domain.Participant{UserID: "bob", Role: domain.RoleParticipant, JoinedAt: at})
	req.NoError(err)

	// Given a membership key pointing to a room that no longer exists
	req.NoError(repository.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey("bob", "gone"), nil)
	}))

	// Then only the existing room is listed
	rooms, err := repository.FindByParticipantID(ctx, "bob")
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal(domain.RoomID("r1"), rooms[0].ID)
}

func TestRoomRepository_Ids_Sharing_A_Prefix_Stay_Apart(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newRoomRepository(t)
	first := domain.NewRoom("r1", "Standup", "a", at)
	first.Upsert(domain.Participant{UserID: "a", Role: domain.RoleModerator, JoinedAt: at})
	second := domain.NewRoom("r1:x", "Retro", "a:b", at)
	second.Upsert(domain.Participant{UserID: "a:b", Role: domain.RoleModerator, JoinedAt: at})
	req.NoError(repository.Insert(ctx, first))
	req.NoError(repository.Insert(ctx, second))
	req.NoError(repository.InsertSession(ctx, domain.NewSession("s1", first, at)))
	req.NoError(repository.InsertSession(ctx, domain.NewSession("s2", second, at)))

	// When user "a" and room "r1" are looked up
	rooms, err := repository.FindByParticipantID(ctx, "a")
	req.NoError(err)
	byUser, err := repository.FindSessionsByParticipant(ctx, "a")
	req.NoError(err)
	byRoom, err := repository.FindSessionsByRoom(ctx, "r1")
	req.NoError(err)

	// Then "a:b" and "r1:x" records don't leak in
	req.Len(rooms, 1)
	req.Equal(domain.RoomID("r1"), rooms[0].ID)
	req.Len(byUser, 1)
	req.Equal(domain.SessionID("s1"), byUser[0].ID)
	req.Len(byRoom, 1)
	req.Equal(domain.SessionID("s1"), byRoom[0].ID)
}
