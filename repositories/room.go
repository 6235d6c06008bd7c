package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"room-lab/domain"
	"room-lab/errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// RoomRepository persists rooms, memberships and sessions in BadgerDB.
//
// Key layout:
//
//	room:{room_id}                                   -> room record
//	room_name:{name}                                 -> room id (name uniqueness)
//	member:{user_id}:{room_id}                       -> empty (rooms of a user)
//	session:{session_id}                             -> session record
//	room_session:{room_id}:{started_padded}:{id}     -> empty (sessions of a room)
//	user_session:{user_id}:{started_padded}:{id}     -> empty (sessions of a user)
//
// The started-at part is zero padded on 19 digits so a prefix scan returns sessions in chronological order.
type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) *RoomRepository {
	return &RoomRepository{db: db, log: log}
}

type diskParticipant struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type diskRoom struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	CreatedBy    string            `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	Participants []diskParticipant `json:"participants"`
	Status       string            `json:"status"`
}

type diskSession struct {
	ID           string            `json:"id"`
	RoomID       string            `json:"room_id"`
	StartedAt    time.Time         `json:"started_at"`
	Participants []diskParticipant `json:"participants"`
	Status       string            `json:"status"`
}

func roomKey(id domain.RoomID) []byte { return []byte("room:" + string(id)) }
func roomNameKey(name string) []byte  { return []byte("room_name:" + name) }
// Ids are length-prefixed so that the prefix of one id never matches a longer one.
func idSegment(id string) string { return fmt.Sprintf("%d:%s:", len(id), id) }

func memberPrefix(userID string) []byte {
	return []byte("member:" + idSegment(userID))
}
func memberKey(userID string, roomID domain.RoomID) []byte {
	return append(memberPrefix(userID), []byte(roomID)...)
}
func sessionKey(id domain.SessionID) []byte { return []byte("session:" + string(id)) }
func roomSessionPrefix(roomID domain.RoomID) []byte {
	return []byte("room_session:" + idSegment(string(roomID)))
}
func userSessionPrefix(userID string) []byte {
	return []byte("user_session:" + idSegment(userID))
}
func sessionSuffix(s domain.Session) string {
	return fmt.Sprintf("%019d:%s", s.StartedAt.UnixNano(), s.ID)
}

// Insert stores a new room. Both the id and the name must be unused.
func (r *RoomRepository) Insert(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err)
	}
	data, err := json.Marshal(fromRoom(room))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(roomNameKey(room.Name)); err == nil {
			return fmt.Errorf("%w: room name %q already exists", errors.ErrConflict, room.Name)
		}
		if _, err := txn.Get(roomKey(room.ID)); err == nil {
			return fmt.Errorf("%w: room %s already exists", errors.ErrConflict, room.ID)
		}
		if err := txn.Set(roomKey(room.ID), data); err != nil {
			return err
		}
		if err := txn.Set(roomNameKey(room.Name), []byte(room.ID)); err != nil {
			return err
		}
		for _, p := range room.Participants {
			if err := txn.Set(memberKey(p.UserID, room.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	return storeErr(err)
}

func (r *RoomRepository) FindByID(ctx context.Context, roomID domain.RoomID) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, storeErr(err)
	}
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		found, err := getRoom(txn, roomID)
		room = found
		return err
	})
	if err != nil {
		return domain.Room{}, storeErr(err)
	}
	return room, nil
}

// FindByParticipantID returns the rooms the user belongs to, ordered by room id.
func (r *RoomRepository) FindByParticipantID(ctx context.Context, userID string) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr(err)
	}
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := memberPrefix(userID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		var ids []domain.RoomID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, domain.RoomID(it.Item().Key()[len(prefix):]))
		}
		for _, id := range ids {
			room, err := getRoom(txn, id)
			if errors.Is(err, errors.ErrNotFound) {
				r.log.Warn("Dangling membership key", "user_id", userID, "room_id", id)
				continue
			}
			if err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return rooms, nil
}

// AppendParticipant adds the user to the room, or updates its role and display name
// when it is already there. The stored entry is returned.
func (r *RoomRepository) AppendParticipant(ctx context.Context, roomID domain.RoomID, participant domain.Participant) (domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Participant{}, storeErr(err)
	}
	var stored domain.Participant
	err := r.db.Update(func(txn *badger.Txn) error {
		room, err := getRoom(txn, roomID)
		if err != nil {
			return err
		}
		stored = room.Upsert(participant)
		if err := putRoom(txn, room); err != nil {
			return err
		}
		return txn.Set(memberKey(participant.UserID, roomID), nil)
	})
	if err != nil {
		return domain.Participant{}, storeErr(err)
	}
	return stored, nil
}

// RemoveParticipant is a no-op when the room or the participant doesn't exist.
func (r *RoomRepository) RemoveParticipant(ctx context.Context, roomID domain.RoomID, userID string) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err)
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		room, err := getRoom(txn, roomID)
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !room.Remove(userID) {
			return nil
		}
		if err := putRoom(txn, room); err != nil {
			return err
		}
		return txn.Delete(memberKey(userID, roomID))
	})
	return storeErr(err)
}

// SetStatus only accepts forward transitions.
func (r *RoomRepository) SetStatus(ctx context.Context, roomID domain.RoomID, status domain.Status) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err)
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		room, err := getRoom(txn, roomID)
		if err != nil {
			return err
		}
		if err := room.Advance(status); err != nil {
			return err
		}
		return putRoom(txn, room)
	})
	return storeErr(err)
}

func (r *RoomRepository) InsertSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err)
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return putSession(txn, session)
	})
	return storeErr(err)
}

// StartSession activates the room of the session and records the session in one transaction:
// either both are stored or none.
func (r *RoomRepository) StartSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return storeErr(err)
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		room, err := getRoom(txn, session.RoomID)
		if err != nil {
			return err
		}
		if err := room.Advance(domain.StatusActive); err != nil {
			return err
		}
		if err := putRoom(txn, room); err != nil {
			return err
		}
		return putSession(txn, session)
	})
	return storeErr(err)
}

func putSession(txn *badger.Txn, session domain.Session) error {
	data, err := json.Marshal(fromSession(session))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	if _, err := txn.Get(sessionKey(session.ID)); err == nil {
		return fmt.Errorf("%w: session %s already exists", errors.ErrConflict, session.ID)
	}
	if err := txn.Set(sessionKey(session.ID), data); err != nil {
		return err
	}
	suffix := sessionSuffix(session)
	if err := txn.Set(append(roomSessionPrefix(session.RoomID), suffix...), nil); err != nil {
		return err
	}
	for _, p := range session.Participants {
		if err := txn.Set(append(userSessionPrefix(p.UserID), suffix...), nil); err != nil {
			return err
		}
	}
	return nil
}

// FindSessionsByRoom returns the sessions of a room, oldest first.
func (r *RoomRepository) FindSessionsByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Session, error) {
	return r.findSessions(ctx, roomSessionPrefix(roomID))
}

// FindSessionsByParticipant returns the sessions a user was snapshotted into, oldest first.
func (r *RoomRepository) FindSessionsByParticipant(ctx context.Context, userID string) ([]domain.Session, error) {
	return r.findSessions(ctx, userSessionPrefix(userID))
}

func (r *RoomRepository) findSessions(ctx context.Context, prefix []byte) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr(err)
	}
	var sessions []domain.Session
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		var ids []domain.SessionID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// {started_padded}:{id}
			suffix := string(it.Item().Key()[len(prefix):])
			if len(suffix) < 20 {
				continue
			}
			ids = append(ids, domain.SessionID(suffix[20:]))
		}
		for _, id := range ids {
			item, err := txn.Get(sessionKey(id))
			if err != nil {
				return err
			}
			var ds diskSession
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &ds)
			}); err != nil {
				return err
			}
			sessions = append(sessions, toSession(ds))
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return sessions, nil
}

// ListRooms walks every room record, ordered by room id. Used by the inspect tool.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr(err)
	}
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dr diskRoom
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dr)
			}); err != nil {
				return err
			}
			rooms = append(rooms, toRoom(dr))
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func getRoom(txn *badger.Txn, roomID domain.RoomID) (domain.Room, error) {
	item, err := txn.Get(roomKey(roomID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, fmt.Errorf("%w: room %s", errors.ErrNotFound, roomID)
	}
	if err != nil {
		return domain.Room{}, err
	}
	var dr diskRoom
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &dr)
	}); err != nil {
		return domain.Room{}, err
	}
	return toRoom(dr), nil
}

func putRoom(txn *badger.Txn, room domain.Room) error {
	data, err := json.Marshal(fromRoom(room))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(roomKey(room.ID), data)
}

// storeErr keeps domain sentinels and folds every other failure into ErrStoreUnavailable.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("%w: %v", errors.ErrNotFound, err)
	case errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrConflict),
		errors.Is(err, errors.ErrInvalidTransition):
		return err
	default:
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
}

func fromParticipant(p domain.Participant, _ int) diskParticipant {
	return diskParticipant{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		JoinedAt:    p.JoinedAt,
	}
}

func toParticipant(p diskParticipant, _ int) domain.Participant {
	return domain.Participant{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Role:        domain.Role(p.Role),
		JoinedAt:    p.JoinedAt,
	}
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{
		ID:           string(room.ID),
		Name:         room.Name,
		CreatedBy:    room.CreatedBy,
		CreatedAt:    room.CreatedAt,
		Participants: lo.Map(room.Participants, fromParticipant),
		Status:       string(room.Status),
	}
}

func toRoom(dr diskRoom) domain.Room {
	return domain.Room{
		ID:           domain.RoomID(dr.ID),
		Name:         dr.Name,
		CreatedBy:    dr.CreatedBy,
		CreatedAt:    dr.CreatedAt,
		Participants: lo.Map(dr.Participants, toParticipant),
		Status:       domain.Status(dr.Status),
	}
}

func fromSession(s domain.Session) diskSession {
	return diskSession{
		ID:           string(s.ID),
		RoomID:       string(s.RoomID),
		StartedAt:    s.StartedAt,
		Participants: lo.Map(s.Participants, fromParticipant),
		Status:       string(s.Status),
	}
}

func toSession(ds diskSession) domain.Session {
	return domain.Session{
		ID:           domain.SessionID(ds.ID),
		RoomID:       domain.RoomID(ds.RoomID),
		StartedAt:    ds.StartedAt,
		Participants: lo.Map(ds.Participants, toParticipant),
		Status:       domain.SessionStatus(ds.Status),
	}
}
