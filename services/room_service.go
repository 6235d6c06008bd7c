package services

import (
	"context"
	"fmt"
	"log/slog"
	"room-lab/contract"
	"room-lab/domain"
	"room-lab/errors"
	"room-lab/runtime"
	"sort"
	"time"

	"github.com/google/uuid"
)

type IRoomService interface {
	CreateRoom(ctx context.Context, name, creatorID string) (domain.Room, error)
	GetRoom(ctx context.Context, roomID domain.RoomID) (domain.Room, error)
	ListRoomsFor(ctx context.Context, userID string) ([]domain.Room, error)
	SearchRooms(ctx context.Context, query string, limit int) ([]domain.Room, error)
	AddParticipant(ctx context.Context, roomID domain.RoomID, userID, displayName string, role domain.Role) (domain.Participant, error)
	RemoveParticipant(ctx context.Context, roomID domain.RoomID, userID string) error
	StartRoom(ctx context.Context, roomID domain.RoomID, requesterID string) (domain.Session, error)
	SessionsForRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Session, error)
	SessionsFor(ctx context.Context, userID string) ([]domain.Session, error)
}

// RoomService is the room registry. It owns every mutation of the durable room state:
// membership changes and the moderator-gated start are serialized per room.
// Store errors are returned unchanged, nothing is retried.
type RoomService struct {
	log      *slog.Logger
	store    contract.RoomStore
	index    contract.RoomIndex
	sessions *SessionFactory
	locks    *runtime.RoomLocks
	now      func() time.Time
}

// NewRoomService accepts a nil index, search then finds nothing.
func NewRoomService(log *slog.Logger, store contract.RoomStore, index contract.RoomIndex,
	sessions *SessionFactory, locks *runtime.RoomLocks) *RoomService {
	return &RoomService{
		log:      log,
		store:    store,
		index:    index,
		sessions: sessions,
		locks:    locks,
		now:      time.Now,
	}
}

func (s *RoomService) CreateRoom(ctx context.Context, name, creatorID string) (domain.Room, error) {
	if err := domain.ValidateRoomName(name); err != nil {
		return domain.Room{}, err
	}
	room := domain.NewRoom(domain.RoomID(uuid.NewString()), name, creatorID, s.now().UTC())
	if err := s.store.Insert(ctx, room); err != nil {
		return domain.Room{}, err
	}
	// The store is the source of truth, a missing index entry only hides the room from search.
	if s.index != nil {
		if err := s.index.Index(ctx, room); err != nil {
			s.log.Warn("Room not indexed", "room_id", room.ID, "error", err)
		}
	}
	s.log.Info("Room created", "room_id", room.ID, "name", room.Name, "created_by", creatorID)
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, roomID domain.RoomID) (domain.Room, error) {
	return s.store.FindByID(ctx, roomID)
}

// ListRoomsFor returns the rooms the user belongs to, ordered by room id.
func (s *RoomService) ListRoomsFor(ctx context.Context, userID string) ([]domain.Room, error) {
	rooms, err := s.store.FindByParticipantID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

// SearchRooms resolves index hits against the store, stale hits are skipped.
func (s *RoomService) SearchRooms(ctx context.Context, query string, limit int) ([]domain.Room, error) {
	if s.index == nil {
		return nil, nil
	}
	ids, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, 0, len(ids))
	for _, id := range ids {
		room, err := s.store.FindByID(ctx, id)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// AddParticipant makes the user a member of the room. Joining again only updates
// the role and display name of the existing entry.
func (s *RoomService) AddParticipant(ctx context.Context, roomID domain.RoomID, userID, displayName string, role domain.Role) (domain.Participant, error) {
	if _, err := domain.ParseRole(string(role)); err != nil {
		return domain.Participant{}, err
	}
	if userID == "" {
		return domain.Participant{}, fmt.Errorf("%w: user id is required", errors.ErrInvalidRequest)
	}

	var stored domain.Participant
	err := s.locks.WithLock(roomID, func() error {
		participant, err := s.store.AppendParticipant(ctx, roomID, domain.Participant{
			UserID:      userID,
			DisplayName: displayName,
			Role:        role,
			JoinedAt:    s.now().UTC(),
		})
		stored = participant
		return err
	})
	if err != nil {
		return domain.Participant{}, err
	}
	s.log.Info("Participant joined", "room_id", roomID, "user_id", userID, "role", stored.Role)
	return stored, nil
}

// RemoveParticipant succeeds silently when the user isn't a member or the room doesn't exist.
func (s *RoomService) RemoveParticipant(ctx context.Context, roomID domain.RoomID, userID string) error {
	err := s.locks.WithLock(roomID, func() error {
		return s.store.RemoveParticipant(ctx, roomID, userID)
	})
	if err != nil {
		return err
	}
	s.log.Info("Participant left", "room_id", roomID, "user_id", userID)
	return nil
}

// StartRoom activates a waiting room and snapshots its participants into a session.
// Only a moderator of the persisted participant list may start it, checked at call time.
// A room already started fails with ErrInvalidTransition, so it never gets a second session.
func (s *RoomService) StartRoom(ctx context.Context, roomID domain.RoomID, requesterID string) (domain.Session, error) {
	var session domain.Session
	err := s.locks.WithLock(roomID, func() error {
		room, err := s.store.FindByID(ctx, roomID)
		if err != nil {
			return err
		}
		if !room.IsModerator(requesterID) {
			return fmt.Errorf("%w: %s is not a moderator of room %s", errors.ErrForbidden, requesterID, roomID)
		}
		if err := room.Advance(domain.StatusActive); err != nil {
			return err
		}
		session, err = s.sessions.CreateSession(ctx, room)
		return err
	})
	if err != nil {
		return domain.Session{}, err
	}
	s.log.Info("Room started", "room_id", roomID, "session_id", session.ID, "participants", len(session.Participants))
	return session, nil
}

func (s *RoomService) SessionsForRoom(ctx context.Context, roomID domain.RoomID) ([]domain.Session, error) {
	if _, err := s.store.FindByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.store.FindSessionsByRoom(ctx, roomID)
}

func (s *RoomService) SessionsFor(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.store.FindSessionsByParticipant(ctx, userID)
}
