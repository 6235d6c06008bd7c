// Package domain contains core concepts of the discussion rooms.
// This file defines the Room aggregate and its lifecycle rules.
package domain

import (
	"fmt"
	"room-lab/errors"
	"time"
	"unicode/utf8"
)

const MaxRoomNameLength = 100

type RoomID string

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Room is a named collaboration space. Participants keep join order.
type Room struct {
	ID           RoomID
	Name         string
	CreatedBy    string
	CreatedAt    time.Time
	Participants []Participant
	Status       Status
}

func NewRoom(id RoomID, name, creatorID string, at time.Time) Room {
	return Room{
		ID:           id,
		Name:         name,
		CreatedBy:    creatorID,
		CreatedAt:    at,
		Participants: []Participant{},
		Status:       StatusWaiting,
	}
}

// CanTransition reports whether a room may move from one status to another.
// Status only ever advances: waiting -> active -> completed.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusWaiting:
		return to == StatusActive
	case StatusActive:
		return to == StatusCompleted
	default:
		return false
	}
}

// Advance moves the room to the given status or fails with ErrInvalidTransition.
func (r *Room) Advance(to Status) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	return nil
}

// Participant returns the membership entry of a user, if any.
func (r Room) Participant(userID string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// IsModerator is matched by exact user id against the current participant list.
func (r Room) IsModerator(userID string) bool {
	for _, p := range r.Participants {
		if p.UserID == userID && p.Role == RoleModerator {
			return true
		}
	}
	return false
}

// HasParticipant reports whether the user appears in the participant list.
func (r Room) HasParticipant(userID string) bool {
	_, ok := r.Participant(userID)
	return ok
}

// Upsert applies set semantics on the participant list: a returning user keeps
// its position and joined-at, only role and display name change.
func (r *Room) Upsert(p Participant) Participant {
	for i, existing := range r.Participants {
		if existing.UserID == p.UserID {
			existing.Role = p.Role
			existing.DisplayName = p.DisplayName
			r.Participants[i] = existing
			return existing
		}
	}
	r.Participants = append(r.Participants, p)
	return p
}

// Remove drops the user from the participant list and reports whether anything changed.
func (r *Room) Remove(userID string) bool {
	kept := make([]Participant, 0, len(r.Participants))
	removed := false
	for _, p := range r.Participants {
		if p.UserID == userID {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	r.Participants = kept
	return removed
}

func ValidateRoomName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: room name cannot be empty", errors.ErrInvalidRequest)
	case utf8.RuneCountInString(name) > MaxRoomNameLength:
		return fmt.Errorf("%w: room name exceeds %d characters", errors.ErrInvalidRequest, MaxRoomNameLength)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: room name contains invalid characters", errors.ErrInvalidRequest)
	}
	return nil
}
