package domain

import "time"

type SessionID string

type SessionStatus string

const SessionActive SessionStatus = "active"

// Session is a point-in-time snapshot of a room's participants taken when the room starts.
type Session struct {
	ID           SessionID
	RoomID       RoomID
	StartedAt    time.Time
	Participants []Participant
	Status       SessionStatus
}

// NewSession copies the participant list so later room mutations never reach the session.
func NewSession(id SessionID, room Room, at time.Time) Session {
	participants := make([]Participant, len(room.Participants))
	copy(participants, room.Participants)
	return Session{
		ID:           id,
		RoomID:       room.ID,
		StartedAt:    at,
		Participants: participants,
		Status:       SessionActive,
	}
}

// HasParticipant reports whether the user was part of the snapshot.
func (s Session) HasParticipant(userID string) bool {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
