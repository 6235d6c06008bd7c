// Package domain contains core concepts of the discussion rooms.
// This file defines Participant entities and roles.
package domain

import (
	"fmt"
	"room-lab/errors"
	"time"
)

type Role string

const (
	RoleModerator   Role = "moderator"
	RoleParticipant Role = "participant"
	RoleEvaluator   Role = "evaluator"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleModerator, RoleParticipant, RoleEvaluator:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidRole, s)
	}
}

// Participant is a user's membership record in a room.
type Participant struct {
	UserID      string
	DisplayName string
	Role        Role
	JoinedAt    time.Time
}
