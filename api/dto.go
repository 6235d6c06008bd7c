package api

import (
	"fmt"
	"room-lab/domain"
	"room-lab/errors"
	"room-lab/repositories"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

var validate = validator.New()

type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateRoomRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type JoinRoomRequest struct {
	Role string `json:"role" validate:"omitempty,oneof=moderator participant evaluator"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomSummary is what create and list return.
type RoomSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type RoomDetail struct {
	RoomSummary
	CreatedBy       string                `json:"created_by"`
	CreatedAt       time.Time             `json:"created_at"`
	Participants    []ParticipantResponse `json:"participants"`
	LiveConnections int                   `json:"live_connections"`
}

type ParticipantResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type SessionResponse struct {
	ID           string                `json:"id"`
	RoomID       string                `json:"room_id"`
	StartedAt    time.Time             `json:"started_at"`
	Participants []ParticipantResponse `json:"participants"`
	Status       string                `json:"status"`
}

type StartRoomResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// parseBody decodes and validates a JSON body, any failure is an ErrInvalidRequest.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}

func toRoomSummary(room domain.Room, _ int) RoomSummary {
	return RoomSummary{ID: string(room.ID), Name: room.Name, Status: string(room.Status)}
}

func toParticipantResponse(p domain.Participant, _ int) ParticipantResponse {
	return ParticipantResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		JoinedAt:    p.JoinedAt,
	}
}

func toRoomDetail(room domain.Room, liveConnections int) RoomDetail {
	return RoomDetail{
		RoomSummary:     toRoomSummary(room, 0),
		CreatedBy:       room.CreatedBy,
		CreatedAt:       room.CreatedAt,
		Participants:    lo.Map(room.Participants, toParticipantResponse),
		LiveConnections: liveConnections,
	}
}

func toSessionResponse(s domain.Session, _ int) SessionResponse {
	return SessionResponse{
		ID:           string(s.ID),
		RoomID:       string(s.RoomID),
		StartedAt:    s.StartedAt,
		Participants: lo.Map(s.Participants, toParticipantResponse),
		Status:       string(s.Status),
	}
}

func toUserResponse(u repositories.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Roles: u.Roles, CreatedAt: u.CreatedAt}
}
