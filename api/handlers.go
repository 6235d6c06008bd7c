package api

import (
	"room-lab/auth"
	"room-lab/domain"
	"room-lab/runtime"
	"room-lab/services"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type liveStats interface {
	CountOf(roomID domain.RoomID) int
	Stats() runtime.DirectoryStats
}

// Handlers exposes the room registry and the identity service over JSON.
type Handlers struct {
	rooms services.IRoomService
	users services.IAuthService
	live  liveStats
}

func NewHandlers(rooms services.IRoomService, users services.IAuthService, live liveStats) *Handlers {
	return &Handlers{rooms: rooms, users: users, live: live}
}

// health handles GET /health.
func (h *Handlers) health(c *fiber.Ctx) error {
	stats := h.live.Stats()
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"live_connections": stats.Connections,
			"live_rooms":       stats.Rooms,
		},
	})
}

// register handles POST /api/auth/register.
func (h *Handlers) register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	token, err := h.users.Register(req.Email, req.Name, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(TokenResponse{Token: string(token)})
}

// login handles POST /api/auth/login.
func (h *Handlers) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	token, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(TokenResponse{Token: string(token)})
}

// me handles GET /api/auth/me.
func (h *Handlers) me(c *fiber.Ctx) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	user, err := h.users.Me(identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

// createRoom handles POST /api/rooms.
func (h *Handlers) createRoom(c *fiber.Ctx) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req CreateRoomRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	room, err := h.rooms.CreateRoom(c.UserContext(), req.Name, identity.UserID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toRoomSummary(room, 0))
}

// listRooms handles GET /api/rooms: the rooms the caller participates in.
func (h *Handlers) listRooms(c *fiber.Ctx) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	rooms, err := h.rooms.ListRoomsFor(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(rooms, toRoomSummary))
}

// searchRooms handles GET /api/rooms/search?q=&limit=.
func (h *Handlers) searchRooms(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultSearchLimit)))
	if err != nil || limit <= 0 {
		limit = defaultSearchLimit
	}
	rooms, err := h.rooms.SearchRooms(c.UserContext(), c.Query("q"), min(limit, maxSearchLimit))
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(rooms, toRoomSummary))
}

// getRoom handles GET /api/rooms/:id.
func (h *Handlers) getRoom(c *fiber.Ctx) error {
	roomID := domain.RoomID(c.Params("id"))
	room, err := h.rooms.GetRoom(c.UserContext(), roomID)
	if err != nil {
		return err
	}
	return c.JSON(toRoomDetail(room, h.live.CountOf(roomID)))
}

// joinRoom handles POST /api/rooms/:id/join. The display name comes from the verified identity.
func (h *Handlers) joinRoom(c *fiber.Ctx) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	var req JoinRoomRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	role := domain.RoleParticipant
	if req.Role != "" {
		role = domain.Role(req.Role)
	}
	participant, err := h.rooms.AddParticipant(c.UserContext(), domain.RoomID(c.Params("id")),
		identity.UserID, identity.DisplayName, role)
	if err != nil {
		return err
	}
	return c.JSON(toParticipantResponse(participant, 0))
}

// leaveRoom handles POST /api/rooms/:id/leave.
func (h *Handlers) leaveRoom(c *fiber.Ctx) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	if err := h.rooms.RemoveParticipant(c.UserContext(), domain.RoomID(c.Params("id")), identity.UserID); err != nil {
		return err
	}
	return c.JSON(SuccessResponse{Success: true})
}

// startRoom handles POST /api/rooms/:id/start.
func (h *Handlers) startRoom(c *fiber.Ctx) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	session, err := h.rooms.StartRoom(c.UserContext(), domain.RoomID(c.Params("id")), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(StartRoomResponse{Success: true, SessionID: string(session.ID)})
}

// roomSessions handles GET /api/rooms/:id/sessions.
func (h *Handlers) roomSessions(c *fiber.Ctx) error {
	sessions, err := h.rooms.SessionsForRoom(c.UserContext(), domain.RoomID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(sessions, toSessionResponse))
}

// userSessions handles GET /api/sessions/user.
func (h *Handlers) userSessions(c *fiber.Ctx) error {
	identity, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	sessions, err := h.rooms.SessionsFor(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(sessions, toSessionResponse))
}
