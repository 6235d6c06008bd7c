// Package api exposes the room registry over HTTP and the live channel over websocket.
package api

import (
	"context"
	"log/slog"
	"room-lab/auth"
	"room-lab/contract"
	"room-lab/errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server is the HTTP worker. It is run by the supervisor like any other worker.
type Server struct {
	app             *fiber.App
	addr            string
	log             *slog.Logger
	shutdownTimeout time.Duration
}

func NewServer(log *slog.Logger, addr string, handlers *Handlers, live *LiveHandler, verifier contract.IdentityVerifier) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
		ReadTimeout:           30 * time.Second,
		IdleTimeout:           120 * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestLogger(log))
	Routes(app, handlers, live, verifier)
	return &Server{app: app, addr: addr, log: log, shutdownTimeout: 5 * time.Second}
}

// Routes registers every endpoint on the app.
func Routes(app *fiber.App, h *Handlers, live *LiveHandler, verifier contract.IdentityVerifier) {
	protected := auth.Middleware(verifier)

	app.Get("/health", h.health)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", protected, websocket.New(live.Serve))

	api := app.Group("/api")
	api.Post("/auth/register", h.register)
	api.Post("/auth/login", h.login)
	api.Get("/auth/me", protected, h.me)

	rooms := api.Group("/rooms", protected)
	rooms.Post("/", h.createRoom)
	rooms.Get("/", h.listRooms)
	rooms.Get("/search", h.searchRooms)
	rooms.Get("/:id", h.getRoom)
	rooms.Post("/:id/join", h.joinRoom)
	rooms.Post("/:id/leave", h.leaveRoom)
	rooms.Post("/:id/start", h.startRoom)
	rooms.Get("/:id/sessions", h.roomSessions)

	api.Get("/sessions/user", protected, h.userSessions)
}

// Run listens until ctx is cancelled, then shuts the app down.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.addr)
		errChan <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// App is exposed for tests.
func (s *Server) App() *fiber.App { return s.app }

// errorHandler turns domain errors into their status code and a short error identifier.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{Error: "http_error", Message: fe.Message})
		}
		code := errors.MapToHTTPStatus(err)
		if code >= fiber.StatusInternalServerError {
			log.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(ErrorResponse{Error: errors.Code(err), Message: err.Error()})
	}
}

func requestLogger(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// websocket upgrades are logged by the live handler
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		attrs := []any{"method", c.Method(), "path", c.Path(), "duration", time.Since(start)}
		if err != nil {
			attrs = append(attrs, "status", errors.MapToHTTPStatus(err))
		} else {
			attrs = append(attrs, "status", c.Response().StatusCode())
		}
		log.Debug("HTTP request", attrs...)
		return err
	}
}
