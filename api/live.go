package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"room-lab/auth"
	"room-lab/contract"
	"room-lab/domain"
	"room-lab/domain/event"
	"room-lab/errors"
	"room-lab/runtime/workers"
	"room-lab/sink"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Inbound frame types of the live channel.
const (
	frameJoin           = "join"
	frameLeave          = "leave"
	frameMessage        = "message"
	frameVoiceData      = "voice_data"
	frameStartRecording = "start_recording"
	frameStopRecording  = "stop_recording"
	frameRaiseHand      = "raise_hand"
	frameLowerHand      = "lower_hand"
	frameError          = "error"
)

// InboundFrame is what a client sends over the websocket.
type InboundFrame struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id,omitempty"`
	Message   string `json:"message,omitempty"`
	VoiceData string `json:"voice_data,omitempty"`
}

// OutboundFrame is what a client receives: one live event, or an error reply.
type OutboundFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id,omitempty"`
	Data   any    `json:"data"`
}

type userEventData struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
}

type messageData struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type voiceData struct {
	UserID    string `json:"user_id"`
	VoiceData string `json:"voice_data"`
}

type recordingData struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type errorData struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ToOutbound renders a live event in its wire shape.
func ToOutbound(e event.LiveEvent) OutboundFrame {
	frame := OutboundFrame{Type: string(e.Kind()), RoomID: string(e.RoomID())}
	switch evt := e.(type) {
	case event.UserJoined:
		frame.Data = userEventData{evt.UserID, evt.UserName, evt.At}
	case event.UserLeft:
		frame.Data = userEventData{evt.UserID, evt.UserName, evt.At}
	case event.HandRaised:
		frame.Data = userEventData{evt.UserID, evt.UserName, evt.At}
	case event.HandLowered:
		frame.Data = userEventData{evt.UserID, evt.UserName, evt.At}
	case event.NewMessage:
		frame.Data = messageData{evt.UserID, evt.UserName, evt.Message, evt.At}
	case event.VoiceFrame:
		frame.Data = voiceData{evt.UserID, evt.VoiceData}
	case event.RecordingStarted:
		frame.Data = recordingData{evt.UserID, evt.At}
	case event.RecordingStopped:
		frame.Data = recordingData{evt.UserID, evt.At}
	}
	return frame
}

func errorFrame(err error) OutboundFrame {
	return OutboundFrame{Type: frameError, Data: errorData{Error: errors.Code(err), Message: err.Error()}}
}

type broadcaster interface {
	Broadcast(e event.LiveEvent) (workers.Delivery, error)
}

// FrameWriter is the write half of a live connection.
type FrameWriter interface {
	WriteJSON(v any) error
}

// LiveHandler attaches websocket connections to the directory and routes their frames.
type LiveHandler struct {
	log         *slog.Logger
	directory   contract.IDirectory
	broadcaster broadcaster
	bufferSize  int
}

func NewLiveHandler(log *slog.Logger, directory contract.IDirectory, broadcaster broadcaster, bufferSize int) *LiveHandler {
	return &LiveHandler{log: log, directory: directory, broadcaster: broadcaster, bufferSize: bufferSize}
}

// LiveSession is the state of one live connection. Frames are handled by the reader
// goroutine, and a single Pump goroutine writes to the client.
type LiveSession struct {
	id       domain.ConnectionID
	identity domain.Identity
	handler  *LiveHandler
	sink     *sink.ConnectionSink
	replies  chan OutboundFrame
}

func (h *LiveHandler) Open(identity domain.Identity) *LiveSession {
	return &LiveSession{
		id:       domain.ConnectionID(uuid.NewString()),
		identity: identity,
		handler:  h,
		sink:     sink.NewConnectionSink(h.bufferSize),
		replies:  make(chan OutboundFrame, h.bufferSize),
	}
}

func (s *LiveSession) ID() domain.ConnectionID { return s.id }

// Serve runs a websocket connection until the client goes away.
func (h *LiveHandler) Serve(conn *websocket.Conn) {
	identity, ok := conn.Locals(auth.IdentityKey).(domain.Identity)
	if !ok {
		_ = conn.WriteJSON(errorFrame(errors.ErrUnauthenticated))
		_ = conn.Close()
		return
	}

	session := h.Open(identity)
	ctx, cancel := context.WithCancel(context.Background())
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		if err := session.Pump(ctx, conn); err != nil {
			h.log.Debug("Live writer stopped", "connection_id", session.id, "error", err)
		}
	}()

	defer func() {
		session.Close()
		cancel()
		<-pumpDone
		_ = conn.Close()
		h.log.Info("Live connection closed", "connection_id", session.id, "user_id", identity.UserID)
	}()

	h.log.Info("Live connection opened", "connection_id", session.id, "user_id", identity.UserID)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Live connection error", "connection_id", session.id, "error", err)
			}
			return
		}
		var frame InboundFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			session.reply(errorFrame(errors.ErrInvalidRequest))
			continue
		}
		session.Handle(frame)
	}
}

// Handle routes one inbound frame. Failures are answered to this connection only.
func (s *LiveSession) Handle(frame InboundFrame) {
	if err := s.handle(frame); err != nil {
		s.handler.log.Debug("Live frame refused", "connection_id", s.id, "type", frame.Type, "error", err)
		s.reply(errorFrame(err))
	}
}

func (s *LiveSession) handle(frame InboundFrame) error {
	if frame.Type == frameJoin {
		return s.join(domain.RoomID(frame.RoomID))
	}

	binding, ok := s.handler.directory.Binding(s.id)
	if !ok {
		return errors.ErrInvalidRequest
	}
	origin := event.OriginOf(binding)
	name := binding.DisplayName

	switch frame.Type {
	case frameLeave:
		return s.leave(binding)
	case frameMessage:
		return s.broadcast(event.NewMessage{Origin: origin, UserName: name, Message: frame.Message})
	case frameVoiceData:
		return s.broadcast(event.VoiceFrame{Origin: origin, VoiceData: frame.VoiceData})
	case frameStartRecording:
		return s.broadcast(event.RecordingStarted{Origin: origin})
	case frameStopRecording:
		return s.broadcast(event.RecordingStopped{Origin: origin})
	case frameRaiseHand:
		return s.broadcast(event.HandRaised{Origin: origin, UserName: name})
	case frameLowerHand:
		return s.broadcast(event.HandLowered{Origin: origin, UserName: name})
	default:
		return errors.ErrInvalidEvent
	}
}

// join binds the connection to the room, replacing any previous binding, then announces it.
// Durable membership isn't checked: the live channel is independent of the room registry.
func (s *LiveSession) join(roomID domain.RoomID) error {
	if roomID == "" {
		return errors.ErrInvalidRequest
	}
	binding := domain.Binding{
		ConnectionID: s.id,
		UserID:       s.identity.UserID,
		DisplayName:  s.identity.DisplayName,
		RoomID:       roomID,
	}
	s.handler.directory.Bind(binding, s.sink)
	return s.broadcast(event.UserJoined{Origin: event.OriginOf(binding), UserName: binding.DisplayName})
}

// leave announces the departure while the connection is still a member, so it gets its own user_left.
func (s *LiveSession) leave(binding domain.Binding) error {
	err := s.broadcast(event.UserLeft{Origin: event.OriginOf(binding), UserName: binding.DisplayName})
	s.handler.directory.Unbind(s.id)
	return err
}

func (s *LiveSession) broadcast(e event.LiveEvent) error {
	_, err := s.handler.broadcaster.Broadcast(e)
	return err
}

func (s *LiveSession) reply(frame OutboundFrame) {
	select {
	case s.replies <- frame:
	default:
		s.handler.log.Warn("Live reply dropped", "connection_id", s.id, "type", frame.Type)
	}
}

// Close detaches the connection without broadcasting anything. Durable membership is untouched.
func (s *LiveSession) Close() {
	s.handler.directory.Unbind(s.id)
	s.sink.Close()
}

// Pump writes events and replies to the client until the session is closed or ctx is done.
func (s *LiveSession) Pump(ctx context.Context, w FrameWriter) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.sink.Done():
			return nil
		case e := <-s.sink.Events():
			if err := w.WriteJSON(ToOutbound(e)); err != nil {
				return err
			}
		case frame := <-s.replies:
			if err := w.WriteJSON(frame); err != nil {
				return err
			}
		}
	}
}
