// Package event defines the live events routed to the connections of a room.
// Each kind is a fixed-shape record; LiveEvent is the closed union over them.
package event

import (
	"fmt"
	"room-lab/domain"
	"room-lab/errors"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MaxUserNameLength = 100
	MaxMessageLength  = 4096
)

type Kind string

const (
	KindUserJoined       Kind = "user_joined"
	KindUserLeft         Kind = "user_left"
	KindNewMessage       Kind = "new_message"
	KindVoiceFrame       Kind = "voice_frame"
	KindRecordingStarted Kind = "recording_started"
	KindRecordingStopped Kind = "recording_stopped"
	KindHandRaised       Kind = "hand_raised"
	KindHandLowered      Kind = "hand_lowered"
)

// IncludesOrigin tells whether the originating connection receives its own event.
// Voice frames are the only kind echoed to everyone but the sender.
func (k Kind) IncludesOrigin() bool {
	return k != KindVoiceFrame
}

var validate = validator.New()

// LiveEvent is implemented only by the eight records of this package.
type LiveEvent interface {
	Kind() Kind
	RoomID() domain.RoomID
	OriginConnection() domain.ConnectionID
	Author() string
	// Stamp returns a copy carrying the processing time.
	Stamp(at time.Time) LiveEvent
	isLiveEvent()
}

// Origin identifies where an event comes from. The user id is the verified one
// attached to the connection, never a client-supplied value.
type Origin struct {
	Room       domain.RoomID       `validate:"required"`
	Connection domain.ConnectionID `validate:"required"`
	UserID     string              `validate:"required"`
}

func (o Origin) RoomID() domain.RoomID                 { return o.Room }
func (o Origin) OriginConnection() domain.ConnectionID { return o.Connection }
func (o Origin) Author() string                        { return o.UserID }
func (Origin) isLiveEvent()                            {}

// OriginOf builds the origin of an event emitted through a bound connection.
func OriginOf(b domain.Binding) Origin {
	return Origin{Room: b.RoomID, Connection: b.ConnectionID, UserID: b.UserID}
}

type UserJoined struct {
	Origin
	UserName string `validate:"required,max=100"`
	At       time.Time
}

type UserLeft struct {
	Origin
	UserName string `validate:"required,max=100"`
	At       time.Time
}

type NewMessage struct {
	Origin
	UserName string `validate:"required,max=100"`
	Message  string `validate:"required,max=4096"`
	At       time.Time
}

// VoiceFrame carries an opaque audio chunk. It is relayed as is, without a timestamp.
type VoiceFrame struct {
	Origin
	VoiceData string `validate:"required"`
}

type RecordingStarted struct {
	Origin
	At time.Time
}

type RecordingStopped struct {
	Origin
	At time.Time
}

type HandRaised struct {
	Origin
	UserName string `validate:"required,max=100"`
	At       time.Time
}

type HandLowered struct {
	Origin
	UserName string `validate:"required,max=100"`
	At       time.Time
}

func (UserJoined) Kind() Kind       { return KindUserJoined }
func (UserLeft) Kind() Kind         { return KindUserLeft }
func (NewMessage) Kind() Kind       { return KindNewMessage }
func (VoiceFrame) Kind() Kind       { return KindVoiceFrame }
func (RecordingStarted) Kind() Kind { return KindRecordingStarted }
func (RecordingStopped) Kind() Kind { return KindRecordingStopped }
func (HandRaised) Kind() Kind       { return KindHandRaised }
func (HandLowered) Kind() Kind      { return KindHandLowered }

func (e UserJoined) Stamp(at time.Time) LiveEvent       { e.At = at; return e }
func (e UserLeft) Stamp(at time.Time) LiveEvent         { e.At = at; return e }
func (e NewMessage) Stamp(at time.Time) LiveEvent       { e.At = at; return e }
func (e VoiceFrame) Stamp(time.Time) LiveEvent          { return e }
func (e RecordingStarted) Stamp(at time.Time) LiveEvent { e.At = at; return e }
func (e RecordingStopped) Stamp(at time.Time) LiveEvent { e.At = at; return e }
func (e HandRaised) Stamp(at time.Time) LiveEvent       { e.At = at; return e }
func (e HandLowered) Stamp(at time.Time) LiveEvent      { e.At = at; return e }

// Validate checks the required fields of an event before it is dispatched.
func Validate(e LiveEvent) error {
	if e == nil {
		return fmt.Errorf("%w: nil event", errors.ErrInvalidEvent)
	}
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidEvent, e.Kind(), err)
	}
	return nil
}

// Timestamp returns the processing time of an event, zero for voice frames.
func Timestamp(e LiveEvent) time.Time {
	switch evt := e.(type) {
	case UserJoined:
		return evt.At
	case UserLeft:
		return evt.At
	case NewMessage:
		return evt.At
	case RecordingStarted:
		return evt.At
	case RecordingStopped:
		return evt.At
	case HandRaised:
		return evt.At
	case HandLowered:
		return evt.At
	default:
		return time.Time{}
	}
}
