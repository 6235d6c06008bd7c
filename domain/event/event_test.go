package event

import (
	"room-lab/domain"
	"room-lab/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var origin = Origin{Room: "room-1", Connection: "conn-1", UserID: "alice"}

func TestValidate_AcceptsEveryWellFormedKind(t *testing.T) {
	events := []LiveEvent{
		UserJoined{Origin: origin, UserName: "Alice"},
		UserLeft{Origin: origin, UserName: "Alice"},
		NewMessage{Origin: origin, UserName: "Alice", Message: "hello"},
		VoiceFrame{Origin: origin, VoiceData: "AAEC"},
		RecordingStarted{Origin: origin},
		RecordingStopped{Origin: origin},
		HandRaised{Origin: origin, UserName: "Alice"},
		HandLowered{Origin: origin, UserName: "Alice"},
	}

	kinds := make(map[Kind]struct{})
	for _, e := range events {
		require.NoError(t, Validate(e), e.Kind())
		kinds[e.Kind()] = struct{}{}
	}
	require.Len(t, kinds, 8)
}

func TestValidate_RejectsMalformedEvents(t *testing.T) {
	tests := []struct {
		name string
		evt  LiveEvent
	}{
		{"nil", nil},
		{"missing room", NewMessage{Origin: Origin{Connection: "c", UserID: "u"}, UserName: "U", Message: "hi"}},
		{"missing connection", HandRaised{Origin: Origin{Room: "r", UserID: "u"}, UserName: "U"}},
		{"missing user", RecordingStarted{Origin: Origin{Room: "r", Connection: "c"}}},
		{"empty message", NewMessage{Origin: origin, UserName: "Alice"}},
		{"message too long", NewMessage{Origin: origin, UserName: "Alice", Message: strings.Repeat("x", MaxMessageLength+1)}},
		{"missing user name", UserJoined{Origin: origin}},
		{"empty voice data", VoiceFrame{Origin: origin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, Validate(tt.evt), errors.ErrInvalidEvent)
		})
	}
}

func TestKind_IncludesOrigin(t *testing.T) {
	req := require.New(t)
	for _, k := range []Kind{KindUserJoined, KindUserLeft, KindNewMessage, KindRecordingStarted,
		KindRecordingStopped, KindHandRaised, KindHandLowered} {
		req.True(k.IncludesOrigin(), k)
	}
	req.False(KindVoiceFrame.IncludesOrigin())
}

func TestStamp_SetsProcessingTime(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	stamped := NewMessage{Origin: origin, UserName: "Alice", Message: "hi"}.Stamp(at)
	req.Equal(at, Timestamp(stamped))
	req.Equal(domain.RoomID("room-1"), stamped.RoomID())
	req.Equal(domain.ConnectionID("conn-1"), stamped.OriginConnection())
	req.Equal("alice", stamped.Author())

	voice := VoiceFrame{Origin: origin, VoiceData: "AAEC"}.Stamp(at)
	req.True(Timestamp(voice).IsZero())
}

func TestOriginOf(t *testing.T) {
	b := domain.Binding{ConnectionID: "c1", UserID: "bob", DisplayName: "Bob", RoomID: "r1"}
	require.Equal(t, Origin{Room: "r1", Connection: "c1", UserID: "bob"}, OriginOf(b))
}
