package repositories

import (
	"context"
	"log/slog"
	"room-lab/domain"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"
)

func newRoomIndex(t *testing.T) *RoomIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewRoomIndex(writer, slog.Default())
}

func TestRoomIndex_Search_By_Name(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := newRoomIndex(t)

	// Given three indexed rooms
	req.NoError(index.Index(ctx, domain.NewRoom("r1", "Morning Standup", "alice", at)))
	req.NoError(index.Index(ctx, domain.NewRoom("r2", "Sprint Retro", "alice", at)))
	req.NoError(index.Index(ctx, domain.NewRoom("r3", "Design review", "bob", at)))

	// When searching a full word
	ids, err := index.Search(ctx, "standup", 10)
	req.NoError(err)
	req.Equal([]domain.RoomID{"r1"}, ids)

	// And a prefix
	ids, err = index.Search(ctx, "ret", 10)
	req.NoError(err)
	req.Equal([]domain.RoomID{"r2"}, ids)

	// Then an unknown word finds nothing
	ids, err = index.Search(ctx, "karaoke", 10)
	req.NoError(err)
	req.Empty(ids)
}

func TestRoomIndex_Reindex_Replaces_Document(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := newRoomIndex(t)

	req.NoError(index.Index(ctx, domain.NewRoom("r1", "Standup", "alice", at)))
	req.NoError(index.Index(ctx, domain.NewRoom("r1", "Standup", "alice", at)))

	ids, err := index.Search(ctx, "standup", 10)
	req.NoError(err)
	req.Len(ids, 1)
}

func TestRoomIndex_Empty_Query(t *testing.T) {
	ids, err := newRoomIndex(t).Search(context.Background(), "  ", 10)
	require.NoError(t, err)
	require.Empty(t, ids)
}
