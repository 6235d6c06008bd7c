package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"room-lab/domain"
	"room-lab/errors"
	"strings"

	"github.com/blugelabs/bluge"
)

const roomNameField = "name"

// RoomIndex keeps a full-text index of room names next to the badger store.
// Documents are keyed by room id, re-indexing a room replaces its document.
type RoomIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewRoomIndex(writer *bluge.Writer, log *slog.Logger) *RoomIndex {
	return &RoomIndex{writer: writer, log: log}
}

func (i *RoomIndex) Index(ctx context.Context, room domain.Room) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	doc := bluge.NewDocument(string(room.ID)).
		AddField(bluge.NewTextField(roomNameField, room.Name).StoreValue())
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("%w: index room %s: %v", errors.ErrStoreUnavailable, room.ID, err)
	}
	return nil
}

// Search matches the analysed query against room names, and the raw query as a prefix
// of any name term so partially typed names still find their room.
func (i *RoomIndex) Search(ctx context.Context, query string, limit int) ([]domain.RoomID, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: open index reader: %v", errors.ErrStoreUnavailable, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Unable to close index reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(query).SetField(roomNameField)).
		AddShould(bluge.NewPrefixQuery(strings.ToLower(query)).SetField(roomNameField)).
		SetMinShould(1)

	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, fmt.Errorf("%w: search rooms: %v", errors.ErrStoreUnavailable, err)
	}

	var ids []domain.RoomID
	match, err := it.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, domain.RoomID(value))
				return false
			}
			return true
		})
		if visitErr != nil {
			return nil, fmt.Errorf("%w: read hit: %v", errors.ErrStoreUnavailable, visitErr)
		}
		match, err = it.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: iterate hits: %v", errors.ErrStoreUnavailable, err)
	}
	return ids, nil
}
