package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
)

// BlobSnapshots stores each room log as a JSON array keyed by room id.
type BlobSnapshots struct {
	store BlobStore
}

var _ core.SnapshotStore = (*BlobSnapshots)(nil)

func NewBlobSnapshots(store BlobStore) *BlobSnapshots {
	return &BlobSnapshots{store: store}
}

func (s *BlobSnapshots) SaveSnapshot(ctx context.Context, room domain.RoomID, msgs []domain.Message) error {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", room, err)
	}
	return s.store.Save(ctx, string(room), data)
}

func (s *BlobSnapshots) LoadSnapshot(ctx context.Context, room domain.RoomID) ([]domain.Message, error) {
	data, err := s.store.Load(ctx, string(room))
	if errors.Is(err, ErrNotFound) {
		return nil, core.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", room, err)
	}
	return msgs, nil
}
