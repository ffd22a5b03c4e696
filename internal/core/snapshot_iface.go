package core

import (
	"context"

	"github.com/dkeye/runchat/internal/domain"
)

// SnapshotStore is the durable home of room message logs.
// LoadSnapshot returns ErrSnapshotNotFound when nothing was saved for the room.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, roomID domain.RoomID, messages []domain.Message) error
	LoadSnapshot(ctx context.Context, roomID domain.RoomID) ([]domain.Message, error)
}
