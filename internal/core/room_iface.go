package core

import (
	"time"

	"github.com/dkeye/runchat/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []ConnectionID
}

// Merge folds o into r.
func (r *PublishResult) Merge(o PublishResult) {
	r.SendTo += o.SendTo
	r.Dropped = append(r.Dropped, o.Dropped...)
}

// RoomInfo is the metadata view of a room sent to clients.
type RoomInfo struct {
	domain.Room
	UserCount      int       `json:"userCount"`
	MessageCount   int       `json:"messageCount"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}
