package core

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/runchat/internal/domain"
)

// Room is a threadsafe in-memory room: member set plus bounded message log.
// It never touches transport resources.
type Room struct {
	meta domain.Room

	mu           sync.RWMutex
	members      map[ConnectionID]struct{}
	log          []domain.Message
	historyLimit int
	lastActivity time.Time
}

// NewRoom builds an empty room. historyLimit <= 0 keeps the whole log.
func NewRoom(meta domain.Room, historyLimit int) *Room {
	return &Room{
		meta:         meta,
		members:      make(map[ConnectionID]struct{}),
		historyLimit: historyLimit,
		lastActivity: meta.CreatedAt,
	}
}

func (r *Room) Meta() domain.Room { return r.meta }
func (r *Room) ID() domain.RoomID { return r.meta.ID }
func (r *Room) Permanent() bool   { return r.meta.Permanent }

// AddMember reports false if id was already a member.
func (r *Room) AddMember(id ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; ok {
		return false
	}
	r.members[id] = struct{}{}
	return true
}

// RemoveMember reports false if id was not a member.
func (r *Room) RemoveMember(id ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	return true
}

func (r *Room) HasMember(id ConnectionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Members returns a snapshot of the member set.
func (r *Room) Members() []ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnectionID, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	return out
}

// Append adds m to the log, evicting the oldest entries past the limit.
func (r *Room) Append(m domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, m)
	if r.historyLimit > 0 {
		if over := len(r.log) - r.historyLimit; over > 0 {
			r.log = slices.Clone(r.log[over:])
		}
	}
	r.lastActivity = m.Timestamp
}

// History returns a copy of the retained log, oldest first.
func (r *Room) History() []domain.Message {
	return r.Recent(0)
}

// Recent returns a copy of the newest n messages; n <= 0 means all.
func (r *Room) Recent(n int) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := 0
	if n > 0 && len(r.log) > n {
		start = len(r.log) - n
	}
	return slices.Clone(r.log[start:])
}

func (r *Room) MessageCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.log)
}

// ReplaceHistory overwrites the log, keeping only what the limit allows.
func (r *Room) ReplaceHistory(msgs []domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.historyLimit > 0 && len(msgs) > r.historyLimit {
		msgs = msgs[len(msgs)-r.historyLimit:]
	}
	r.log = slices.Clone(msgs)
}

func (r *Room) Touch(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = t
}

func (r *Room) LastActivity() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActivity
}

func (r *Room) Info() RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomInfo{
		Room:           r.meta,
		UserCount:      len(r.members),
		MessageCount:   len(r.log),
		LastActivityAt: r.lastActivity,
	}
}
