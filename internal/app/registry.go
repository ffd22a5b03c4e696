package app

import (
	"sync"
	"time"

	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	User     domain.User
	Conn     core.SignalConnection
	Room     domain.RoomID
	JoinedAt time.Time
	LastSeen time.Time
}

// ConnInfo is a copy of one registry entry.
type ConnInfo struct {
	ID       core.ConnectionID
	User     domain.User
	Room     domain.RoomID
	JoinedAt time.Time
	LastSeen time.Time
}

// Peer pairs a connection id with its outbound transport.
type Peer struct {
	ID   core.ConnectionID
	Conn core.SignalConnection
}

type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnectionID]*connEntry)}
}

// Register stores a fresh connection without nickname or room.
func (r *Registry) Register(userID domain.UserID, conn core.SignalConnection, now time.Time) core.ConnectionID {
	id := core.ConnectionID(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{
		User:     domain.User{ID: userID},
		Conn:     conn,
		JoinedAt: now,
		LastSeen: now,
	}
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Str("user", string(userID)).Msg("registered connection")
	return id
}

// SetProfile replaces the nickname and, when non-empty, the user id.
// Anonymous profiles get the shared anonymous nickname.
func (r *Registry) SetProfile(id core.ConnectionID, nickname string, userID domain.UserID, anonymous bool) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.User{}, core.ErrUnknownConnection
	}
	u := e.User
	if anonymous {
		u.Nickname = domain.AnonymousNickname
	} else if err := u.SetNickname(nickname); err != nil {
		return domain.User{}, err
	}
	u.Anonymous = anonymous
	if userID != "" {
		u.ID = userID
	}
	e.User = u
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Str("nickname", u.Nickname).Msg("updated profile")
	return u, nil
}

// Remove deletes the entry and returns the room it was in.
// A second call reports false.
func (r *Registry) Remove(id core.ConnectionID) (ConnInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return ConnInfo{}, false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Msg("removed connection")
	return e.info(id), true
}

func (r *Registry) Get(id core.ConnectionID) (ConnInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return ConnInfo{}, false
	}
	return e.info(id), true
}

func (r *Registry) Sender(id core.ConnectionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// SetRoom points the connection at room; empty clears it.
func (r *Registry) SetRoom(id core.ConnectionID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.Room = room
	return true
}

// ClearRoom unsets the room only if it still points at room.
func (r *Registry) ClearRoom(id core.ConnectionID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok && e.Room == room {
		e.Room = ""
	}
}

func (r *Registry) Touch(id core.ConnectionID, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	if now.After(e.LastSeen) {
		e.LastSeen = now
	}
	return true
}

func (r *Registry) All() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Peer, 0, len(r.conns))
	for id, e := range r.conns {
		out = append(out, Peer{ID: id, Conn: e.Conn})
	}
	return out
}

// Stale lists connections not seen since cutoff.
func (r *Registry) Stale(cutoff time.Time) []core.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.ConnectionID
	for id, e := range r.conns {
		if e.LastSeen.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out
}

// InRoom counts connections whose current room is room.
func (r *Registry) InRoom(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.conns {
		if e.Room == room {
			n++
		}
	}
	return n
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (e *connEntry) info(id core.ConnectionID) ConnInfo {
	return ConnInfo{
		ID:       id,
		User:     e.User,
		Room:     e.Room,
		JoinedAt: e.JoinedAt,
		LastSeen: e.LastSeen,
	}
}
