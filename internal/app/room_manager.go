package app

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	nanoid "github.com/jaevor/go-nanoid"
)

type RoomManager struct {
	mu           sync.RWMutex
	rooms        map[domain.RoomID]*core.Room
	historyLimit int
}

func NewRoomManager(historyLimit int) *RoomManager {
	return &RoomManager{
		rooms:        make(map[domain.RoomID]*core.Room),
		historyLimit: historyLimit,
	}
}

// Create registers a room. An empty id is replaced with a generated one.
func (m *RoomManager) Create(meta domain.Room) (*core.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := strings.TrimSpace(string(meta.Name))
	if name == "" {
		return nil, core.ErrInvalidRoomName
	}
	for _, r := range m.rooms {
		if string(r.Meta().Name) == name {
			return nil, core.ErrDuplicateName
		}
	}
	meta.Name = domain.RoomName(name)

	if meta.ID == "" {
		for {
			meta.ID = newRoomID()
			if _, taken := m.rooms[meta.ID]; !taken {
				break
			}
		}
	} else if _, taken := m.rooms[meta.ID]; taken {
		return nil, core.ErrDuplicateName
	}

	room := core.NewRoom(meta, m.historyLimit)
	m.rooms[meta.ID] = room
	return room, nil
}

func (m *RoomManager) Get(id domain.RoomID) (*core.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

func (m *RoomManager) Delete(id domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return false
	}
	delete(m.rooms, id)
	return true
}

// List returns room metadata, permanent rooms first then by creation time.
func (m *RoomManager) List(includePrivate bool) []core.RoomInfo {
	rooms := m.All()
	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		if r.Meta().Private && !includePrivate {
			continue
		}
		out = append(out, r.Info())
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int {
		if a.Permanent != b.Permanent {
			if a.Permanent {
				return -1
			}
			return 1
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (m *RoomManager) All() []*core.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}

func (m *RoomManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

var roomSuffix = mustHexID(8)

func mustHexID(n int) func() string {
	gen, err := nanoid.CustomASCII("0123456789abcdef", n)
	if err != nil {
		panic(err)
	}
	return gen
}

func newRoomID() domain.RoomID {
	return domain.RoomID("room_" + roomSuffix())
}
