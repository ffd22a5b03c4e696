package persist_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dkeye/runchat/internal/core"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/dkeye/runchat/internal/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSource struct {
	logs map[domain.RoomID][]domain.Message
}

func (m *memSource) Logs(limit int) map[domain.RoomID][]domain.Message {
	out := make(map[domain.RoomID][]domain.Message, len(m.logs))
	for id, msgs := range m.logs {
		if len(msgs) > limit {
			msgs = msgs[len(msgs)-limit:]
		}
		out[id] = msgs
	}
	return out
}

func (m *memSource) RestoreLog(room domain.RoomID, msgs []domain.Message) bool {
	if _, ok := m.logs[room]; !ok {
		return false
	}
	m.logs[room] = msgs
	return true
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, []byte) error   { return errors.New("disk full") }
func (failingStore) Load(context.Context, string) ([]byte, error) { return nil, errors.New("io") }
func (failingStore) Close() error                                 { return nil }

func messages(room domain.RoomID, n int) []domain.Message {
	out := make([]domain.Message, n)
	for i := range out {
		out[i] = domain.Message{
			ID:        fmt.Sprintf("%s-%d", room, i),
			RoomID:    room,
			Nickname:  "kim",
			Text:      fmt.Sprintf("lap %d", i),
			Timestamp: time.Unix(int64(i), 0).UTC(),
		}
	}
	return out
}

func TestGatewayRoundTrip(t *testing.T) {
	ctx := context.Background()
	snaps := persist.NewBlobSnapshots(persist.NewMemoryStore())

	src := &memSource{logs: map[domain.RoomID][]domain.Message{
		"main":       messages("main", 150),
		"marathon":   nil,
		"room_1234a": messages("room_1234a", 3),
	}}
	gw := persist.NewGateway(src, snaps, time.Minute, 100)
	require.NoError(t, gw.Flush(ctx))

	saved, err := snaps.LoadSnapshot(ctx, "main")
	require.NoError(t, err)
	require.Len(t, saved, 100)
	assert.Equal(t, "lap 50", saved[0].Text)

	_, err = snaps.LoadSnapshot(ctx, "marathon")
	assert.ErrorIs(t, err, core.ErrSnapshotNotFound)

	fresh := &memSource{logs: map[domain.RoomID][]domain.Message{"main": nil, "marathon": nil}}
	n := persist.NewGateway(fresh, snaps, time.Minute, 100).Restore(ctx, []domain.RoomID{"main", "marathon", "track"})
	assert.Equal(t, 1, n)
	assert.Equal(t, saved, fresh.logs["main"])
	assert.Empty(t, fresh.logs["marathon"])
}

func TestGatewayCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := persist.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "main", []byte(`{not json`)))

	src := &memSource{logs: map[domain.RoomID][]domain.Message{"main": nil}}
	n := persist.NewGateway(src, persist.NewBlobSnapshots(store), 0, 0).Restore(ctx, []domain.RoomID{"main"})
	assert.Equal(t, 0, n)
	assert.Empty(t, src.logs["main"])
}

func TestGatewayFailuresAreReported(t *testing.T) {
	ctx := context.Background()
	src := &memSource{logs: map[domain.RoomID][]domain.Message{"main": messages("main", 2)}}
	gw := persist.NewGateway(src, persist.NewBlobSnapshots(failingStore{}), time.Minute, 10)

	assert.Error(t, gw.Flush(ctx))
	assert.Equal(t, 0, gw.Restore(ctx, []domain.RoomID{"main"}))
	assert.Len(t, src.logs["main"], 2)
}

func TestGatewayRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &memSource{logs: map[domain.RoomID][]domain.Message{}}
	gw := persist.NewGateway(src, persist.NewBlobSnapshots(persist.NewMemoryStore()), time.Millisecond, 10)

	done := make(chan error, 1)
	go func() { done <- gw.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
