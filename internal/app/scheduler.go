package app

import (
	"sync"
	"time"

	"github.com/dkeye/runchat/internal/clock"
	"github.com/dkeye/runchat/internal/domain"
	"github.com/rs/zerolog/log"
)

type armedTimer struct {
	gen   uint64
	timer clock.Timer
}

// Scheduler keeps at most one pending expiry timer per room.
// Each arm gets a generation; a fire whose generation is no longer
// current must be ignored by the caller (see Claim).
type Scheduler struct {
	clk clock.Clock

	mu     sync.Mutex
	timers map[domain.RoomID]armedTimer
	gen    uint64
}

func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{clk: clk, timers: make(map[domain.RoomID]armedTimer)}
}

// Arm cancels any timer for room and schedules fire(gen) after ttl.
func (s *Scheduler) Arm(room domain.RoomID, ttl time.Duration, fire func(gen uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[room]; ok {
		prev.timer.Stop()
	}
	s.gen++
	gen := s.gen
	t := s.clk.AfterFunc(ttl, func() { fire(gen) })
	s.timers[room] = armedTimer{gen: gen, timer: t}
	log.Debug().Str("module", "app.scheduler").Str("room", string(room)).Dur("ttl", ttl).Uint64("gen", gen).Msg("armed expiry")
	return gen
}

func (s *Scheduler) Cancel(room domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.timers[room]
	if !ok {
		return false
	}
	prev.timer.Stop()
	delete(s.timers, room)
	log.Debug().Str("module", "app.scheduler").Str("room", string(room)).Msg("canceled expiry")
	return true
}

// Claim consumes the timer for room if gen is still the armed generation.
func (s *Scheduler) Claim(room domain.RoomID, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.timers[room]
	if !ok || cur.gen != gen {
		return false
	}
	delete(s.timers, room)
	return true
}

func (s *Scheduler) Armed(room domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[room]
	return ok
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, id)
	}
}
