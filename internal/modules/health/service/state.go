package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected   atomic.Bool
	lastEventUnix atomic.Int64 // unix seconds последней ликвидации из стрима
	openPositions atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) TouchEvent(t time.Time) { s.lastEventUnix.Store(t.Unix()) }
func (s *State) LastEvent() time.Time {
	u := s.lastEventUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) SetOpenPositions(n int) { s.openPositions.Store(int64(n)) }
func (s *State) OpenPositions() int     { return int(s.openPositions.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
