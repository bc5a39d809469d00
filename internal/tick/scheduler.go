package tick

import "time"

// Tickable is anything driven at a fixed rate. OnTick must not block; a
// non-nil error is fatal and stops the loop
type Tickable interface {
	OnTick(delta time.Duration) error
}

// Scheduler calls a Tickable once per period on a Loop. Deadlines are
// absolute multiples of the period from Start, and the delta passed to
// OnTick is always the nominal period, so late ticks neither drift nor
// speed the simulation up
type Scheduler struct {
	loop     *Loop
	period   time.Duration
	target   Tickable
	deadline time.Time
	handle   *Handle
	active   bool
}

// NewScheduler creates a stopped scheduler. It panics if period <= 0
func NewScheduler(loop *Loop, period time.Duration, target Tickable) *Scheduler {
	if period <= 0 {
		panic("tick: non-positive period")
	}
	return &Scheduler{
		loop:   loop,
		period: period,
		target: target,
	}
}

// Period returns the tick period
func (s *Scheduler) Period() time.Duration {
	return s.period
}

// Running reports whether the scheduler has a tick pending or in flight
func (s *Scheduler) Running() bool {
	return s.active
}

// Start ticks once immediately and schedules the next tick one period
// later. Starting a running scheduler does nothing
func (s *Scheduler) Start() {
	if s.active {
		return
	}
	s.active = true
	s.deadline = s.loop.Now()
	s.tick()
}

// Stop cancels the pending tick. A tick already running completes; if it
// called Stop itself it is not rescheduled. Safe to call when stopped
func (s *Scheduler) Stop() {
	s.active = false
	if s.handle != nil {
		s.handle.Cancel()
		s.handle = nil
	}
}

func (s *Scheduler) tick() {
	s.handle = nil
	if err := s.target.OnTick(s.period); err != nil {
		s.active = false
		s.loop.Fail(err)
		return
	}
	if !s.active {
		return
	}
	s.deadline = s.deadline.Add(s.period)
	s.handle = s.loop.CallAt(s.deadline, s.tick)
}
