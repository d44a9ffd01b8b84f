package core

import "sync/atomic"

// PeriodicScheduler owns the countdown timer and turns each overflow into a
// lock check request for the main loop.
type PeriodicScheduler struct {
	timer     HardwareTimer
	prescaler uint16
	reload    uint16

	pending   uint32 // 1 while a check request is waiting
	overflows uint32
	started   bool
}

// NewPeriodicScheduler creates a scheduler; call Start to arm the timer
func NewPeriodicScheduler(timer HardwareTimer, prescaler, reload uint16) *PeriodicScheduler {
	return &PeriodicScheduler{
		timer:     timer,
		prescaler: prescaler,
		reload:    reload,
	}
}

// Start configures the timer and enables its overflow interrupt.
// Must be called with interrupts disabled.
func (s *PeriodicScheduler) Start() {
	if s.started {
		return
	}
	s.started = true

	s.timer.Configure(s.prescaler)
	s.timer.Load(s.reload)
	s.timer.EnableOverflow(s.onOverflow)
}

// onOverflow is the timer ISR. Reload first so the time spent here does not
// stretch the next period.
func (s *PeriodicScheduler) onOverflow() {
	s.timer.Load(s.reload)
	atomic.AddUint32(&s.overflows, 1)
	atomic.StoreUint32(&s.pending, 1)
}

// TakeRequest consumes a pending check request. Overflows that arrive before
// the main loop gets here collapse into a single request.
func (s *PeriodicScheduler) TakeRequest() bool {
	return atomic.CompareAndSwapUint32(&s.pending, 1, 0)
}

// Overflows returns the number of timer overflows handled so far
func (s *PeriodicScheduler) Overflows() uint32 {
	return atomic.LoadUint32(&s.overflows)
}

// Reload returns the constant written to the counter on every overflow
func (s *PeriodicScheduler) Reload() uint16 {
	return s.reload
}
