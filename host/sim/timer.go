// Package sim is a software model of the lock board: a 16-bit countdown
// timer with overflow interrupt, two 8-bit GPIO banks, a character LCD and
// the debug-session flag. It drives the real core.Controller.
package sim

import (
	"sync"
	"time"

	"slotlock/core"
)

// Timer16 models an 8-bit AVR style 16-bit timer: the counter counts up once
// per prescaled clock and raises the overflow interrupt when it wraps.
type Timer16 struct {
	mu sync.Mutex

	clockHz   uint32
	prescaler uint16
	counter   uint32 // 0..0xFFFF
	residue   uint64 // clock cycles not yet worth a tick
	handler   func()
	fired     uint64
}

// NewTimer16 creates a stopped timer clocked at clockHz
func NewTimer16(clockHz uint32) *Timer16 {
	return &Timer16{clockHz: clockHz}
}

// Configure implements core.HardwareTimer
func (t *Timer16) Configure(prescaler uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prescaler = prescaler
	t.residue = 0
}

// Load implements core.HardwareTimer
func (t *Timer16) Load(count uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counter = uint32(count)
}

// EnableOverflow implements core.HardwareTimer
func (t *Timer16) EnableOverflow(handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

// Counter returns the current counter value
func (t *Timer16) Counter() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return uint16(t.counter)
}

// Fired returns how many overflow interrupts were delivered
func (t *Timer16) Fired() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Advance runs the timer for d of simulated time and returns the number of
// overflow interrupts delivered
func (t *Timer16) Advance(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	sec := uint64(d / time.Second)
	frac := uint64(d % time.Second)
	cycles := sec*uint64(t.clockHz) + frac*uint64(t.clockHz)/uint64(time.Second)
	return t.AdvanceClock(cycles)
}

// AdvanceClock runs the timer for the given number of input clock cycles.
// Interrupts are delivered with the timer unlocked, because the handler
// reloads the counter.
func (t *Timer16) AdvanceClock(cycles uint64) int {
	fired := 0

	t.mu.Lock()
	if t.prescaler == 0 {
		t.mu.Unlock()
		return 0
	}
	t.residue += cycles
	for {
		div := uint64(t.prescaler)
		ticks := t.residue / div
		remaining := uint64(core.CounterRange) - uint64(t.counter)
		if ticks < remaining {
			t.counter += uint32(ticks)
			t.residue -= ticks * div
			break
		}

		t.residue -= remaining * div
		t.counter = 0
		handler := t.handler
		if handler == nil {
			continue
		}
		t.fired++
		t.mu.Unlock()
		core.DeliverInterrupt(handler)
		fired++
		t.mu.Lock()
	}
	t.mu.Unlock()
	return fired
}

// Overflow forces the counter to wrap now and delivers the interrupt, if
// enabled
func (t *Timer16) Overflow() bool {
	t.mu.Lock()
	handler := t.handler
	t.counter = 0
	t.residue = 0
	if handler != nil {
		t.fired++
	}
	t.mu.Unlock()

	if handler == nil {
		return false
	}
	core.DeliverInterrupt(handler)
	return true
}
