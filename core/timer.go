package core

import (
	"errors"
	"time"
)

// Countdown timer geometry. The lock timer is a 16-bit up-counter that raises
// its overflow interrupt when it wraps from 0xFFFF to 0.
const (
	CounterRange = 1 << 16 // Counts per full timer cycle

	DefaultClockHz   = 16000000 // 16MHz CPU clock
	DefaultPrescaler = 1024     // clk/1024
)

var (
	ErrInvalidPrescaler = errors.New("timer prescaler must be non-zero")
	ErrInvalidClock     = errors.New("timer clock must be non-zero")
	ErrPeriodOutOfRange = errors.New("check period does not fit the 16-bit timer")
)

// HardwareTimer is the abstract countdown timer used by the periodic scheduler.
// Platform-specific implementations own the actual registers.
type HardwareTimer interface {
	// Configure selects the clock divider and stops any running count
	Configure(prescaler uint16)

	// Load writes the counter register
	Load(count uint16)

	// EnableOverflow installs handler as the overflow ISR and unmasks it.
	// The handler runs in interrupt context.
	EnableOverflow(handler func())
}

// TimerTicks converts a period to prescaled timer ticks, rounded to nearest
func TimerTicks(clockHz uint32, prescaler uint16, period time.Duration) uint64 {
	if prescaler == 0 {
		return 0
	}
	tickHz := uint64(clockHz) / uint64(prescaler)
	ns := uint64(period)
	return (tickHz*ns + uint64(time.Second)/2) / uint64(time.Second)
}

// CountdownReload returns the value loaded into the counter so that it
// overflows once per period. 16MHz / 1024 / 1s gives 49911.
func CountdownReload(clockHz uint32, prescaler uint16, period time.Duration) (uint16, error) {
	if clockHz == 0 {
		return 0, ErrInvalidClock
	}
	if prescaler == 0 {
		return 0, ErrInvalidPrescaler
	}
	if period <= 0 {
		return 0, ErrPeriodOutOfRange
	}

	ticks := TimerTicks(clockHz, prescaler, period)
	if ticks == 0 || ticks > CounterRange {
		return 0, ErrPeriodOutOfRange
	}

	return uint16(CounterRange - ticks), nil
}

// CountdownPeriod returns the real period produced by a reload value
func CountdownPeriod(clockHz uint32, prescaler uint16, reload uint16) time.Duration {
	if clockHz == 0 {
		return 0
	}
	ticks := uint64(CounterRange - uint32(reload))
	return time.Duration(ticks * uint64(prescaler) * uint64(time.Second) / uint64(clockHz))
}
