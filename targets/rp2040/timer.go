//go:build rp2040

package main

import (
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"slotlock/core"
)

// RP2040 Timer peripheral memory map. The TinyGo runtime sleeps on alarm 0,
// so the lock timer uses alarm 3.
const (
	timerBase     = 0x40054000
	timerALARM3   = timerBase + 0x1C
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
	timerINTR     = timerBase + 0x34 // Raw interrupts, write 1 to clear
	timerINTE     = timerBase + 0x38 // Interrupt enable

	alarm3Bit = 1 << 3
	irqTimer3 = 3

	// The timer counts microseconds
	timerClockHz   = 1000000
	timerPrescaler = 16 // 62.5kHz emulated counter, 1s = 62500 counts
)

var (
	timerALARM3Reg = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM3)))
	timerRAWLReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerINTRReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerINTEReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))

	// lockTimer is the single AlarmTimer instance, reachable from the ISR
	lockTimer *AlarmTimer
)

// AlarmTimer emulates a 16-bit up-counter with overflow interrupt on top of
// the 1MHz system timer and alarm 3
type AlarmTimer struct {
	prescaler uint32
	deadline  uint32 // Alarm time of the pending overflow
	handler   func()
	inISR     bool
}

// NewAlarmTimer returns the board's lock timer
func NewAlarmTimer() *AlarmTimer {
	if lockTimer == nil {
		lockTimer = &AlarmTimer{prescaler: 1}
	}
	return lockTimer
}

// Configure implements core.HardwareTimer
func (t *AlarmTimer) Configure(prescaler uint16) {
	timerINTEReg.ClearBits(alarm3Bit)
	if prescaler == 0 {
		prescaler = 1
	}
	t.prescaler = uint32(prescaler)
}

// Load implements core.HardwareTimer. Inside the ISR the next deadline is
// counted from the previous one, so handler latency does not accumulate.
func (t *AlarmTimer) Load(count uint16) {
	span := (core.CounterRange - uint32(count)) * t.prescaler
	if t.inISR {
		t.deadline += span
	} else {
		t.deadline = timerRAWLReg.Get() + span
	}
	timerALARM3Reg.Set(t.deadline)
}

// EnableOverflow implements core.HardwareTimer
func (t *AlarmTimer) EnableOverflow(handler func()) {
	t.handler = handler

	intr := interrupt.New(irqTimer3, timerAlarmISR)
	intr.SetPriority(0xC0)
	intr.Enable()

	timerINTRReg.Set(alarm3Bit)
	timerINTEReg.SetBits(alarm3Bit)
}

// timerAlarmISR acknowledges alarm 3 and runs the overflow handler
func timerAlarmISR(interrupt.Interrupt) {
	timerINTRReg.Set(alarm3Bit)

	t := lockTimer
	if t == nil || t.handler == nil {
		return
	}
	t.inISR = true
	core.DeliverInterrupt(t.handler)
	t.inISR = false
}
