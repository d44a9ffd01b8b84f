//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// DeliverInterrupt is called from a hardware ISR. The CPU already masks
// interrupts while it runs, so the handler is invoked directly.
func DeliverInterrupt(handler func()) {
	handler()
}
