//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// interruptMask stands in for the global interrupt enable bit. Holding it means
// no simulated interrupt can be delivered.
var interruptMask sync.Mutex

// disableInterrupts masks simulated interrupts until restoreInterrupts.
// Not reentrant: critical sections must not nest on the host.
func disableInterrupts() State {
	interruptMask.Lock()
	return 0
}

// restoreInterrupts unmasks simulated interrupts
func restoreInterrupts(state State) {
	interruptMask.Unlock()
}

// DeliverInterrupt runs handler the way the hardware would run an ISR: never
// while the main context is inside a critical section. Host simulations use it
// to raise timer overflows.
func DeliverInterrupt(handler func()) {
	interruptMask.Lock()
	defer interruptMask.Unlock()
	handler()
}
