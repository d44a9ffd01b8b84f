package core

// LockActuator owns the lock output bit and the display
type LockActuator struct {
	out     OutputBit
	display Display

	openMessage   string
	closedMessage string

	state   LockState
	applied uint32
}

// NewLockActuator creates an actuator. Empty messages fall back to the
// standard texts.
func NewLockActuator(out OutputBit, display Display, openMessage, closedMessage string) *LockActuator {
	if openMessage == "" {
		openMessage = OpenMessage
	}
	if closedMessage == "" {
		closedMessage = ClosedMessage
	}
	return &LockActuator{
		out:           out,
		display:       display,
		openMessage:   openMessage,
		closedMessage: closedMessage,
	}
}

// Apply drives the lock from a match result. It always rewrites the bit and
// the display, whether or not the state changed. Only the port
// read-modify-write is masked: display drivers may sleep, and the display is
// written from the main loop alone.
func (a *LockActuator) Apply(match bool) LockState {
	next, message := LockClosed, a.closedMessage
	if match {
		next, message = LockOpen, a.openMessage
	}

	state := disableInterrupts()
	// bit high releases the lock
	a.out.Set(match)
	a.state = next
	a.applied++
	restoreInterrupts(state)

	a.display.Clear()
	a.display.Write(message)
	return next
}

// State returns the last applied state
func (a *LockActuator) State() LockState {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return a.state
}

// Applied returns how many times Apply has run
func (a *LockActuator) Applied() uint32 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return a.applied
}
