package core

// LockCode is a numeric lock code. Only equality is meaningful.
type LockCode uint16

// LockState is the derived state of the slot lock
type LockState uint8

const (
	LockUnknown LockState = iota // No check has run since reset
	LockOpen
	LockClosed
)

// String returns the state name
func (s LockState) String() string {
	switch s {
	case LockOpen:
		return "open"
	case LockClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CodeSource is the code entry/storage collaborator
type CodeSource interface {
	// CurrentCode returns the code presented by the operator
	CurrentCode() LockCode

	// StoredCode returns the reference code
	StoredCode() LockCode
}

// Match reports whether the presented code opens the lock
func Match(current, stored LockCode) bool {
	return current == stored
}

// StatusEvaluator compares the current and stored code
type StatusEvaluator struct {
	codes CodeSource
}

// NewStatusEvaluator creates an evaluator reading from codes
func NewStatusEvaluator(codes CodeSource) *StatusEvaluator {
	return &StatusEvaluator{codes: codes}
}

// Evaluate reads both codes as one snapshot and compares them.
// LockCode is wider than an AVR register, so the reads are masked.
func (e *StatusEvaluator) Evaluate() bool {
	state := disableInterrupts()
	current := e.codes.CurrentCode()
	stored := e.codes.StoredCode()
	restoreInterrupts(state)

	return Match(current, stored)
}

// CodeRegister is an in-memory CodeSource for targets where the code entry
// subsystem writes codes into RAM. Setters mask interrupts; getters expect
// to be called from StatusEvaluator, which already does.
type CodeRegister struct {
	current LockCode
	stored  LockCode
}

// NewCodeRegister creates a register holding the stored reference code
func NewCodeRegister(stored LockCode) *CodeRegister {
	return &CodeRegister{stored: stored}
}

// CurrentCode implements CodeSource
func (r *CodeRegister) CurrentCode() LockCode {
	return r.current
}

// StoredCode implements CodeSource
func (r *CodeRegister) StoredCode() LockCode {
	return r.stored
}

// SetCurrent records a newly entered code
func (r *CodeRegister) SetCurrent(code LockCode) {
	state := disableInterrupts()
	r.current = code
	restoreInterrupts(state)
}

// SetStored replaces the reference code
func (r *CodeRegister) SetStored(code LockCode) {
	state := disableInterrupts()
	r.stored = code
	restoreInterrupts(state)
}

// Snapshot returns both codes read under one critical section
func (r *CodeRegister) Snapshot() (current, stored LockCode) {
	state := disableInterrupts()
	current, stored = r.current, r.stored
	restoreInterrupts(state)
	return current, stored
}
