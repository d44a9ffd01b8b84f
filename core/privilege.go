package core

// PrivilegeLevel is the access tier granted to a console session
type PrivilegeLevel uint8

const (
	PrivilegeNormal PrivilegeLevel = iota
	PrivilegeRoot
)

// String returns the console user name for the level
func (p PrivilegeLevel) String() string {
	if p == PrivilegeRoot {
		return "root"
	}
	return "user"
}

// DefaultPrivilegeMask selects input pins 2, 3, 5 and 6
const DefaultPrivilegeMask = 0x6C

// Console is the interactive shell collaborator
type Console interface {
	StartSession(level PrivilegeLevel)
}

// DebugSession reports whether the debug interface finished its handshake
type DebugSession interface {
	Initialized() bool
}

// GateMode selects when the privilege gate starts a session
type GateMode uint8

const (
	// GateEdge starts one session per false->true transition of the flag
	GateEdge GateMode = iota
	// GateLevel starts a session on every poll while the flag is set
	GateLevel
)

// PrivilegeFor maps input pin levels to a privilege level
func PrivilegeFor(pins, mask uint8) PrivilegeLevel {
	if pins&mask != 0 {
		return PrivilegeRoot
	}
	return PrivilegeNormal
}

// PrivilegeGate starts console sessions at debug-session boundaries
type PrivilegeGate struct {
	input   InputBank
	debug   DebugSession
	console Console
	mask    uint8
	mode    GateMode

	active bool // flag value seen on the previous poll
}

// NewPrivilegeGate creates a gate reading mask from input
func NewPrivilegeGate(input InputBank, debug DebugSession, console Console, mask uint8, mode GateMode) *PrivilegeGate {
	return &PrivilegeGate{
		input:   input,
		debug:   debug,
		console: console,
		mask:    mask,
		mode:    mode,
	}
}

// Poll samples the debug flag once. It returns the granted level and true
// when a session was started.
func (g *PrivilegeGate) Poll() (PrivilegeLevel, bool) {
	initialized := g.debug.Initialized()
	rising := initialized && !g.active
	g.active = initialized

	if !initialized {
		return PrivilegeNormal, false
	}
	if g.mode == GateEdge && !rising {
		return PrivilegeNormal, false
	}

	level := PrivilegeFor(g.input.Read(), g.mask)
	g.console.StartSession(level)
	return level, true
}

// Active reports the flag value seen on the last poll
func (g *PrivilegeGate) Active() bool {
	return g.active
}
