package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event type codes
const (
	EvtSetup   = 1 // Hardware setup finished
	EvtCheck   = 2 // Lock state changed, Arg is the LockState
	EvtSession = 3 // Console session started, Arg is the PrivilegeLevel
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// Event is one entry of the event ring
type Event struct {
	Seq       uint32 // Monotonic event number, 0 marks an empty slot
	Type      uint8  // Event type code
	Arg       uint8  // Context-dependent value
	Overflows uint32 // Timer overflows at the time of the event
}

// EventRing keeps the most recent controller events
type EventRing struct {
	ring [EventRingSize]Event
	head uint8 // Next write position
	seq  uint32
}

// Record appends an event, overwriting the oldest one when full
func (r *EventRing) Record(eventType, arg uint8, overflows uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	r.seq++
	r.ring[r.head] = Event{
		Seq:       r.seq,
		Type:      eventType,
		Arg:       arg,
		Overflows: overflows,
	}
	r.head = (r.head + 1) % EventRingSize
}

// Snapshot returns the recorded events, oldest first
func (r *EventRing) Snapshot() []Event {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	events := make([]Event, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := r.ring[(r.head+i)%EventRingSize]
		if evt.Seq == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// Dump writes the ring, oldest first, to w
func (r *EventRing) Dump(w DebugWriter) {
	if w == nil {
		return
	}

	w("[EVENTS] === Event Ring Dump ===")
	for _, evt := range r.Snapshot() {
		w("[EVENTS] #" + utoa(evt.Seq) + " " + eventText(evt) +
			" overflows=" + utoa(evt.Overflows))
	}
	w("[EVENTS] === End Dump ===")
}

// Clear empties the ring
func (r *EventRing) Clear() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for i := range r.ring {
		r.ring[i] = Event{}
	}
	r.head = 0
}

func eventText(evt Event) string {
	switch evt.Type {
	case EvtSetup:
		return "SETUP"
	case EvtCheck:
		return "LOCK " + LockState(evt.Arg).String()
	case EvtSession:
		return "SESSION " + PrivilegeLevel(evt.Arg).String()
	default:
		return "UNKNOWN type=" + itoa(int(evt.Type))
	}
}
