package core

// MockTimer is a test HardwareTimer. Overflow simulates the counter wrapping.
type MockTimer struct {
	prescaler uint16
	counter   uint16
	loads     []uint16
	handler   func()
}

func (m *MockTimer) Configure(prescaler uint16) {
	m.prescaler = prescaler
}

func (m *MockTimer) Load(count uint16) {
	m.counter = count
	m.loads = append(m.loads, count)
}

func (m *MockTimer) EnableOverflow(handler func()) {
	m.handler = handler
}

// Overflow delivers one overflow interrupt, if enabled
func (m *MockTimer) Overflow() {
	if m.handler == nil {
		return
	}
	m.counter = 0
	DeliverInterrupt(m.handler)
}

// MockPort is a test 8-bit bank
type MockPort struct {
	ddr    uint8
	latch  uint8
	pins   uint8 // Externally driven input levels
	writes int
}

func (m *MockPort) ConfigureOutput() { m.ddr = 0xFF }
func (m *MockPort) ConfigureInput()  { m.ddr = 0x00 }

func (m *MockPort) Write(value uint8) {
	m.latch = value
	m.writes++
}

func (m *MockPort) SetBits(mask uint8) {
	m.latch |= mask
	m.writes++
}

func (m *MockPort) ClearBits(mask uint8) {
	m.latch &^= mask
	m.writes++
}

func (m *MockPort) Read() uint8 {
	return (m.latch & m.ddr) | (m.pins &^ m.ddr)
}

// MockDisplay records what a character display would show
type MockDisplay struct {
	initialized bool
	cursor      bool
	blink       bool
	text        string
	clears      int
	writes      []string
}

func (m *MockDisplay) Init() { m.initialized = true }

func (m *MockDisplay) Clear() {
	m.text = ""
	m.clears++
}

func (m *MockDisplay) Write(text string) {
	m.text += text
	m.writes = append(m.writes, text)
}

func (m *MockDisplay) SetCursor(visible, blink bool) {
	m.cursor = visible
	m.blink = blink
}

// MockDebug is a settable debug-session flag
type MockDebug struct {
	set bool
}

func (m *MockDebug) Initialized() bool { return m.set }

// MockConsole records started sessions
type MockConsole struct {
	sessions []PrivilegeLevel
}

func (m *MockConsole) StartSession(level PrivilegeLevel) {
	m.sessions = append(m.sessions, level)
}

type mockBoard struct {
	timer   *MockTimer
	output  *MockPort
	input   *MockPort
	display *MockDisplay
	codes   *CodeRegister
	debug   *MockDebug
	console *MockConsole
}

func newMockBoard() *mockBoard {
	return &mockBoard{
		timer:   &MockTimer{},
		output:  &MockPort{},
		input:   &MockPort{},
		display: &MockDisplay{},
		codes:   NewCodeRegister(7331),
		debug:   &MockDebug{},
		console: &MockConsole{},
	}
}

func (b *mockBoard) hardware() Hardware {
	return Hardware{
		Timer:   b.timer,
		Output:  b.output,
		Input:   b.input,
		Display: b.display,
		Codes:   b.codes,
		Debug:   b.debug,
		Console: b.console,
	}
}
